package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"courierflow/auth"
	"courierflow/backendtest"
	"courierflow/parcel"
)

func newTestClient(t *testing.T) (*Client, *backendtest.Server) {
	t.Helper()

	backend := backendtest.New("tok")
	t.Cleanup(backend.Close)

	backend.SeedUser(backendtest.UserDoc{
		ID: "u1", FirstName: "Sam", LastName: "Akter", Email: "a@x.com", Role: "agent",
	}, "secret")
	backend.SeedUser(backendtest.UserDoc{
		ID: "u2", FirstName: "Root", Email: "admin@x.com", Role: "admin",
	}, "adminpw")
	backend.SeedParcel(backendtest.ParcelDoc{
		ID: "p1", RecipientName: "Rina", RecipientAddress: "House 7, Dhanmondi, Dhaka",
		Weight: 2, Type: "Box", Status: "pending", DeliveryCharge: 250,
	})

	client, err := NewClient(backend.URL())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, backend
}

func TestClient_Login(t *testing.T) {
	client, _ := newTestClient(t)

	result, err := client.Login(context.Background(), "a@x.com", "secret")
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if result.Token != "tok" {
		t.Fatalf("expected token %q got %q", "tok", result.Token)
	}
	if result.User.FirstName != "Sam" || result.User.Role != auth.RoleAgent {
		t.Fatalf("unexpected user %+v", result.User)
	}
}

func TestClient_LoginInvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Login(context.Background(), "a@x.com", "wrong")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestClient_UnauthorizedWithoutToken(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.AdminParcels(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_DecodesBothPayloadShapes(t *testing.T) {
	client, _ := newTestClient(t)
	client.SetToken("tok")

	// Bare array shape.
	parcels, err := client.AdminParcels(context.Background())
	if err != nil {
		t.Fatalf("admin parcels: %v", err)
	}
	if len(parcels) != 1 || parcels[0].ID != "p1" {
		t.Fatalf("unexpected parcels %+v", parcels)
	}
	if parcels[0].Status != parcel.StatusPending {
		t.Fatalf("expected status pending got %s", parcels[0].Status)
	}

	// Enveloped {success, data} shape.
	users, err := client.AdminUsers(context.Background())
	if err != nil {
		t.Fatalf("admin users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users got %d", len(users))
	}

	jobs, err := client.MyJobs(context.Background())
	if err != nil {
		t.Fatalf("my jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job got %d", len(jobs))
	}
}

func TestClient_BookParcel(t *testing.T) {
	client, backend := newTestClient(t)
	client.SetToken("tok")

	booked, err := client.BookParcel(context.Background(), parcel.BookingRequest{
		RecipientName:    "Karim",
		RecipientPhone:   "017xxxxxxxx",
		RecipientAddress: "Road 4, Banani, Dhaka",
		WeightKg:         2.5,
		Type:             parcel.TypeFragile,
	})
	if err != nil {
		t.Fatalf("book: unexpected error: %v", err)
	}
	if booked.ID == "" {
		t.Fatal("expected server-assigned parcel id")
	}
	if booked.Status != parcel.StatusPending {
		t.Fatalf("expected fresh booking pending got %s", booked.Status)
	}
	if booked.DeliveryCharge != 300 {
		t.Fatalf("expected binding charge 300 got %v", booked.DeliveryCharge)
	}
	if backend.Booked() != 1 {
		t.Fatalf("expected 1 booking recorded got %d", backend.Booked())
	}
}

func TestClient_StatusAndLocationCommands(t *testing.T) {
	client, _ := newTestClient(t)
	client.SetToken("tok")
	ctx := context.Background()

	if err := client.UpdateStatus(ctx, "p1", parcel.StatusPickedUp); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := client.UpdateLocation(ctx, "p1", 23.8103, 90.4125); err != nil {
		t.Fatalf("update location: %v", err)
	}

	parcels, err := client.AdminParcels(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	p := parcels[0]
	if p.Status != parcel.StatusPickedUp {
		t.Fatalf("expected picked_up got %s", p.Status)
	}
	if p.LiveLocation == nil || p.LiveLocation.Lat != 23.8103 {
		t.Fatalf("expected live location applied, got %+v", p.LiveLocation)
	}
}

func TestClient_AssignAgentAndDeleteUser(t *testing.T) {
	client, _ := newTestClient(t)
	client.SetToken("tok")
	ctx := context.Background()

	if err := client.AssignAgent(ctx, "p1", "u1"); err != nil {
		t.Fatalf("assign agent: %v", err)
	}
	parcels, _ := client.AdminParcels(ctx)
	if parcels[0].AssignedAgent == nil || parcels[0].AssignedAgent.ID != "u1" {
		t.Fatalf("expected agent u1 attached, got %+v", parcels[0].AssignedAgent)
	}
	if parcels[0].Status != parcel.StatusAssigned {
		t.Fatalf("expected assigned got %s", parcels[0].Status)
	}

	if err := client.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	users, _ := client.AdminUsers(ctx)
	for _, u := range users {
		if u.ID == "u1" {
			t.Fatal("expected u1 removed")
		}
	}
}

func TestClient_ExportReport(t *testing.T) {
	client, _ := newTestClient(t)
	client.SetToken("tok")

	blob, err := client.ExportReport(context.Background(), "csv")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if !strings.HasPrefix(string(blob), "recipient,status") {
		t.Fatalf("unexpected csv blob %q", blob)
	}

	if _, err := client.ExportReport(context.Background(), "xlsx"); err == nil {
		t.Fatal("expected unknown format rejected")
	}
}

func TestClient_SuccessFalseIsRejection(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	// The OTP endpoints reply 200 {"success":false} with no error message
	// when the code is wrong; that must not look like a success.
	backend.RejectPath("/authentication/verifybyotp")
	backend.RejectPath("/authentication/verify-reset-otp")

	if err := client.VerifyRegistration(ctx, "a@x.com", "000000"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("verify registration: expected ErrRequestFailed, got %v", err)
	}
	if err := client.VerifyResetOTP(ctx, "a@x.com", "000000"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("verify reset otp: expected ErrRequestFailed, got %v", err)
	}

	// The flag also gates enveloped payload fetches.
	client.SetToken("tok")
	backend.RejectPath("/customer/my-parcels")
	if _, err := client.MyParcels(ctx); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("my parcels: expected ErrRequestFailed, got %v", err)
	}
}

func TestClient_ServerErrorSurfaced(t *testing.T) {
	client, backend := newTestClient(t)
	client.SetToken("tok")
	backend.FailPath("/admin/agents", 500)

	_, err := client.AdminAgents(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}
