package customer

import (
	"context"
	"errors"
	"testing"

	"courierflow/parcel"
)

type fakeAPI struct {
	booked     []parcel.BookingRequest
	bookResult parcel.Parcel
	bookErr    error
	parcels    []parcel.Parcel
	parcelsErr error
}

func (f *fakeAPI) BookParcel(_ context.Context, req parcel.BookingRequest) (parcel.Parcel, error) {
	f.booked = append(f.booked, req)
	if f.bookErr != nil {
		return parcel.Parcel{}, f.bookErr
	}
	return f.bookResult, nil
}

func (f *fakeAPI) MyParcels(context.Context) ([]parcel.Parcel, error) {
	if f.parcelsErr != nil {
		return nil, f.parcelsErr
	}
	return f.parcels, nil
}

func validBooking() parcel.BookingRequest {
	return parcel.BookingRequest{
		RecipientName:    "Nadia",
		RecipientPhone:   "0170000000",
		RecipientAddress: "12 Lake Road",
		WeightKg:         2.5,
		Type:             parcel.TypeBox,
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*parcel.BookingRequest)
		want   error
	}{
		{"valid", func(*parcel.BookingRequest) {}, nil},
		{"missing name", func(r *parcel.BookingRequest) { r.RecipientName = " " }, ErrMissingRecipient},
		{"missing phone", func(r *parcel.BookingRequest) { r.RecipientPhone = "" }, ErrMissingRecipient},
		{"missing address", func(r *parcel.BookingRequest) { r.RecipientAddress = "" }, ErrMissingRecipient},
		{"zero weight", func(r *parcel.BookingRequest) { r.WeightKg = 0 }, ErrInvalidWeight},
		{"negative weight", func(r *parcel.BookingRequest) { r.WeightKg = -1 }, ErrInvalidWeight},
		{"bad type", func(r *parcel.BookingRequest) { r.Type = parcel.Type("crate") }, ErrInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validBooking()
			tc.mutate(&req)
			if err := Validate(req); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestService_BookAddsToRegistry(t *testing.T) {
	api := &fakeAPI{bookResult: parcel.Parcel{ID: "p9", Status: parcel.StatusPending, DeliveryCharge: 300}}
	reg := parcel.NewRegistry()
	reg.Seed([]parcel.Parcel{{ID: "p1", Status: parcel.StatusDelivered}})
	svc := NewService(api, reg)

	booked, err := svc.Book(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if booked.ID != "p9" || booked.DeliveryCharge != 300 {
		t.Fatalf("unexpected booking result: %+v", booked)
	}
	snap := reg.Snapshot()
	if len(snap) != 2 || snap[0].ID != "p1" || snap[1].ID != "p9" {
		t.Fatalf("registry after booking: %+v", snap)
	}
}

func TestService_BookRejectsInvalidWithoutDispatch(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, parcel.NewRegistry())

	req := validBooking()
	req.WeightKg = 0
	if _, err := svc.Book(context.Background(), req); !errors.Is(err, ErrInvalidWeight) {
		t.Fatalf("Book error = %v, want ErrInvalidWeight", err)
	}
	if len(api.booked) != 0 {
		t.Fatalf("invalid booking reached the transport: %+v", api.booked)
	}
}

func TestService_BookFailureLeavesRegistry(t *testing.T) {
	api := &fakeAPI{bookErr: errors.New("boom")}
	reg := parcel.NewRegistry()
	svc := NewService(api, reg)

	if _, err := svc.Book(context.Background(), validBooking()); err == nil {
		t.Fatal("expected booking error")
	}
	if reg.Len() != 0 {
		t.Fatalf("registry modified on failed booking: %+v", reg.Snapshot())
	}
}

func TestService_LoadParcels(t *testing.T) {
	api := &fakeAPI{parcels: []parcel.Parcel{
		{ID: "p1", Status: parcel.StatusPending},
		{ID: "p2", Status: parcel.StatusInTransit},
	}}
	reg := parcel.NewRegistry()
	svc := NewService(api, reg)

	if err := svc.LoadParcels(context.Background()); err != nil {
		t.Fatalf("LoadParcels: %v", err)
	}
	snap := reg.Snapshot()
	if len(snap) != 2 || snap[0].ID != "p1" || snap[1].ID != "p2" {
		t.Fatalf("registry after load: %+v", snap)
	}

	api.parcelsErr = errors.New("down")
	if err := svc.LoadParcels(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestRoom(t *testing.T) {
	if got := Room("u42"); got != "customer_u42" {
		t.Fatalf("Room = %q", got)
	}
}
