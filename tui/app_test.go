package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"courierflow/admin"
	"courierflow/agent"
	"courierflow/api"
	"courierflow/auth"
	"courierflow/backendtest"
	"courierflow/customer"
	"courierflow/parcel"
	"courierflow/realtime"
)

func newTestApp(t *testing.T) (App, *backendtest.Server) {
	t.Helper()
	backend := backendtest.New("tok")
	t.Cleanup(backend.Close)

	backend.SeedUser(backendtest.UserDoc{
		ID: "a1", FirstName: "Sam", LastName: "Reyes", Email: "sam@courier.test", Role: "agent",
	}, "secret")
	backend.SeedUser(backendtest.UserDoc{
		ID: "u1", FirstName: "Root", LastName: "Admin", Email: "root@courier.test", Role: "admin",
	}, "secret")
	backend.SeedUser(backendtest.UserDoc{
		ID: "c1", FirstName: "Rina", LastName: "Das", Email: "rina@courier.test", Role: "customer",
	}, "secret")
	backend.SeedParcel(backendtest.ParcelDoc{
		ID: "p1", RecipientName: "Nadia", RecipientAddress: "12 Lake Road",
		Weight: 2, Type: "Box", Status: "assigned", DeliveryCharge: 250,
	})
	backend.SeedParcel(backendtest.ParcelDoc{
		ID: "p2", RecipientName: "Omar", RecipientAddress: "4 Hill Street",
		Weight: 1, Type: "Document", Status: "pending", DeliveryCharge: 150,
	})

	client, err := api.NewClient(backend.URL())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	session := auth.NewSession()
	services := Services{
		Session:   session,
		Auth:      auth.NewService(client),
		Admin:     admin.NewService(client, parcel.NewRegistry()),
		Agent:     agent.NewService(client, parcel.NewRegistry()),
		Customer:  customer.NewService(client, parcel.NewRegistry()),
		Transport: client,
		ExportDir: t.TempDir(),
	}
	return NewApp(services), backend
}

// step runs one message through the app and executes the returned command
// synchronously, feeding resulting messages back until none remain.
func step(t *testing.T, app App, msg tea.Msg) App {
	t.Helper()
	for msg != nil {
		model, cmd := app.Update(msg)
		app = model.(App)
		if cmd == nil {
			return app
		}
		msg = cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				if c == nil {
					continue
				}
				if inner := c(); inner != nil {
					app = step(t, app, inner)
				}
			}
			return app
		}
	}
	return app
}

func login(t *testing.T, app App, email string) App {
	t.Helper()
	msg := submitLogin(app.services, email, "secret")()
	if _, ok := msg.(sessionStartedMsg); !ok {
		t.Fatalf("login as %s: %v", email, msg)
	}
	return step(t, app, msg)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApp_AgentDashboardAfterLogin(t *testing.T) {
	app, _ := newTestApp(t)

	app = login(t, app, "sam@courier.test")
	if app.active != viewAgent {
		t.Fatalf("active view = %d, want agent", app.active)
	}

	view := app.View()
	if !strings.Contains(view, "Sam Reyes") {
		t.Fatalf("agent view does not greet the agent:\n%s", view)
	}
	if !strings.Contains(view, "Nadia") || !strings.Contains(view, "assigned") {
		t.Fatalf("agent view missing the job row:\n%s", view)
	}
}

func TestApp_LoginFailureStaysOnForm(t *testing.T) {
	app, _ := newTestApp(t)

	msg := submitLogin(app.services, "sam@courier.test", "wrong")()
	app = step(t, app, msg)

	if app.active != viewLogin {
		t.Fatalf("active view = %d, want login", app.active)
	}
	if !strings.Contains(app.View(), "invalid credentials") {
		t.Fatalf("error not surfaced:\n%s", app.View())
	}
}

func TestApp_AgentAdvancesStatus(t *testing.T) {
	app, _ := newTestApp(t)
	app = login(t, app, "sam@courier.test")

	app = step(t, app, keyRunes("s"))
	view := app.View()
	if !strings.Contains(view, "picked_up") {
		t.Fatalf("status did not advance:\n%s", view)
	}

	app = step(t, app, keyRunes("s"))
	if !strings.Contains(app.View(), "in_transit") {
		t.Fatalf("status did not advance twice:\n%s", app.View())
	}
}

func TestApp_CustomerBookingFormEstimatesCharge(t *testing.T) {
	app, _ := newTestApp(t)
	app = login(t, app, "rina@courier.test")
	if app.active != viewCustomer {
		t.Fatalf("active view = %d, want customer", app.active)
	}

	app = step(t, app, keyRunes("b"))
	if !app.cust.formOpen() {
		t.Fatal("booking form did not open")
	}

	app = step(t, app, keyRunes("Nadia"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = step(t, app, keyRunes("0170000000"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = step(t, app, keyRunes("12 Lake Road"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = step(t, app, keyRunes("2.5"))

	if !strings.Contains(app.View(), "300") {
		t.Fatalf("live estimate missing:\n%s", app.View())
	}

	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.cust.formOpen() {
		t.Fatal("form still open after booking")
	}
	view := app.View()
	if !strings.Contains(view, "Nadia") || !strings.Contains(view, "pending") {
		t.Fatalf("booking missing from list:\n%s", view)
	}
}

func TestApp_RegistrationFlow(t *testing.T) {
	app, _ := newTestApp(t)

	app = step(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !strings.Contains(app.View(), "create account") {
		t.Fatalf("register form did not open:\n%s", app.View())
	}

	for _, field := range []string{"Tanvir", "Ahmed", "tanvir@courier.test", "01711111111", "pass123"} {
		app = step(t, app, keyRunes(field))
		app = step(t, app, tea.KeyMsg{Type: tea.KeyTab})
	}
	app = step(t, app, keyRunes("pass123"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	view := app.View()
	if !strings.Contains(view, "verify email") || !strings.Contains(view, "tanvir@courier.test") {
		t.Fatalf("otp step did not open:\n%s", view)
	}

	app = step(t, app, keyRunes("123456"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	view = app.View()
	if !strings.Contains(view, "sign in") || !strings.Contains(view, "account verified") {
		t.Fatalf("verification did not return to sign-in:\n%s", view)
	}
	if app.active != viewLogin {
		t.Fatalf("active view = %d, want login", app.active)
	}
}

func TestApp_RegistrationRejectedOTPStaysOnForm(t *testing.T) {
	app, backend := newTestApp(t)
	backend.RejectPath("/authentication/verifybyotp")

	app = step(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	for _, field := range []string{"Tanvir", "Ahmed", "tanvir@courier.test", "01711111111", "pass123"} {
		app = step(t, app, keyRunes(field))
		app = step(t, app, tea.KeyMsg{Type: tea.KeyTab})
	}
	app = step(t, app, keyRunes("pass123"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	app = step(t, app, keyRunes("000000"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	view := app.View()
	if !strings.Contains(view, "verify email") {
		t.Fatalf("rejected otp left the flow:\n%s", view)
	}
	if !strings.Contains(view, "request failed") {
		t.Fatalf("rejection not surfaced:\n%s", view)
	}
}

func TestApp_PasswordResetFlow(t *testing.T) {
	app, _ := newTestApp(t)

	app = step(t, app, tea.KeyMsg{Type: tea.KeyCtrlF})
	if !strings.Contains(app.View(), "forgot password") {
		t.Fatalf("forgot-password form did not open:\n%s", app.View())
	}

	app = step(t, app, keyRunes("rina@courier.test"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(app.View(), "verify reset code") {
		t.Fatalf("reset otp step did not open:\n%s", app.View())
	}

	app = step(t, app, keyRunes("123456"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(app.View(), "new password") {
		t.Fatalf("new-password step did not open:\n%s", app.View())
	}

	app = step(t, app, keyRunes("fresh-pass"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = step(t, app, keyRunes("fresh-pass"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	view := app.View()
	if !strings.Contains(view, "sign in") || !strings.Contains(view, "password updated") {
		t.Fatalf("reset did not return to sign-in:\n%s", view)
	}
}

func TestApp_AdminTabsAndReport(t *testing.T) {
	app, _ := newTestApp(t)
	app = login(t, app, "root@courier.test")
	if app.active != viewAdmin {
		t.Fatalf("active view = %d, want admin", app.active)
	}

	view := app.View()
	if !strings.Contains(view, "total parcels") || !strings.Contains(view, "400") {
		t.Fatalf("report tab missing counts:\n%s", view)
	}

	app = step(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if !strings.Contains(app.View(), "Nadia") {
		t.Fatalf("parcels tab missing rows:\n%s", app.View())
	}

	app = step(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if !strings.Contains(app.View(), "rina@courier.test") {
		t.Fatalf("users tab missing rows:\n%s", app.View())
	}
}

func TestApp_AdminAssignsAgent(t *testing.T) {
	app, _ := newTestApp(t)
	app = login(t, app, "root@courier.test")

	app = step(t, app, tea.KeyMsg{Type: tea.KeyTab}) // parcels tab
	app = step(t, app, keyRunes("j"))                // the pending parcel
	app = step(t, app, keyRunes("a"))
	app = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	view := app.View()
	if !strings.Contains(view, "Sam Reyes") {
		t.Fatalf("assignment not reflected:\n%s", view)
	}
	if got, _ := app.services.Admin.Registry().Get("p2"); got.Status != parcel.StatusAssigned {
		t.Fatalf("parcel p2 status = %s after assignment", got.Status)
	}
}

func TestApp_AdminExportsBothFormats(t *testing.T) {
	app, _ := newTestApp(t)
	app = login(t, app, "root@courier.test")

	app = step(t, app, keyRunes("e"))
	if !strings.Contains(app.View(), "parcel-report.csv") {
		t.Fatalf("csv export not confirmed:\n%s", app.View())
	}
	if _, err := os.Stat(filepath.Join(app.services.ExportDir, "parcel-report.csv")); err != nil {
		t.Fatalf("csv file: %v", err)
	}

	app = step(t, app, keyRunes("E"))
	if !strings.Contains(app.View(), "parcel-report.pdf") {
		t.Fatalf("pdf export not confirmed:\n%s", app.View())
	}
	if _, err := os.Stat(filepath.Join(app.services.ExportDir, "parcel-report.pdf")); err != nil {
		t.Fatalf("pdf file: %v", err)
	}
}

func TestApp_UnauthorizedRedirectsToLogin(t *testing.T) {
	app, _ := newTestApp(t)
	app = login(t, app, "sam@courier.test")

	app = step(t, app, errMsg{err: api.ErrUnauthorized})
	if app.active != viewLogin {
		t.Fatalf("active view = %d, want login after unauthorized", app.active)
	}
	if app.services.Session.Authenticated() {
		t.Fatal("session survived the unauthorized redirect")
	}
}

func TestApp_RealtimeEventPatchesRegistry(t *testing.T) {
	app, backend := newTestApp(t)

	relay := realtime.New(backend.WSURL())
	app.services.Relay = relay
	app = NewApp(app.services)
	if err := relay.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer relay.Close()

	app = login(t, app, "rina@courier.test")

	// Give the server a beat to register the connection, then push a status
	// change the customer dashboard should absorb.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if err := backend.Broadcast(realtime.EventStatusUpdated, realtime.StatusUpdate{
			ParcelID: "p1", Status: "delivered",
		}); err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
		got, ok := app.services.Customer.Registry().Get("p1")
		if ok && got.Status == parcel.StatusDelivered {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	got, _ := app.services.Customer.Registry().Get("p1")
	t.Fatalf("realtime patch never landed, p1 status = %s", got.Status)
}

func TestApp_LogoutClearsSession(t *testing.T) {
	app, _ := newTestApp(t)
	app = login(t, app, "sam@courier.test")

	app = step(t, app, tea.KeyMsg{Type: tea.KeyCtrlL})
	if app.active != viewLogin {
		t.Fatalf("active view = %d, want login after logout", app.active)
	}
	if app.services.Session.Authenticated() {
		t.Fatal("session survived logout")
	}
}
