// Package tui renders the courier client in the terminal: a login form
// followed by one of three role dashboards, kept live by the realtime relay.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"courierflow/admin"
	"courierflow/agent"
	"courierflow/api"
	"courierflow/auth"
	"courierflow/customer"
	"courierflow/parcel"
	"courierflow/realtime"
)

// Services bundles everything the views operate on. Relay and Publisher may
// be nil, in which case realtime updates and location publishing are off.
type Services struct {
	Session  *auth.Session
	Auth     *auth.Service
	Admin    *admin.Service
	Agent    *agent.Service
	Customer *customer.Service

	Publisher *agent.Publisher
	Relay     *realtime.Relay

	// Transport is used to install and clear the bearer token around
	// login and logout.
	Transport *api.Client

	// ExportDir is where report downloads land.
	ExportDir string
}

type view int

const (
	viewLogin view = iota
	viewAdmin
	viewAgent
	viewCustomer
)

// sessionStartedMsg is sent after a successful login.
type sessionStartedMsg struct {
	user auth.User
}

// dataLoadedMsg is sent when a role view's initial fetch completes.
type dataLoadedMsg struct{}

// registryPatchedMsg is sent when a realtime event patched the registry, so
// the active view re-renders.
type registryPatchedMsg struct{}

// relayDownMsg is sent when the relay exhausts its reconnect budget.
type relayDownMsg struct {
	err error
}

// exportDoneMsg is sent when a report download finished.
type exportDoneMsg struct {
	path string
}

// errMsg carries any operation failure into the status line.
type errMsg struct {
	err error
}

// App is the top-level bubbletea model.
type App struct {
	services Services
	theme    Theme
	keys     KeyMap

	width  int
	height int

	active view
	login  LoginModel
	admin  AdminModel
	agent  AgentModel
	cust   CustomerModel

	// events carries relay callbacks into the bubbletea loop.
	events chan tea.Msg

	notice  string
	lastErr string
}

// NewApp builds the root model. The relay handlers are attached once here
// and stay attached for the process lifetime; role views decide what the
// patches mean by sharing registries with the services.
func NewApp(services Services) App {
	app := App{
		services: services,
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		active:   viewLogin,
		login:    NewLoginModel(),
		events:   make(chan tea.Msg, 16),
	}

	if services.Relay != nil {
		services.Relay.OnStatusUpdated(func(u realtime.StatusUpdate) {
			app.patchStatus(u)
		})
		services.Relay.OnLocationUpdated(func(u realtime.LocationUpdate) {
			app.patchLocation(u)
		})
		services.Relay.SetDisconnectHandler(func(err error) {
			app.push(relayDownMsg{err: err})
		})
	}
	return app
}

// patchStatus applies a realtime status event to every role registry. Only
// registries that know the parcel change; the rest no-op.
func (a App) patchStatus(u realtime.StatusUpdate) {
	status := parcel.Status(u.Status)
	a.services.Admin.Registry().ApplyStatus(u.ParcelID, status)
	a.services.Agent.Registry().ApplyStatus(u.ParcelID, status)
	a.services.Customer.Registry().ApplyStatus(u.ParcelID, status)
	a.push(registryPatchedMsg{})
}

func (a App) patchLocation(u realtime.LocationUpdate) {
	a.services.Admin.Registry().ApplyLocation(u.ParcelID, u.Lat, u.Lng)
	a.services.Agent.Registry().ApplyLocation(u.ParcelID, u.Lat, u.Lng)
	a.services.Customer.Registry().ApplyLocation(u.ParcelID, u.Lat, u.Lng)
	a.push(registryPatchedMsg{})
}

// push delivers a message into the bubbletea loop without blocking the relay
// read loop; if the buffer is full the render catches up on the next event.
func (a App) push(msg tea.Msg) {
	select {
	case a.events <- msg:
	default:
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.login.Init(), listenForEvent(a.events))
}

func listenForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a.quit()
		}
		if a.active != viewLogin {
			if key.Matches(msg, a.keys.Logout) {
				return a.logout("")
			}
			// Outside the login form there is no free-text entry except the
			// modal forms, which swallow their own keys first.
			if key.Matches(msg, a.keys.Quit) && !a.textEntryActive() {
				return a.quit()
			}
		}

	case sessionStartedMsg:
		return a.startSession(msg.user)

	case registryPatchedMsg, dataLoadedMsg:
		// The shared registries already hold the new state; re-render and
		// keep listening. The agent view also refreshes its publisher set.
		if a.active == viewAgent {
			a.agent = a.agent.jobsChanged(a)
		}
		if _, ok := msg.(registryPatchedMsg); ok {
			return a, listenForEvent(a.events)
		}
		return a, nil

	case relayDownMsg:
		a.lastErr = "realtime connection lost: " + msg.err.Error()
		return a, listenForEvent(a.events)

	case exportDoneMsg:
		a.notice = "report saved to " + msg.path
		return a.route(msg)

	case errMsg:
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return a.logout("session expired, sign in again")
		}
		a.lastErr = msg.err.Error()
		// The active view may hold busy state that the failure releases.
		return a.route(msg)
	}

	return a.route(msg)
}

// route forwards a message to the active role view.
func (a App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.active {
	case viewLogin:
		a.login, cmd = a.login.Update(msg, a)
	case viewAdmin:
		a.admin, cmd = a.admin.Update(msg, a)
	case viewAgent:
		a.agent, cmd = a.agent.Update(msg, a)
	case viewCustomer:
		a.cust, cmd = a.cust.Update(msg, a)
	}
	return a, cmd
}

// startSession switches to the role view for the logged-in user and kicks
// off its initial fetch.
func (a App) startSession(user auth.User) (tea.Model, tea.Cmd) {
	a.notice = ""
	a.lastErr = ""

	switch user.Role {
	case auth.RoleAdmin:
		a.active = viewAdmin
		a.admin = NewAdminModel()
		return a, loadAdmin(a.services)
	case auth.RoleAgent:
		a.active = viewAgent
		a.agent = NewAgentModel()
		return a, loadAgentJobs(a.services)
	default:
		a.active = viewCustomer
		a.cust = NewCustomerModel()
		var cmds []tea.Cmd
		cmds = append(cmds, loadCustomerParcels(a.services))
		if a.services.Relay != nil {
			room := customer.Room(user.ID)
			relay := a.services.Relay
			cmds = append(cmds, func() tea.Msg {
				if err := relay.JoinRoom(room); err != nil {
					return errMsg{err}
				}
				return nil
			})
		}
		return a, tea.Batch(cmds...)
	}
}

// logout clears the session and releases the location subscription. The
// publisher stays usable for a later agent login; Stop is reserved for
// process exit. Relay handlers stay attached but patch empty registries.
func (a App) logout(notice string) (tea.Model, tea.Cmd) {
	if a.services.Publisher != nil {
		a.services.Publisher.Update(nil)
	}
	a.services.Auth.Logout(a.services.Session)
	if a.services.Transport != nil {
		a.services.Transport.ClearToken()
	}
	a.services.Admin.Registry().Seed(nil)
	a.services.Agent.Registry().Seed(nil)
	a.services.Customer.Registry().Seed(nil)
	a.active = viewLogin
	a.login = NewLoginModel()
	a.notice = notice
	a.lastErr = ""
	return a, a.login.Init()
}

// textEntryActive reports whether the active view is capturing free text,
// so plain letters must not trigger global bindings.
func (a App) textEntryActive() bool {
	return a.active == viewCustomer && a.cust.formOpen()
}

func (a App) quit() (tea.Model, tea.Cmd) {
	if a.services.Publisher != nil {
		a.services.Publisher.Stop()
	}
	return a, tea.Quit
}

// View implements tea.Model.
func (a App) View() string {
	var body string
	switch a.active {
	case viewLogin:
		body = a.login.View(a)
	case viewAdmin:
		body = a.admin.View(a)
	case viewAgent:
		body = a.agent.View(a)
	case viewCustomer:
		body = a.cust.View(a)
	}

	var footer []string
	if a.notice != "" {
		footer = append(footer, a.theme.faintStyle().Render(a.notice))
	}
	if a.lastErr != "" {
		footer = append(footer, a.theme.errorStyle().Render(a.lastErr))
	}
	if len(footer) == 0 {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{body}, footer...)...)
}

// Command constructors shared by the views.

func loadAdmin(s Services) tea.Cmd {
	return func() tea.Msg {
		if err := s.Admin.Load(context.Background()); err != nil {
			return errMsg{err}
		}
		return dataLoadedMsg{}
	}
}

func loadAgentJobs(s Services) tea.Cmd {
	return func() tea.Msg {
		if err := s.Agent.LoadJobs(context.Background()); err != nil {
			return errMsg{err}
		}
		return dataLoadedMsg{}
	}
}

func loadCustomerParcels(s Services) tea.Cmd {
	return func() tea.Msg {
		if err := s.Customer.LoadParcels(context.Background()); err != nil {
			return errMsg{err}
		}
		return dataLoadedMsg{}
	}
}
