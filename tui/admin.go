package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"courierflow/admin"
)

// adminTab identifies which admin pane is active.
type adminTab int

const (
	tabReport adminTab = iota
	tabParcels
	tabUsers
	tabCount
)

var adminTabNames = [tabCount]string{"Report", "Parcels", "Users"}

// AdminModel renders the control panel: the report summary, the full parcel
// list with agent assignment, and user management.
type AdminModel struct {
	tab    adminTab
	cursor [tabCount]int

	// assigning is non-nil while picking an agent for that parcel ID.
	assigning   *string
	agentCursor int

	busy bool
}

// NewAdminModel builds the panel in its pre-fetch state.
func NewAdminModel() AdminModel {
	return AdminModel{}
}

// commandDoneMsg is sent after a confirmed admin mutation.
type commandDoneMsg struct{}

// Update handles tab switching, navigation and the admin commands.
func (m AdminModel) Update(msg tea.Msg, app App) (AdminModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.assigning != nil {
			return m.updateAssign(msg, app)
		}
		switch {
		case key.Matches(msg, app.keys.NextTab):
			m.tab = (m.tab + 1) % tabCount
		case key.Matches(msg, app.keys.Up):
			if m.cursor[m.tab] > 0 {
				m.cursor[m.tab]--
			}
		case key.Matches(msg, app.keys.Down):
			if m.cursor[m.tab] < m.rowCount(app)-1 {
				m.cursor[m.tab]++
			}
		case key.Matches(msg, app.keys.Refresh):
			return m, loadAdmin(app.services)
		case key.Matches(msg, app.keys.ExportCSV):
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, exportReport(app.services, admin.FormatCSV)
		case key.Matches(msg, app.keys.ExportPDF):
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, exportReport(app.services, admin.FormatPDF)
		case key.Matches(msg, app.keys.Assign):
			if m.tab != tabParcels || m.busy {
				return m, nil
			}
			parcels := app.services.Admin.Registry().Snapshot()
			if m.cursor[tabParcels] >= len(parcels) {
				return m, nil
			}
			id := parcels[m.cursor[tabParcels]].ID
			m.assigning = &id
			m.agentCursor = 0
		case key.Matches(msg, app.keys.Delete):
			if m.tab != tabUsers || m.busy {
				return m, nil
			}
			users := app.services.Admin.Users()
			if m.cursor[tabUsers] >= len(users) {
				return m, nil
			}
			m.busy = true
			return m, deleteUser(app.services, users[m.cursor[tabUsers]].ID)
		}

	case commandDoneMsg:
		m.busy = false
		m.assigning = nil
		return m, nil

	case exportDoneMsg:
		m.busy = false
		return m, nil

	case errMsg:
		m.busy = false
		m.assigning = nil
		return m, nil
	}
	return m, nil
}

func (m AdminModel) updateAssign(msg tea.KeyMsg, app App) (AdminModel, tea.Cmd) {
	agents := app.services.Admin.Agents()
	switch {
	case key.Matches(msg, app.keys.Back):
		m.assigning = nil
	case key.Matches(msg, app.keys.Up):
		if m.agentCursor > 0 {
			m.agentCursor--
		}
	case key.Matches(msg, app.keys.Down):
		if m.agentCursor < len(agents)-1 {
			m.agentCursor++
		}
	case key.Matches(msg, app.keys.Select):
		if m.busy || m.agentCursor >= len(agents) {
			return m, nil
		}
		m.busy = true
		return m, assignAgent(app.services, *m.assigning, agents[m.agentCursor].ID)
	}
	return m, nil
}

func (m AdminModel) rowCount(app App) int {
	switch m.tab {
	case tabParcels:
		return app.services.Admin.Registry().Len()
	case tabUsers:
		return len(app.services.Admin.Users())
	default:
		return 0
	}
}

func assignAgent(s Services, parcelID, agentID string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Admin.AssignAgent(context.Background(), parcelID, agentID); err != nil {
			return errMsg{err}
		}
		return commandDoneMsg{}
	}
}

func deleteUser(s Services, userID string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Admin.DeleteUser(context.Background(), userID); err != nil {
			return errMsg{err}
		}
		return commandDoneMsg{}
	}
}

func exportReport(s Services, format admin.ExportFormat) tea.Cmd {
	return func() tea.Msg {
		path, err := s.Admin.SaveExport(context.Background(), format, s.ExportDir)
		if err != nil {
			return errMsg{err}
		}
		return exportDoneMsg{path: path}
	}
}

// View renders the active tab.
func (m AdminModel) View(app App) string {
	var b strings.Builder
	b.WriteString(m.tabBar(app))
	b.WriteString("\n\n")

	if m.assigning != nil {
		b.WriteString(m.viewAssign(app))
	} else {
		switch m.tab {
		case tabReport:
			b.WriteString(m.viewReport(app))
		case tabParcels:
			b.WriteString(m.viewParcels(app))
		case tabUsers:
			b.WriteString(m.viewUsers(app))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(app.theme.faintStyle().Render(m.helpLine()))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m AdminModel) helpLine() string {
	if m.assigning != nil {
		return "enter assign · esc cancel"
	}
	switch m.tab {
	case tabParcels:
		return "a assign agent · e/E export · tab switch · r refresh · q quit"
	case tabUsers:
		return "d delete user · tab switch · r refresh · q quit"
	default:
		return "e export csv · E export pdf · tab switch · r refresh · ctrl+l logout · q quit"
	}
}

func (m AdminModel) tabBar(app App) string {
	parts := make([]string, 0, tabCount)
	for i, name := range adminTabNames {
		if adminTab(i) == m.tab {
			parts = append(parts, app.theme.titleStyle().Render(name))
		} else {
			parts = append(parts, app.theme.faintStyle().Render(name))
		}
	}
	return strings.Join(parts, "  |  ")
}

func (m AdminModel) viewReport(app App) string {
	if !app.services.Admin.Loaded() {
		return app.theme.faintStyle().Render("loading...")
	}
	r := app.services.Admin.Report()
	return fmt.Sprintf(
		"total parcels   %d\ndelivered       %d\npending         %d\nother           %d\ntotal charges   ৳%.0f",
		r.TotalParcels, r.Delivered, r.Pending, r.Other, r.TotalCharges)
}

func (m AdminModel) viewParcels(app App) string {
	parcels := app.services.Admin.Registry().Snapshot()
	if len(parcels) == 0 {
		return app.theme.faintStyle().Render("no parcels")
	}

	var b strings.Builder
	for i, p := range parcels {
		agentName := "—"
		if p.AssignedAgent != nil {
			agentName = p.AssignedAgent.FirstName + " " + p.AssignedAgent.LastName
		}
		line := fmt.Sprintf("%-26s %-12s %-18s %s",
			truncate(p.RecipientName+" · "+p.RecipientAddress, 26),
			app.theme.StatusBadge(p.Status),
			truncate(agentName, 18),
			chargeLabel(p))
		if i == m.cursor[tabParcels] {
			line = app.theme.selectedStyle().Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m AdminModel) viewUsers(app App) string {
	users := app.services.Admin.Users()
	if len(users) == 0 {
		return app.theme.faintStyle().Render("no users")
	}

	var b strings.Builder
	for i, u := range users {
		line := fmt.Sprintf("%-24s %-28s %s", truncate(u.FullName(), 24), truncate(u.Email, 28), u.Role)
		if i == m.cursor[tabUsers] {
			line = app.theme.selectedStyle().Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m AdminModel) viewAssign(app App) string {
	agents := app.services.Admin.Agents()
	if len(agents) == 0 {
		return app.theme.faintStyle().Render("no agents available")
	}

	var b strings.Builder
	b.WriteString("assign agent to parcel " + *m.assigning + ":\n\n")
	for i, a := range agents {
		line := a.FullName()
		if i == m.agentCursor {
			line = app.theme.selectedStyle().Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
