package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"courierflow/agent"
	"courierflow/parcel"
)

// AgentModel renders the assigned-jobs dashboard and drives status-change
// commands. The live-location publisher tracks whatever the registry holds;
// it is poked after every change to the job set.
type AgentModel struct {
	cursor int
	busy   bool
}

// NewAgentModel builds the dashboard in its pre-fetch state.
func NewAgentModel() AgentModel {
	return AgentModel{}
}

// jobsChanged re-clamps the cursor and refreshes the publisher's active set
// after the registry contents moved under the view.
func (m AgentModel) jobsChanged(app App) AgentModel {
	jobs := app.services.Agent.Registry().Snapshot()
	if m.cursor >= len(jobs) {
		m.cursor = len(jobs) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if app.services.Publisher != nil {
		app.services.Publisher.Update(jobs)
	}
	return m
}

// nextStatus is the forward step an agent applies from the dashboard.
// Terminal and unassigned parcels have no next step.
func nextStatus(s parcel.Status) (parcel.Status, bool) {
	switch s {
	case parcel.StatusAssigned:
		return parcel.StatusPickedUp, true
	case parcel.StatusPickedUp:
		return parcel.StatusInTransit, true
	case parcel.StatusInTransit:
		return parcel.StatusDelivered, true
	default:
		return "", false
	}
}

// Update handles navigation and the status commands.
func (m AgentModel) Update(msg tea.Msg, app App) (AgentModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		jobs := app.services.Agent.Registry().Snapshot()
		switch {
		case key.Matches(msg, app.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, app.keys.Down):
			if m.cursor < len(jobs)-1 {
				m.cursor++
			}
		case key.Matches(msg, app.keys.Refresh):
			return m, loadAgentJobs(app.services)
		case key.Matches(msg, app.keys.Advance):
			if m.busy || m.cursor >= len(jobs) {
				return m, nil
			}
			next, ok := nextStatus(jobs[m.cursor].Status)
			if !ok {
				return m, nil
			}
			m.busy = true
			return m, updateJobStatus(app.services, jobs[m.cursor].ID, next)
		case key.Matches(msg, app.keys.Fail):
			if m.busy || m.cursor >= len(jobs) {
				return m, nil
			}
			if jobs[m.cursor].Status.Terminal() {
				return m, nil
			}
			m.busy = true
			return m, updateJobStatus(app.services, jobs[m.cursor].ID, parcel.StatusFailed)
		}

	case jobStatusChangedMsg, errMsg:
		m.busy = false
		return m.jobsChanged(app), nil
	}
	return m, nil
}

// jobStatusChangedMsg is sent after a confirmed status command.
type jobStatusChangedMsg struct{}

func updateJobStatus(s Services, parcelID string, status parcel.Status) tea.Cmd {
	return func() tea.Msg {
		if err := s.Agent.UpdateStatus(context.Background(), parcelID, status); err != nil {
			return errMsg{err}
		}
		return jobStatusChangedMsg{}
	}
}

// View renders the job table.
func (m AgentModel) View(app App) string {
	user := app.services.Session.User()
	jobs := app.services.Agent.Registry().Snapshot()

	var b strings.Builder
	b.WriteString(app.theme.titleStyle().Render("Deliveries — " + user.FullName()))
	b.WriteString("\n\n")

	if len(jobs) == 0 {
		b.WriteString(app.theme.faintStyle().Render("no assigned parcels"))
	}
	for i, job := range jobs {
		line := fmt.Sprintf("%-28s %-12s %s",
			truncate(job.RecipientName+" · "+job.RecipientAddress, 28),
			app.theme.StatusBadge(job.Status),
			chargeLabel(job))
		if loc := job.LiveLocation; loc != nil {
			line += app.theme.faintStyle().Render(fmt.Sprintf("  @ %.4f,%.4f", loc.Lat, loc.Lng))
		}
		if i == m.cursor {
			line = app.theme.selectedStyle().Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if app.services.Publisher != nil {
		b.WriteString(publisherLabel(app))
		b.WriteString("\n")
	}
	b.WriteString(app.theme.faintStyle().Render("s advance · f fail · r refresh · ctrl+l logout · q quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func publisherLabel(app App) string {
	if app.services.Publisher.State() == agent.StateWatching {
		return app.theme.faintStyle().Render("live location: publishing")
	}
	return app.theme.faintStyle().Render("live location: idle")
}

func chargeLabel(p parcel.Parcel) string {
	return fmt.Sprintf("৳%.0f", p.DeliveryCharge)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
