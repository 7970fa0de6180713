package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"courierflow/customer"
	"courierflow/parcel"
)

// bookingForm is the modal form for creating a booking. The charge estimate
// tracks the weight field live; the binding charge comes back with the
// confirmed booking.
type bookingForm struct {
	inputs    []textinput.Model
	focus     int
	typeIndex int
	busy      bool
}

const (
	fieldRecipientName = iota
	fieldRecipientPhone
	fieldRecipientAddress
	fieldWeight
	fieldCount
)

var parcelTypes = []parcel.Type{
	parcel.TypeBox, parcel.TypeDocument, parcel.TypeFragile, parcel.TypeLiquid,
}

func newBookingForm() *bookingForm {
	labels := []string{"recipient name", "recipient phone", "recipient address", "weight (kg)"}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = labels[i]
		in.CharLimit = 120
		inputs[i] = in
	}
	inputs[0].Focus()
	return &bookingForm{inputs: inputs}
}

func (f *bookingForm) request() parcel.BookingRequest {
	weight, _ := strconv.ParseFloat(strings.TrimSpace(f.inputs[fieldWeight].Value()), 64)
	return parcel.BookingRequest{
		RecipientName:    strings.TrimSpace(f.inputs[fieldRecipientName].Value()),
		RecipientPhone:   strings.TrimSpace(f.inputs[fieldRecipientPhone].Value()),
		RecipientAddress: strings.TrimSpace(f.inputs[fieldRecipientAddress].Value()),
		WeightKg:         weight,
		Type:             parcelTypes[f.typeIndex],
	}
}

// CustomerModel renders booked parcels and hosts the booking form.
type CustomerModel struct {
	cursor int
	form   *bookingForm
}

// NewCustomerModel builds the dashboard in its pre-fetch state.
func NewCustomerModel() CustomerModel {
	return CustomerModel{}
}

func (m CustomerModel) formOpen() bool { return m.form != nil }

// bookingDoneMsg is sent after the backend confirmed a booking.
type bookingDoneMsg struct {
	booked parcel.Parcel
}

// Update handles list navigation and the booking form lifecycle.
func (m CustomerModel) Update(msg tea.Msg, app App) (CustomerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg, app)
		}
		parcels := app.services.Customer.Registry().Snapshot()
		switch {
		case key.Matches(msg, app.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, app.keys.Down):
			if m.cursor < len(parcels)-1 {
				m.cursor++
			}
		case key.Matches(msg, app.keys.Refresh):
			return m, loadCustomerParcels(app.services)
		case key.Matches(msg, app.keys.Book):
			m.form = newBookingForm()
			return m, textinput.Blink
		}

	case bookingDoneMsg:
		m.form = nil
		return m, nil

	case errMsg:
		if m.form != nil {
			m.form.busy = false
		}
		return m, nil
	}
	return m, nil
}

func (m CustomerModel) updateForm(msg tea.KeyMsg, app App) (CustomerModel, tea.Cmd) {
	f := m.form
	switch msg.Type {
	case tea.KeyEsc:
		m.form = nil
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, f.focusField((f.focus + 1) % (fieldCount + 1))
	case tea.KeyShiftTab, tea.KeyUp:
		return m, f.focusField((f.focus + fieldCount) % (fieldCount + 1))
	case tea.KeyLeft, tea.KeyRight:
		if f.focus == fieldCount {
			step := 1
			if msg.Type == tea.KeyLeft {
				step = len(parcelTypes) - 1
			}
			f.typeIndex = (f.typeIndex + step) % len(parcelTypes)
			return m, nil
		}
	case tea.KeyEnter:
		if f.busy {
			return m, nil
		}
		req := f.request()
		if err := customer.Validate(req); err != nil {
			return m, func() tea.Msg { return errMsg{err} }
		}
		f.busy = true
		return m, submitBooking(app.services, req)
	}

	if f.focus < fieldCount {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// focusField moves focus to the given field index; index fieldCount selects
// the parcel type picker.
func (f *bookingForm) focusField(next int) tea.Cmd {
	if f.focus < fieldCount {
		f.inputs[f.focus].Blur()
	}
	f.focus = next
	if next < fieldCount {
		return f.inputs[next].Focus()
	}
	return nil
}

func submitBooking(s Services, req parcel.BookingRequest) tea.Cmd {
	return func() tea.Msg {
		booked, err := s.Customer.Book(context.Background(), req)
		if err != nil {
			return errMsg{err}
		}
		return bookingDoneMsg{booked: booked}
	}
}

// View renders either the bookings list or the booking form.
func (m CustomerModel) View(app App) string {
	if m.form != nil {
		return m.viewForm(app)
	}

	user := app.services.Session.User()
	parcels := app.services.Customer.Registry().Snapshot()

	var b strings.Builder
	b.WriteString(app.theme.titleStyle().Render("My parcels — " + user.FullName()))
	b.WriteString("\n\n")

	if len(parcels) == 0 {
		b.WriteString(app.theme.faintStyle().Render("no bookings yet"))
	}
	for i, p := range parcels {
		line := fmt.Sprintf("%-28s %-12s %s",
			truncate(p.RecipientName+" · "+p.RecipientAddress, 28),
			app.theme.StatusBadge(p.Status),
			chargeLabel(p))
		if agent := p.AssignedAgent; agent != nil {
			line += app.theme.faintStyle().Render("  agent: " + agent.FirstName + " " + agent.LastName)
		}
		if loc := p.LiveLocation; loc != nil {
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
	b.WriteString(app.theme.faintStyle().Render("b book parcel · r refresh · ctrl+l logout · q quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m CustomerModel) viewForm(app App) string {
	f := m.form

	var b strings.Builder
	b.WriteString(app.theme.titleStyle().Render("Book a parcel"))
	b.WriteString("\n\n")
	for _, in := range f.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	typeLine := "type: " + string(parcelTypes[f.typeIndex])
	if f.focus == fieldCount {
		typeLine = app.theme.selectedStyle().Render(typeLine + "  ←/→")
	} else {
		typeLine = app.theme.faintStyle().Render(typeLine)
	}
	b.WriteString(typeLine)
	b.WriteString("\n\n")

	req := f.request()
	if req.WeightKg > 0 {
		b.WriteString(fmt.Sprintf("estimated charge: ৳%.0f", parcel.EstimateCharge(req.WeightKg)))
	} else {
		b.WriteString(app.theme.faintStyle().Render("estimated charge: enter a weight"))
	}
	b.WriteString("\n\n")
	if f.busy {
		b.WriteString(app.theme.faintStyle().Render("booking..."))
	} else {
		b.WriteString(app.theme.faintStyle().Render("enter to book · esc to cancel"))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
