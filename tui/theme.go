package tui

import (
	"github.com/charmbracelet/lipgloss"

	"courierflow/parcel"
)

// Theme defines the color palette for the terminal client. All colors use
// ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Accent     lipgloss.Color
	ErrorText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	StatusPending   lipgloss.Color
	StatusAssigned  lipgloss.Color
	StatusPickedUp  lipgloss.Color
	StatusInTransit lipgloss.Color
	StatusDelivered lipgloss.Color
	StatusFailed    lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),
	Accent:     lipgloss.Color("39"),
	ErrorText:  lipgloss.Color("203"),

	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),

	StatusPending:   lipgloss.Color("214"),
	StatusAssigned:  lipgloss.Color("39"),
	StatusPickedUp:  lipgloss.Color("75"),
	StatusInTransit: lipgloss.Color("141"),
	StatusDelivered: lipgloss.Color("78"),
	StatusFailed:    lipgloss.Color("203"),
}

// StatusColor returns the badge color for a delivery status. Unknown values
// render faint.
func (t Theme) StatusColor(status parcel.Status) lipgloss.Color {
	switch status {
	case parcel.StatusPending:
		return t.StatusPending
	case parcel.StatusAssigned:
		return t.StatusAssigned
	case parcel.StatusPickedUp:
		return t.StatusPickedUp
	case parcel.StatusInTransit:
		return t.StatusInTransit
	case parcel.StatusDelivered:
		return t.StatusDelivered
	case parcel.StatusFailed:
		return t.StatusFailed
	default:
		return t.FaintText
	}
}

// StatusBadge renders a colored status label.
func (t Theme) StatusBadge(status parcel.Status) string {
	return lipgloss.NewStyle().Foreground(t.StatusColor(status)).Render(string(status))
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.SelectedForeground).
		Background(t.SelectedBackground)
}

func (t Theme) faintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.FaintText)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.ErrorText)
}
