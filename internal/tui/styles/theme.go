package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-k720/internal/tui/colors"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface1).
			Padding(0, 1)

	FaultStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Padding(0, 1)
)

// LinkStatus is the health of the last exchange with the dispenser
type LinkStatus int

const (
	LinkUnknown LinkStatus = iota
	LinkOK
	LinkPolling
	LinkError
)

// Indicator returns the single-character status glyph, styled
func (s LinkStatus) Indicator() string {
	switch s {
	case LinkOK:
		return lipgloss.NewStyle().Foreground(colors.Green).Render("●")
	case LinkPolling:
		return lipgloss.NewStyle().Foreground(colors.Yellow).Render("○")
	case LinkError:
		return lipgloss.NewStyle().Foreground(colors.Red).Render("✗")
	default:
		return lipgloss.NewStyle().Foreground(colors.Overlay0).Render("○")
	}
}
