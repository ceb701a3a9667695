package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/internal/tui/colors"
	"github.com/allbin/go-k720/internal/tui/styles"
	"github.com/allbin/go-k720/serial"
)

// ConnectionInfo is the line setup shown on the right of the bar
type ConnectionInfo struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   serial.Parity
	Address  k720.Address
}

type StatusBar struct {
	portPath       string
	status         styles.LinkStatus
	err            error
	width          int
	connectionInfo *ConnectionInfo
}

func NewStatusBar(portPath string, info *ConnectionInfo) *StatusBar {
	return &StatusBar{
		portPath:       portPath,
		connectionInfo: info,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetStatus(status styles.LinkStatus, err error) {
	sb.status = status
	sb.err = err
}

func (sb *StatusBar) Status() styles.LinkStatus {
	return sb.status
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// Render draws the bar. paused switches the mode block; timestamp goes far right.
func (sb *StatusBar) Render(paused bool, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeStyle := lipgloss.NewStyle().
		Foreground(colors.Base).
		Bold(true).
		Padding(0, 1)
	var mode string
	if paused {
		mode = modeStyle.Background(colors.Yellow).Render("PAUSED")
	} else {
		mode = modeStyle.Background(colors.Blue).Render("POLLING")
	}

	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portPath)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, mode, port, sb.status.Indicator(), divider)

	info := "⚡ k720"
	if sb.connectionInfo != nil {
		info = fmt.Sprintf("⚡ %d baud %d%s%d addr %s",
			sb.connectionInfo.BaudRate,
			sb.connectionInfo.DataBits,
			sb.connectionInfo.Parity,
			sb.connectionInfo.StopBits,
			sb.connectionInfo.Address)
	}
	details := lipgloss.NewStyle().Foreground(colors.Subtext0).Padding(0, 1).Render(info)
	clock := lipgloss.NewStyle().Foreground(colors.Subtext1).Padding(0, 1).Render(timestamp)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
