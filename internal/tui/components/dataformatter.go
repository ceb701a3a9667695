package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/internal/tui/colors"
)

// Event is one finished exchange shown in the log
type Event struct {
	Timestamp time.Time
	Command   string
	Request   []byte
	Response  []byte
	State     k720.TxState
	Duration  time.Duration
	Err       error
}

// EventFromTransaction copies what the log needs out of tx
func EventFromTransaction(tx *k720.Transaction) Event {
	ev := Event{
		Timestamp: tx.Started,
		Command:   tx.Command,
		Request:   tx.Request,
		State:     tx.State,
		Duration:  tx.Duration,
		Err:       tx.Err,
	}
	if tx.Response != nil {
		ev.Response = tx.Response.Bytes()
	}
	return ev
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{mode: DisplayMode{ShowHex: showHex, ShowASCII: showASCII}}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

// FormatBytes renders data as hex and/or printable ASCII per the display mode
func (df *DataFormatter) FormatBytes(data []byte) string {
	var parts []string
	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("% X", data))
	}
	if df.mode.ShowASCII {
		parts = append(parts, printable(data))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d bytes", len(data))
	}
	return strings.Join(parts, "  ")
}

// FormatEvent renders one log line: timestamp, command, status and the frames
func (df *DataFormatter) FormatEvent(ev Event) string {
	ts := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(fmt.Sprintf("[%s]", ev.Timestamp.Format("15:04:05.000")))

	cmd := lipgloss.NewStyle().Foreground(colors.Mauve).Bold(true).Render(ev.Command)

	var status string
	if ev.Err != nil {
		status = lipgloss.NewStyle().Foreground(colors.Red).Bold(true).Render("✗ " + ev.Err.Error())
	} else {
		status = lipgloss.NewStyle().Foreground(colors.Green).Render(fmt.Sprintf("✓ %s", ev.Duration.Round(time.Millisecond)))
	}

	lines := []string{fmt.Sprintf("%s %s %s", ts, cmd, status)}
	if len(ev.Request) > 0 {
		tx := lipgloss.NewStyle().Foreground(colors.Peach).Bold(true).Render("  ↗ TX ")
		lines = append(lines, tx+df.FormatBytes(ev.Request))
	}
	if len(ev.Response) > 0 {
		rx := lipgloss.NewStyle().Foreground(colors.Sky).Bold(true).Render("  ↙ RX ")
		lines = append(lines, rx+df.FormatBytes(ev.Response))
	}
	return strings.Join(lines, "\n")
}

func printable(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
