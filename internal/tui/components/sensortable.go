package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/internal/tui/colors"
)

// faults are flags that need an operator
const faults = k720.CardJam | k720.CardOverlap | k720.RecyclingError | k720.IssuingError |
	k720.PrepareCardFailure | k720.CommandNotExecutable | k720.RecyclingBoxFull | k720.CardEmpty

// SensorTable lists every sensor flag with its current value
type SensorTable struct {
	table table.Model
	state k720.SensorState
	known bool
}

func NewSensorTable(height int) *SensorTable {
	if height < 5 {
		height = 5
	}

	columns := []table.Column{
		{Title: "Bit", Width: 6},
		{Title: "Flag", Width: 32},
		{Title: "", Width: 3},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colors.Subtext0).
		BorderBottom(true).
		Bold(true).
		Foreground(colors.Text)
	s.Selected = s.Selected.Foreground(colors.Text).Bold(false)
	t.SetStyles(s)

	st := &SensorTable{table: t}
	st.refresh()
	return st
}

func (st *SensorTable) SetHeight(height int) {
	if height < 5 {
		height = 5
	}
	st.table.SetHeight(height)
}

// SetState replaces the displayed flags
func (st *SensorTable) SetState(state k720.SensorState) {
	st.state = state
	st.known = true
	st.refresh()
}

func (st *SensorTable) State() (k720.SensorState, bool) {
	return st.state, st.known
}

// Faulted reports whether any flag needing attention is set
func (st *SensorTable) Faulted() bool {
	return st.known && st.state&faults != 0
}

func (st *SensorTable) Rows() []table.Row {
	return st.table.Rows()
}

func (st *SensorTable) refresh() {
	rows := make([]table.Row, len(k720.Flags))
	for i, f := range k720.Flags {
		mark := "·"
		switch {
		case !st.known:
			mark = "?"
		case st.state&f.Bit != 0:
			mark = "●"
		}
		rows[i] = table.Row{fmt.Sprintf("0x%04x", uint16(f.Bit)), f.Description, mark}
	}
	st.table.SetRows(rows)
}

func (st *SensorTable) View() string {
	return st.table.View()
}
