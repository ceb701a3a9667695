package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxEvents bounds the log; older entries are dropped
const maxEvents = 500

// EventLog is a scrolling viewport of exchanges, newest at the bottom
type EventLog struct {
	viewport  viewport.Model
	formatter *DataFormatter
	events    []Event
}

func NewEventLog(width, height int) *EventLog {
	return &EventLog{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(true, true),
	}
}

func (l *EventLog) SetSize(width, height int) {
	l.viewport.Width = width
	l.viewport.Height = height
}

func (l *EventLog) Add(ev Event) {
	l.events = append(l.events, ev)
	if len(l.events) > maxEvents {
		l.events = l.events[len(l.events)-maxEvents:]
	}
	l.refresh()
}

func (l *EventLog) Len() int {
	return len(l.events)
}

func (l *EventLog) Clear() {
	l.events = nil
	l.viewport.SetContent("")
}

func (l *EventLog) ToggleHex() {
	l.formatter.ToggleHex()
	l.refresh()
}

func (l *EventLog) ToggleASCII() {
	l.formatter.ToggleASCII()
	l.refresh()
}

func (l *EventLog) GetDisplayMode() DisplayMode {
	return l.formatter.GetDisplayMode()
}

func (l *EventLog) refresh() {
	lines := make([]string, len(l.events))
	for i, ev := range l.events {
		lines[i] = l.formatter.FormatEvent(ev)
	}
	l.viewport.SetContent(strings.Join(lines, "\n"))
	l.viewport.GotoBottom()
}

func (l *EventLog) Update(msg tea.Msg) tea.Cmd {
	// only scrolling reaches the viewport; keys are handled by the model
	switch msg.(type) {
	case tea.MouseMsg:
		var cmd tea.Cmd
		l.viewport, cmd = l.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (l *EventLog) View() string {
	return l.viewport.View()
}
