package models

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/internal/tui/components"
	"github.com/allbin/go-k720/internal/tui/keys"
	"github.com/allbin/go-k720/internal/tui/styles"
)

// Dispenser is the part of *k720.Device the watch view drives
type Dispenser interface {
	Transact(name string, payload []byte) *k720.Transaction
}

const pollCommand = "sensor-query"

type tickMsg time.Time

// ResultMsg carries a finished transaction back into the model
type ResultMsg struct {
	Tx   *k720.Transaction
	Poll bool
}

// WatchModel polls the sensor state and lets the operator trigger actions
type WatchModel struct {
	dev      Dispenser
	interval time.Duration
	keys     keys.WatchKeys
	help     help.Model

	status  *components.StatusBar
	sensors *components.SensorTable
	log     *components.EventLog

	paused   bool
	polling  bool
	lastPoll time.Time
	width    int
	height   int
	now      func() time.Time
}

func NewWatchModel(dev Dispenser, portPath string, info *components.ConnectionInfo, interval time.Duration) *WatchModel {
	if interval <= 0 {
		interval = time.Second
	}
	return &WatchModel{
		dev:      dev,
		interval: interval,
		keys:     keys.NewWatchKeys(),
		help:     help.New(),
		status:   components.NewStatusBar(portPath, info),
		sensors:  components.NewSensorTable(len(k720.Flags)),
		log:      components.NewEventLog(60, len(k720.Flags)),
		now:      time.Now,
	}
}

func (m *WatchModel) Init() tea.Cmd {
	m.polling = true
	m.status.SetStatus(styles.LinkPolling, nil)
	return tea.Batch(m.transact(pollCommand, k720.CmdSensorQuery, true), m.tick())
}

func (m *WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *WatchModel) transact(name string, payload []byte, poll bool) tea.Cmd {
	dev := m.dev
	return func() tea.Msg {
		return ResultMsg{Tx: dev.Transact(name, payload), Poll: poll}
	}
}

// poll starts a sensor query unless one is in flight
func (m *WatchModel) poll() tea.Cmd {
	if m.polling {
		return nil
	}
	m.polling = true
	return m.transact(pollCommand, k720.CmdSensorQuery, true)
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		var cmd tea.Cmd
		if !m.paused {
			cmd = m.poll()
		}
		return m, tea.Batch(cmd, m.tick())

	case ResultMsg:
		m.handleResult(msg)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, m.log.Update(msg)
}

func (m *WatchModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Refresh):
		return m.poll()
	case key.Matches(msg, m.keys.Clear):
		m.log.Clear()
	case key.Matches(msg, m.keys.ToggleHex):
		m.log.ToggleHex()
	case key.Matches(msg, m.keys.ToggleASCII):
		m.log.ToggleASCII()
	case key.Matches(msg, m.keys.Reset):
		return m.transact("reset", k720.CmdReset, false)
	case key.Matches(msg, m.keys.Dispense):
		return m.transact("dispense", k720.CmdDispense, false)
	case key.Matches(msg, m.keys.Recycle):
		return m.transact("recycle", k720.CmdRecycle, false)
	}
	return nil
}

func (m *WatchModel) handleResult(msg ResultMsg) {
	tx := msg.Tx
	if !msg.Poll {
		m.log.Add(components.EventFromTransaction(tx))
		if tx.Err != nil {
			m.status.SetStatus(styles.LinkError, tx.Err)
		}
		return
	}

	m.polling = false
	m.lastPoll = m.now()
	if tx.Err != nil {
		// log only the first failure of a run
		if m.status.Status() != styles.LinkError {
			m.log.Add(components.EventFromTransaction(tx))
		}
		m.status.SetStatus(styles.LinkError, tx.Err)
		return
	}

	state, err := k720.ParseSensorReply(tx.Result)
	if err != nil {
		m.status.SetStatus(styles.LinkError, err)
		return
	}

	prev, known := m.sensors.State()
	if !known || prev != state || m.status.Status() == styles.LinkError {
		m.log.Add(components.EventFromTransaction(tx))
	}
	m.sensors.SetState(state)
	m.status.SetStatus(styles.LinkOK, nil)
}

func (m *WatchModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.status.SetWidth(width)
	m.help.Width = width

	bodyHeight := height - 6
	if bodyHeight < 5 {
		bodyHeight = 5
	}
	m.sensors.SetHeight(bodyHeight)

	logWidth := width - 50
	if logWidth < 20 {
		logWidth = 20
	}
	m.log.SetSize(logWidth, bodyHeight)
}

func (m *WatchModel) Paused() bool {
	return m.paused
}

func (m *WatchModel) Sensors() *components.SensorTable {
	return m.sensors
}

func (m *WatchModel) Log() *components.EventLog {
	return m.log
}

func (m *WatchModel) StatusBar() *components.StatusBar {
	return m.status
}

func (m *WatchModel) View() string {
	title := styles.TitleStyle.Render("K720 sensor watch")
	if m.sensors.Faulted() {
		title = lipgloss.JoinHorizontal(lipgloss.Left, title, " ", styles.FaultStyle.Render("fault"))
	}
	if err := m.status.Err(); err != nil {
		title = lipgloss.JoinHorizontal(lipgloss.Left, title, " ", styles.ErrorStyle.Render(err.Error()))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.PanelStyle.Render(m.sensors.View()),
		styles.PanelStyle.Render(m.log.View()),
	)

	timestamp := "--:--:--"
	if !m.lastPoll.IsZero() {
		timestamp = m.lastPoll.Format("15:04:05")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		body,
		m.status.Render(m.paused, timestamp),
		styles.HelpStyle.Render(m.help.View(m.keys)),
	)
}
