package keys

import "github.com/charmbracelet/bubbles/key"

// CommonKeys are shared by every TUI command
type CommonKeys struct {
	Quit key.Binding
	Help key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// WatchKeys drive the sensor watch view
type WatchKeys struct {
	CommonKeys
	Pause       key.Binding
	Refresh     key.Binding
	Reset       key.Binding
	Dispense    key.Binding
	Recycle     key.Binding
	Clear       key.Binding
	ToggleHex   key.Binding
	ToggleASCII key.Binding
}

func NewWatchKeys() WatchKeys {
	return WatchKeys{
		CommonKeys: NewCommonKeys(),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause polling"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "poll now"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset dispenser"),
		),
		Dispense: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dispense card"),
		),
		Recycle: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "recycle card"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
		ToggleHex: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle hex"),
		),
		ToggleASCII: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle ascii"),
		),
	}
}

func (k WatchKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Pause, k.Refresh, k.Quit}
}

func (k WatchKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Refresh, k.Clear},
		{k.Reset, k.Dispense, k.Recycle},
		{k.ToggleHex, k.ToggleASCII},
		{k.Help, k.Quit},
	}
}
