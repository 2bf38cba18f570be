package keys

import "github.com/charmbracelet/bubbles/key"

// EmitKeys are the bindings of the live emitter view
type EmitKeys struct {
	Quit key.Binding
	Help key.Binding
}

func NewEmitKeys() EmitKeys {
	return EmitKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "stop and quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

func (k EmitKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

func (k EmitKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Help, k.Quit}}
}
