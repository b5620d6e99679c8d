package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	NextSect   key.Binding
	PrevSect   key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	Open       key.Binding
	OpenNew    key.Binding
	Source     key.Binding
	More       key.Binding
	Less       key.Binding
	Toggle     key.Binding
	Reload     key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Back       key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
	HalfDown   key.Binding
	HalfUp     key.Binding
	OpenLinkN  key.Binding
	OpenInBrow key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "move up")),
	Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "move down")),
	NextSect:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
	PrevSect:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous section")),
	NextPage:   key.NewBinding(key.WithKeys("right", "l", "]"), key.WithHelp("→/l", "next page")),
	PrevPage:   key.NewBinding(key.WithKeys("left", "["), key.WithHelp("←", "previous page")),
	Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "read item")),
	OpenNew:    key.NewBinding(key.WithKeys("alt+enter", "ctrl+o", "O"), key.WithHelp("O/alt+enter", "open in browser")),
	Source:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "source details")),
	More:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more like this")),
	Less:       key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "less like this")),
	Toggle:     key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "show/hide hidden")),
	Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Refresh:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh subscriptions")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close / go back")),
	Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit / go back")),
	ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "force quit")),
	HalfDown:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "page down")),
	HalfUp:     key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "page up")),
	OpenLinkN:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "open link")),
	OpenInBrow: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
}

// KeyBinding represents a single key binding with its description
type KeyBinding struct {
	Key         string
	Description string
}

func fromBinding(b key.Binding) KeyBinding {
	return KeyBinding{Key: b.Help().Key, Description: b.Help().Desc}
}

// ViewKeyBindings holds the key bindings for a specific view
type ViewKeyBindings struct {
	Help      []key.Binding
	StatusBar []KeyBinding
}

var globalBindings = []key.Binding{keys.Help, keys.Quit, keys.Back, keys.ForceQuit}

var HomeViewKeys = ViewKeyBindings{
	Help: []key.Binding{
		keys.Down, keys.Up, keys.NextSect, keys.PrevSect, keys.NextPage, keys.PrevPage,
		keys.Open, keys.OpenNew, keys.Source, keys.More, keys.Less, keys.Toggle,
		keys.Reload, keys.Refresh,
	},
	StatusBar: []KeyBinding{
		fromBinding(keys.Source),
		fromBinding(keys.OpenNew),
		fromBinding(keys.Reload),
	},
}

var ReaderViewKeys = ViewKeyBindings{
	Help: []key.Binding{keys.Down, keys.Up, keys.HalfDown, keys.HalfUp, keys.OpenLinkN, keys.OpenInBrow},
	StatusBar: []KeyBinding{
		fromBinding(keys.OpenLinkN),
		fromBinding(keys.OpenInBrow),
	},
}

var HelpViewKeys = ViewKeyBindings{
	StatusBar: []KeyBinding{
		fromBinding(keys.Back),
		fromBinding(keys.ForceQuit),
	},
}

// GetViewKeys returns the key bindings for a given view state
func GetViewKeys(state ViewState) ViewKeyBindings {
	switch state {
	case HomeView:
		return HomeViewKeys
	case ReaderView:
		return ReaderViewKeys
	case HelpView:
		return HelpViewKeys
	default:
		return ViewKeyBindings{}
	}
}

// FormatStatusBar creates a formatted status bar string from key bindings
func FormatStatusBar(bindings []KeyBinding) string {
	if len(bindings) == 0 {
		return ""
	}

	parts := make([]string, len(bindings))
	for i, binding := range bindings {
		parts[i] = binding.Key + ": " + binding.Description
	}
	return strings.Join(parts, " | ")
}
