package viz

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name    string
	Bodies  lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
}

var themes = []Theme{
	{
		Name:    "night",
		Bodies:  lipgloss.Color("#e6e6ff"),
		Accent:  lipgloss.Color("86"),
		Text:    lipgloss.Color("252"),
		Muted:   lipgloss.Color("240"),
		Warning: lipgloss.Color("220"),
	},
	{
		Name:    "retro",
		Bodies:  lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00cc00"),
		Muted:   lipgloss.Color("#005500"),
		Warning: lipgloss.Color("#ffff00"),
	},
	{
		Name:    "ember",
		Bodies:  lipgloss.Color("#ffb347"),
		Accent:  lipgloss.Color("#ff6f3c"),
		Text:    lipgloss.Color("#ffe0c2"),
		Muted:   lipgloss.Color("#7a4a2a"),
		Warning: lipgloss.Color("#ff3355"),
	},
}

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
