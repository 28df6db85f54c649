package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the UI colour scheme plus the speed gradient for particles.
type Theme struct {
	Name   string
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Wall   lipgloss.Color

	Slow, Mid, Fast string
}

var (
	ThemeCyberpunk = Theme{
		Name:   "cyberpunk",
		Accent: lipgloss.Color("#ff00ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#666666"),
		Wall:   lipgloss.Color("#00ffff"),
		Slow:   "#2b2bff",
		Mid:    "#ff00ff",
		Fast:   "#ffff00",
	}

	ThemeRetroGreen = Theme{
		Name:   "retro",
		Accent: lipgloss.Color("#00ff00"),
		Text:   lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
		Wall:   lipgloss.Color("#00cc00"),
		Slow:   "#004400",
		Mid:    "#00cc00",
		Fast:   "#ccffcc",
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Accent: lipgloss.Color("#ffd700"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#4488aa"),
		Wall:   lipgloss.Color("#0077be"),
		Slow:   "#003366",
		Mid:    "#00a8cc",
		Fast:   "#e0ffff",
	}

	ThemeSunset = Theme{
		Name:   "sunset",
		Accent: lipgloss.Color("#ff9ff3"),
		Text:   lipgloss.Color("#fff5f5"),
		Muted:  lipgloss.Color("#8b6b8c"),
		Wall:   lipgloss.Color("#feca57"),
		Slow:   "#5f27cd",
		Mid:    "#ff6b6b",
		Fast:   "#feca57",
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeSunset,
	}
)

func (t Theme) Palette() Palette {
	return NewPalette(t.Slow, t.Mid, t.Fast)
}

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme returns the theme after the named one, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
