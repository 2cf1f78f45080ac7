package render

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles the terminal renderer applies to each role.
type Theme struct {
	Name string

	Section lipgloss.Style // block and list headers
	Key     lipgloss.Style // attribute names, driver names
	Value   lipgloss.Style // attribute values
	Path    lipgloss.Style // tree paths and secondary text
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Icons ThemeIcons
}

// ThemeIcons are the status markers of a theme.
type ThemeIcons struct {
	Saved   string
	Partial string // saved with failed writes
	Failed  string
	Bullet  string
}

// palette is the 256-colour set a theme is built from. Empty entries
// leave the text unstyled.
type palette struct {
	key, success, warning, err, muted string
}

var (
	unicodeIcons = ThemeIcons{Saved: "✓", Partial: "⚠", Failed: "✗", Bullet: "·"}
	asciiIcons   = ThemeIcons{Saved: "+", Partial: "!", Failed: "x", Bullet: "-"}
)

var themes = map[string]func() Theme{
	"default": DefaultTheme,
	"orca":    OrcaTheme,
	"mono":    MonoTheme,
}

func newTheme(name string, p palette, icons ThemeIcons) Theme {
	fg := func(c string) lipgloss.Style {
		s := lipgloss.NewStyle()
		if c != "" {
			s = s.Foreground(lipgloss.Color(c))
		}
		return s
	}
	return Theme{
		Name:    name,
		Section: lipgloss.NewStyle().Bold(true),
		Key:     fg(p.key),
		Value:   lipgloss.NewStyle(),
		Path:    fg(p.muted),
		Success: fg(p.success),
		Warning: fg(p.warning),
		Error:   fg(p.err),
		Icons:   icons,
	}
}

// DefaultTheme returns a vibrant color theme.
func DefaultTheme() Theme {
	return newTheme("default", palette{key: "39", success: "34", warning: "214", err: "196", muted: "242"}, unicodeIcons)
}

// OrcaTheme returns a muted, professional theme.
func OrcaTheme() Theme {
	icons := unicodeIcons
	icons.Partial = "!"
	return newTheme("orca", palette{key: "75", success: "108", warning: "179", err: "167", muted: "245"}, icons)
}

// MonoTheme has no colours and ASCII icons. It is used when NO_COLOR is set.
func MonoTheme() Theme {
	return newTheme("mono", palette{}, asciiIcons)
}

// ThemeNames lists the built-in themes in sorted order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ThemeByName returns the named theme, or DefaultTheme for unknown names.
func ThemeByName(name string) Theme {
	if fn, ok := themes[name]; ok {
		return fn()
	}
	return DefaultTheme()
}
