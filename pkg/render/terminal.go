package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/dkoosis/sax/pkg/modeline"
	"github.com/dkoosis/sax/pkg/probe"
	"github.com/dkoosis/sax/pkg/synth"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titler = cases.Title(language.English)

// Terminal renders results with the styles of a Theme.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

func (t *Terminal) header(label string, count int) string {
	return t.theme.Section.Render(fmt.Sprintf("%s (%d)", titler.String(label), count)) + "\n"
}

// Candidates lists probed drivers and resolutions.
func (t *Terminal) Candidates(c probe.Candidates) string {
	var sb strings.Builder
	sb.WriteString(t.header("drivers", len(c.Drivers)))
	if len(c.Drivers) == 0 {
		sb.WriteString("  " + t.theme.Path.Render("none found") + "\n")
	}
	for _, d := range c.Drivers {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Path.Render(fmt.Sprintf("%2d. ", d.DiscoveryOrder+1)))
		sb.WriteString(t.theme.Key.Render(d.Name))
		sb.WriteString("\n")
	}

	sb.WriteString(t.header("resolutions", len(c.Resolutions)))
	if len(c.Resolutions) == 0 {
		sb.WriteString("  " + t.theme.Path.Render("none found") + "\n")
	}
	for _, r := range c.Resolutions {
		sb.WriteString("  " + t.theme.Icons.Bullet + " " + t.theme.Value.Render(r.Raw) + "\n")
	}
	return sb.String()
}

// Modeline shows a computed modeline and its derived figures.
func (t *Terminal) Modeline(spec modeline.Spec) string {
	rows := [][2]string{
		{"value", spec.String()},
		{"clock", fmt.Sprintf("%.2f MHz", spec.ClockMHz)},
		{"refresh", fmt.Sprintf("%.2f Hz", spec.RefreshHz())},
		{"horizontal", joinInts(spec.Horizontal[:])},
		{"vertical", joinInts(spec.Vertical[:])},
	}
	var sb strings.Builder
	sb.WriteString(t.theme.Section.Render("Modeline "+spec.Name) + "\n")
	t.writeRows(&sb, rows)
	return sb.String()
}

// Report summarises a synthesis run.
func (t *Terminal) Report(r *synth.Report) string {
	var sb strings.Builder

	icon, style := t.theme.Icons.Saved, t.theme.Success
	status := "Saved"
	switch {
	case !r.Saved:
		icon, style, status = t.theme.Icons.Failed, t.theme.Error, "Not saved"
	case len(r.Failures) > 0:
		icon, style = t.theme.Icons.Partial, t.theme.Warning
	}
	sb.WriteString(style.Render(fmt.Sprintf("%s %s: %s", icon, status, summary(r))))
	sb.WriteString("\n")

	for _, b := range r.Blocks {
		sb.WriteString("\n")
		line := t.theme.Section.Render(b.Section) + " " + t.theme.Key.Render(b.Identifier)
		if b.Fallback {
			line += " " + t.theme.Path.Render("(new fragment)")
		}
		sb.WriteString(line + "\n")
		sb.WriteString("  " + t.theme.Path.Render(t.truncate(string(b.Path), t.width-2)) + "\n")
		rows := make([][2]string, len(b.Writes))
		for i, w := range b.Writes {
			rows[i] = [2]string{w.Attribute, w.Value}
		}
		t.writeRows(&sb, rows)
	}

	if len(r.Failures) > 0 {
		sb.WriteString("\n" + t.header("failures", len(r.Failures)))
		for _, f := range r.Failures {
			sb.WriteString("  ")
			sb.WriteString(t.theme.Error.Render(t.theme.Icons.Failed + " " + strings.TrimSpace(f.Section+" "+f.Attribute)))
			sb.WriteString("\n    ")
			sb.WriteString(t.theme.Path.Render(f.Err.Error()))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Entries prints a tree dump indented by depth.
func (t *Terminal) Entries(entries []conftree.Entry) string {
	if len(entries) == 0 {
		return t.theme.Path.Render("no matching blocks") + "\n"
	}
	var sb strings.Builder
	for _, e := range entries {
		if e.Depth == 0 {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(t.theme.Section.Render(string(e.Path)) + "\n")
			continue
		}
		sb.WriteString(strings.Repeat("  ", e.Depth))
		label := entryLabel(e)
		if e.Value == "" {
			sb.WriteString(t.theme.Key.Render(label) + "\n")
			continue
		}
		sb.WriteString(t.theme.Key.Render(label))
		sb.WriteString(" " + t.theme.Path.Render("=") + " ")
		sb.WriteString(t.theme.Value.Render(t.truncate(e.Value, t.width-2*e.Depth-runewidth.StringWidth(label)-3)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// writeRows prints two aligned columns, measuring display width so wide
// runes line up.
func (t *Terminal) writeRows(sb *strings.Builder, rows [][2]string) {
	keyWidth := 0
	for _, row := range rows {
		if w := runewidth.StringWidth(row[0]); w > keyWidth {
			keyWidth = w
		}
	}
	for _, row := range rows {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Key.Render(runewidth.FillRight(row[0], keyWidth)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Value.Render(t.truncate(row[1], t.width-keyWidth-4)))
		sb.WriteString("\n")
	}
}

func (t *Terminal) truncate(s string, width int) string {
	if width < 8 {
		width = 8
	}
	return runewidth.Truncate(s, width, "...")
}

func summary(r *synth.Report) string {
	writes := 0
	for _, b := range r.Blocks {
		writes += len(b.Writes)
	}
	return fmt.Sprintf("%d blocks, %d writes, %d failures", len(r.Blocks), writes, len(r.Failures))
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
