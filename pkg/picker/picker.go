// Package picker asks for a driver, resolution and colour depth in the
// terminal. Leaving before the final confirmation aborts the run.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dkoosis/sax/pkg/fault"
)

// ErrAborted is returned when the user quits before confirming.
var ErrAborted = errors.New("selection aborted")

// Choices are the options offered at each step.
type Choices struct {
	Drivers     []string
	Resolutions []string
	Depths      []string
}

// Result is the confirmed selection.
type Result struct {
	Driver     string
	Resolution string
	Depth      string
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeys() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
		Back:   key.NewBinding(key.WithKeys("backspace", "left", "h"), key.WithHelp("h", "back")),
		Quit:   key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("q", "abort")),
	}
}

type step struct {
	title   string
	options []string
	cursor  int
	fixed   bool // preset from flags; not shown
}

func (s step) value() string {
	return s.options[s.cursor]
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	confirmStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true)
	selectedLabel = lipgloss.NewStyle().Width(12)
)

// Model is the bubbletea model for the picker.
type Model struct {
	steps     []step
	index     int // == len(steps) on the confirmation screen
	confirmed bool
	aborted   bool
	keys      keyMap
	help      help.Model
}

// New builds a model. Non-empty preset fields skip their step; a preset
// value not among the options is offered as an extra option.
func New(c Choices, preset Result) (Model, error) {
	specs := []struct {
		title   string
		options []string
		preset  string
	}{
		{"driver", c.Drivers, preset.Driver},
		{"resolution", c.Resolutions, preset.Resolution},
		{"colour depth", c.Depths, preset.Depth},
	}
	m := Model{keys: defaultKeys(), help: help.New()}
	for _, s := range specs {
		st := step{title: s.title, options: dedupe(s.options)}
		if s.preset != "" {
			st.fixed = true
			st.cursor = indexOf(st.options, s.preset)
			if st.cursor < 0 {
				st.options = append(st.options, s.preset)
				st.cursor = len(st.options) - 1
			}
		}
		if len(st.options) == 0 {
			return Model{}, fmt.Errorf("no %s to choose from", s.title)
		}
		m.steps = append(m.steps, st)
	}
	m.index = m.nextVisible(0)
	return m, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func (m Model) nextVisible(from int) int {
	for i := from; i < len(m.steps); i++ {
		if !m.steps[i].fixed {
			return i
		}
	}
	return len(m.steps)
}

func (m Model) prevVisible(from int) int {
	for i := from; i >= 0; i-- {
		if !m.steps[i].fixed {
			return i
		}
	}
	return -1
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Select):
			if m.index >= len(m.steps) {
				m.confirmed = true
				return m, tea.Quit
			}
			m.index = m.nextVisible(m.index + 1)
		case key.Matches(msg, m.keys.Back):
			if prev := m.prevVisible(m.index - 1); prev >= 0 {
				m.index = prev
			}
		case key.Matches(msg, m.keys.Up):
			if m.index < len(m.steps) && m.steps[m.index].cursor > 0 {
				m.steps[m.index].cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.index < len(m.steps) && m.steps[m.index].cursor < len(m.steps[m.index].options)-1 {
				m.steps[m.index].cursor++
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.confirmed || m.aborted {
		return ""
	}
	var sb strings.Builder
	if m.index >= len(m.steps) {
		sb.WriteString(titleStyle.Render("Write this configuration?") + "\n\n")
		for _, st := range m.steps {
			sb.WriteString("  " + selectedLabel.Render(st.title) + st.value() + "\n")
		}
		sb.WriteString("\n" + confirmStyle.Render("enter to write, q to abort") + "\n")
	} else {
		st := m.steps[m.index]
		sb.WriteString(titleStyle.Render(fmt.Sprintf("Select %s", st.title)))
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  (%d/%d)", m.index+1, len(m.steps))) + "\n\n")
		for i, opt := range st.options {
			if i == st.cursor {
				sb.WriteString(cursorStyle.Render("> "+opt) + "\n")
			} else {
				sb.WriteString("  " + opt + "\n")
			}
		}
	}
	sb.WriteString("\n" + m.help.View(m.keys) + "\n")
	return sb.String()
}

// Result returns the selection. It is meaningful once Confirmed is true.
func (m Model) Result() Result {
	return Result{
		Driver:     m.steps[0].value(),
		Resolution: m.steps[1].value(),
		Depth:      m.steps[2].value(),
	}
}

// Confirmed reports whether the user accepted the selection.
func (m Model) Confirmed() bool {
	return m.confirmed
}

// Run shows the picker on in/out until the user confirms or aborts. An
// abort returns ErrAborted classified as fault.KindAborted.
func Run(ctx context.Context, c Choices, preset Result, in io.Reader, out io.Writer) (Result, error) {
	m, err := New(c, preset)
	if err != nil {
		return Result{}, err
	}
	if m.index >= len(m.steps) {
		// Every value was preset; nothing to ask.
		return m.Result(), nil
	}
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil {
			return Result{}, fault.New(fault.KindAborted, "pick", "", ErrAborted)
		}
		return Result{}, err
	}
	fm := final.(Model)
	if !fm.Confirmed() {
		return Result{}, fault.New(fault.KindAborted, "pick", "", ErrAborted)
	}
	return fm.Result(), nil
}
