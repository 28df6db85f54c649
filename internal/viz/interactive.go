package viz

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/sim"
)

var presetInfo = map[string]string{
	"box":    "fill a box one by one",
	"disk":   "fill a round bowl",
	"stream": "small grains poured in",
	"dense":  "packed lattice settling",
	"bouncy": "elastic walls, low gravity",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// param is one editable field of the scene config.
type param struct {
	name string
	step float64
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var params = []param{
	{"capacity", 100,
		func(c *config.Config) float64 { return float64(c.Particles.Capacity) },
		func(c *config.Config, v float64) { c.Particles.Capacity = int(v) }},
	{"radius", 0.5,
		func(c *config.Config) float64 { return c.Particles.Radius },
		func(c *config.Config, v float64) { c.Particles.Radius = v }},
	{"gravity", 100,
		func(c *config.Config) float64 { return c.Physics.Gravity },
		func(c *config.Config, v float64) { c.Physics.Gravity = v }},
	{"substeps", 1,
		func(c *config.Config) float64 { return float64(c.Physics.Substeps) },
		func(c *config.Config, v float64) { c.Physics.Substeps = int(v) }},
	{"response", 0.05,
		func(c *config.Config) float64 { return c.Physics.CollisionResponse },
		func(c *config.Config, v float64) { c.Physics.CollisionResponse = v }},
	{"wall_bounce", 0.05,
		func(c *config.Config) float64 { return c.Container.Response },
		func(c *config.Config, v float64) { c.Container.Response = v }},
	{"spawn_delay", 0.005,
		func(c *config.Config) float64 { return c.Run.SpawnDelay },
		func(c *config.Config, v float64) { c.Run.SpawnDelay = v }},
}

type model struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	width, height int
	liveModel     Model
	logger        *slog.Logger
}

// NewInteractiveApp is a preset picker that launches the live view.
func NewInteractiveApp(logger *slog.Logger) *model {
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		width:   80,
		height:  24,
		logger:  logger,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
		return m, nil
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	p := params[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%f", &val); err == nil {
				p.set(m.cfg, val)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, fmt.Sprintf("%g", p.get(m.cfg))
	case "s":
		cmd := m.start()
		return m, cmd
	case "left", "h":
		p.set(m.cfg, p.get(m.cfg)-p.step)
	case "right", "l":
		p.set(m.cfg, p.get(m.cfg)+p.step)
	}
	return m, nil
}

func (m *model) start() tea.Cmd {
	if err := m.cfg.Validate(); err != nil {
		m.err = err
		return nil
	}
	spec, err := m.cfg.SpawnSpec()
	if err != nil {
		m.err = err
		return nil
	}
	r, err := m.cfg.Build(sim.WithLogger(m.logger))
	if err != nil {
		m.err = err
		return nil
	}

	m.liveModel = NewModel(r, spec, m.cfg.Run.Dt, m.selected)
	m.state = stateSim
	return m.liveModel.Init()
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	idleDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func keyHints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("VERLETSIM") + "\n    " + subStyle.Render("verlet particle sandbox") + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), selectedStyle.Render(fmt.Sprintf("%-10s", name)), accentStyle.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleStyle.Render(fmt.Sprintf("  %-10s", name)), idleDimStyle.Render(desc)))
		}
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(m.selected)) + "\n    " + subStyle.Render(presetInfo[m.selected]) + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, p := range params {
		valStr := fmt.Sprintf("%8.3f", p.get(m.cfg))
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), selectedStyle.Render(fmt.Sprintf("%-12s", p.name)), accentStyle.Bold(true).Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", idleStyle.Render(fmt.Sprintf("  %-12s", p.name)), idleDimStyle.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

func RunInteractive(logger *slog.Logger) error {
	_, err := tea.NewProgram(NewInteractiveApp(logger), tea.WithAltScreen()).Run()
	return err
}
