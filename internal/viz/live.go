package viz

import (
	"fmt"
	"image"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	width            = 80
	height           = 24
	historyCapacity  = 600
	DefaultTargetFPS = 50.0

	// spawning continues while fps >= target-fpsSlack
	fpsSlack = 0.1
)

type TickMsg time.Time

// fpsMeter is shared by every copy of Model, so the runner's spawn gate
// sees the rate the terminal is actually drawn at.
type fpsMeter struct {
	last time.Time
	fps  float64
}

func (f *fpsMeter) tick(now time.Time) {
	if !f.last.IsZero() {
		if dt := now.Sub(f.last).Seconds(); dt > 0 {
			if f.fps == 0 {
				f.fps = 1 / dt
			} else {
				f.fps = 0.9*f.fps + 0.1/dt
			}
		}
	}
	f.last = now
}

// allows reports whether the measured rate is high enough to release
// another particle. Before the first measurement it always is.
func (f *fpsMeter) allows(target float64) bool {
	return f.fps == 0 || f.fps >= target-fpsSlack
}

// Model drives a Runner one frame per tick and draws the arena.
type Model struct {
	runner    *sim.Runner
	spawn     particles.SpawnSpec
	dt        float64
	name      string
	kinetic   *metrics.KineticEnergy
	speed     *metrics.Speed
	meter     *fpsMeter
	targetFPS *float64
	pool      *sim.PositionPool

	width, height  int
	canvas         *Canvas
	theme          Theme
	palette        Palette
	running        bool
	frame          sim.Frame
	err            error
	notice         string
	energyHistory  []float64
	contactHistory []float64
	recording      bool
	frames         []*image.Paletted
	showHelp       bool
}

// NewModel wraps r. Particles are expected to be laid out with spawn
// already; reset lays them out again the same way.
func NewModel(r *sim.Runner, spawn particles.SpawnSpec, dt float64, name string) Model {
	kinetic := metrics.NewKineticEnergy()
	speed := metrics.NewSpeed()
	r.AddMetric(kinetic)
	r.AddMetric(speed)

	meter := &fpsMeter{}
	target := DefaultTargetFPS
	r.SetSpawnGate(func() bool {
		return meter.allows(target)
	})

	return Model{
		runner:         r,
		spawn:          spawn,
		dt:             dt,
		name:           name,
		kinetic:        kinetic,
		speed:          speed,
		meter:          meter,
		targetFPS:      &target,
		pool:           sim.NewPositionPool(r.Simulator().Store().Cap()),
		width:          width,
		height:         height,
		canvas:         NewCanvas(width, height),
		theme:          CurrentTheme,
		palette:        CurrentTheme.Palette(),
		running:        true,
		energyHistory:  make([]float64, 0, historyCapacity),
		contactHistory: make([]float64, 0, historyCapacity),
	}
}

// SetTargetFPS changes the frame rate below which spawning pauses.
func (m Model) SetTargetFPS(fps float64) {
	*m.targetFPS = fps
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
				m.draw()
			}
		case "r":
			m.reset()
		case "+", "=":
			*m.targetFPS += 5
		case "-", "_":
			*m.targetFPS = max(*m.targetFPS-5, 5)
		case "g":
			if m.recording {
				m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.palette = m.theme.Palette()
			SetTheme(m.theme.Name)
		}
	case tea.WindowSizeMsg:
		// keep room for the stats panel
		w, h := max(msg.Width-52, 20), max(msg.Height-4, 8)
		if w != m.width || h != m.height {
			m.width, m.height = w, h
			m.canvas = NewCanvas(w, h)
		}
	case TickMsg:
		m.meter.tick(time.Time(msg))
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	f, err := m.runner.Advance(m.dt)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.frame = f

	m.energyHistory = appendCapped(m.energyHistory, m.kinetic.Last())
	m.contactHistory = appendCapped(m.contactHistory, float64(f.Stats.Contacts))
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) reset() {
	m.runner.Reset()
	store := m.runner.Simulator().Store()
	store.Reset()
	particles.Instantiate(store, m.spawn)

	m.frame = sim.Frame{}
	m.err = nil
	m.energyHistory = m.energyHistory[:0]
	m.contactHistory = m.contactHistory[:0]
}

// viewport maps world coordinates onto canvas dots, preserving aspect.
type viewport struct {
	origin r2.Vec
	scale  float64
	offX   float64
	offY   float64
}

func newViewport(c dynamo.Container, cv *Canvas) viewport {
	lo, hi := c.Bounds()
	span := r2.Sub(hi, lo)
	cw, ch := float64(cv.DotsWide()-1), float64(cv.DotsHigh()-1)
	scale := min(cw/span.X, ch/span.Y)
	return viewport{
		origin: lo,
		scale:  scale,
		offX:   (cw - span.X*scale) / 2,
		offY:   (ch - span.Y*scale) / 2,
	}
}

func (v viewport) project(p r2.Vec) (int, int) {
	return int(v.offX + (p.X-v.origin.X)*v.scale + 0.5), int(v.offY + (p.Y-v.origin.Y)*v.scale + 0.5)
}

func (m *Model) draw() {
	s := m.runner.Simulator()
	positions := m.pool.Snapshot(s, m.runner.Active())
	defer m.pool.Put(positions)

	st := m.speed.Stats()
	DrawScene(m.canvas, s.Container(), s.Store(), positions, s.SubstepDt(m.dt), st.Mean+2*st.StdDev, m.palette)
}

// DrawScene clears cv and draws the container outline and one filled circle
// per entry of positions, whose radii and implicit velocities come from
// store. Speeds at or above maxSpeed get the fastest palette colour; zero
// maxSpeed draws every particle in the slowest.
func DrawScene(cv *Canvas, shape dynamo.Container, store *particles.Store, positions []r2.Vec, subDt, maxSpeed float64, p Palette) {
	cv.Clear()
	vp := newViewport(shape, cv)

	switch shape.Kind {
	case dynamo.ContainerDisk:
		cx, cy := vp.project(shape.Center)
		cv.DrawCircle(cx, cy, int(shape.Radius*vp.scale+0.5), 0)
	case dynamo.ContainerBox:
		inner := shape.HalfSize - shape.BorderWidth
		x0, y0 := vp.project(r2.Vec{X: shape.Center.X - inner, Y: shape.Center.Y - inner})
		x1, y1 := vp.project(r2.Vec{X: shape.Center.X + inner, Y: shape.Center.Y + inner})
		cv.DrawRect(x0, y0, x1, y1, 0)
	}

	for i, pos := range positions {
		speed := r2.Norm(store.VelocityEstimate(i, subDt))
		x, y := vp.project(pos)
		cv.FillCircle(x, y, store.At(i).Radius*vp.scale, p.Index(speed, maxSpeed))
	}
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.Render(m.palette))

	status := StatusRunning.Render("RUNNING")
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}
	if m.recording {
		status += " " + StatusRecording.Render("● REC")
	}

	store := m.runner.Simulator().Store()
	active := m.runner.Active()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(status + "\n\n")
	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.runner.SimTime()))
	row("Particles", fmt.Sprintf("%d / %d", active, store.Cap()))
	s.WriteString(labelStyle.Render("") + ProgressBar(float64(active)/float64(store.Cap()), 20) + "\n")
	row("FPS", fmt.Sprintf("%.0f (target %.0f)", m.meter.fps, *m.targetFPS))
	row("Step", m.frame.Elapsed.Round(time.Microsecond).String())
	row("Contacts", fmt.Sprintf("%d", m.frame.Stats.Contacts))
	row("Wall hits", fmt.Sprintf("%d", m.frame.Stats.WallHits))
	if m.frame.Stats.Overflow > 0 || m.frame.Stats.Degenerate > 0 {
		row("Dropped", fmt.Sprintf("%d overflow, %d coincident", m.frame.Stats.Overflow, m.frame.Stats.Degenerate))
	}
	row("Speed", fmt.Sprintf("%.1f avg, %.1f max", m.speed.Stats().Mean, m.speed.Stats().Max))
	row("Theme", GradientText(m.theme.Name, m.theme.Slow, m.theme.Fast))
	s.WriteString("\n" + SparklineChart(m.contactHistory, 30) + "\n")
	if m.err != nil {
		s.WriteString("\n" + StatusRecording.Render(m.err.Error()) + "\n")
	}
	if m.notice != "" {
		s.WriteString("\n" + valueStyle.Render(m.notice) + "\n")
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nT:Theme  G:Record ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  .        - Single frame (paused)    ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  + / -    - Raise/lower target FPS   ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// captureFrame rasterises the canvas, one block per braille dot, in the
// current palette.
func (m *Model) captureFrame() {
	charW, charH := 8, 16
	dotW, dotH := charW/2, charH/4
	img := image.NewPaletted(image.Rect(0, 0, m.canvas.Width*charW, m.canvas.Height*charH), m.palette.ImagePalette())

	for row := 0; row < m.canvas.Height; row++ {
		for col := 0; col < m.canvas.Width; col++ {
			idx := m.canvas.Tint[row][col]
			if idx == 0 {
				idx = PaletteSteps
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !m.canvas.Dot(col*2+dx, row*4+dy) {
						continue
					}
					baseX, baseY := col*charW+dx*dotW, row*charH+dy*dotH
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+px, baseY+py, idx)
						}
					}
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}

	name := fmt.Sprintf("%s_%d.gif", m.name, time.Now().Unix())
	f, err := os.Create(name)
	if err != nil {
		m.notice = err.Error()
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = "saved " + name
}

// RunLive runs m full screen until the user quits.
func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
