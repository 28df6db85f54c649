package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/verletsim/internal/dynamo"
)

// RunConfig drives a Runner, the headless host around a Simulator.
type RunConfig struct {
	Frames int
	Dt     float64
	// SpawnDelay is the sim time between two particle releases. With zero
	// delay the run starts with InitialActive particles, or the whole store
	// when that is zero too, and never grows.
	SpawnDelay    float64
	InitialActive int
	// KeepFrames retains every Frame in the Result.
	KeepFrames bool
}

// Runner owns the active count. It grows it on a timer the way an
// interactive host would, steps the simulator and feeds metrics and
// observers.
type Runner struct {
	sim *Simulator
	cfg RunConfig

	active     int
	spawnTimer float64
	frame      int
	simTime    float64
	spawnGate  func() bool

	metrics   []Metric
	observers []Observer
}

func NewRunner(s *Simulator, cfg RunConfig) *Runner {
	r := &Runner{sim: s, cfg: cfg}
	r.active = r.initialActive()
	return r
}

func (r *Runner) initialActive() int {
	n := r.sim.Store().Cap()
	if r.cfg.SpawnDelay <= 0 && r.cfg.InitialActive == 0 {
		return n
	}
	return min(max(r.cfg.InitialActive, 0), n)
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// SetSpawnGate installs a predicate that must hold for a particle to be
// released; the live view uses it to stop spawning below target FPS.
func (r *Runner) SetSpawnGate(gate func() bool) { r.spawnGate = gate }

func (r *Runner) Active() int {
	return r.active
}

func (r *Runner) Simulator() *Simulator {
	return r.sim
}

func (r *Runner) SimTime() float64 {
	return r.simTime
}

// Reset rewinds the host state. The caller re-instantiates the particles.
func (r *Runner) Reset() {
	r.active = r.initialActive()
	r.spawnTimer = 0
	r.frame = 0
	r.simTime = 0
	for _, m := range r.metrics {
		m.Reset()
	}
}

// Advance runs the spawn logic and one frame of length dt.
func (r *Runner) Advance(dt float64) (Frame, error) {
	r.spawn(dt)

	start := time.Now()
	stats, err := r.sim.Step(r.active, dt)
	if err != nil {
		return Frame{}, &dynamo.StepError{Frame: r.frame, Time: r.simTime, Wrapped: err}
	}
	r.simTime += dt

	f := Frame{
		Index:   r.frame,
		Time:    r.simTime,
		Dt:      dt,
		Active:  r.active,
		Stats:   stats,
		Elapsed: time.Since(start),
	}
	r.frame++

	subDt := r.sim.SubstepDt(dt)
	for _, m := range r.metrics {
		m.Observe(r.sim.Store(), r.active, subDt)
	}
	for _, o := range r.observers {
		o.OnFrame(f, r.sim.Store())
	}
	return f, nil
}

func (r *Runner) spawn(dt float64) {
	if r.cfg.SpawnDelay <= 0 || r.active >= r.sim.Store().Cap() {
		return
	}
	r.spawnTimer += dt
	if r.spawnTimer < r.cfg.SpawnDelay {
		return
	}
	if r.spawnGate != nil && !r.spawnGate() {
		return
	}
	r.active++
	r.spawnTimer = 0
}

// Run advances cfg.Frames frames, checking ctx between frames. A frame is
// never interrupted halfway.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.cfg.Frames <= 0 {
		return nil, fmt.Errorf("frames=%d: %w", r.cfg.Frames, dynamo.ErrInvalidConfig)
	}
	if !(r.cfg.Dt > 0) {
		return nil, fmt.Errorf("dt=%v: %w", r.cfg.Dt, dynamo.ErrInvalidTimestep)
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64)}
	if r.cfg.KeepFrames {
		result.Frames = make([]Frame, 0, r.cfg.Frames)
	}

	log := r.sim.Logger()
	log.Info("run started", "frames", r.cfg.Frames, "dt", r.cfg.Dt, "capacity", r.sim.Store().Cap())

	for i := 0; i < r.cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			r.collect(result)
			return result, ctx.Err()
		default:
		}

		f, err := r.Advance(r.cfg.Dt)
		if err != nil {
			r.collect(result)
			return result, err
		}
		if r.cfg.KeepFrames {
			result.Frames = append(result.Frames, f)
		}
		log.Debug("frame", "index", f.Index, "active", f.Active, "contacts", f.Stats.Contacts, "elapsed", f.Elapsed)
	}

	r.collect(result)
	log.Info("run finished", "active", result.Active, "sim_time", result.SimTime)
	return result, nil
}

func (r *Runner) collect(result *Result) {
	result.Active = r.active
	result.SimTime = r.simTime
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
