package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	metadataFile  = "metadata.json"
	framesFile    = "frames.csv"
	particlesFile = "particles.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Frames    int                `json:"frames"`
	Substeps  int                `json:"substeps"`
	Capacity  int                `json:"capacity"`
	Active    int                `json:"active"`
	Container ContainerMeta      `json:"container"`
	SimTime   float64            `json:"sim_time"`
	Metrics   map[string]float64 `json:"metrics"`
}

// ContainerMeta records the container so a saved run can be redrawn.
type ContainerMeta struct {
	Kind        string     `json:"kind"`
	Center      [2]float64 `json:"center"`
	HalfSize    float64    `json:"half_size,omitempty"`
	BorderWidth float64    `json:"border_width,omitempty"`
	Radius      float64    `json:"radius,omitempty"`
}

func NewContainerMeta(c dynamo.Container) ContainerMeta {
	return ContainerMeta{
		Kind:        c.Kind.String(),
		Center:      [2]float64{c.Center.X, c.Center.Y},
		HalfSize:    c.HalfSize,
		BorderWidth: c.BorderWidth,
		Radius:      c.Radius,
	}
}

func (m ContainerMeta) Shape() (dynamo.Container, error) {
	kind, err := dynamo.ParseContainerKind(m.Kind)
	if err != nil {
		return dynamo.Container{}, err
	}
	center := r2.Vec{X: m.Center[0], Y: m.Center[1]}
	if kind == dynamo.ContainerDisk {
		return dynamo.NewDisk(center, m.Radius), nil
	}
	return dynamo.NewBox(center, m.HalfSize, m.BorderWidth), nil
}

// FrameRecord is one row of frames.csv.
type FrameRecord struct {
	Index      int     `csv:"frame"`
	Time       float64 `csv:"time"`
	Active     int     `csv:"active"`
	Candidates int     `csv:"candidates"`
	Contacts   int     `csv:"contacts"`
	Degenerate int     `csv:"degenerate"`
	Overflow   int     `csv:"overflow"`
	WallHits   int     `csv:"wall_hits"`
	ElapsedUS  int64   `csv:"elapsed_us"`
}

// ParticleRecord is one row of particles.csv, the final arena state.
type ParticleRecord struct {
	ID     int     `csv:"id"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	OldX   float64 `csv:"old_x"`
	OldY   float64 `csv:"old_y"`
	Radius float64 `csv:"radius"`
}

func frameRecords(frames []sim.Frame) []*FrameRecord {
	records := make([]*FrameRecord, 0, len(frames))
	for _, f := range frames {
		records = append(records, &FrameRecord{
			Index:      f.Index,
			Time:       f.Time,
			Active:     f.Active,
			Candidates: f.Stats.Candidates,
			Contacts:   f.Stats.Contacts,
			Degenerate: f.Stats.Degenerate,
			Overflow:   f.Stats.Overflow,
			WallHits:   f.Stats.WallHits,
			ElapsedUS:  f.Elapsed.Microseconds(),
		})
	}
	return records
}

func particleRecords(store *particles.Store, active int) []*ParticleRecord {
	records := make([]*ParticleRecord, 0, active)
	for i, p := range store.Live(active) {
		records = append(records, &ParticleRecord{
			ID:     i,
			X:      p.Curr.X,
			Y:      p.Curr.Y,
			OldX:   p.Old.X,
			OldY:   p.Old.Y,
			Radius: p.Radius,
		})
	}
	return records
}

// Save writes metadata, per-frame stats and the live particles of a finished
// run under a fresh run ID.
func (s *Store) Save(meta RunMetadata, result *sim.Result, store *particles.Store) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Scene, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Active = result.Active
	meta.SimTime = result.SimTime
	meta.Metrics = result.Metrics

	if err := writeRun(runDir, meta, result, store); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, result *sim.Result, store *particles.Store) error {
	if err := store.CheckActive(result.Active); err != nil {
		return fmt.Errorf("write particles: %w", err)
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, framesFile), frameRecords(result.Frames)); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, particlesFile), particleRecords(store, result.Active)); err != nil {
		return fmt.Errorf("write particles: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(path string, records any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(records, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]*FrameRecord, error) {
	var records []*FrameRecord
	if err := readCSV(filepath.Join(s.baseDir, runID, framesFile), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) LoadParticles(runID string) ([]*ParticleRecord, error) {
	var records []*ParticleRecord
	if err := readCSV(filepath.Join(s.baseDir, runID, particlesFile), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		// a run with no live particles leaves a header-only file
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Restore places a saved run's particles back into st and returns how many
// are live. Radii are restored too, so call it before building a simulator
// around st.
func (s *Store) Restore(runID string, st *particles.Store) (int, error) {
	records, err := s.LoadParticles(runID)
	if err != nil {
		return 0, err
	}
	if len(records) > st.Cap() {
		return 0, dynamo.NewConfigError("particles.capacity", st.Cap(), dynamo.ErrActiveCount)
	}

	for i, rec := range records {
		st.Place(i, r2.Vec{X: rec.X, Y: rec.Y}, r2.Vec{X: rec.OldX, Y: rec.OldY})
		if err := st.SetRadius(i, rec.Radius); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}
