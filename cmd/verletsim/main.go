package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/export"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/optim"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/sim"
	"github.com/san-kum/verletsim/internal/storage"
	"github.com/san-kum/verletsim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

var (
	dataDir   string
	verbose   bool
	logFormat string
	logger    *slog.Logger

	// scene
	preset     string
	configFile string
	capacity   int
	radius     float64
	gravity    float64
	substeps   int
	frames     int
	dt         float64
	seed       int64
	workers    int
	container  string
	bpKind     string
	spawnDelay float64

	// run
	noSave   bool
	track    int
	trackOut string

	// compare
	numRuns int

	// tune
	tuneParams []string
	tuneMetric string
	tuneTop    int

	// live
	frameRate float64

	// export
	outFile string
	svgSize int
	theme   string
	braille bool

	initPreset string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "verletsim",
		Short: "verlet particle simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(os.Stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(tuiLogger())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".verletsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text|json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")
	runCmd.Flags().IntVar(&track, "track", -1, "record the path of this particle")
	runCmd.Flags().StringVar(&trackOut, "track-out", "track.svg", "svg file for --track")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().Float64Var(&frameRate, "fps", viz.DefaultTargetFPS, "stop spawning below this frame rate")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time a scene under each broadphase strategy",
		Args:  cobra.NoArgs,
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "run one scene under many seeds and compare metrics",
		Args:  cobra.NoArgs,
		RunE:  compareSeeds,
	}
	addSceneFlags(compareCmd)
	compareCmd.Flags().IntVar(&numRuns, "runs", 4, "number of seeds")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search scene parameters against a metric",
		Args:  cobra.NoArgs,
		RunE:  tuneScene,
	}
	addSceneFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "key=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_penetration", "metric to minimise")
	tuneCmd.Flags().IntVar(&tuneTop, "top", 5, "rows to show")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot per-frame stats of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-frame stats to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the final particle state to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the final particle state as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")
	exportSVGCmd.Flags().StringVar(&theme, "theme", viz.CurrentTheme.Name, "colour theme")
	exportSVGCmd.Flags().BoolVar(&braille, "braille", false, "draw the frame as the live view shows it")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scene presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCAPACITY\tRADIUS\tCONTAINER\tPATTERN")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%.1f\t%s\t%s\n", name, cfg.Particles.Capacity, cfg.Particles.Radius, cfg.Container.Kind, cfg.Particles.Pattern)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a scene config to edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if initPreset != "" {
				if cfg = config.GetPreset(initPreset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", initPreset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&initPreset, "preset", "", "start from a preset")

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, compareCmd, tuneCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(w io.Writer) error {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var h slog.Handler
	switch logFormat {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format: %s", logFormat)
	}
	logger = slog.New(h)
	slog.SetDefault(logger)
	return nil
}

// tuiLogger sends logs to a file under the data directory so they do not
// tear the alt screen.
func tuiLogger() *slog.Logger {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return slog.New(slog.DiscardHandler)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "live.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return slog.New(slog.DiscardHandler)
	}
	if err := setupLogger(f); err != nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "box", "scene preset")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&capacity, "capacity", config.DefaultCapacity, "particle capacity")
	cmd.Flags().Float64Var(&radius, "radius", config.DefaultRadius, "particle radius")
	cmd.Flags().Float64Var(&gravity, "gravity", config.DefaultGravity, "gravity along +y")
	cmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "substeps per frame")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to run")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "frame timestep")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel collision workers")
	cmd.Flags().StringVar(&container, "container", "box", "container shape (box|disk)")
	cmd.Flags().StringVar(&bpKind, "broadphase", string(broadphase.KindGrid), "broadphase (grid|brute)")
	cmd.Flags().Float64Var(&spawnDelay, "spawn-delay", config.DefaultSpawnDelay, "seconds between spawns, 0 spawns all")
}

// loadScene applies, in order: preset, config file, then flags the user
// actually set.
func loadScene(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	name := preset

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Changed("capacity") {
		cfg.Particles.Capacity = capacity
	}
	if flags.Changed("radius") {
		cfg.Particles.Radius = radius
	}
	if flags.Changed("gravity") {
		cfg.Physics.Gravity = gravity
	}
	if flags.Changed("substeps") {
		cfg.Physics.Substeps = substeps
	}
	if flags.Changed("frames") {
		cfg.Run.Frames = frames
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("seed") {
		cfg.Particles.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Physics.Workers = workers
	}
	if flags.Changed("container") {
		cfg.Container.Kind = container
	}
	if flags.Changed("broadphase") {
		cfg.Physics.Broadphase = bpKind
	}
	if flags.Changed("spawn-delay") {
		cfg.Run.SpawnDelay = spawnDelay
		if spawnDelay == 0 {
			cfg.Run.InitialActive = 0
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func addMetrics(r *sim.Runner, cfg *config.Config) error {
	s := r.Simulator()
	shape := s.Container()

	pen, err := metrics.NewPenetration(shape, s.Store().MaxRadius())
	if err != nil {
		return err
	}
	r.AddMetric(metrics.NewKineticEnergy())
	// potential energy is zero for a particle resting on the floor
	r.AddMetric(metrics.NewEnergyDrift(cfg.Physics.Gravity, shape.Floor(s.Store().MaxRadius())))
	r.AddMetric(metrics.NewContainment(shape, cfg.ContainmentTolerance()))
	r.AddMetric(pen)
	r.AddMetric(metrics.NewSpeed())
	return nil
}

// trackObserver records one particle's position every frame.
type trackObserver struct {
	index  int
	points []r2.Vec
}

func (t *trackObserver) OnFrame(f sim.Frame, store *particles.Store) {
	if t.index < f.Active {
		t.points = append(t.points, store.At(t.index).Curr)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScene(cmd)
	if err != nil {
		return err
	}

	rc := cfg.RunnerConfig()
	rc.KeepFrames = true
	r, err := cfg.BuildRunner(rc, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := addMetrics(r, cfg); err != nil {
		return err
	}

	var tracker *trackObserver
	if track >= 0 {
		tracker = &trackObserver{index: track}
		r.AddObserver(tracker)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s: %d particles, %d frames...\n", name, cfg.Particles.Capacity, cfg.Run.Frames)
	start := time.Now()

	result, err := r.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run interrupted", "err", err, "frames", len(result.Frames))
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("active: %d / %d\n", result.Active, cfg.Particles.Capacity)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := storage.RunMetadata{
			Scene:     name,
			Seed:      cfg.Particles.Seed,
			Dt:        cfg.Run.Dt,
			Frames:    len(result.Frames),
			Substeps:  cfg.Physics.Substeps,
			Capacity:  cfg.Particles.Capacity,
			Container: storage.NewContainerMeta(r.Simulator().Container()),
		}
		runID, err := st.Save(meta, result, r.Simulator().Store())
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if tracker != nil {
		svg := export.TrajectoryToSVG(tracker.points, 600, 600, "#00ffff")
		if err := os.WriteFile(trackOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("track: %s (%d points)\n", trackOut, len(tracker.points))
	}

	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScene(cmd)
	if err != nil {
		return err
	}
	spec, err := cfg.SpawnSpec()
	if err != nil {
		return err
	}

	r, err := cfg.Build(sim.WithLogger(tuiLogger()))
	if err != nil {
		return err
	}

	m := viz.NewModel(r, spec, cfg.Run.Dt, name)
	m.SetTargetFPS(frameRate)
	return viz.RunLive(m)
}

type benchCase struct {
	name    string
	kind    broadphase.Kind
	workers int
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScene(cmd)
	if err != nil {
		return err
	}

	cases := []benchCase{
		{"grid", broadphase.KindGrid, 1},
		{fmt.Sprintf("grid x%d", runtime.GOMAXPROCS(0)), broadphase.KindGrid, runtime.GOMAXPROCS(0)},
	}
	if cfg.Particles.Capacity <= 2000 {
		cases = append(cases, benchCase{"brute", broadphase.KindBrute, 1})
	}

	fmt.Printf("benchmarking %s: %d particles, %d frames\n\n", name, cfg.Particles.Capacity, cfg.Run.Frames)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tAVG STEP\tMAX STEP\tFRAMES/S\tCONTACTS")

	for _, bc := range cases {
		c := *cfg
		c.Physics.Broadphase = string(bc.kind)
		c.Physics.Workers = bc.workers
		c.Run.SpawnDelay = 0
		c.Run.InitialActive = 0

		r, err := c.Build(sim.WithLogger(logger))
		if err != nil {
			return err
		}

		var total, worst time.Duration
		contacts := 0
		for i := 0; i < c.Run.Frames; i++ {
			f, err := r.Advance(c.Run.Dt)
			if err != nil {
				return err
			}
			total += f.Elapsed
			worst = max(worst, f.Elapsed)
			contacts += f.Stats.Contacts
		}

		avg := total / time.Duration(max(c.Run.Frames, 1))
		fmt.Fprintf(w, "%s\t%v\t%v\t%.0f\t%d\n",
			bc.name,
			avg.Round(time.Microsecond),
			worst.Round(time.Microsecond),
			float64(time.Second)/float64(max(avg, 1)),
			contacts/max(c.Run.Frames, 1),
		)
	}

	return w.Flush()
}

func compareSeeds(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScene(cmd)
	if err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}

	build := func(seed int64) (*sim.Runner, error) {
		c := *cfg
		c.Particles.Seed = seed
		r, err := c.Build(sim.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := addMetrics(r, &c); err != nil {
			return nil, err
		}
		return r, nil
	}

	fmt.Printf("comparing %s over %d seeds...\n\n", name, numRuns)
	start := time.Now()
	results, err := sim.NewEnsemble(build, numRuns, cfg.Particles.Seed).Run(context.Background())
	if err != nil {
		return err
	}

	names := make([]string, 0)
	for k := range results[0].Metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, metric := range names {
		vals := make([]float64, len(results))
		for i, res := range results {
			vals[i] = res.Metrics[metric]
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) == 1 {
			std = 0
		}
		lo, hi := vals[0], vals[0]
		for _, v := range vals {
			lo, hi = min(lo, v), max(hi, v)
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", metric, mean, std, lo, hi)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", time.Since(start))
	return nil
}

func parseParam(spec string) (string, []float64, error) {
	key, list, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("param %q: want key=v1,v2 (keys: %s)", spec, strings.Join(config.ParamNames(), ", "))
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("param %s: %w", key, err)
		}
		vals = append(vals, v)
	}
	return key, vals, nil
}

func tuneScene(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScene(cmd)
	if err != nil {
		return err
	}
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required (keys: %s)", strings.Join(config.ParamNames(), ", "))
	}

	keys := make([]string, len(tuneParams))
	ranges := make([][]float64, len(tuneParams))
	for i, spec := range tuneParams {
		if keys[i], ranges[i], err = parseParam(spec); err != nil {
			return err
		}
	}
	g, err := optim.NewGridSearch(keys, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("tuning %s: %d trials, minimising %s...\n\n", name, g.Size(), tuneMetric)
	start := time.Now()
	trials, err := g.Search(ctx, cfg, addMetrics, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(keys, "\t")+"\t"+strings.ToUpper(tuneMetric))
	for i, tr := range trials {
		if i == tuneTop {
			break
		}
		for _, k := range keys {
			fmt.Fprintf(w, "%g\t", tr.Params[k])
		}
		if tr.Err != nil {
			fmt.Fprintf(w, "error: %v\n", tr.Err)
			continue
		}
		fmt.Fprintf(w, "%.6f\n", tr.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", time.Since(start))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tFRAMES\tDT\tACTIVE\tCONTAINER")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d/%d\t%s\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Dt,
			run.Active,
			run.Capacity,
			run.Container.Kind,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("frames: %d\n\n", len(records))

	series := []struct {
		caption string
		value   func(*storage.FrameRecord) float64
	}{
		{"active particles", func(r *storage.FrameRecord) float64 { return float64(r.Active) }},
		{"contacts per frame", func(r *storage.FrameRecord) float64 { return float64(r.Contacts) }},
		{"wall hits per frame", func(r *storage.FrameRecord) float64 { return float64(r.WallHits) }},
		{"step time (us)", func(r *storage.FrameRecord) float64 { return float64(r.ElapsedUS) }},
	}

	for _, s := range series {
		data := make([]float64, len(records))
		for i, r := range records {
			data[i] = s.value(r)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func output(def string) (io.WriteCloser, error) {
	if outFile == "" && def == "" {
		return nopCloser{os.Stdout}, nil
	}
	path := outFile
	if path == "" {
		path = def
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	w, err := output("")
	if err != nil {
		return err
	}
	defer w.Close()
	return gocsv.Marshal(records, w)
}

// restoreRun rebuilds the final particle state of a saved run.
func restoreRun(runID string) (*storage.RunMetadata, *particles.Store, int, dynamo.Container, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, 0, dynamo.Container{}, err
	}
	shape, err := meta.Container.Shape()
	if err != nil {
		return nil, nil, 0, dynamo.Container{}, err
	}

	ps, err := particles.New(max(meta.Capacity, meta.Active, 1), config.DefaultRadius)
	if err != nil {
		return nil, nil, 0, dynamo.Container{}, err
	}
	active, err := st.Restore(runID, ps)
	if err != nil {
		return nil, nil, 0, dynamo.Container{}, err
	}
	return meta, ps, active, shape, nil
}

func substepDt(meta *storage.RunMetadata) float64 {
	return meta.Dt / float64(max(meta.Substeps, 1))
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, ps, active, shape, err := restoreRun(args[0])
	if err != nil {
		return err
	}

	w, err := output("")
	if err != nil {
		return err
	}
	defer w.Close()
	return export.WriteJSON(w, export.NewSnapshot(ps, active, shape, meta.SimTime, substepDt(meta)))
}

// brailleSVG rasterises the scene onto a braille canvas of svgSize/4 dots a
// side and scales each dot back up to 4px.
func brailleSVG(ps *particles.Store, active int, shape dynamo.Container, subDt float64, p viz.Palette) string {
	const dotPx = 4
	cv := viz.NewCanvas(max(svgSize/(2*dotPx), 1), max(svgSize/(4*dotPx), 1))

	maxSpeed := 0.0
	for i := 0; i < active; i++ {
		maxSpeed = max(maxSpeed, r2.Norm(ps.VelocityEstimate(i, subDt)))
	}
	viz.DrawScene(cv, shape, ps, ps.Positions(active, nil), subDt, maxSpeed, p)
	return export.CanvasToSVG(cv, p, dotPx)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, ps, active, shape, err := restoreRun(args[0])
	if err != nil {
		return err
	}

	th := viz.GetTheme(theme)
	var svg string
	if braille {
		svg = brailleSVG(ps, active, shape, substepDt(meta), th.Palette())
	} else {
		svg = export.ParticlesToSVG(ps, active, shape, export.SceneOptions{
			Size:    svgSize,
			Dt:      substepDt(meta),
			Palette: th.Palette(),
			Wall:    string(th.Wall),
		})
	}

	w, err := output(args[0] + ".svg")
	if err != nil {
		return err
	}
	defer w.Close()
	if _, err := io.WriteString(w, svg); err != nil {
		return err
	}
	if outFile == "" {
		fmt.Printf("wrote %s.svg\n", args[0])
	}
	return nil
}
