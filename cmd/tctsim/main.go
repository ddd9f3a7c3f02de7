package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/san-kum/tctsim/internal/analysis"
	"github.com/san-kum/tctsim/internal/carrier"
	"github.com/san-kum/tctsim/internal/config"
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/ensemble"
	"github.com/san-kum/tctsim/internal/experiment"
	"github.com/san-kum/tctsim/internal/export"
	"github.com/san-kum/tctsim/internal/integrators"
	"github.com/san-kum/tctsim/internal/logging"
	"github.com/san-kum/tctsim/internal/optim"
	"github.com/san-kum/tctsim/internal/physics"
	"github.com/san-kum/tctsim/internal/storage"
	"github.com/san-kum/tctsim/internal/sweep"
	"github.com/san-kum/tctsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string

	threads     int
	dt          float64
	totalTime   float64
	integrator  string
	seed        int64
	carrierFile string
	shapingMode string
	diffusion   bool

	voltageRange string
	lateralRange string
	depthRange   string
	progress     bool

	bias    float64
	lateral float64
	depth   float64

	outFile  string
	pngFile  string
	maxPlots int
	bins     int
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found")
	}

	rootCmd := &cobra.Command{
		Use:          "tctsim",
		Short:        "transient current technique simulator",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: info, debug, trace")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a preset configuration")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a bias, lateral and depth scan",
		RunE:  runSweep,
	}
	addSimulationFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&voltageRange, "voltage", "", "bias range init[:step:count] in V")
	sweepCmd.Flags().StringVar(&lateralRange, "lateral", "", "lateral shift range init[:step:count] in µm")
	sweepCmd.Flags().StringVar(&depthRange, "depth", "", "depth shift range init[:step:count] in µm")
	sweepCmd.Flags().BoolVar(&progress, "progress", false, "show the interactive progress view")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a single grid point",
		RunE:  runPoint,
	}
	addSimulationFlags(runCmd)
	runCmd.Flags().Float64Var(&bias, "bias", config.DefaultBias, "bias voltage (V)")
	runCmd.Flags().Float64Var(&lateral, "lateral", 0, "lateral shift (µm)")
	runCmd.Flags().Float64Var(&depth, "depth", 0, "depth shift (µm)")

	beamCmd := &cobra.Command{
		Use:   "beam",
		Short: "generate a carrier file from the configured beam",
		RunE:  writeBeam,
	}
	beamCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	beamCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "show carriers, depletion and a drift path at one bias",
		RunE:  inspect,
	}
	inspectCmd.Flags().Float64Var(&bias, "bias", config.DefaultBias, "bias voltage (V)")
	inspectCmd.Flags().IntVar(&bins, "bins", 10, "histogram bins per axis")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run waveforms",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngFile, "png", "", "write an image instead of terminal plots")
	plotCmd.Flags().IntVar(&maxPlots, "max", 6, "maximum number of waveforms")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "pulse shape and bandwidth per grid point",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run waveforms to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}

	rootCmd.AddCommand(sweepCmd, runCmd, beamCmd, inspectCmd, listCmd, showCmd, plotCmd,
		analyzeCmd, exportCSVCmd, exportJSONCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&threads, "threads", 1, "worker threads")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step (s)")
	cmd.Flags().Float64Var(&totalTime, "time", config.DefaultTotalTime, "simulated time (s)")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator: rk4, euler")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&carrierFile, "carriers", "", "carrier record file")
	cmd.Flags().StringVar(&shapingMode, "shaping", "", "shaping: none, rc, crrc, rc+crrc")
	cmd.Flags().BoolVar(&diffusion, "diffusion", false, "enable diffusion")
}

// loadConfig layers preset, config file, environment and explicitly set
// flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Output.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("threads") {
		cfg.Simulation.Threads = threads
	}
	if flags.Changed("dt") {
		cfg.Simulation.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Simulation.TotalTime = totalTime
	}
	if flags.Changed("integrator") {
		cfg.Simulation.Integrator = integrator
	}
	if flags.Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if flags.Changed("carriers") {
		cfg.Carriers.File = carrierFile
	}
	if flags.Changed("shaping") {
		cfg.Shaping.Mode = shapingMode
	}
	if flags.Changed("diffusion") {
		cfg.Detector.Diffusion = diffusion
	}

	ranges := []struct {
		flag string
		raw  string
		dst  *sweep.Range
	}{
		{"voltage", voltageRange, &cfg.Scan.Voltage},
		{"lateral", lateralRange, &cfg.Scan.Lateral},
		{"depth", depthRange, &cfg.Scan.Depth},
	}
	for _, r := range ranges {
		if flags.Lookup(r.flag) == nil || !flags.Changed(r.flag) {
			continue
		}
		parsed, err := parseRange(r.raw)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", r.flag, err)
		}
		*r.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseRange reads "init" or "init:step:count".
func parseRange(s string) (sweep.Range, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return sweep.Range{}, err
		}
		return sweep.Single(v), nil
	case 3:
		first, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return sweep.Range{}, err
		}
		step, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return sweep.Range{}, err
		}
		count, err := strconv.Atoi(parts[2])
		if err != nil {
			return sweep.Range{}, err
		}
		r := sweep.Range{Init: first, Step: step, Count: count}
		return r, r.Validate()
	}
	return sweep.Range{}, fmt.Errorf("want init or init:step:count, got %q", s)
}

func newLogger(cfg *config.Config) *slog.Logger {
	log := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	slog.SetDefault(log)
	return log
}

func setup(cmd *cobra.Command) (*config.Config, *experiment.Experiment, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	log := newLogger(cfg)
	exp := experiment.New(cfg, experiment.NewRegistry(), log)
	if err := exp.Setup(); err != nil {
		return nil, nil, nil, err
	}
	return cfg, exp, log, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, exp, log, err := setup(cmd)
	if err != nil {
		return err
	}

	st := storage.New(cfg.Output.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	journal := logging.NewJournal(cfg.Output.DataDir, cfg.Logging.Level)
	defer journal.Close()
	record := func(p sweep.Point) {
		journal.Log(map[string]any{
			"event":     "point",
			"worker":    p.Worker,
			"index":     p.Index,
			"voltage":   p.Voltage,
			"lateral":   p.Lateral,
			"depth":     p.Depth,
			"crossings": p.Crossings,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	grid, err := cfg.Grid()
	if err != nil {
		return err
	}

	start := time.Now()
	var table *sweep.ResultTable
	if progress {
		workers, _ := sweep.ClampWorkers(cfg.Simulation.Threads, len(grid.Depths))
		table, err = viz.RunProgress(ctx, cfg.Scan.Type, grid.Size(), workers,
			func(ctx context.Context, observe sweep.Observer) (*sweep.ResultTable, error) {
				return exp.Run(ctx, sweep.WithObserver(record), sweep.WithObserver(observe))
			})
	} else {
		table, err = exp.Run(ctx, sweep.WithObserver(record))
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Metadata(table, elapsed), table)
	if err != nil {
		return err
	}
	log.Debug("run saved", "id", runID, "dir", st.Dir(runID))

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("points: %d\n", table.Len())
	fmt.Printf("samples: %d\n", table.Samples())
	fmt.Printf("crossings: %d\n", table.Crossings())
	return nil
}

func runPoint(cmd *cobra.Command, args []string) error {
	cfg, exp, _, err := setup(cmd)
	if err != nil {
		return err
	}

	p, err := exp.RunPoint(bias, lateral, depth)
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("%g V, y=%g, z=%g", bias, lateral, depth)
	fmt.Println(viz.Waveform(p.Shaped, 12, 80, caption))
	fmt.Println()

	dt := cfg.Simulation.Dt
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIGNAL\tPEAK\tPEAK TIME\tCHARGE\tRISE")
	for _, row := range []struct {
		name string
		wave []float64
	}{
		{"electrons", p.Currents.Electron},
		{"holes", p.Currents.Hole},
		{"total", p.Currents.Total()},
		{"shaped", p.Shaped},
	} {
		s := analysis.Summarize(row.wave, dt)
		fmt.Fprintf(w, "%s\t%.4g\t%.3g ns\t%.4g\t%.3g ns\n",
			row.name, s.Peak, s.PeakTime*1e9, s.Charge, s.RiseTime*1e9)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ndepletion width: %.1f µm\n", p.Depleted)
	fmt.Printf("centroid: (%.1f, %.1f) µm\n", p.Centroid.X, p.Centroid.Y)
	fmt.Printf("crossings: %d\n", p.Currents.Crossings)
	return nil
}

func writeBeam(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, experiment.NewRegistry(), newLogger(cfg))
	if err := exp.Setup(); err != nil {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return ensemble.WriteRecords(out, exp.Carriers())
}

func inspect(cmd *cobra.Command, args []string) error {
	cfg, exp, _, err := setup(cmd)
	if err != nil {
		return err
	}

	guard := detector.NewFieldGuard()
	ens, err := exp.NewEnsemble(guard)
	if err != nil {
		return err
	}
	det := ens.Detector()
	if err := guard.Recompute(det, bias); err != nil {
		return err
	}
	bounds := det.Bounds()

	positions := make([]physics.Vec2, 0, ens.Len())
	for _, c := range ens.Carriers() {
		positions = append(positions, c.Init)
	}

	view := viz.NewCrossSection(bounds, 60, 20)
	view.Points(positions)
	view.Depletion(det.DepletionWidth())

	centroid := ens.Centroid()
	for _, kind := range []physics.Kind{physics.Electron, physics.Hole} {
		sys := carrier.NewDriftVelocity(kind, det.Temperature(), guard, det)
		path, err := analysis.TracePath(sys, integrators.NewRK4(), centroid, bounds,
			cfg.Simulation.Dt, cfg.Simulation.TotalTime)
		if err != nil {
			return err
		}
		view.Path(path.Points)
		fmt.Printf("%-9s transit %.3g ns over %.1f µm (exited: %v)\n",
			kind, path.TransitTime()*1e9, path.Length(), path.Exited)
	}

	fmt.Println()
	fmt.Print(viz.Panel.Render(view.String()))
	fmt.Println()
	fmt.Printf("bias %g V, depletion width %.1f of %.1f µm\n", bias, det.DepletionWidth(), bounds.Depth())

	electrons, holes := ens.Counts()
	fmt.Printf("carriers: %d electrons, %d holes, centroid (%.1f, %.1f) µm\n",
		electrons, holes, centroid.X, centroid.Y)

	hist, err := ens.Distribution(physics.Electron, bins, bins, 0, 0)
	if err != nil {
		return err
	}
	rows, cols := hist.Dims()
	profile := make([]float64, rows)
	for i := range profile {
		for j := 0; j < cols; j++ {
			profile[i] += hist.At(i, j)
		}
	}
	fmt.Printf("electron charge vs depth: %s\n", viz.Sparkline(profile, rows))
	return nil
}

func openStore() *storage.Store {
	if dataDir != "" {
		return storage.New(dataDir)
	}
	if v := os.Getenv("TCTSIM_DATA"); v != "" {
		return storage.New(v)
	}
	return storage.New(config.DefaultDataDir)
}

// resolveRun returns the given run id or the latest one.
func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := openStore().List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCAN\tTIME\tPOINTS\tCARRIERS\tCROSSINGS\tTHREADS\tELAPSED")
	for _, run := range runs {
		points := len(run.Voltages) * len(run.Lateral) * len(run.Depths)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.2fs\n",
			run.ID,
			run.Scan,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			points,
			run.Carriers,
			run.Crossings,
			run.Threads,
			run.Elapsed,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := openStore()
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := openStore()
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	if pngFile != "" {
		if err := export.Run(st, runID, pngFile, maxPlots); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngFile)
		return nil
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	waves, err := st.LoadWaveforms(runID)
	if err != nil {
		return err
	}
	if len(waves) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scan: %s\n", meta.Scan)
	fmt.Printf("points: %d\n\n", len(waves))

	for i, w := range waves {
		if i >= maxPlots {
			fmt.Printf("... %d more\n", len(waves)-maxPlots)
			break
		}
		fmt.Println(viz.Waveform(w.Current, 10, 80, export.Label(w)))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := openStore()
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	waves, err := st.LoadWaveforms(runID)
	if err != nil {
		return err
	}

	fmt.Printf("pulse analysis: %s\n\n", meta.ID)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "V\tY\tZ\tPOL\tPEAK\tPEAK TIME\tRISE\tCHARGE\tBW(-3dB)\tCROSS")
	for _, wave := range waves {
		s := analysis.Summarize(wave.Current, meta.Dt)
		freqs, amps := analysis.Spectrum(wave.Current, meta.Dt)
		bw := analysis.Bandwidth(freqs, amps, 1/1.4142135623730951)
		fmt.Fprintf(w, "%g\t%g\t%g\t%+d\t%.4g\t%.3g ns\t%.3g ns\t%.4g\t%.3g GHz\t%d\n",
			wave.Voltage, wave.Lateral, wave.Depth, s.Polarity, s.Peak,
			s.PeakTime*1e9, s.RiseTime*1e9, s.Charge, bw/1e9, wave.Crossings)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(meta.Voltages) < 2 {
		return nil
	}
	fmt.Println("\ncharge vs bias:")
	for _, c := range optim.ChargeCurves(waves, meta.Dt) {
		line := fmt.Sprintf("  y=%g z=%g  %s", c.Lateral, c.Depth, viz.Sparkline(c.Charges, len(c.Charges)))
		if vfd, err := optim.FullDepletion(c.Voltages, c.Charges, 0.95); err == nil {
			line += fmt.Sprintf("  95%% at %.1f V", vfd)
		}
		fmt.Println(line)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := openStore()
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	waves, err := st.LoadWaveforms(runID)
	if err != nil {
		return err
	}
	return storage.ExportCSV(os.Stdout, meta, waves)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := openStore()
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	waves, err := st.LoadWaveforms(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, waves)
}
