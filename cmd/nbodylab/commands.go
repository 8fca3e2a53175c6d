package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodylab/internal/config"
	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/engine"
	"github.com/san-kum/nbodylab/internal/export"
	"github.com/san-kum/nbodylab/internal/logging"
	"github.com/san-kum/nbodylab/internal/sim"
	"github.com/san-kum/nbodylab/internal/storage"
	"github.com/san-kum/nbodylab/internal/viz"
)

func (a *app) runCmd() *cobra.Command {
	var f simFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and record it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return a.runHeadless(cmd, cfg)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) runHeadless(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	st := storage.New(a.dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	run := simConfig(cfg)
	fmt.Fprintf(out, "running %s simulation (%d bodies, %s, dt=%g)...\n",
		cfg.Scenario, len(run.Bodies), cfg.Params.Method, cfg.Params.Dt)

	s := sim.New(a.log, a.metrics)
	for _, m := range driftMetrics() {
		s.AddMetric(m)
	}
	res, err := s.Run(cmd.Context(), run)
	if err != nil {
		return err
	}

	first, last := res.Initial(), res.Final()
	runID, err := st.Save(storage.RunMetadata{
		Scenario: cfg.Scenario,
		Seed:     cfg.Seed,
		Bodies:   len(run.Bodies),
		Params:   cfg.Params,
		Steps:    res.StepsTaken,
		Metrics: map[string]float64{
			"initial_energy": first.E,
			"final_energy":   last.E,
			"final_drift":    res.FinalDrift(),
			"max_drift":      res.Metrics["energy_drift"],
			"wall_seconds":   res.Elapsed.Seconds(),
		},
	}, res.Frames)
	if err != nil {
		return err
	}
	a.log.Info(cmd.Context(), "run saved",
		logging.String("id", runID),
		logging.Int("frames", len(res.Frames)),
		logging.Duration("elapsed", res.Elapsed))

	fmt.Fprintf(out, "completed in %v\n", res.Elapsed)
	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "steps: %d\n", res.StepsTaken)
	fmt.Fprintf(out, "frames: %d\n", len(res.Frames))
	fmt.Fprintf(out, "t: %.6f\n", last.T)
	fmt.Fprintln(out, "\nenergy:")
	fmt.Fprintf(out, "  E0:          %.9f\n", first.E)
	fmt.Fprintf(out, "  E:           %.9f\n", last.E)
	fmt.Fprintf(out, "  final drift: %.3e\n", res.FinalDrift())
	fmt.Fprintf(out, "  max drift:   %.3e\n", res.Metrics["energy_drift"])
	return nil
}

func (a *app) liveCmd() *cobra.Command {
	var f simFlags
	cmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return a.runLive(cmd.Context(), cfg)
		},
	}
	f.register(cmd)
	return cmd
}

// runLive leaves the heartbeat unpaced so the simulation rate does not
// follow the display rate. The one-slot frame buffer keeps the view on the
// newest heartbeat frame; the view adds Speed-1 steps per refresh.
func (a *app) runLive(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eng := engine.New(
		engine.WithLogger(a.log),
		engine.WithMetrics(a.metrics),
		engine.WithPlaying(cfg.Playing),
		engine.WithFrameBuffer(1),
	)
	go func() { _ = eng.Run(ctx) }()

	if err := eng.Send(ctx, engine.Initialize{Bodies: cfg.InitialBodies(), Params: cfg.Params}); err != nil {
		return err
	}

	seed := cfg.Seed
	reseedCfg := *cfg
	err := viz.Run(ctx, eng, viz.Options{
		Title:   cfg.Scenario,
		Params:  cfg.Params,
		Playing: cfg.Playing,
		Speed:   cfg.Speed,
		FPS:     cfg.FPS,
		Reseed: func() []dynamo.Body {
			seed++
			reseedCfg.Seed = seed
			return reseedCfg.InitialBodies()
		},
	})
	cancel()
	<-eng.Done()
	return err
}

func (a *app) compareCmd() *cobra.Command {
	var f simFlags
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "compare energy drift of leapfrog and rk4 on the same scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return a.compare(cmd, cfg)
		},
	}
	f.register(cmd)
	return cmd
}

// compare runs both integrators on identical initial bodies concurrently.
func (a *app) compare(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	methods := []dynamo.Method{dynamo.Leapfrog, dynamo.RK4}

	cfgs := make([]sim.Config, len(methods))
	for i, m := range methods {
		cfgs[i] = simConfig(cfg)
		cfgs[i].Params.Method = m
	}
	ens := sim.NewEnsemble(sim.New(a.log, a.metrics), driftMetrics)
	results, err := ens.Run(cmd.Context(), cfgs)
	if err != nil {
		return err
	}

	series := make([][]float64, len(results))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tT\tFINAL DRIFT\tMAX DRIFT\tWALL")
	for i, res := range results {
		series[i] = res.DriftSeries()
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%.3e\t%.3e\t%v\n",
			methods[i],
			res.StepsTaken,
			res.Final().T,
			res.FinalDrift(),
			res.Metrics["energy_drift"],
			res.Elapsed.Round(time.Microsecond),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(series[0]) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.PlotMany(series,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
			asciigraph.Caption("relative energy drift (green: leapfrog, red: rk4)"),
		))
	}
	return nil
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(a.dataDir).List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBODIES\tMETHOD\tDT\tSTEPS\tMAX DRIFT")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%g\t%d\t%.3e\n",
					run.ID,
					run.Scenario,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Bodies,
					run.Params.Method,
					run.Params.Dt,
					run.Steps,
					run.Metrics["max_drift"],
				)
			}
			return w.Flush()
		},
	}
}

func (a *app) plotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded energies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(a.dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			frames, err := st.LoadFrames(args[0])
			if err != nil {
				return err
			}
			if len(frames) < 2 {
				return fmt.Errorf("no data to plot")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run: %s\n", meta.ID)
			fmt.Fprintf(out, "scenario: %s (%d bodies, %s)\n", meta.Scenario, meta.Bodies, meta.Params.Method)
			fmt.Fprintf(out, "frames: %d\n\n", len(frames))

			kin := make([]float64, len(frames))
			pot := make([]float64, len(frames))
			for i, fr := range frames {
				kin[i], pot[i] = fr.Energies.K, fr.Energies.U
			}

			fmt.Fprintln(out, asciigraph.Plot(storage.EnergySeries(frames),
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("total energy E"),
			))
			fmt.Fprintln(out)
			fmt.Fprintln(out, asciigraph.PlotMany([][]float64{kin, pot},
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
				asciigraph.Caption("kinetic K (cyan) and potential U (magenta)"),
			))
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var (
		format        string
		outPath       string
		width, height int
	)
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as svg or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(a.dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			frames, err := st.LoadFrames(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "svg":
				svg := export.TrajectoriesToSVG(frames, width, height)
				if svg == "" {
					return fmt.Errorf("no data to export")
				}
				_, err = io.WriteString(out, svg+"\n")
				return err
			case "json":
				return export.WriteJSON(out, *meta, frames)
			default:
				return fmt.Errorf("unknown format: %s (available: svg, json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "svg", "output format: svg, json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&width, "width", 800, "svg width")
	cmd.Flags().IntVar(&height, "height", 800, "svg height")
	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCENARIO\tBODIES\tMETHOD\tDT\tEPS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				bodies := fmt.Sprintf("%d", len(p.InitialBodies()))
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\n", name, p.Scenario, bodies, p.Params.Method, p.Params.Dt, p.Params.Eps)
			}
			return w.Flush()
		},
	}
}

func initConfigCmd() *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file to edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	return cmd
}
