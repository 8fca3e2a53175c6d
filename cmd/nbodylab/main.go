package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodylab/internal/logging"
	"github.com/san-kum/nbodylab/internal/metrics"
)

type app struct {
	dataDir     string
	logLevel    string
	logFormat   string
	metricsAddr string

	log     logging.Logger
	metrics *metrics.EngineCollector
	server  *http.Server
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{log: logging.Noop()}

	rootCmd := &cobra.Command{
		Use:               "nbodylab",
		Short:             "2d gravitational n-body lab",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return a.shutdown(cmd.Context())
	}

	rootCmd.PersistentFlags().StringVar(&a.dataDir, "data", ".nbodylab", "data directory")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", envOr("LOG_FORMAT", "text"), "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(
		a.runCmd(),
		a.liveCmd(),
		a.pipeCmd(),
		a.compareCmd(),
		a.listCmd(),
		a.plotCmd(),
		a.exportCmd(),
		presetsCmd(),
		initConfigCmd(),
	)
	return rootCmd
}

// setup builds the logger and metrics shared by every subcommand. Logs go
// to stderr so stdout stays free for frames and reports.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.log = logging.New(logging.Config{
		Level:  a.logLevel,
		Format: a.logFormat,
		Writer: cmd.ErrOrStderr(),
	})

	reg := prometheus.NewRegistry()
	col, err := metrics.NewEngineCollector(reg)
	if err != nil {
		return err
	}
	a.metrics = col

	if a.metricsAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", col.Handler())
	a.server = &http.Server{Addr: a.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error(context.Background(), "metrics server failed", logging.Err(err))
		}
	}()
	a.log.Info(cmd.Context(), "serving metrics", logging.String("addr", a.metricsAddr))
	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
