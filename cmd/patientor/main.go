package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/patientor/internal/config"
	"github.com/ehr/patientor/internal/domain/presenter"
	"github.com/ehr/patientor/internal/platform/middleware"
	"github.com/ehr/patientor/internal/web"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "patientor",
		Short:        "Patient record viewer and entry editor",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(diagnosesCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <patient-id>",
		Short: "Print a patient and their entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			app, err := newApp(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			return showPatient(cmd.Context(), app, args[0], cmd.OutOrStdout())
		},
	}
}

func diagnosesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnoses",
		Short: "List the diagnosis reference codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			app, err := newApp(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			return listDiagnoses(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

// setup loads and validates the configuration and builds the logger.
func setup(logOut io.Writer) (*config.Config, zerolog.Logger, error) {
	logger := zerolog.New(logOut).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: logOut}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, logger, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		logger = logger.Level(level)
	}
	return cfg, logger, nil
}

func showPatient(ctx context.Context, app *app, id string, out io.Writer) error {
	p, err := app.patients.GetPatient(ctx, id)
	if err != nil {
		return fmt.Errorf("get patient %s: %w", id, err)
	}
	if _, err := app.diagnoses.All(ctx); err != nil {
		app.logger.Warn().Err(err).Msg("diagnosis names unavailable")
	}
	return presenter.WriteText(out, presenter.New(app.diagnoses).RenderPatient(p))
}

func listDiagnoses(ctx context.Context, app *app, out io.Writer) error {
	list, err := app.diagnoses.All(ctx)
	if err != nil {
		return fmt.Errorf("get diagnoses: %w", err)
	}
	for _, d := range list {
		if _, err := fmt.Fprintln(out, d.Label()); err != nil {
			return err
		}
	}
	return nil
}

func runServer() error {
	cfg, logger, err := setup(os.Stdout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := newApp(ctx, cfg, logger, reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer app.Close()

	handler := web.NewHandler(app.patients, app.diagnoses,
		web.WithLister(app.lister),
		web.WithLogger(logger),
		web.WithDefaultPatient(cfg.DefaultPatientID),
		web.WithSessionTTL(cfg.SessionIdleTTL),
	)
	handler.Sessions().StartCleanup(ctx, time.Minute)

	serverCfg := web.ServerConfig{
		Logger:   logger,
		Registry: reg,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
			IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
		},
		RequestTimeout: cfg.RequestTimeout,
		BodyLimit:      cfg.BodyLimit,
		CSRF:           true,
		Version:        version,
		Ready:          app.ready,
	}
	if app.demo != nil {
		serverCfg.API = web.NewAPIHandler(app.demo, logger)
	}
	e, err := web.NewServer(handler, serverCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("demo", app.demo != nil).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
