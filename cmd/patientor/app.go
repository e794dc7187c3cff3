package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/config"
	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/platform/cache"
	"github.com/ehr/patientor/internal/platform/memstore"
	"github.com/ehr/patientor/internal/platform/patientapi"
	"github.com/ehr/patientor/internal/web"
)

// app holds the services every command works against.
type app struct {
	patients  patient.Service
	lister    patient.Lister
	diagnoses *diagnosis.Cache
	// demo is set when patients live in the in-memory store.
	demo   *memstore.Store
	logger zerolog.Logger
	ready  map[string]web.Check

	closers []func() error
}

// newApp picks the patient backend and wires the diagnosis cache. reg may be
// nil, in which case upstream calls are not instrumented.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{logger: logger, ready: map[string]web.Check{}}

	var source patient.DiagnosisService
	if cfg.UseDemoStore() {
		a.demo = memstore.NewSeeded()
		a.patients, a.lister, source = a.demo, a.demo, a.demo
		logger.Info().Msg("using the in-memory demo patient store")
	} else {
		opts := []patientapi.Option{
			patientapi.WithTimeout(cfg.PatientAPITimeout),
			patientapi.WithLogger(logger.With().Str("component", "patientapi").Logger()),
		}
		if reg != nil {
			opts = append(opts, patientapi.WithRegisterer(reg))
		}
		client := patientapi.New(cfg.PatientAPIURL, opts...)
		a.patients, a.lister, source = client, client, client
		a.ready["patient_service"] = client.Ping
		logger.Info().Str("url", cfg.PatientAPIURL).Msg("using the upstream patient service")
	}

	store, err := a.diagnosisStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.diagnoses = diagnosis.NewCache(source,
		diagnosis.WithStore(store, cfg.DiagnosisCacheTTL),
		diagnosis.WithLogger(logger.With().Str("component", "diagnoses").Logger()),
	)
	return a, nil
}

// diagnosisStore shares the reference list through Redis when configured,
// and keeps it in process otherwise.
func (a *app) diagnosisStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.RedisURL == "" {
		mem := cache.NewMemoryStore()
		cleanupCtx, cancel := context.WithCancel(context.Background())
		mem.StartCleanup(cleanupCtx, 5*time.Minute)
		a.closers = append(a.closers, func() error { cancel(); return nil })
		return mem, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rs, err := cache.NewRedisStore(pingCtx, cfg.RedisURL, "patientor:")
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.logger.Info().Msg("sharing the diagnosis list through redis")
	a.ready["redis"] = rs.Health
	a.closers = append(a.closers, rs.Close)
	return rs, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
