package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/config"
	"github.com/ehr/patientor/internal/domain/patient"
)

func demoConfig() *config.Config {
	return &config.Config{
		Port:              "3000",
		Env:               "test",
		PatientAPITimeout: time.Second,
		DiagnosisCacheTTL: time.Hour,
		RateLimitRPS:      20,
		RateLimitBurst:    40,
		RequestTimeout:    time.Second,
	}
}

func newDemoApp(t *testing.T) *app {
	t.Helper()
	a, err := newApp(context.Background(), demoConfig(), zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestShowPatient(t *testing.T) {
	a := newDemoApp(t)
	var out bytes.Buffer
	if err := showPatient(context.Background(), a, "d2773598-f723-11e9-8f0b-362b9e155667", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Martin Riggs", "Z57.1: Occupational exposure to radiation", "HyPD"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestShowPatient_NotFound(t *testing.T) {
	a := newDemoApp(t)
	err := showPatient(context.Background(), a, "missing", &bytes.Buffer{})
	if !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListDiagnoses(t *testing.T) {
	a := newDemoApp(t)
	var out bytes.Buffer
	if err := listDiagnoses(context.Background(), a, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 15 {
		t.Errorf("expected 15 codes, got %d", len(lines))
	}
	if lines[0] != "M24.2: Disorder of ligament" {
		t.Errorf("unexpected first line %q", lines[0])
	}
}

func TestNewApp_Upstream(t *testing.T) {
	cfg := demoConfig()
	cfg.PatientAPIURL = "http://patients.internal:3001"
	a, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	if a.demo != nil {
		t.Error("expected no demo store with an upstream configured")
	}
	if _, ok := a.ready["patient_service"]; !ok {
		t.Error("expected a readiness check for the patient service")
	}
	if a.lister == nil || a.diagnoses == nil {
		t.Error("expected the upstream client to back listing and diagnoses")
	}
}

func TestNewApp_BadRedisURL(t *testing.T) {
	cfg := demoConfig()
	cfg.RedisURL = "not a url"
	if _, err := newApp(context.Background(), cfg, zerolog.Nop(), nil); err == nil {
		t.Error("expected an error for an unparseable redis url")
	}
}

func TestRootCmd_ShowRequiresID(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"show"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error without a patient id")
	}
}
