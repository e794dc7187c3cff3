package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
)

const mcclane = "d2773336-f723-11e9-8f0b-362b9e155667"

func TestStore_GetPatient(t *testing.T) {
	s := NewSeeded()
	p, err := s.GetPatient(context.Background(), mcclane)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "John McClane" || len(p.Entries) != 1 {
		t.Fatalf("unexpected patient %+v", p)
	}

	p.Entries[0].Common().Description = "changed"
	again, _ := s.GetPatient(context.Background(), mcclane)
	if again.Entries[0].Common().Description == "changed" {
		t.Error("expected returned patient to be a copy")
	}
}

func TestStore_GetPatient_NotFound(t *testing.T) {
	_, err := New().GetPatient(context.Background(), "missing")
	if !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListPatients(t *testing.T) {
	list, err := NewSeeded().ListPatients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("expected 5 patients, got %d", len(list))
	}
	if list[0].ID != mcclane {
		t.Errorf("expected insertion order, got %s first", list[0].ID)
	}
}

func TestStore_CreateEntry(t *testing.T) {
	s := NewSeeded()
	payload := &entry.HealthCheck{
		Base:              entry.Base{Description: "checkup", Date: "2024-02-01", Specialist: "MD House"},
		HealthCheckRating: entry.HighRisk,
	}

	created, err := s.CreateEntry(context.Background(), mcclane, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Common().ID == "" {
		t.Error("expected an assigned id")
	}
	if payload.ID != "" {
		t.Error("expected payload to be left untouched")
	}

	p, _ := s.GetPatient(context.Background(), mcclane)
	if len(p.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(p.Entries))
	}
	if p.Entries[1].Common().ID != created.Common().ID {
		t.Error("expected the new entry to be appended")
	}
}

func TestStore_CreateEntry_Invalid(t *testing.T) {
	s := NewSeeded()
	_, err := s.CreateEntry(context.Background(), mcclane, &entry.Hospital{
		Base: entry.Base{Description: "d", Date: "2024-02-01", Specialist: "s"},
	})
	var verr *patient.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStore_CreateEntry_UnknownPatient(t *testing.T) {
	_, err := New().CreateEntry(context.Background(), "missing", &entry.HealthCheck{
		Base: entry.Base{Description: "d", Date: "2024-02-01", Specialist: "s"},
	})
	if !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetAll(t *testing.T) {
	s := NewSeeded()
	list, _ := s.GetAll(context.Background())
	if len(list) == 0 {
		t.Fatal("expected seeded diagnoses")
	}
	list[0].Name = "changed"
	again, _ := s.GetAll(context.Background())
	if again[0].Name == "changed" {
		t.Error("expected a copy")
	}
}

func TestStore_AddPatientAssignsIDs(t *testing.T) {
	s := New()
	id := s.AddPatient(&patient.Patient{
		Name:    "Jane Doe",
		Entries: entry.List{&entry.HealthCheck{Base: entry.Base{Description: "d"}}},
	})
	p, err := s.GetPatient(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Entries[0].Common().ID == "" {
		t.Error("expected entry id to be assigned")
	}
}
