// Package memstore is an in-memory patient service used for demos and tests.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
)

// Store is a thread-safe, in-memory implementation of patient.Service,
// patient.Lister and patient.DiagnosisService. Callers always receive
// copies.
type Store struct {
	mu        sync.RWMutex
	patients  map[string]*patient.Patient
	order     []string
	diagnoses []patient.Diagnosis
}

func New() *Store {
	return &Store{patients: make(map[string]*patient.Patient)}
}

// NewSeeded returns a store holding the demo patients and diagnosis codes.
func NewSeeded() *Store {
	s := New()
	s.SetDiagnoses(seedDiagnoses)
	for _, p := range seedPatients() {
		s.AddPatient(p)
	}
	return s
}

// AddPatient stores p, assigning an id when it has none, and returns the id.
func (s *Store) AddPatient(p *patient.Patient) string {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	for _, e := range p.Entries {
		if b := e.Common(); b.ID == "" {
			b.ID = uuid.New().String()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.patients[p.ID] = p
	return p.ID
}

func (s *Store) SetDiagnoses(list []patient.Diagnosis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnoses = append([]patient.Diagnosis(nil), list...)
}

func (s *Store) GetPatient(_ context.Context, id string) (*patient.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", id, patient.ErrNotFound)
	}
	return clonePatient(p)
}

func (s *Store) ListPatients(_ context.Context) ([]patient.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]patient.Summary, 0, len(s.order))
	for _, id := range s.order {
		if p := s.patients[id]; p != nil {
			out = append(out, p.Summarize())
		}
	}
	return out, nil
}

// CreateEntry validates payload, assigns it an id and appends it to the
// patient's entries.
func (s *Store) CreateEntry(_ context.Context, patientID string, payload entry.Entry) (entry.Entry, error) {
	if err := patient.ValidateEntry(payload); err != nil {
		return nil, err
	}
	stored, err := cloneEntry(payload)
	if err != nil {
		return nil, err
	}
	stored.Common().ID = uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[patientID]
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", patientID, patient.ErrNotFound)
	}
	p.Entries = append(p.Entries, stored)
	return cloneEntry(stored)
}

func (s *Store) GetAll(_ context.Context) ([]patient.Diagnosis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]patient.Diagnosis{}, s.diagnoses...), nil
}

func cloneEntry(e entry.Entry) (entry.Entry, error) {
	data, err := entry.Encode(e)
	if err != nil {
		return nil, err
	}
	return entry.Decode(data)
}

func clonePatient(p *patient.Patient) (*patient.Patient, error) {
	out := *p
	out.Entries = make(entry.List, 0, len(p.Entries))
	for _, e := range p.Entries {
		c, err := cloneEntry(e)
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, c)
	}
	return &out, nil
}
