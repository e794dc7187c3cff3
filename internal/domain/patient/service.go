// Package patient holds the patient and diagnosis reference models, the
// service contracts the viewer consumes, and the failure taxonomy those
// services report.
package patient

import (
	"context"

	"github.com/ehr/patientor/internal/domain/entry"
)

// Service reads patients and appends entries to them.
type Service interface {
	// GetPatient fails with ErrNotFound or a *TransportError.
	GetPatient(ctx context.Context, id string) (*Patient, error)
	// CreateEntry persists a payload (an entry without id) and returns the
	// stored entry with its assigned id. Fails with a *ValidationError or a
	// *TransportError.
	CreateEntry(ctx context.Context, patientID string, payload entry.Entry) (entry.Entry, error)
}

// Lister is implemented by services that can enumerate patients.
type Lister interface {
	ListPatients(ctx context.Context) ([]Summary, error)
}

// DiagnosisService returns the diagnosis reference list.
type DiagnosisService interface {
	GetAll(ctx context.Context) ([]Diagnosis, error)
}
