// Package entry defines the clinical entry union: one Entry is exactly one of
// HealthCheck, OccupationalHealthcare or Hospital, discriminated by Kind.
//
// Code that branches on the variant goes through Visitor or Match so that a
// new variant fails to compile at every dispatch site instead of being
// silently skipped.
package entry

// Base holds the fields shared by every variant. ID is assigned by the
// patient service and is empty on payloads built by the client.
type Base struct {
	ID             string   `json:"id,omitempty"`
	Description    string   `json:"description" validate:"required"`
	Date           string   `json:"date" validate:"required,datetime=2006-01-02"`
	Specialist     string   `json:"specialist" validate:"required"`
	DiagnosisCodes []string `json:"diagnosisCodes,omitempty"`
}

// HasDiagnoses reports whether any diagnosis code is recorded. A nil and an
// empty slice mean the same thing.
func (b *Base) HasDiagnoses() bool { return len(b.DiagnosisCodes) > 0 }

// Entry is the sealed union of clinical entry variants.
type Entry interface {
	Kind() Kind
	Common() *Base
	Accept(v Visitor)
	isEntry()
}

// Visitor handles every variant. Adding a variant adds a method here.
type Visitor interface {
	VisitHealthCheck(e *HealthCheck)
	VisitOccupationalHealthcare(e *OccupationalHealthcare)
	VisitHospital(e *Hospital)
}

type HealthCheck struct {
	Base
	HealthCheckRating HealthCheckRating `json:"healthCheckRating" validate:"gte=0,lte=3"`
}

type SickLeave struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

type OccupationalHealthcare struct {
	Base
	EmployerName string     `json:"employerName" validate:"required"`
	SickLeave    *SickLeave `json:"sickLeave,omitempty"`
}

type Discharge struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Criteria string `json:"criteria" validate:"required"`
}

type Hospital struct {
	Base
	Discharge Discharge `json:"discharge"`
}

func (e *HealthCheck) Kind() Kind            { return KindHealthCheck }
func (e *OccupationalHealthcare) Kind() Kind { return KindOccupationalHealthcare }
func (e *Hospital) Kind() Kind               { return KindHospital }

func (e *HealthCheck) Common() *Base            { return &e.Base }
func (e *OccupationalHealthcare) Common() *Base { return &e.Base }
func (e *Hospital) Common() *Base               { return &e.Base }

func (e *HealthCheck) Accept(v Visitor)            { v.VisitHealthCheck(e) }
func (e *OccupationalHealthcare) Accept(v Visitor) { v.VisitOccupationalHealthcare(e) }
func (e *Hospital) Accept(v Visitor)               { v.VisitHospital(e) }

func (*HealthCheck) isEntry()            {}
func (*OccupationalHealthcare) isEntry() {}
func (*Hospital) isEntry()               {}

// Match calls the function for e's variant and returns its result.
func Match[T any](
	e Entry,
	healthCheck func(*HealthCheck) T,
	occupational func(*OccupationalHealthcare) T,
	hospital func(*Hospital) T,
) T {
	switch v := e.(type) {
	case *HealthCheck:
		return healthCheck(v)
	case *OccupationalHealthcare:
		return occupational(v)
	case *Hospital:
		return hospital(v)
	default:
		return Unreachable[T](e)
	}
}
