package entryform

import (
	"fmt"
	"strconv"

	"github.com/ehr/patientor/internal/domain/entry"
)

// Field names a draft input. The values double as HTML form input names.
type Field string

const (
	FieldDescription       Field = "description"
	FieldDate              Field = "date"
	FieldSpecialist        Field = "specialist"
	FieldDiagnosisCodes    Field = "diagnosisCodes"
	FieldHealthCheckRating Field = "healthCheckRating"
	FieldEmployerName      Field = "employerName"
	FieldSickLeaveStart    Field = "sickLeaveStartDate"
	FieldSickLeaveEnd      Field = "sickLeaveEndDate"
	FieldDischargeDate     Field = "dischargeDate"
	FieldDischargeCriteria Field = "dischargeCriteria"
)

type HealthCheckFields struct {
	Rating entry.HealthCheckRating
}

type OccupationalFields struct {
	EmployerName   string
	SickLeaveStart string
	SickLeaveEnd   string
}

type HospitalFields struct {
	DischargeDate     string
	DischargeCriteria string
}

// Draft is the unsaved form state. It holds the field sets of every kind;
// only the active Kind's set is ever submitted.
type Draft struct {
	Kind           entry.Kind
	Description    string
	Date           string
	Specialist     string
	DiagnosisCodes []string

	HealthCheck  HealthCheckFields
	Occupational OccupationalFields
	Hospital     HospitalFields
}

// NewDraft returns the initial draft: a health check with default fields.
func NewDraft() Draft {
	d := Draft{}
	d.resetKind(entry.KindHealthCheck)
	return d
}

// resetKind activates kind and puts its field set back to defaults. Other
// kinds' sets are left as they are.
func (d *Draft) resetKind(kind entry.Kind) {
	switch kind {
	case entry.KindHealthCheck:
		d.HealthCheck = HealthCheckFields{Rating: entry.Healthy}
	case entry.KindOccupationalHealthcare:
		d.Occupational = OccupationalFields{}
	case entry.KindHospital:
		d.Hospital = HospitalFields{}
	default:
		entry.PanicUnhandled(kind)
	}
	d.Kind = kind
}

func (d Draft) clone() Draft {
	if d.DiagnosisCodes != nil {
		d.DiagnosisCodes = append([]string(nil), d.DiagnosisCodes...)
	}
	return d
}

// set assigns one field. No cross-field checks happen here.
func (d *Draft) set(name Field, value string) error {
	switch name {
	case FieldDescription:
		d.Description = value
	case FieldDate:
		d.Date = value
	case FieldSpecialist:
		d.Specialist = value
	case FieldHealthCheckRating:
		r, err := parseRating(value)
		if err != nil {
			return err
		}
		d.HealthCheck.Rating = r
	case FieldEmployerName:
		d.Occupational.EmployerName = value
	case FieldSickLeaveStart:
		d.Occupational.SickLeaveStart = value
	case FieldSickLeaveEnd:
		d.Occupational.SickLeaveEnd = value
	case FieldDischargeDate:
		d.Hospital.DischargeDate = value
	case FieldDischargeCriteria:
		d.Hospital.DischargeCriteria = value
	case FieldDiagnosisCodes:
		return fmt.Errorf("use SetDiagnosisCodes for %s", name)
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

// parseRating accepts the symbolic name or the numeric severity.
func parseRating(value string) (entry.HealthCheckRating, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return entry.RatingFromSeverity(n)
	}
	return entry.ParseRating(value)
}

// Project builds the payload for the active kind. Fields of other kinds are
// never copied. Empty diagnosis codes become absent, sick leave is present
// only with a start date, and discharge is always present for hospitals.
func Project(d Draft) entry.Entry {
	base := entry.Base{
		Description: d.Description,
		Date:        d.Date,
		Specialist:  d.Specialist,
	}
	if len(d.DiagnosisCodes) > 0 {
		base.DiagnosisCodes = append([]string(nil), d.DiagnosisCodes...)
	}

	switch d.Kind {
	case entry.KindHealthCheck:
		return &entry.HealthCheck{
			Base:              base,
			HealthCheckRating: d.HealthCheck.Rating,
		}
	case entry.KindOccupationalHealthcare:
		e := &entry.OccupationalHealthcare{
			Base:         base,
			EmployerName: d.Occupational.EmployerName,
		}
		if d.Occupational.SickLeaveStart != "" {
			e.SickLeave = &entry.SickLeave{
				StartDate: d.Occupational.SickLeaveStart,
				EndDate:   d.Occupational.SickLeaveEnd,
			}
		}
		return e
	case entry.KindHospital:
		return &entry.Hospital{
			Base: base,
			Discharge: entry.Discharge{
				Date:     d.Hospital.DischargeDate,
				Criteria: d.Hospital.DischargeCriteria,
			},
		}
	default:
		return entry.Unreachable[entry.Entry](d.Kind)
	}
}
