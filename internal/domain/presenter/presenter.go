// Package presenter turns patients and their entries into display models.
// Rendering never fails: a diagnosis code whose name is not known yet is
// shown with an empty name.
package presenter

import (
	"strings"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
)

type Icon string

const (
	IconHospital    Icon = "hospital"
	IconWork        Icon = "work"
	IconMedical     Icon = "medical"
	IconFemale      Icon = "female"
	IconMale        Icon = "male"
	IconTransgender Icon = "transgender"
)

var glyphs = map[Icon]string{
	IconHospital:    "🏥",
	IconWork:        "💼",
	IconMedical:     "🩺",
	IconFemale:      "♀",
	IconMale:        "♂",
	IconTransgender: "⚧",
}

func (i Icon) Glyph() string { return glyphs[i] }

const unknown = "unknown"

type DiagnosisLine struct {
	Code string
	Name string
}

func (l DiagnosisLine) String() string { return l.Code + ": " + l.Name }

var ratingTexts = [...]string{
	entry.Healthy:      "The patient is in great shape",
	entry.LowRisk:      "The patient has a low risk of getting sick",
	entry.HighRisk:     "The patient has a high risk of getting sick",
	entry.CriticalRisk: "The patient has a diagnosed condition",
}

// RatingBar shows a health check rating as hearts, one lost per severity step.
type RatingBar struct {
	Severity int
	Max      int
	Text     string
}

func (b RatingBar) Filled() int { return b.Max + 1 - b.lost() }

// lost is Severity clamped to 0..Max.
func (b RatingBar) lost() int {
	return min(max(b.Severity, 0), max(b.Max, 0))
}

func (b RatingBar) String() string {
	return strings.Repeat("♥", b.Filled()) + strings.Repeat("♡", b.lost())
}

type Discharge struct {
	Date     string
	Criteria string
}

// EntryView is the display model for one entry. Kind-specific parts are
// nil or empty for kinds that do not have them.
type EntryView struct {
	ID          string
	Kind        entry.Kind
	Date        string
	Icon        Icon
	Description string
	Specialist  string
	Diagnoses   []DiagnosisLine

	Employer  string
	SickLeave string
	Discharge *Discharge
	Rating    *RatingBar
}

type PatientView struct {
	ID          string
	Name        string
	GenderIcon  Icon
	SSN         string
	DateOfBirth string
	Occupation  string
	Entries     []EntryView
}

// ShowEntriesHeading reports whether the entry list has anything to head.
func (v PatientView) ShowEntriesHeading() bool { return len(v.Entries) > 0 }

type Presenter struct {
	names diagnosis.Lookup
}

// New returns a Presenter resolving codes through names. A nil lookup
// leaves every name empty.
func New(names diagnosis.Lookup) *Presenter {
	return &Presenter{names: names}
}

// Render builds the view of e.
func (p *Presenter) Render(e entry.Entry) EntryView {
	b := &viewBuilder{p: p}
	e.Accept(b)
	return b.view
}

func (p *Presenter) RenderPatient(pt *patient.Patient) PatientView {
	v := PatientView{
		ID:          pt.ID,
		Name:        pt.Name,
		GenderIcon:  genderIcon(pt.Gender),
		SSN:         orUnknown(pt.SSN),
		DateOfBirth: orUnknown(pt.DateOfBirth),
		Occupation:  pt.Occupation,
		Entries:     make([]EntryView, 0, len(pt.Entries)),
	}
	for _, e := range pt.Entries {
		v.Entries = append(v.Entries, p.Render(e))
	}
	return v
}

func genderIcon(g patient.Gender) Icon {
	switch g {
	case patient.GenderFemale:
		return IconFemale
	case patient.GenderOther:
		return IconTransgender
	}
	return IconMale
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func (p *Presenter) diagnosisLines(b *entry.Base) []DiagnosisLine {
	if !b.HasDiagnoses() {
		return nil
	}
	lines := make([]DiagnosisLine, 0, len(b.DiagnosisCodes))
	for _, code := range b.DiagnosisCodes {
		line := DiagnosisLine{Code: code}
		if p.names != nil {
			line.Name, _ = p.names.Name(code)
		}
		lines = append(lines, line)
	}
	return lines
}

// viewBuilder fills an EntryView per variant.
type viewBuilder struct {
	p    *Presenter
	view EntryView
}

func (b *viewBuilder) common(e entry.Entry, icon Icon) {
	base := e.Common()
	b.view = EntryView{
		ID:          base.ID,
		Kind:        e.Kind(),
		Date:        base.Date,
		Icon:        icon,
		Description: base.Description,
		Specialist:  base.Specialist,
		Diagnoses:   b.p.diagnosisLines(base),
	}
}

func (b *viewBuilder) VisitHealthCheck(e *entry.HealthCheck) {
	b.common(e, IconMedical)
	r := e.HealthCheckRating
	if !r.Valid() {
		entry.PanicUnhandled(r)
	}
	b.view.Rating = &RatingBar{Severity: r.Severity(), Max: entry.MaxSeverity, Text: ratingTexts[r]}
}

func (b *viewBuilder) VisitOccupationalHealthcare(e *entry.OccupationalHealthcare) {
	b.common(e, IconWork)
	b.view.Employer = e.EmployerName
	if e.SickLeave != nil && e.SickLeave.StartDate != "" {
		b.view.SickLeave = e.SickLeave.StartDate + " - " + e.SickLeave.EndDate
	}
}

func (b *viewBuilder) VisitHospital(e *entry.Hospital) {
	b.common(e, IconHospital)
	b.view.Discharge = &Discharge{
		Date:     e.Discharge.Date,
		Criteria: e.Discharge.Criteria,
	}
}
