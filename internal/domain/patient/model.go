package patient

import "github.com/ehr/patientor/internal/domain/entry"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient is the demographic record plus its clinical entries in the order
// the patient service returned them.
type Patient struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	DateOfBirth string     `json:"dateOfBirth,omitempty"`
	SSN         string     `json:"ssn,omitempty"`
	Gender      Gender     `json:"gender"`
	Occupation  string     `json:"occupation"`
	Entries     entry.List `json:"entries"`
}

// Summary is the non-sensitive view used by patient listings.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      Gender `json:"gender"`
	Occupation  string `json:"occupation"`
}

// Summarize drops the SSN and entries.
func (p *Patient) Summarize() Summary {
	return Summary{
		ID:          p.ID,
		Name:        p.Name,
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
		Occupation:  p.Occupation,
	}
}

// Diagnosis is an immutable reference code.
type Diagnosis struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Latin string `json:"latin,omitempty"`
}

// Label is the "code: name" form shown in pickers and entry details.
func (d Diagnosis) Label() string {
	return d.Code + ": " + d.Name
}
