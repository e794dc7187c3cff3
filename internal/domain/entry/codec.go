package entry

import (
	"fmt"

	"github.com/goccy/go-json"
)

type envelope struct {
	Type Kind `json:"type"`
}

// The wire structs spell every field out. Entries embed Base, and the
// encoder does not carry embedded fields through a discriminator wrapper.

type healthCheckWire struct {
	Type              Kind              `json:"type"`
	ID                string            `json:"id,omitempty"`
	Description       string            `json:"description"`
	Date              string            `json:"date"`
	Specialist        string            `json:"specialist"`
	DiagnosisCodes    []string          `json:"diagnosisCodes,omitempty"`
	HealthCheckRating HealthCheckRating `json:"healthCheckRating"`
}

type occupationalWire struct {
	Type           Kind       `json:"type"`
	ID             string     `json:"id,omitempty"`
	Description    string     `json:"description"`
	Date           string     `json:"date"`
	Specialist     string     `json:"specialist"`
	DiagnosisCodes []string   `json:"diagnosisCodes,omitempty"`
	EmployerName   string     `json:"employerName"`
	SickLeave      *SickLeave `json:"sickLeave,omitempty"`
}

type hospitalWire struct {
	Type           Kind      `json:"type"`
	ID             string    `json:"id,omitempty"`
	Description    string    `json:"description"`
	Date           string    `json:"date"`
	Specialist     string    `json:"specialist"`
	DiagnosisCodes []string  `json:"diagnosisCodes,omitempty"`
	Discharge      Discharge `json:"discharge"`
}

// MarshalJSON writes the variant with its "type" discriminator.
func (e *HealthCheck) MarshalJSON() ([]byte, error) {
	return json.Marshal(healthCheckWire{
		Type:              KindHealthCheck,
		ID:                e.ID,
		Description:       e.Description,
		Date:              e.Date,
		Specialist:        e.Specialist,
		DiagnosisCodes:    e.DiagnosisCodes,
		HealthCheckRating: e.HealthCheckRating,
	})
}

func (e *OccupationalHealthcare) MarshalJSON() ([]byte, error) {
	return json.Marshal(occupationalWire{
		Type:           KindOccupationalHealthcare,
		ID:             e.ID,
		Description:    e.Description,
		Date:           e.Date,
		Specialist:     e.Specialist,
		DiagnosisCodes: e.DiagnosisCodes,
		EmployerName:   e.EmployerName,
		SickLeave:      e.SickLeave,
	})
}

func (e *Hospital) MarshalJSON() ([]byte, error) {
	return json.Marshal(hospitalWire{
		Type:           KindHospital,
		ID:             e.ID,
		Description:    e.Description,
		Date:           e.Date,
		Specialist:     e.Specialist,
		DiagnosisCodes: e.DiagnosisCodes,
		Discharge:      e.Discharge,
	})
}

// Encode serializes an entry in its discriminated wire form.
func Encode(e Entry) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("encode entry: nil entry")
	}
	return json.Marshal(e)
}

// Decode reads one discriminated entry. An unknown "type" is reported as an
// InternalConsistencyError because the patient API only stores known kinds.
func Decode(data []byte) (Entry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}

	switch env.Type {
	case KindHealthCheck:
		var w healthCheckWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", env.Type, err)
		}
		return &HealthCheck{
			Base:              base(w.ID, w.Description, w.Date, w.Specialist, w.DiagnosisCodes),
			HealthCheckRating: w.HealthCheckRating,
		}, nil
	case KindOccupationalHealthcare:
		var w occupationalWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", env.Type, err)
		}
		return &OccupationalHealthcare{
			Base:         base(w.ID, w.Description, w.Date, w.Specialist, w.DiagnosisCodes),
			EmployerName: w.EmployerName,
			SickLeave:    w.SickLeave,
		}, nil
	case KindHospital:
		var w hospitalWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", env.Type, err)
		}
		return &Hospital{
			Base:      base(w.ID, w.Description, w.Date, w.Specialist, w.DiagnosisCodes),
			Discharge: w.Discharge,
		}, nil
	}
	return nil, &InternalConsistencyError{Value: env.Type, Where: "decode entry"}
}

func base(id, description, date, specialist string, codes []string) Base {
	return Base{
		ID:             id,
		Description:    description,
		Date:           date,
		Specialist:     specialist,
		DiagnosisCodes: codes,
	}
}

// List is an ordered entry collection that decodes each element by kind.
type List []Entry

func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode entries: %w", err)
	}
	out := make(List, 0, len(raw))
	for i, r := range raw {
		e, err := Decode(r)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	*l = out
	return nil
}
