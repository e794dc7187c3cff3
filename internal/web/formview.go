package web

import (
	"context"
	"strconv"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/entryform"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type diagnosisOption struct {
	Code     string
	Label    string
	Selected bool
}

type fieldView struct {
	Name     entryform.Field
	Label    string
	Input    entryform.Input
	Required bool
	Value    string
}

// formView is the template model of an open entry form.
type formView struct {
	Action     string
	Kinds      []option
	Fields     []fieldView
	Ratings    []option
	Diagnoses  []diagnosisOption
	Error      string
	Submitting bool
}

var kindLabels = map[entry.Kind]string{
	entry.KindHealthCheck:            "Health check",
	entry.KindOccupationalHealthcare: "Occupational healthcare",
	entry.KindHospital:               "Hospital",
}

func buildFormView(ctx context.Context, form *entryform.Controller, action string) *formView {
	draft := form.Draft()
	v := &formView{
		Action:     action,
		Error:      form.Error(),
		Submitting: form.State() == entryform.StateSubmitting,
	}
	for _, k := range entry.Kinds() {
		v.Kinds = append(v.Kinds, option{Value: k.String(), Label: kindLabels[k], Selected: k == draft.Kind})
	}
	for _, f := range form.VisibleFields() {
		v.Fields = append(v.Fields, fieldView{
			Name:     f.Name,
			Label:    f.Label,
			Input:    f.Input,
			Required: f.Required,
			Value:    draft.Value(f.Name),
		})
	}
	for _, r := range entry.Ratings() {
		v.Ratings = append(v.Ratings, option{
			Value:    strconv.Itoa(r.Severity()),
			Label:    r.String(),
			Selected: draft.Kind == entry.KindHealthCheck && r == draft.HealthCheck.Rating,
		})
	}

	selected := make(map[string]bool, len(draft.DiagnosisCodes))
	for _, code := range draft.DiagnosisCodes {
		selected[code] = true
	}
	// An unavailable list leaves only the codes already chosen.
	options, _ := form.DiagnosisOptions(ctx)
	for _, d := range options {
		v.Diagnoses = append(v.Diagnoses, diagnosisOption{Code: d.Code, Label: d.Label(), Selected: selected[d.Code]})
		delete(selected, d.Code)
	}
	for _, code := range draft.DiagnosisCodes {
		if selected[code] {
			v.Diagnoses = append(v.Diagnoses, diagnosisOption{Code: code, Label: code, Selected: true})
		}
	}
	return v
}
