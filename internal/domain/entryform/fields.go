package entryform

import "github.com/ehr/patientor/internal/domain/entry"

// Input is the widget used to edit a field.
type Input string

const (
	InputText   Input = "text"
	InputDate   Input = "date"
	InputRating Input = "rating"
	InputCodes  Input = "codes"
)

type FieldSpec struct {
	Name     Field
	Label    string
	Input    Input
	Required bool
}

var commonFields = []FieldSpec{
	{Name: FieldDescription, Label: "Description", Input: InputText, Required: true},
	{Name: FieldDate, Label: "Date", Input: InputDate, Required: true},
	{Name: FieldSpecialist, Label: "Specialist", Input: InputText, Required: true},
	{Name: FieldDiagnosisCodes, Label: "Diagnosis codes", Input: InputCodes},
}

// FieldsFor returns the common fields followed by the fields of kind.
func FieldsFor(kind entry.Kind) []FieldSpec {
	var extra []FieldSpec
	switch kind {
	case entry.KindHealthCheck:
		extra = []FieldSpec{
			{Name: FieldHealthCheckRating, Label: "Health check rating", Input: InputRating, Required: true},
		}
	case entry.KindOccupationalHealthcare:
		extra = []FieldSpec{
			{Name: FieldEmployerName, Label: "Employer", Input: InputText, Required: true},
			{Name: FieldSickLeaveStart, Label: "Sick leave start", Input: InputDate},
			{Name: FieldSickLeaveEnd, Label: "Sick leave end", Input: InputDate},
		}
	case entry.KindHospital:
		extra = []FieldSpec{
			{Name: FieldDischargeDate, Label: "Discharge date", Input: InputDate, Required: true},
			{Name: FieldDischargeCriteria, Label: "Discharge criteria", Input: InputText, Required: true},
		}
	default:
		entry.PanicUnhandled(kind)
	}
	out := make([]FieldSpec, 0, len(commonFields)+len(extra))
	out = append(out, commonFields...)
	return append(out, extra...)
}

// Value returns the draft's current value for name as form text.
func (d Draft) Value(name Field) string {
	switch name {
	case FieldDescription:
		return d.Description
	case FieldDate:
		return d.Date
	case FieldSpecialist:
		return d.Specialist
	case FieldHealthCheckRating:
		return d.HealthCheck.Rating.String()
	case FieldEmployerName:
		return d.Occupational.EmployerName
	case FieldSickLeaveStart:
		return d.Occupational.SickLeaveStart
	case FieldSickLeaveEnd:
		return d.Occupational.SickLeaveEnd
	case FieldDischargeDate:
		return d.Hospital.DischargeDate
	case FieldDischargeCriteria:
		return d.Hospital.DischargeCriteria
	}
	return ""
}
