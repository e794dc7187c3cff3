package patient

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ehr/patientor/internal/domain/entry"
)

var validationMessages = map[string]string{
	"required": "is required",
	"datetime": "must be a date in YYYY-MM-DD format",
	"gte":      "must be at least %s",
	"lte":      "must be at most %s",
}

var tagsWithParams = map[string]bool{
	"gte": true,
	"lte": true,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateEntry checks the kind-appropriate required fields of an entry
// payload. Failures come back as a *ValidationError, one message per field.
func ValidateEntry(e entry.Entry) error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldPath(fe)+" "+fieldMessage(fe))
	}
	return NewValidationError(messages...)
}

// fieldPath turns "Hospital.Base.description" into "description" and
// "Hospital.discharge.date" into "discharge.date".
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	out := parts[:0]
	for i, p := range parts {
		if i == 0 || p == "Base" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func fieldMessage(fe validator.FieldError) string {
	msg, ok := validationMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if tagsWithParams[fe.Tag()] {
		msg = strings.Replace(msg, "%s", fe.Param(), 1)
	}
	return msg
}
