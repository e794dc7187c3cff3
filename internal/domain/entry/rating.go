package entry

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// HealthCheckRating is the outcome of a health check. Its integer value is
// the severity used for bar rendering (0 = healthy .. 3 = critical).
type HealthCheckRating int

const (
	Healthy HealthCheckRating = iota
	LowRisk
	HighRisk
	CriticalRisk
)

var ratingNames = [...]string{
	Healthy:      "Healthy",
	LowRisk:      "LowRisk",
	HighRisk:     "HighRisk",
	CriticalRisk: "CriticalRisk",
}

// MaxSeverity is the severity of the worst rating.
const MaxSeverity = int(CriticalRisk)

// Ratings lists every rating ordered by severity.
func Ratings() []HealthCheckRating {
	return []HealthCheckRating{Healthy, LowRisk, HighRisk, CriticalRisk}
}

// Valid reports whether r is one of the enumerated ratings.
func (r HealthCheckRating) Valid() bool {
	return r >= Healthy && r <= CriticalRisk
}

// Severity returns the numeric 0-3 encoding of the rating.
func (r HealthCheckRating) Severity() int { return int(r) }

func (r HealthCheckRating) String() string {
	if !r.Valid() {
		return "HealthCheckRating(" + strconv.Itoa(int(r)) + ")"
	}
	return ratingNames[r]
}

// ParseRating maps a symbolic rating name to its value.
func ParseRating(name string) (HealthCheckRating, error) {
	for i, n := range ratingNames {
		if n == name {
			return HealthCheckRating(i), nil
		}
	}
	return 0, fmt.Errorf("unknown health check rating %q", name)
}

// RatingFromSeverity maps a 0-3 severity back to its rating.
func RatingFromSeverity(severity int) (HealthCheckRating, error) {
	r := HealthCheckRating(severity)
	if !r.Valid() {
		return 0, fmt.Errorf("health check severity %d out of range 0-%d", severity, MaxSeverity)
	}
	return r, nil
}

// MarshalJSON writes the numeric severity, which is what the patient API stores.
func (r HealthCheckRating) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot encode %s", r)
	}
	return []byte(strconv.Itoa(int(r))), nil
}

// UnmarshalJSON accepts either the numeric severity or the symbolic name.
func (r *HealthCheckRating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		v, err := ParseRating(name)
		if err != nil {
			return err
		}
		*r = v
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("health check rating: %w", err)
	}
	v, err := RatingFromSeverity(n)
	if err != nil {
		return err
	}
	*r = v
	return nil
}
