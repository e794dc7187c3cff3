package entry

import "fmt"

// Kind is the discriminant of the Entry union. The set is closed.
type Kind string

const (
	KindHealthCheck            Kind = "HealthCheck"
	KindOccupationalHealthcare Kind = "OccupationalHealthcare"
	KindHospital               Kind = "Hospital"
)

// Kinds lists every entry kind in display order.
func Kinds() []Kind {
	return []Kind{KindHealthCheck, KindOccupationalHealthcare, KindHospital}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindHealthCheck, KindOccupationalHealthcare, KindHospital:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// ParseKind converts a wire or form value into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown entry kind %q", s)
	}
	return k, nil
}
