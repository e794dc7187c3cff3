package entry

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
)

func TestRatings_SeverityRoundTrip(t *testing.T) {
	seen := make(map[int]bool)
	for _, r := range Ratings() {
		sev := r.Severity()
		if sev < 0 || sev > MaxSeverity {
			t.Fatalf("severity %d of %s out of range", sev, r)
		}
		if seen[sev] {
			t.Fatalf("severity %d used twice", sev)
		}
		seen[sev] = true

		back, err := RatingFromSeverity(sev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if back != r {
			t.Errorf("expected %s, got %s", r, back)
		}

		byName, err := ParseRating(r.String())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if byName != r {
			t.Errorf("expected %s, got %s", r, byName)
		}
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 ratings, got %d", len(seen))
	}
}

func TestRatings_Names(t *testing.T) {
	want := map[HealthCheckRating]string{
		Healthy:      "Healthy",
		LowRisk:      "LowRisk",
		HighRisk:     "HighRisk",
		CriticalRisk: "CriticalRisk",
	}
	for r, name := range want {
		if r.String() != name {
			t.Errorf("expected %s, got %s", name, r.String())
		}
	}
	if Healthy.Severity() != 0 || CriticalRisk.Severity() != 3 {
		t.Error("expected Healthy=0 and CriticalRisk=3")
	}
}

func TestRatingFromSeverity_OutOfRange(t *testing.T) {
	for _, n := range []int{-1, 4, 100} {
		if _, err := RatingFromSeverity(n); err == nil {
			t.Errorf("expected error for severity %d", n)
		}
	}
	if _, err := ParseRating("Fine"); err == nil {
		t.Error("expected error for unknown rating name")
	}
}

func TestRating_UnmarshalNumberAndName(t *testing.T) {
	var r HealthCheckRating
	if err := json.Unmarshal([]byte(`2`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != HighRisk {
		t.Errorf("expected HighRisk, got %s", r)
	}
	if err := json.Unmarshal([]byte(`"LowRisk"`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != LowRisk {
		t.Errorf("expected LowRisk, got %s", r)
	}
	if err := json.Unmarshal([]byte(`7`), &r); err == nil {
		t.Error("expected error for severity 7")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != k {
			t.Errorf("expected %s, got %s", k, got)
		}
	}
	if _, err := ParseKind("Dental"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

type kindRecorder struct{ got []Kind }

func (r *kindRecorder) VisitHealthCheck(*HealthCheck) { r.got = append(r.got, KindHealthCheck) }
func (r *kindRecorder) VisitOccupationalHealthcare(*OccupationalHealthcare) {
	r.got = append(r.got, KindOccupationalHealthcare)
}
func (r *kindRecorder) VisitHospital(*Hospital) { r.got = append(r.got, KindHospital) }

func TestAccept_DispatchesByVariant(t *testing.T) {
	entries := []Entry{&Hospital{}, &HealthCheck{}, &OccupationalHealthcare{}}
	rec := &kindRecorder{}
	for _, e := range entries {
		e.Accept(rec)
	}
	want := []Kind{KindHospital, KindHealthCheck, KindOccupationalHealthcare}
	for i := range want {
		if rec.got[i] != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], rec.got[i])
		}
		if entries[i].Kind() != want[i] {
			t.Errorf("entry %d: Kind() = %s, want %s", i, entries[i].Kind(), want[i])
		}
	}
}

func TestMatch(t *testing.T) {
	e := &OccupationalHealthcare{EmployerName: "Acme"}
	got := Match(Entry(e),
		func(*HealthCheck) string { return "hc" },
		func(o *OccupationalHealthcare) string { return o.EmployerName },
		func(*Hospital) string { return "h" },
	)
	if got != "Acme" {
		t.Errorf("expected Acme, got %s", got)
	}
}

type rogueEntry struct{ Base }

func (r *rogueEntry) Kind() Kind       { return "Dental" }
func (r *rogueEntry) Common() *Base    { return &r.Base }
func (r *rogueEntry) Accept(v Visitor) {}
func (r *rogueEntry) isEntry()         {}

func TestMatch_UnknownVariantPanics(t *testing.T) {
	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok {
			t.Fatalf("expected error panic, got %v", rec)
		}
		if !errors.Is(err, ErrInternalConsistency) {
			t.Errorf("expected internal consistency failure, got %v", err)
		}
	}()
	Match(Entry(&rogueEntry{}),
		func(*HealthCheck) int { return 1 },
		func(*OccupationalHealthcare) int { return 2 },
		func(*Hospital) int { return 3 },
	)
	t.Fatal("expected panic")
}

func TestHasDiagnoses_EmptyEqualsAbsent(t *testing.T) {
	a := Base{}
	b := Base{DiagnosisCodes: []string{}}
	if a.HasDiagnoses() || b.HasDiagnoses() {
		t.Error("expected nil and empty codes to mean no diagnoses")
	}
	c := Base{DiagnosisCodes: []string{"Z57.1"}}
	if !c.HasDiagnoses() {
		t.Error("expected diagnoses")
	}
}
