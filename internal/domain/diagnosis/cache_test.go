package diagnosis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/platform/cache"
)

type mockDiagnosisService struct {
	calls atomic.Int32
	list  []patient.Diagnosis
	err   error
	delay time.Duration
}

func (m *mockDiagnosisService) GetAll(_ context.Context) ([]patient.Diagnosis, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func newMockService() *mockDiagnosisService {
	return &mockDiagnosisService{list: []patient.Diagnosis{
		{Code: "M24.2", Name: "Disorder of ligament", Latin: "Morbositas ligamenti"},
		{Code: "Z57.1", Name: "Occupational exposure to radiation"},
		{Code: "S62.5", Name: "Fracture of thumb", Latin: "Fractura [ossis] pollicis"},
	}}
}

func TestCache_FetchesOnce(t *testing.T) {
	svc := newMockService()
	c := NewCache(svc)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		list, err := c.All(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("expected 3 diagnoses, got %d", len(list))
		}
	}
	if svc.calls.Load() != 1 {
		t.Errorf("expected 1 fetch, got %d", svc.calls.Load())
	}
}

func TestCache_ConcurrentCallersShareFetch(t *testing.T) {
	svc := newMockService()
	svc.delay = 20 * time.Millisecond
	c := NewCache(svc)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.All(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if svc.calls.Load() != 1 {
		t.Errorf("expected 1 fetch, got %d", svc.calls.Load())
	}
}

func TestCache_NameBeforeAndAfterLoad(t *testing.T) {
	c := NewCache(newMockService())
	if _, ok := c.Name("M24.2"); ok {
		t.Error("expected no name before load")
	}
	if c.Loaded() {
		t.Error("expected not loaded")
	}

	c.All(context.Background())

	name, ok := c.Name("M24.2")
	if !ok || name != "Disorder of ligament" {
		t.Errorf("expected Disorder of ligament, got %q (%v)", name, ok)
	}
	if _, ok := c.Name("X99"); ok {
		t.Error("expected unknown code to be unresolved")
	}
	d, ok := c.Get("S62.5")
	if !ok || d.Latin == "" {
		t.Errorf("expected latin name, got %+v", d)
	}
}

func TestCache_FailureIsNotCached(t *testing.T) {
	svc := newMockService()
	svc.err = &patient.TransportError{Op: "get diagnoses", Status: 503}
	c := NewCache(svc)

	_, err := c.All(context.Background())
	if !errors.Is(err, patient.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if c.Loaded() {
		t.Error("expected failure not to mark the cache loaded")
	}

	svc.err = nil
	if _, err := c.All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.calls.Load() != 2 {
		t.Errorf("expected retry after failure, got %d calls", svc.calls.Load())
	}
}

func TestCache_SharedStore(t *testing.T) {
	store := cache.NewMemoryStore()
	first := newMockService()
	c1 := NewCache(first, WithStore(store, time.Hour))
	if _, err := c1.All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := newMockService()
	c2 := NewCache(second, WithStore(store, time.Hour))
	list, err := c2.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("expected 3 diagnoses from store, got %d", len(list))
	}
	if second.calls.Load() != 0 {
		t.Errorf("expected second cache to skip the service, got %d calls", second.calls.Load())
	}
}
