// Package entryform holds the add-entry form: a draft that carries the field
// sets of every entry kind, and a controller that turns the active kind's
// fields into exactly one entry payload on submit.
package entryform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
)

var (
	ErrNotOpen          = errors.New("entry form is not open")
	ErrSubmitInProgress = errors.New("entry submission already in progress")
	// ErrStale is returned when the form was cancelled or reopened while a
	// submission was in flight. The outcome of that submission is dropped.
	ErrStale = errors.New("entry form changed during submission")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateSubmitting:
		return "submitting"
	}
	return "unknown"
}

// Callbacks connect the form to its embedder. OnSubmit persists the payload
// and reports the outcome through its error. OnDone runs after a successful
// submission has closed the form.
type Callbacks struct {
	OnSubmit func(ctx context.Context, payload entry.Entry) error
	OnCancel func()
	OnDone   func(payload entry.Entry)
}

// DiagnosisSource supplies the code picker options.
type DiagnosisSource interface {
	All(ctx context.Context) ([]patient.Diagnosis, error)
}

// Controller is safe for concurrent use. Each Open starts a new generation;
// a submission completing under an older generation is ignored.
type Controller struct {
	cb        Callbacks
	diagnoses DiagnosisSource
	logger    zerolog.Logger

	mu         sync.Mutex
	state      State
	draft      Draft
	generation uuid.UUID
	errClass   Class
	errMsg     string
	options    []patient.Diagnosis
}

type Option func(*Controller)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithDiagnoses(src DiagnosisSource) Option {
	return func(c *Controller) { c.diagnoses = src }
}

func New(cb Callbacks, opts ...Option) *Controller {
	c := &Controller{cb: cb, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts a fresh draft. Opening an already open form keeps its draft.
func (c *Controller) Open() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		return c.generation
	}
	c.state = StateOpen
	c.draft = NewDraft()
	c.generation = uuid.New()
	c.errClass, c.errMsg = ClassNone, ""
	c.options = nil
	c.logger.Debug().Str("generation", c.generation.String()).Msg("entry form opened")
	return c.generation
}

// SelectKind switches the active kind. The new kind's fields start from
// defaults; selecting the active kind again changes nothing.
func (c *Controller) SelectKind(kind entry.Kind) error {
	if !kind.Valid() {
		_, err := entry.ParseKind(string(kind))
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if c.draft.Kind != kind {
		c.draft.resetKind(kind)
	}
	return nil
}

// UpdateField sets one draft field without validating it.
func (c *Controller) UpdateField(name Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	return c.draft.set(name, value)
}

// SetDiagnosisCodes replaces the selected codes, dropping repeats and keeping
// the first occurrence of each. An empty selection is stored as none.
func (c *Controller) SetDiagnosisCodes(codes []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	var out []string
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	c.draft.DiagnosisCodes = out
	return nil
}

func (c *Controller) editableLocked() error {
	switch c.state {
	case StateClosed:
		return ErrNotOpen
	case StateSubmitting:
		return ErrSubmitInProgress
	}
	return nil
}

// Submit projects and validates the draft, then hands the payload to
// OnSubmit. On success the draft is cleared and the form closes. On failure
// the draft is kept, the form reopens and the classified message is stored;
// the returned error is a *SubmitError. An internal consistency failure
// closes the form instead and comes back unclassified.
func (c *Controller) Submit(ctx context.Context) error {
	payload, gen, err := c.begin()
	if err != nil {
		return err
	}

	log := c.logger.With().Str("generation", gen.String()).Str("kind", string(payload.Kind())).Logger()
	log.Debug().Msg("submitting entry")

	err = c.invoke(ctx, gen, c.cb.OnSubmit, payload)

	c.mu.Lock()
	if c.generation != gen || c.state != StateSubmitting {
		c.mu.Unlock()
		log.Info().Err(err).Msg("ignoring completion of a superseded submission")
		return ErrStale
	}
	if errors.Is(err, entry.ErrInternalConsistency) {
		// The entry may already be stored upstream, so the draft must not be
		// offered for a retry.
		c.state = StateClosed
		c.draft = Draft{}
		c.errClass, c.errMsg = ClassNone, ""
		c.mu.Unlock()
		log.Error().Err(err).Msg("entry submission hit an internal consistency failure")
		return fmt.Errorf("submit entry: %w", err)
	}
	if err != nil {
		serr := c.failLocked(err)
		c.mu.Unlock()
		log.Warn().Err(err).Str("class", serr.Class.String()).Msg("entry submission failed")
		return serr
	}
	c.state = StateClosed
	c.draft = Draft{}
	c.errClass, c.errMsg = ClassNone, ""
	c.mu.Unlock()

	log.Info().Msg("entry submitted")
	if c.cb.OnDone != nil {
		c.cb.OnDone(payload)
	}
	return nil
}

// begin projects and validates the draft and moves the form to Submitting.
// Project panics on a kind outside the closed set, which is a bug rather
// than user input.
func (c *Controller) begin() (entry.Entry, uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return nil, uuid.Nil, err
	}
	payload := Project(c.draft)
	if err := patient.ValidateEntry(payload); err != nil {
		return nil, uuid.Nil, c.failLocked(err)
	}
	c.state = StateSubmitting
	return payload, c.generation, nil
}

// invoke runs OnSubmit. If it panics the form goes back to Open before the
// panic continues.
func (c *Controller) invoke(ctx context.Context, gen uuid.UUID, fn func(context.Context, entry.Entry) error, payload entry.Entry) error {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			c.mu.Lock()
			if c.generation == gen && c.state == StateSubmitting {
				c.state = StateOpen
			}
			c.mu.Unlock()
			panic(r)
		}
	}()
	return fn(ctx, payload)
}

func (c *Controller) failLocked(err error) *SubmitError {
	c.state = StateOpen
	c.errClass, c.errMsg = Classify(err)
	return &SubmitError{Class: c.errClass, Message: c.errMsg, Err: err}
}

// Cancel discards the draft and closes the form from any open state. A
// submission still in flight is superseded.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.draft = Draft{}
	c.generation = uuid.Nil
	c.errClass, c.errMsg = ClassNone, ""
	onCancel := c.cb.OnCancel
	c.mu.Unlock()

	c.logger.Debug().Msg("entry form cancelled")
	if onCancel != nil {
		onCancel()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// Error returns the message of the last failed submission, if any.
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) ErrorClass() Class {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errClass
}

func (c *Controller) Generation() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// VisibleFields lists the inputs for the active kind.
func (c *Controller) VisibleFields() []FieldSpec {
	c.mu.Lock()
	kind := c.draft.Kind
	c.mu.Unlock()
	if kind == "" {
		return nil
	}
	return FieldsFor(kind)
}

// DiagnosisOptions returns the code picker options. They are fetched once
// per opened form, whatever kind is selected.
func (c *Controller) DiagnosisOptions(ctx context.Context) ([]patient.Diagnosis, error) {
	c.mu.Lock()
	if c.options != nil || c.diagnoses == nil {
		opts := c.options
		c.mu.Unlock()
		return opts, nil
	}
	gen := c.generation
	c.mu.Unlock()

	list, err := c.diagnoses.All(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []patient.Diagnosis{}
	}
	c.mu.Lock()
	if c.generation == gen {
		c.options = list
	}
	c.mu.Unlock()
	return list, nil
}
