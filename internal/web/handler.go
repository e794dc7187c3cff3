// Package web is the browser shell around the patient page and the add-entry
// form. Form state lives server side, one controller per session and patient;
// every form action is a POST that redirects back to the patient page.
package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/entryform"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/domain/presenter"
	"github.com/ehr/patientor/pkg/pagination"
)

type Handler struct {
	svc            patient.Service
	lister         patient.Lister
	diagnoses      *diagnosis.Cache
	presenter      *presenter.Presenter
	sessions       *Sessions
	logger         zerolog.Logger
	defaultPatient string
	sessionTTL     time.Duration
}

type Option func(*Handler)

// WithLister enables the patient list page.
func WithLister(l patient.Lister) Option {
	return func(h *Handler) { h.lister = l }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithDefaultPatient makes "/" open this patient instead of the list.
func WithDefaultPatient(id string) Option {
	return func(h *Handler) { h.defaultPatient = id }
}

// WithSessionTTL sets how long an untouched form survives.
func WithSessionTTL(d time.Duration) Option {
	return func(h *Handler) { h.sessionTTL = d }
}

func NewHandler(svc patient.Service, diagnoses *diagnosis.Cache, opts ...Option) *Handler {
	h := &Handler{
		svc:        svc,
		diagnoses:  diagnoses,
		presenter:  presenter.New(diagnoses),
		logger:     zerolog.Nop(),
		sessionTTL: 30 * time.Minute,
	}
	if l, ok := svc.(patient.Lister); ok {
		h.lister = l
	}
	for _, opt := range opts {
		opt(h)
	}
	h.sessions = NewSessions(h.sessionTTL, h.newForm)
	return h
}

// Sessions exposes the form store so the server can schedule its cleanup.
func (h *Handler) Sessions() *Sessions { return h.sessions }

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/patients", h.ListPatients)
	e.GET("/patients/:id", h.ShowPatient)

	form := e.Group("/patients/:id/entry-form")
	form.POST("/open", h.OpenForm)
	form.POST("/kind", h.SelectKind)
	form.POST("/update", h.UpdateForm)
	form.POST("/submit", h.SubmitForm)
	form.POST("/cancel", h.CancelForm)
}

func (h *Handler) newForm(patientID string) *entryform.Controller {
	logger := h.logger.With().Str("patient_id", patientID).Logger()
	return entryform.New(entryform.Callbacks{
		OnSubmit: func(ctx context.Context, payload entry.Entry) error {
			created, err := h.svc.CreateEntry(ctx, patientID, payload)
			if err != nil {
				return err
			}
			logger.Info().Str("entry_id", created.Common().ID).Str("kind", created.Kind().String()).Msg("entry created")
			return nil
		},
		OnCancel: func() {
			logger.Debug().Msg("entry form cancelled")
		},
		OnDone: func(payload entry.Entry) {
			logger.Debug().Str("kind", payload.Kind().String()).Msg("entry form closed after submit")
		},
	}, entryform.WithDiagnoses(h.diagnoses), entryform.WithLogger(logger))
}

func (h *Handler) Home(c echo.Context) error {
	if h.defaultPatient != "" {
		return c.Redirect(http.StatusFound, patientPath(h.defaultPatient))
	}
	return c.Redirect(http.StatusFound, "/patients")
}

type patientsPage struct {
	Patients []patient.Summary
	Next     string
	Prev     string
}

func (h *Handler) ListPatients(c echo.Context) error {
	if h.lister == nil {
		return h.renderError(c, http.StatusNotFound, "Patient listing is not available", "")
	}
	list, err := h.lister.ListPatients(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list patients")
		return h.renderError(c, http.StatusBadGateway, "Could not reach the patient service", "Please try again later.")
	}
	page := pagination.Slice(list, pagination.FromContext(c), "/patients")
	return c.Render(http.StatusOK, "patients", patientsPage{Patients: page.Items, Next: page.Next, Prev: page.Prev})
}

type patientPage struct {
	Patient presenter.PatientView
	Form    *formView
	CSRF    string
}

// ShowPatient fetches the patient and the diagnosis list in parallel. Only
// the patient fetch can fail the page; missing diagnoses leave names blank.
func (h *Handler) ShowPatient(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	var p *patient.Patient
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = h.svc.GetPatient(gctx, id)
		return err
	})
	g.Go(func() error {
		if _, err := h.diagnoses.All(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("diagnosis list unavailable")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return h.patientError(c, err)
	}

	page := patientPage{Patient: h.presenter.RenderPatient(p), CSRF: csrfToken(c)}
	if form, ok := h.sessions.Peek(sessionID(c), id); ok && form.State() != entryform.StateClosed {
		page.Form = buildFormView(ctx, form, patientPath(id)+"/entry-form")
	}
	return c.Render(http.StatusOK, "patient", page)
}

func (h *Handler) patientError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return h.renderError(c, http.StatusNotFound, "No patient found!", "")
	case errors.Is(err, patient.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		h.logger.Error().Err(err).Str("patient_id", c.Param("id")).Msg("failed to fetch patient")
		return h.renderError(c, http.StatusBadGateway, "Could not reach the patient service", "Please try again later.")
	}
	return err
}

func (h *Handler) OpenForm(c echo.Context) error {
	form := h.sessions.Form(sessionID(c), c.Param("id"))
	form.Open()
	return h.backToPatient(c)
}

func (h *Handler) SelectKind(c echo.Context) error {
	form, err := h.editableForm(c)
	if err != nil {
		return err
	}
	kind, err := entry.ParseKind(c.FormValue("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Keep what was typed into the shared fields before switching.
	if err := applyFields(c, form); err != nil {
		return formError(err)
	}
	if err := form.SelectKind(kind); err != nil {
		return formError(err)
	}
	return h.backToPatient(c)
}

func (h *Handler) UpdateForm(c echo.Context) error {
	form, err := h.editableForm(c)
	if err != nil {
		return err
	}
	if err := applyFields(c, form); err != nil {
		return formError(err)
	}
	return h.backToPatient(c)
}

// SubmitForm applies the posted fields and submits. Rejections stay on the
// form as its error message, so they redirect like a success does.
func (h *Handler) SubmitForm(c echo.Context) error {
	form, err := h.editableForm(c)
	if err != nil {
		return err
	}
	if err := applyFields(c, form); err != nil {
		return formError(err)
	}
	// The kind select may have been changed without pressing "Change type".
	// Submit what the page showed as selected.
	if posted := c.FormValue("kind"); posted != "" && entry.Kind(posted) != form.Draft().Kind {
		kind, err := entry.ParseKind(posted)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := form.SelectKind(kind); err != nil {
			return formError(err)
		}
		if err := applyFields(c, form); err != nil {
			return formError(err)
		}
	}
	err = form.Submit(c.Request().Context())
	var serr *entryform.SubmitError
	switch {
	case err == nil:
	case errors.As(err, &serr):
		h.logger.Info().Str("class", serr.Class.String()).Str("patient_id", c.Param("id")).Msg("entry submission rejected")
	case errors.Is(err, entryform.ErrStale):
	case errors.Is(err, entry.ErrInternalConsistency):
		return err
	default:
		return formError(err)
	}
	return h.backToPatient(c)
}

func (h *Handler) CancelForm(c echo.Context) error {
	if form, ok := h.sessions.Peek(sessionID(c), c.Param("id")); ok {
		form.Cancel()
	}
	return h.backToPatient(c)
}

func (h *Handler) editableForm(c echo.Context) (*entryform.Controller, error) {
	form, ok := h.sessions.Peek(sessionID(c), c.Param("id"))
	if !ok || form.State() == entryform.StateClosed {
		return nil, echo.NewHTTPError(http.StatusConflict, entryform.ErrNotOpen.Error())
	}
	return form, nil
}

func formError(err error) error {
	switch {
	case errors.Is(err, entryform.ErrSubmitInProgress), errors.Is(err, entryform.ErrNotOpen):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// applyFields copies the posted values of the form's visible fields into the
// draft. Fields absent from the request are left untouched.
func applyFields(c echo.Context, form *entryform.Controller) error {
	values, err := c.FormParams()
	if err != nil {
		return err
	}
	for _, f := range form.VisibleFields() {
		if f.Name == entryform.FieldDiagnosisCodes {
			posted, ok := values[string(f.Name)]
			if !ok {
				continue
			}
			// The page always posts one empty value so that clearing the
			// selection is distinguishable from not sending it.
			var codes []string
			for _, code := range posted {
				if code != "" {
					codes = append(codes, code)
				}
			}
			if err := form.SetDiagnosisCodes(codes); err != nil {
				return err
			}
			continue
		}
		if _, ok := values[string(f.Name)]; !ok {
			continue
		}
		if err := form.UpdateField(f.Name, values.Get(string(f.Name))); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) backToPatient(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, patientPath(c.Param("id")))
}

type errorPage struct {
	Title  string
	Detail string
}

func (h *Handler) renderError(c echo.Context, status int, title, detail string) error {
	return c.Render(status, "error", errorPage{Title: title, Detail: detail})
}

func patientPath(id string) string {
	return "/patients/" + url.PathEscape(id)
}

// csrfToken is empty when the CSRF middleware is not installed.
func csrfToken(c echo.Context) string {
	token, _ := c.Get(csrfContextKey).(string)
	return token
}
