package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
)

// Backend is what the JSON API serves from. The in-memory store satisfies it.
type Backend interface {
	patient.Service
	patient.Lister
	patient.DiagnosisService
}

// APIHandler serves the patient REST API the UI itself consumes, so a single
// process can run the whole demo. Error bodies follow the upstream format.
type APIHandler struct {
	backend Backend
	logger  zerolog.Logger
}

func NewAPIHandler(backend Backend, logger zerolog.Logger) *APIHandler {
	return &APIHandler{backend: backend, logger: logger}
}

func (h *APIHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/ping", h.Ping)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.POST("/patients/:id/entries", h.CreateEntry)
	api.GET("/diagnoses", h.ListDiagnoses)
}

func (h *APIHandler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (h *APIHandler) ListPatients(c echo.Context) error {
	list, err := h.backend.ListPatients(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

func (h *APIHandler) GetPatient(c echo.Context) error {
	p, err := h.backend.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

type apiErrorItem struct {
	Message string `json:"message"`
}

type apiErrorBody struct {
	Error []apiErrorItem `json:"error"`
}

func (h *APIHandler) CreateEntry(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read body")
	}
	payload, err := entry.Decode(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, "Something went wrong. Error: "+err.Error())
	}

	created, err := h.backend.CreateEntry(c.Request().Context(), c.Param("id"), payload)
	var verr *patient.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		out := apiErrorBody{Error: make([]apiErrorItem, 0, len(verr.Messages))}
		for _, m := range verr.Messages {
			out.Error = append(out.Error, apiErrorItem{Message: m})
		}
		return c.JSON(http.StatusBadRequest, out)
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	default:
		h.logger.Error().Err(err).Str("patient_id", c.Param("id")).Msg("failed to create entry")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create entry")
	}

	data, err := entry.Encode(created)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusCreated, data)
}

func (h *APIHandler) ListDiagnoses(c echo.Context) error {
	list, err := h.backend.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}
