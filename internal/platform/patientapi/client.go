// Package patientapi is the HTTP client for the upstream patient service.
package patientapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
)

const (
	maxBodyBytes = 1 << 20
	errorPrefix  = "Something went wrong. Error: "
)

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.httpClient.Timeout = d }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// WithRegisterer records request counts and latencies on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(cl *Client) { cl.metrics = newMetrics(reg) }
}

// Client implements patient.Service, patient.Lister and
// patient.DiagnosisService over the patient REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetPatient(ctx context.Context, id string) (*patient.Patient, error) {
	body, err := c.do(ctx, "get patient", http.MethodGet, "/api/patients/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var p patient.Patient
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, decodeError("get patient", err)
	}
	return &p, nil
}

func (c *Client) ListPatients(ctx context.Context) ([]patient.Summary, error) {
	body, err := c.do(ctx, "list patients", http.MethodGet, "/api/patients", nil)
	if err != nil {
		return nil, err
	}
	var list []patient.Summary
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, decodeError("list patients", err)
	}
	return list, nil
}

// CreateEntry posts payload and returns the entry as stored, with its id.
func (c *Client) CreateEntry(ctx context.Context, patientID string, payload entry.Entry) (entry.Entry, error) {
	data, err := entry.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	path := "/api/patients/" + url.PathEscape(patientID) + "/entries"
	body, err := c.do(ctx, "create entry", http.MethodPost, path, data)
	if err != nil {
		return nil, err
	}
	created, err := entry.Decode(body)
	if err != nil {
		return nil, decodeError("create entry", err)
	}
	return created, nil
}

// GetAll returns the diagnosis reference list.
func (c *Client) GetAll(ctx context.Context) ([]patient.Diagnosis, error) {
	body, err := c.do(ctx, "get diagnoses", http.MethodGet, "/api/diagnoses", nil)
	if err != nil {
		return nil, err
	}
	var list []patient.Diagnosis
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, decodeError("get diagnoses", err)
	}
	return list, nil
}

// Ping checks that the patient service answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, "/api/ping", nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(op, "error", elapsed)
		c.logger.Warn().Err(err).Str("op", op).Dur("latency", elapsed).Msg("patient service unreachable")
		return nil, &patient.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.observe(op, strconv.Itoa(resp.StatusCode), elapsed)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &patient.TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", elapsed).
		Msg("patient service call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, responseError(op, resp.StatusCode, body)
}

// responseError maps a non-2xx response onto the patient error taxonomy.
func responseError(op string, status int, body []byte) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, patient.ErrNotFound)
	case status >= 500:
		var err error
		if msgs := errorMessages(body); len(msgs) > 0 {
			err = errors.New(strings.Join(msgs, ", "))
		}
		return &patient.TransportError{Op: op, Status: status, Err: err}
	case status >= 400:
		msgs := errorMessages(body)
		if len(msgs) == 0 {
			msgs = []string{http.StatusText(status)}
		}
		return patient.NewValidationError(msgs...)
	}
	return &patient.TransportError{Op: op, Status: status, Err: fmt.Errorf("unexpected status")}
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

type errorItem struct {
	Message string `json:"message"`
}

// errorMessages extracts user-facing messages from an error body. The
// service answers with a JSON or bare string, or with {"error": [...]}
// where each item carries a message.
func errorMessages(body []byte) []string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return nonEmpty(stripPrefix(s))
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Error) > 0 {
		var items []errorItem
		if err := json.Unmarshal(eb.Error, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Message != "" {
					msgs = append(msgs, it.Message)
				}
			}
			return msgs
		}
		if err := json.Unmarshal(eb.Error, &s); err == nil {
			return nonEmpty(stripPrefix(s))
		}
	}

	return nonEmpty(stripPrefix(string(body)))
}

func stripPrefix(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, errorPrefix))
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func decodeError(op string, err error) error {
	if errors.Is(err, entry.ErrInternalConsistency) {
		return err
	}
	return &patient.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
}
