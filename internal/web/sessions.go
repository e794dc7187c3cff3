package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/patientor/internal/domain/entryform"
)

const sessionCookie = "patientor_session"

// FormFactory builds the entry form for one patient.
type FormFactory func(patientID string) *entryform.Controller

type session struct {
	forms    map[string]*entryform.Controller
	lastSeen time.Time
}

// Sessions keeps one entry form per browser session and patient. Sessions
// idle for longer than the TTL are dropped by Evict.
type Sessions struct {
	mu      sync.Mutex
	items   map[string]*session
	idleTTL time.Duration
	newForm FormFactory
	now     func() time.Time
}

func NewSessions(idleTTL time.Duration, newForm FormFactory) *Sessions {
	return &Sessions{
		items:   make(map[string]*session),
		idleTTL: idleTTL,
		newForm: newForm,
		now:     time.Now,
	}
}

// Form returns the session's form for patientID, creating it on first use.
func (s *Sessions) Form(sessionID, patientID string) *entryform.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[sessionID]
	if !ok {
		sess = &session{forms: make(map[string]*entryform.Controller)}
		s.items[sessionID] = sess
	}
	sess.lastSeen = s.now()
	form, ok := sess.forms[patientID]
	if !ok {
		form = s.newForm(patientID)
		sess.forms[patientID] = form
	}
	return form
}

// Peek returns an existing form without creating one.
func (s *Sessions) Peek(sessionID, patientID string) (*entryform.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[sessionID]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	form, ok := sess.forms[patientID]
	return form, ok
}

// Evict drops idle sessions and returns how many were removed.
func (s *Sessions) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.idleTTL)
	n := 0
	for id, sess := range s.items {
		if sess.lastSeen.Before(cutoff) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// StartCleanup evicts idle sessions every interval until ctx is done.
func (s *Sessions) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Evict()
			}
		}
	}()
}

// sessionID returns the caller's session id, issuing a cookie when the
// request carries none.
func sessionID(c echo.Context) string {
	if ck, err := c.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value
		}
	}
	id := uuid.New().String()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
