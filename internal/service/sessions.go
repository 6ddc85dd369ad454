package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/community-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/community-registration/internal/model"
	"github.com/Shivanand-hulikatti/community-registration/internal/repository"
)

// Session is one page load of one client.
type Session struct {
	ClientID   string
	Controller *FormController
	Outbox     *Outbox

	lastSeen time.Time
}

// SessionsConfig holds what every new controller is built from.
type SessionsConfig struct {
	Store        repository.FlagStore
	Gateway      Gateway
	ShareMessage string
	TTL          time.Duration
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// Sessions keeps at most one live controller per client.
type Sessions struct {
	cfg SessionsConfig
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*Session
}

// NewSessions constructs an empty registry.
func NewSessions(cfg SessionsConfig) *Sessions {
	return &Sessions{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*Session),
	}
}

// Load starts a fresh page load for clientID, discarding any previous draft
// and share progress. The persisted submitted flag is re-read.
func (s *Sessions) Load(ctx context.Context, clientID string) (*Session, error) {
	sess, err := s.newSession(ctx, clientID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[clientID] = sess
	s.mu.Unlock()
	return sess, nil
}

// Get returns the live session for clientID, loading one if none exists.
// Concurrent first requests for one client share a single session.
func (s *Sessions) Get(ctx context.Context, clientID string) (*Session, error) {
	if sess, ok := s.lookup(clientID); ok {
		return sess, nil
	}

	sess, err := s.newSession(ctx, clientID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[clientID]; ok {
		existing.lastSeen = s.now()
		return existing, nil
	}
	s.entries[clientID] = sess
	return sess, nil
}

func (s *Sessions) lookup(clientID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.entries[clientID]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// newSession builds a controller for clientID without registering it. The
// flag read happens outside the registry lock.
func (s *Sessions) newSession(ctx context.Context, clientID string) (*Session, error) {
	outbox := &Outbox{}
	ctrl, err := NewFormController(ctx, Options{
		Gateway:      s.cfg.Gateway,
		Flags:        repository.Scope(s.cfg.Store, clientID),
		Opener:       outbox,
		Notifier:     outbox,
		ShareMessage: s.cfg.ShareMessage,
		Metrics:      s.cfg.Metrics,
		Logger:       s.cfg.Logger.With().Str("client_id", clientID).Logger(),
	})
	if err != nil {
		return nil, err
	}
	return &Session{ClientID: clientID, Controller: ctrl, Outbox: outbox, lastSeen: s.now()}, nil
}

// Sweep drops sessions idle for longer than the configured TTL and returns
// how many were removed. Sessions with a submission in flight are kept.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.cfg.TTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.entries {
		if sess.lastSeen.After(cutoff) || sess.Controller.State() == model.StateInFlight {
			continue
		}
		delete(s.entries, id)
		removed++
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
