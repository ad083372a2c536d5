// Package session keeps per-client filter state: the current FilterSpec
// and the last FilteredView that was produced from a valid spec.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/donaldgifford/smartsell/internal/metrics"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// Viewer evaluates a spec against the current snapshot of a dataset.
type Viewer interface {
	View(ctx context.Context, datasetID string, spec domain.FilterSpec) (*domain.View, error)
}

// Session is one client's filter state.
type Session struct {
	ID        string
	DatasetID string
	Spec      domain.FilterSpec
	View      *domain.View
	CreatedAt time.Time
	LastSeen  time.Time
}

// Store holds sessions in memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	viewer   Viewer
	log      *slog.Logger
	now      func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty Store that evaluates specs with v.
func NewStore(v Viewer, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		viewer:   v,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session on datasetID with an initial spec. The spec must
// produce a view; nothing is stored otherwise.
func (s *Store) Create(ctx context.Context, datasetID string, spec domain.FilterSpec) (Session, error) {
	v, err := s.viewer.View(ctx, datasetID, spec)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		DatasetID: datasetID,
		Spec:      spec,
		View:      v,
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	s.log.Debug("session created", "session", sess.ID, "dataset", datasetID)

	return *sess, nil
}

// Get returns a copy of the session and marks it as seen.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	sess.LastSeen = s.now()
	return *sess, nil
}

// UpdateFilter replaces the session's spec. When the new spec cannot be
// evaluated the session keeps its previous spec and view, and the error is
// returned alongside that unchanged state.
func (s *Store) UpdateFilter(ctx context.Context, id string, spec domain.FilterSpec) (Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	datasetID := sess.DatasetID
	sess.LastSeen = s.now()
	s.mu.Unlock()

	v, err := s.viewer.View(ctx, datasetID, spec)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Deleted while the view was being evaluated.
	sess, ok = s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if err != nil {
		var fe *domain.InvalidFilterError
		if errors.As(err, &fe) {
			s.log.Debug("rejected filter update", "session", id, "field", fe.Field, "reason", fe.Reason)
		}
		return *sess, err
	}

	sess.Spec = spec
	sess.View = v
	return *sess, nil
}

// Delete ends a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Sweep removes sessions not seen for longer than idle and returns how
// many were removed.
func (s *Store) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	expired := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			expired++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	if expired > 0 {
		metrics.SessionsExpiredTotal.Add(float64(expired))
	}
	return expired
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// IDs returns the live session ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.sessions))
}
