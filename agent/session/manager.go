// Package session keeps one Router per conversation. Routing state is never
// shared across sessions; the manager only hands each session its own
// isolated instance and, when a snapshot store is configured, persists the
// conversation tracker between processes.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
	"github.com/tanawat-p/supportdesk/agent/conversation"
	"github.com/tanawat-p/supportdesk/agent/router"
)

// RouterFactory builds a fresh Router for one session. The manager passes
// options through, e.g. a tracker restored from a snapshot.
type RouterFactory func(opts ...router.Option) (*router.Router, error)

type ManagerOption func(*Manager)

// WithSnapshotStore enables best-effort persistence of each session's
// conversation tracker.
func WithSnapshotStore(store conversation.Store) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// Manager hands out per-session Routers, creating them on first use.
type Manager struct {
	factory RouterFactory
	store   conversation.Store

	mu      sync.Mutex
	routers map[string]*router.Router
}

func NewManager(factory RouterFactory, opts ...ManagerOption) (*Manager, error) {
	if factory == nil {
		return nil, errors.New("router factory is required")
	}

	m := &Manager{
		factory: factory,
		routers: make(map[string]*router.Router),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Router returns the session's Router, creating it on first use. With a
// snapshot store configured, a stored conversation is restored into the new
// Router; a missing snapshot is a normal first contact.
func (m *Manager) Router(ctx context.Context, sessionID string) (*router.Router, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, conversation.ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.routers[sessionID]; ok {
		return r, nil
	}

	var opts []router.Option
	if m.store != nil {
		snap, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			opts = append(opts, router.WithTracker(conversation.RestoreTracker(snap)))
		case errors.Is(err, conversation.ErrSnapshotNotFound):
			// First contact for this session.
		default:
			log.Warn().Err(err).Str("session_id", sessionID).Msg("snapshot load failed, starting fresh")
		}
	}

	r, err := m.factory(opts...)
	if err != nil {
		return nil, err
	}
	m.routers[sessionID] = r
	return r, nil
}

// Process routes one message within the session and saves the updated
// snapshot. Snapshot persistence is best-effort: a failed save is logged,
// never surfaced to the caller.
func (m *Manager) Process(ctx context.Context, sessionID, message string) (contractx.RoutingResult, error) {
	r, err := m.Router(ctx, sessionID)
	if err != nil {
		return contractx.RoutingResult{}, err
	}

	result, err := r.Process(ctx, message)
	if err != nil {
		return contractx.RoutingResult{}, err
	}

	if m.store != nil {
		if err := m.store.Save(ctx, r.Snapshot(sessionID)); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("snapshot save failed")
		}
	}
	return result, nil
}

// Respond is the plain-text variant of Process.
func (m *Manager) Respond(ctx context.Context, sessionID, message string) (string, error) {
	result, err := m.Process(ctx, sessionID, message)
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

// Forget drops the session's Router and deletes its stored snapshot.
func (m *Manager) Forget(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return conversation.ErrInvalidSession
	}

	m.mu.Lock()
	delete(m.routers, sessionID)
	m.mu.Unlock()

	if m.store != nil {
		return m.store.Delete(ctx, sessionID)
	}
	return nil
}

// Sessions reports how many live Routers the manager holds.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.routers)
}
