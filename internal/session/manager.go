// Package session maps visitor cookies to view-state controllers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abuelmaaref/portfolio/internal/catalog"
	"github.com/abuelmaaref/portfolio/internal/viewstate"
)

type entry struct {
	mu       sync.Mutex
	ctrl     *viewstate.Controller
	loaded   bool
	lastSeen time.Time
	// removed is set, under mu, once the entry has left the map.
	removed bool
}

// Manager keeps one controller per session in memory. When a Store is
// configured every change is written through, and sessions evicted from
// memory are reloaded from it on the next request.
type Manager struct {
	records []catalog.Record
	store   Store
	ttl     time.Duration
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager builds a manager over records. store may be nil.
func NewManager(records []catalog.Record, store Store, ttl time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		records: records,
		store:   store,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

func NewID() string {
	return uuid.NewString()
}

// Do runs fn against the session's controller while holding that session's
// lock, then persists the resulting snapshot. fn's error is returned as is.
func (m *Manager) Do(ctx context.Context, id string, fn func(*viewstate.Controller) error) error {
	e := m.acquire(id)
	defer e.mu.Unlock()

	if !e.loaded {
		m.load(ctx, id, e)
	}

	fnErr := fn(e.ctrl)
	e.lastSeen = m.now()

	if m.store != nil {
		if err := m.store.Save(ctx, id, e.ctrl.Snapshot()); err != nil {
			return errors.Join(fnErr, fmt.Errorf("persist session: %w", err))
		}
	}
	return fnErr
}

// Peek runs fn against the session's controller without creating a
// session. An id unknown to memory and to the store gets a throwaway
// controller in the default state. Nothing is persisted, so fn should only
// read.
func (m *Manager) Peek(ctx context.Context, id string, fn func(*viewstate.Controller)) {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()

	if ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.removed {
			if !e.loaded {
				m.load(ctx, id, e)
			}
			fn(e.ctrl)
			return
		}
	}

	ctrl := viewstate.NewController(m.records)
	if m.store != nil && id != "" {
		st, err := m.store.Load(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			m.log.Warn("load session", zap.String("session", id), zap.Error(err))
		default:
			ctrl.Restore(st)
		}
	}
	fn(ctrl)
}

// acquire returns the live entry for id with its lock held. An entry
// evicted between lookup and locking is skipped and a new one is made.
func (m *Manager) acquire(id string) *entry {
	for {
		e := m.entry(id)
		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

func (m *Manager) entry(id string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		e = &entry{ctrl: viewstate.NewController(m.records), lastSeen: m.now()}
		m.entries[id] = e
	}
	return e
}

func (m *Manager) load(ctx context.Context, id string, e *entry) {
	e.loaded = true
	if m.store == nil {
		return
	}
	st, err := m.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		// A broken snapshot costs the visitor their selections, nothing more.
		m.log.Warn("load session", zap.String("session", id), zap.Error(err))
	default:
		e.ctrl.Restore(st)
	}
}

// Evict drops controllers idle for longer than the TTL and returns how many
// were removed. Persisted snapshots expire on their own.
func (m *Manager) Evict() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			e.removed = true
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Len reports how many sessions are held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Forget removes a session from memory and from the store.
func (m *Manager) Forget(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()

	if ok {
		e.mu.Lock()
		e.removed = true
		e.mu.Unlock()
	}
	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}
