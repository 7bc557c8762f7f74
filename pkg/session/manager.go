package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/proofweave/internal/logging"
	"github.com/aretw0/proofweave/internal/runtime"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
)

// Factory builds a fresh workspace for id. The manager passes the hooks it
// needs; the factory must install them (merged with its own, if any).
type Factory func(id string, hooks domain.LifecycleHooks) *runtime.Workspace

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates workspace access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	factory Factory
	store   ports.WorkspaceStore

	mu    sync.Mutex
	locks map[string]*lockEntry
	live  map[string]*runtime.Workspace

	// saveMu orders snapshot-then-save pairs so an older snapshot never
	// overwrites a newer one.
	saveMu sync.Mutex

	locker   ports.DistributedLocker
	lockTTL  time.Duration
	onDelete []func(id string)
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore persists snapshots to store.
func WithStore(store ports.WorkspaceStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock lives if never released.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithOnDelete registers fn to run after a session has been deleted.
func WithOnDelete(fn func(id string)) Option {
	return func(m *Manager) {
		m.onDelete = append(m.onDelete, fn)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager building workspaces with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory: factory,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*runtime.Workspace),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Get returns the live workspace for id, restoring it from the store if needed.
// Returns domain.ErrWorkspaceNotFound when the session does not exist.
func (m *Manager) Get(ctx context.Context, id string) (*runtime.Workspace, error) {
	var w *runtime.Workspace
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		w, err = m.lookup(ctx, id)
		return err
	})
	return w, err
}

// Open returns the workspace for id, creating and persisting a new one when
// the session does not exist yet.
func (m *Manager) Open(ctx context.Context, id string) (*runtime.Workspace, error) {
	var w *runtime.Workspace
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		w, err = m.lookup(ctx, id)
		if err == nil || !errors.Is(err, domain.ErrWorkspaceNotFound) {
			return err
		}
		w = m.spawn(id)
		m.logger.Info("session created", "session_id", id)
		return m.persist(ctx, id, w)
	})
	return w, err
}

// Update runs fn on the workspace for id under the session lock and persists
// the result. The session is created when missing.
func (m *Manager) Update(ctx context.Context, id string, fn func(context.Context, *runtime.Workspace) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		w, err := m.lookup(ctx, id)
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			w, err = m.spawn(id), nil
		}
		if err != nil {
			return err
		}
		fnErr := fn(ctx, w)
		if err := m.persist(ctx, id, w); err != nil {
			return errors.Join(fnErr, err)
		}
		return fnErr
	})
}

// Delete closes the live workspace and removes its snapshot.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		w, ok := m.live[id]
		delete(m.live, id)
		m.mu.Unlock()

		var errs []error
		if ok {
			errs = append(errs, w.Close())
		}
		if m.store != nil {
			errs = append(errs, m.store.Delete(ctx, id))
		}
		for _, fn := range m.onDelete {
			fn(id)
		}
		return errors.Join(errs...)
	})
}

// List returns the ids of every live or stored session, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	m.mu.Lock()
	for id := range m.live {
		seen[id] = true
	}
	m.mu.Unlock()

	if m.store != nil {
		stored, err := m.store.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range stored {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying workspace store, or nil.
func (m *Manager) Store() ports.WorkspaceStore {
	return m.store
}

// Close closes every live workspace. Runs still in flight finish, and are
// persisted, before it returns.
func (m *Manager) Close() error {
	m.mu.Lock()
	live := make([]*runtime.Workspace, 0, len(m.live))
	for _, w := range m.live {
		live = append(live, w)
	}
	m.mu.Unlock()

	var errs []error
	for _, w := range live {
		errs = append(errs, w.Close())
	}

	m.mu.Lock()
	m.live = make(map[string]*runtime.Workspace)
	m.mu.Unlock()
	return errors.Join(errs...)
}

// lookup must run under the session lock.
func (m *Manager) lookup(ctx context.Context, id string) (*runtime.Workspace, error) {
	m.mu.Lock()
	w, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		return w, nil
	}
	if m.store == nil {
		return nil, domain.ErrWorkspaceNotFound
	}

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	w = m.spawn(id)
	if err := w.Restore(ctx, snap); err != nil {
		m.forget(id)
		_ = w.Close()
		return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}
	m.logger.Debug("session restored", "session_id", id)
	return w, nil
}

func (m *Manager) spawn(id string) *runtime.Workspace {
	var hooks domain.LifecycleHooks
	if m.store != nil {
		hooks.OnReconcile = func(ctx context.Context, ev *domain.ReconcileEvent) {
			m.mu.Lock()
			w, ok := m.live[ev.WorkspaceID]
			m.mu.Unlock()
			if !ok {
				return
			}
			if err := m.persist(ctx, ev.WorkspaceID, w); err != nil {
				m.logger.Error("failed to persist reconciled session", "session_id", ev.WorkspaceID, "err", err)
			}
		}
	}

	w := m.factory(id, hooks)
	m.mu.Lock()
	m.live[id] = w
	m.mu.Unlock()
	return w
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.live, id)
	m.mu.Unlock()
}

func (m *Manager) persist(ctx context.Context, id string, w *runtime.Workspace) error {
	if m.store == nil {
		return nil
	}
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	if err := m.store.Save(ctx, id, w.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist session %s: %w", id, err)
	}
	return nil
}
