// Package session owns the consolidated auth session state: the current
// principal from the auth provider plus the role resolved from the profile
// store. It is the single writer of that state; consumers read snapshots or
// watch the change feed.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
	"github.com/doceencanto/storefront-go/internal/port"
)

// Manager tracks the session state across auth events. Each auth-state change
// bumps a generation counter; in-flight role lookups compare their generation
// before applying, so a stale lookup can never clobber a newer state.
type Manager struct {
	auth           port.AuthProvider
	profiles       port.ProfileStore
	loadingTimeout time.Duration
	logger         *zap.Logger
	metrics        *observability.Metrics

	mu          sync.Mutex
	snapshot    domain.SessionSnapshot
	generation  uint64
	unsubscribe func()
	started     bool
	closed      bool
	timer       *time.Timer
	changes     chan domain.SessionSnapshot
}

// NewManager creates a session manager. The state starts as loading until the
// first auth event resolves or the loading timeout fires.
func NewManager(auth port.AuthProvider, profiles port.ProfileStore, loadingTimeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		auth:           auth,
		profiles:       profiles,
		loadingTimeout: loadingTimeout,
		logger:         logger,
		metrics:        metrics,
		snapshot:       domain.SessionSnapshot{Loading: true},
		changes:        make(chan domain.SessionSnapshot, 16),
	}
}

// Start subscribes to the auth provider and arms the loading timeout.
// Calling Start more than once is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.timer = time.AfterFunc(m.loadingTimeout, m.onLoadingTimeout)
	m.mu.Unlock()

	// Subscribe fires the callback synchronously, so it must run unlocked.
	unsub := m.auth.Subscribe(m.onAuthChange)
	m.mu.Lock()
	m.unsubscribe = unsub
	m.mu.Unlock()
}

// onAuthChange handles one auth-state event. The principal is published
// immediately; role resolution follows asynchronously so a slow or failing
// profile store never blocks sign-in.
func (m *Manager) onAuthChange(p *domain.Principal) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.generation++
	gen := m.generation

	if p == nil {
		m.snapshot = domain.SessionSnapshot{}
		m.stopTimerLocked()
		m.publishLocked()
		m.mu.Unlock()
		m.metrics.IncrSessionEvent("signout")
		return
	}

	m.snapshot = domain.SessionSnapshot{Principal: p, Role: domain.RoleUnresolved, Loading: true}
	m.publishLocked()
	m.mu.Unlock()
	m.metrics.IncrSessionEvent("signin")

	go m.resolveRole(gen, p)
}

// resolveRole looks the role up from the profile document and applies it only
// if the session generation is unchanged. Lookup failure is non-fatal: the
// session proceeds with the role unresolved.
func (m *Manager) resolveRole(gen uint64, p *domain.Principal) {
	ctx, cancel := context.WithTimeout(context.Background(), m.loadingTimeout)
	defer cancel()

	role := domain.RoleUnresolved
	profile, err := m.profiles.GetProfile(ctx, p.UID)
	if err != nil {
		m.logger.Warn("session: role lookup failed, proceeding unresolved",
			zap.String("uid", p.UID),
			zap.Error(err),
		)
		m.metrics.IncrSessionEvent("role_unresolved")
	} else {
		role = profile.Role
		m.metrics.IncrSessionEvent("role_resolved")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.generation != gen {
		// A newer auth event won the race; this result is stale.
		return
	}
	m.snapshot.Role = role
	m.snapshot.Loading = false
	m.stopTimerLocked()
	m.publishLocked()
}

// onLoadingTimeout bounds how long the session may report loading. The app
// must render something even when neither the provider nor the store answers.
func (m *Manager) onLoadingTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.snapshot.Loading {
		return
	}
	m.logger.Warn("session: loading timed out, forcing resolved state")
	m.metrics.IncrSessionEvent("timeout")
	m.snapshot.Loading = false
	m.publishLocked()
}

// Login authenticates through the provider. The resulting state change flows
// in through the subscription, not through the return value.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	_, err := m.auth.SignIn(ctx, email, password)
	return err
}

// Logout signs out. The local session is cleared unconditionally, before
// looking at the provider's result, so a dead network can never leave the app
// stuck signed in. The provider error is still returned for logging.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	m.snapshot = domain.SessionSnapshot{}
	m.stopTimerLocked()
	m.publishLocked()
	m.mu.Unlock()

	if err := m.auth.SignOut(ctx); err != nil {
		m.logger.Warn("session: provider sign-out failed, local state already cleared",
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() domain.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// Changes is the session state feed. Slow consumers miss intermediate states
// rather than blocking the manager; Snapshot is always authoritative.
func (m *Manager) Changes() <-chan domain.SessionSnapshot {
	return m.changes
}

// Close detaches from the auth provider and stops the change feed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopTimerLocked()
	unsub := m.unsubscribe
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	m.mu.Lock()
	close(m.changes)
	m.mu.Unlock()
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
}

func (m *Manager) publishLocked() {
	select {
	case m.changes <- m.snapshot:
	default:
	}
}
