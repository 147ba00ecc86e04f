package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
)

// fakeAuth is an in-process auth provider with a controllable state hub.
type fakeAuth struct {
	mu         sync.Mutex
	subs       []func(*domain.Principal)
	current    *domain.Principal
	signOutErr error
	signOuts   int
}

func (f *fakeAuth) Subscribe(onChange func(*domain.Principal)) func() {
	f.mu.Lock()
	f.subs = append(f.subs, onChange)
	current := f.current
	f.mu.Unlock()
	onChange(current)
	return func() {}
}

func (f *fakeAuth) emit(p *domain.Principal) {
	f.mu.Lock()
	f.current = p
	subs := append([]func(*domain.Principal){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(p)
	}
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	p := &domain.Principal{UID: "uid-" + email, Email: email}
	f.emit(p)
	return p, nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOuts++
	err := f.signOutErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.emit(nil)
	return nil
}

func (f *fakeAuth) CurrentToken(ctx context.Context) string { return "tok" }

// fakeProfiles lets tests delay or fail role lookups.
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	err      error
	delay    time.Duration
	release  chan struct{}
}

func (f *fakeProfiles) GetProfile(ctx context.Context, uid string) (*domain.Profile, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[uid]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: uid}
	}
	return p, nil
}

func (f *fakeProfiles) SetProfile(ctx context.Context, profile *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profiles == nil {
		f.profiles = make(map[string]*domain.Profile)
	}
	f.profiles[profile.UID] = profile
	return nil
}

func newTestManager(auth *fakeAuth, profiles *fakeProfiles, timeout time.Duration) *Manager {
	return NewManager(auth, profiles, timeout, zap.NewNop(), observability.NewMetrics())
}

func waitFor(t *testing.T, m *Manager, cond func(domain.SessionSnapshot) bool) domain.SessionSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := m.Snapshot(); cond(s) {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met, snapshot: %+v", m.Snapshot())
	return domain.SessionSnapshot{}
}

func TestStartsLoadingAndResolvesSignedOut(t *testing.T) {
	auth := &fakeAuth{}
	m := newTestManager(auth, &fakeProfiles{}, time.Second)

	if !m.Snapshot().Loading {
		t.Fatal("expected initial loading state")
	}

	m.Start()
	defer m.Close()

	s := waitFor(t, m, func(s domain.SessionSnapshot) bool { return !s.Loading })
	if s.SignedIn() {
		t.Errorf("expected signed-out snapshot, got %+v", s)
	}
}

func TestPrincipalFirstThenRole(t *testing.T) {
	auth := &fakeAuth{}
	profiles := &fakeProfiles{
		profiles: map[string]*domain.Profile{
			"uid-maria@doceencanto.com": {UID: "uid-maria@doceencanto.com", Role: domain.RoleVendor},
		},
		release: make(chan struct{}),
	}
	m := newTestManager(auth, profiles, 2*time.Second)
	m.Start()
	defer m.Close()

	if err := m.Login(context.Background(), "maria@doceencanto.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Principal is visible before the role lookup completes.
	s := waitFor(t, m, func(s domain.SessionSnapshot) bool { return s.SignedIn() })
	if s.Role != domain.RoleUnresolved {
		t.Errorf("role should be unresolved while lookup is in flight, got %q", s.Role)
	}
	if !s.Loading {
		t.Error("expected loading while role resolves")
	}

	close(profiles.release)
	s = waitFor(t, m, func(s domain.SessionSnapshot) bool { return !s.Loading })
	if s.Role != domain.RoleVendor {
		t.Errorf("role = %q, want vendor", s.Role)
	}
}

func TestRoleLookupFailureIsNonFatal(t *testing.T) {
	auth := &fakeAuth{}
	profiles := &fakeProfiles{err: errors.New("store down")}
	m := newTestManager(auth, profiles, 2*time.Second)
	m.Start()
	defer m.Close()

	if err := m.Login(context.Background(), "ana@doceencanto.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	s := waitFor(t, m, func(s domain.SessionSnapshot) bool { return s.SignedIn() && !s.Loading })
	if s.Role != domain.RoleUnresolved {
		t.Errorf("role = %q, want unresolved", s.Role)
	}
}

func TestLoadingTimeoutForcesResolution(t *testing.T) {
	auth := &fakeAuth{}
	// Role lookup that never answers within the test.
	profiles := &fakeProfiles{release: make(chan struct{})}
	m := newTestManager(auth, profiles, 50*time.Millisecond)

	// Suppress the fake's immediate signed-out event so loading persists:
	// subscribe happens in Start, so pre-set a signed-in current state whose
	// role lookup hangs.
	auth.current = &domain.Principal{UID: "uid-1", Email: "ana@doceencanto.com"}
	m.Start()
	defer m.Close()
	defer close(profiles.release)

	s := waitFor(t, m, func(s domain.SessionSnapshot) bool { return !s.Loading })
	if !s.SignedIn() {
		t.Error("principal should survive the loading timeout")
	}
	if s.Role != domain.RoleUnresolved {
		t.Errorf("role = %q, want unresolved", s.Role)
	}
}

func TestStaleRoleLookupDiscarded(t *testing.T) {
	auth := &fakeAuth{}
	profiles := &fakeProfiles{
		profiles: map[string]*domain.Profile{
			"uid-old@doceencanto.com": {UID: "uid-old@doceencanto.com", Role: domain.RoleVendor},
		},
		release: make(chan struct{}),
	}
	m := newTestManager(auth, profiles, 2*time.Second)
	m.Start()
	defer m.Close()

	if err := m.Login(context.Background(), "old@doceencanto.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	waitFor(t, m, func(s domain.SessionSnapshot) bool { return s.SignedIn() })

	// Sign out while the old principal's role lookup is still in flight.
	auth.emit(nil)
	waitFor(t, m, func(s domain.SessionSnapshot) bool { return !s.SignedIn() })

	// Let the stale lookup finish; it must not resurrect the old session.
	close(profiles.release)
	time.Sleep(50 * time.Millisecond)

	s := m.Snapshot()
	if s.SignedIn() || s.Role != domain.RoleUnresolved {
		t.Errorf("stale role lookup leaked into snapshot: %+v", s)
	}
}

func TestLogoutClearsLocallyEvenWhenProviderFails(t *testing.T) {
	auth := &fakeAuth{signOutErr: errors.New("network down")}
	m := newTestManager(auth, &fakeProfiles{}, 2*time.Second)
	m.Start()
	defer m.Close()

	if err := m.Login(context.Background(), "ana@doceencanto.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	waitFor(t, m, func(s domain.SessionSnapshot) bool { return s.SignedIn() })

	err := m.Logout(context.Background())
	if err == nil {
		t.Fatal("expected provider error to be surfaced")
	}

	s := m.Snapshot()
	if s.SignedIn() || s.Loading {
		t.Errorf("local session must clear despite provider failure: %+v", s)
	}
}

func TestChangesFeedSeesTransitions(t *testing.T) {
	auth := &fakeAuth{}
	m := newTestManager(auth, &fakeProfiles{}, 2*time.Second)
	m.Start()
	defer m.Close()

	if err := m.Login(context.Background(), "ana@doceencanto.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	sawSignedIn := false
	deadline := time.After(2 * time.Second)
	for !sawSignedIn {
		select {
		case s := <-m.Changes():
			if s.SignedIn() {
				sawSignedIn = true
			}
		case <-deadline:
			t.Fatal("never observed signed-in state on the change feed")
		}
	}
}
