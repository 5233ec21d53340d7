// Package session owns the app's auth lifecycle: it drives the host
// handshake, resolves the Telegram identity to an account and exposes a
// single snapshot every screen derives its auth view from.
package session

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"signalmarket/internal/lib/sl"
	"signalmarket/internal/stories/accounts"
	"signalmarket/internal/webapp/bridge"
)

type State string

const (
	StateInit              State = "INIT"
	StateAwaitingHostReady State = "AWAITING_HOST_READY"
	StateHostReady         State = "HOST_READY"
	StateResolving         State = "RESOLVING"
	StateAuthenticated     State = "AUTHENTICATED"
	StateUnauthenticated   State = "UNAUTHENTICATED"
)

var (
	ErrResolutionTimeout = errors.New("host readiness timed out")
	ErrResolutionFailed  = errors.New("identity resolution failed")
	ErrNoIdentity        = errors.New("no telegram identity available")
)

// Resolver maps a Telegram identity to an account. Implemented by the
// API client in the app and by the accounts service in server-side tests.
type Resolver interface {
	Resolve(ctx context.Context, rawTelegramID string) (*accounts.Resolution, error)
}

// HostBridge is the slice of the hardware adapter the session needs.
type HostBridge interface {
	Ready(ctx context.Context) (*bridge.Identity, error)
}

// Snapshot is the immutable auth view handed to consumers. IsReady goes
// true once the host has answered or the handshake is declared stuck;
// it never goes false again.
type Snapshot struct {
	State           State
	Stuck           bool
	IsReady         bool
	IsLoading       bool
	IsAuthenticated bool
	Identity        *bridge.Identity
	AccountID       string
	MerchantID      *string
	Role            accounts.Role
	ResolvedAt      time.Time
}

type resolveResult struct {
	resolution *accounts.Resolution
	err        error
}

type inflightCall struct {
	done   chan struct{}
	result resolveResult
}

type Session struct {
	hw           HostBridge
	resolver     Resolver
	readyTimeout time.Duration
	logger       *slog.Logger

	mu         sync.Mutex
	state      State
	stuck      bool
	identity   *bridge.Identity
	resolution *accounts.Resolution
	resolvedAt time.Time
	inflight   map[int64]*inflightCall
	closed     bool
	onChange   func(Snapshot)
}

func New(hw HostBridge, resolver Resolver, readyTimeout time.Duration, logger *slog.Logger) *Session {
	return &Session{
		hw:           hw,
		resolver:     resolver,
		readyTimeout: readyTimeout,
		logger:       logger,
		state:        StateInit,
		inflight:     make(map[int64]*inflightCall),
	}
}

// OnChange registers the snapshot subscriber. At most one; screens fan
// out from their own store.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Start runs the handshake and the initial resolution. It blocks until
// the session reaches AUTHENTICATED or UNAUTHENTICATED, so callers run
// it in a goroutine on mount.
func (s *Session) Start(ctx context.Context) {
	s.transition(func() { s.state = StateAwaitingHostReady })

	readyCtx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	defer cancel()

	identity, err := s.hw.Ready(readyCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// The host never answered. Declare the handshake stuck and
			// let the app proceed unauthenticated instead of hanging.
			s.logger.Warn("host readiness timed out, proceeding without identity",
				slog.Duration("timeout", s.readyTimeout))
			s.transition(func() {
				s.stuck = true
				s.state = StateUnauthenticated
			})
			return
		}
		s.logger.Error("host handshake failed", sl.Err(err))
		s.transition(func() { s.state = StateUnauthenticated })
		return
	}

	if identity == nil {
		// Host is up but there is no Telegram identity (browser tab).
		s.transition(func() { s.state = StateUnauthenticated })
		return
	}

	s.transition(func() {
		s.identity = identity
		s.state = StateHostReady
	})

	s.resolve(ctx, identity)
}

// Sync re-runs resolution with the identity already in hand. It backs
// the manual retry action on the reconnect screen and the instant
// fallback sync before redirecting to the dashboard.
func (s *Session) Sync(ctx context.Context) (*accounts.Resolution, error) {
	s.mu.Lock()
	identity := s.identity
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return nil, ErrResolutionFailed
	}
	if identity == nil {
		return nil, ErrNoIdentity
	}

	return s.resolve(ctx, identity)
}

// resolve is deduplicated per telegram id: concurrent callers join the
// in-flight request instead of issuing their own.
func (s *Session) resolve(ctx context.Context, identity *bridge.Identity) (*accounts.Resolution, error) {
	s.mu.Lock()
	if call, ok := s.inflight[identity.TelegramID]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.result.resolution, call.result.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &inflightCall{done: make(chan struct{})}
	s.inflight[identity.TelegramID] = call
	s.state = StateResolving
	s.mu.Unlock()
	s.notify()

	resolution, err := s.resolver.Resolve(ctx, formatTelegramID(identity.TelegramID))
	if err != nil {
		err = errors.Wrap(ErrResolutionFailed, err.Error())
	}
	call.result = resolveResult{resolution: resolution, err: err}

	s.mu.Lock()
	delete(s.inflight, identity.TelegramID)
	if s.closed {
		// A closed session never mutates downstream state on late results.
		s.mu.Unlock()
		close(call.done)
		return resolution, err
	}
	if err != nil {
		s.resolution = nil
		s.state = StateUnauthenticated
	} else {
		s.resolution = resolution
		s.resolvedAt = time.Now()
		s.state = StateAuthenticated
	}
	s.mu.Unlock()
	close(call.done)
	s.notify()

	if err != nil {
		s.logger.Error("identity resolution failed", sl.Err(err))
		return nil, err
	}
	return resolution, nil
}

// Snapshot returns the current auth view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           s.state,
		Stuck:           s.stuck,
		IsReady:         s.stuck || (s.state != StateInit && s.state != StateAwaitingHostReady),
		IsLoading:       s.state == StateResolving,
		IsAuthenticated: s.state == StateAuthenticated,
		Identity:        s.identity,
	}
	if s.resolution != nil {
		snap.AccountID = s.resolution.AccountID
		snap.MerchantID = s.resolution.MerchantID
		snap.Role = s.resolution.Role
		snap.ResolvedAt = s.resolvedAt
	}
	return snap
}

// Close marks the session dead. In-flight resolutions still complete for
// their direct callers but no longer touch session state.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.onChange = nil
	s.mu.Unlock()
}

func (s *Session) transition(mutate func()) {
	s.mu.Lock()
	mutate()
	s.mu.Unlock()
	s.notify()
}

func formatTelegramID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}
