package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediascan/console/authapi"
	"github.com/mediascan/console/credentials"
	apperrors "github.com/mediascan/console/internal/errors"
	"github.com/mediascan/console/internal/logging"
	"github.com/mediascan/console/users"
)

// Manager owns the Session and mediates every transition. It is the only
// writer of the credential store.
//
// Auth API calls run outside any lock and are tagged with the generation
// current when they started; a result whose generation has moved on is
// discarded without touching state or the store.
//
// storeMu orders store writes and generation changes; mu guards the state
// read by Snapshot. storeMu is always taken first, and store I/O never runs
// under mu.
type Manager struct {
	store credentials.Store
	api   authapi.Client
	log   zerolog.Logger

	initOnce sync.Once

	storeMu sync.Mutex

	mu         sync.Mutex
	status     Status
	user       *User
	lastError  string
	expiresAt  time.Time
	generation uint64
	// unverified is set while the store holds a token whose profile lookup
	// has not completed yet.
	unverified bool
}

// NewManager returns a Manager in the Initializing state.
func NewManager(store credentials.Store, api authapi.Client) *Manager {
	return &Manager{
		store:  store,
		api:    api,
		log:    logging.Component("session"),
		status: Initializing,
	}
}

// Snapshot returns an immutable copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Initialize reads the credential store and validates a stored token. It runs
// once; later calls return the current snapshot. Failures are absorbed into
// the session state.
func (m *Manager) Initialize(ctx context.Context) Snapshot {
	m.initOnce.Do(func() { m.initialize(ctx) })
	return m.Snapshot()
}

func (m *Manager) initialize(ctx context.Context) {
	token, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error().Err(storeError("load", err)).Msg("credential store unavailable")
		m.mu.Lock()
		if m.status == Initializing {
			m.status = Failed
			m.lastError = MsgStoreUnavailable
		}
		m.mu.Unlock()
		return
	}

	m.storeMu.Lock()
	m.mu.Lock()
	if m.status != Initializing {
		// a login or logout already took over
		m.mu.Unlock()
		m.storeMu.Unlock()
		return
	}
	if token == "" {
		m.status = Ready
		m.mu.Unlock()
		m.storeMu.Unlock()
		m.log.Debug().Msg("no stored token, session is anonymous")
		return
	}
	m.generation++
	m.status = Authenticating
	gen := m.generation
	m.mu.Unlock()
	m.storeMu.Unlock()

	profile, err := m.api.Me(ctx, token)
	if err != nil {
		m.log.Info().Err(err).Msg("stored token rejected, clearing credentials")
		m.settle(ctx, gen, m.clearStore, func(error) Result {
			m.settleAnonymousLocked("")
			return success()
		})
		return
	}
	m.settle(ctx, gen, nil, func(error) Result {
		m.settleUserLocked(token, profile)
		m.log.Info().Str("email", profile.Email).Msg("session restored")
		return success()
	})
}

// Login authenticates with the Auth API, persists the token and resolves the
// profile. The session is anonymous while the attempt is in flight. A newer
// Login supersedes an older one still in flight.
func (m *Manager) Login(ctx context.Context, identifier, secret string) Result {
	return m.login(ctx, identifier, secret, false)
}

// TryLogin is Login, except that it fails with MsgInProgress instead of
// superseding an authentication already in flight.
func (m *Manager) TryLogin(ctx context.Context, identifier, secret string) Result {
	return m.login(ctx, identifier, secret, true)
}

func (m *Manager) login(ctx context.Context, identifier, secret string, exclusive bool) Result {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return failure(MsgMissingInput, apperrors.ErrMissingInput)
	}

	gen, ok := m.begin(ctx, exclusive)
	if !ok {
		return failure(MsgInProgress, apperrors.ErrInProgress)
	}

	token, err := m.api.Login(ctx, identifier, secret)
	if err != nil {
		msg := MessageFor(err, MsgLoginFailed)
		m.log.Warn().Err(err).Str("identifier", identifier).Msg("login rejected")
		return m.settle(ctx, gen, nil, func(error) Result {
			m.settleAnonymousLocked(msg)
			return failure(msg, err)
		})
	}

	save := func(ctx context.Context) error { return m.store.Save(ctx, token) }
	if res := m.settle(ctx, gen, save, func(saveErr error) Result {
		if saveErr != nil {
			err := storeError("save", saveErr)
			m.log.Error().Err(err).Msg("failed to persist token")
			m.status = Failed
			m.lastError = MsgStoreUnavailable
			return failure(MsgStoreUnavailable, err)
		}
		m.unverified = true
		return success()
	}); !res.OK {
		return res
	}

	profile, err := m.api.Me(ctx, token)
	if err != nil {
		msg := MessageFor(err, MsgProfileFailed)
		m.log.Warn().Err(err).Str("identifier", identifier).Msg("profile lookup after login failed")
		return m.settle(ctx, gen, m.clearStore, func(error) Result {
			m.unverified = false
			m.settleAnonymousLocked(msg)
			return failure(msg, err)
		})
	}
	return m.settle(ctx, gen, nil, func(error) Result {
		m.settleUserLocked(token, profile)
		m.log.Info().Str("email", profile.Email).Str("role", string(profile.Role)).Msg("logged in")
		return success()
	})
}

// Register creates an account. The caller must already have checked the
// secret confirmation (see ConfirmSecret). The session is not modified and
// the caller is not logged in.
func (m *Manager) Register(ctx context.Context, identifier, secret string) Result {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return failure(MsgMissingInput, apperrors.ErrMissingInput)
	}

	if err := m.api.Register(ctx, identifier, secret); err != nil {
		m.log.Warn().Err(err).Str("identifier", identifier).Msg("registration rejected")
		return failure(MessageFor(err, MsgRegisterFailed), err)
	}
	m.log.Info().Str("identifier", identifier).Msg("registered")
	return success()
}

// Logout resets the session to anonymous and clears the credential store.
// It cannot fail and is idempotent. Any in-flight attempt is invalidated.
func (m *Manager) Logout(ctx context.Context) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	m.generation++
	m.unverified = false
	m.settleAnonymousLocked("")
	m.mu.Unlock()

	_ = m.clearStore(ctx)
	m.log.Debug().Msg("logged out")
}

// begin starts an Authenticating operation and returns its generation. With
// exclusive set it refuses to start while another operation is in flight.
// The store is emptied when the operation replaces a signed-in user or a
// token persisted by a superseded attempt but never verified.
func (m *Manager) begin(ctx context.Context, exclusive bool) (uint64, bool) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	if exclusive && m.status == Authenticating {
		m.mu.Unlock()
		return 0, false
	}
	stale := m.unverified || m.user != nil
	m.unverified = false
	m.generation++
	m.status = Authenticating
	m.user = nil
	m.lastError = ""
	m.expiresAt = time.Time{}
	gen := m.generation
	m.mu.Unlock()

	if stale {
		_ = m.clearStore(ctx)
	}
	return gen, true
}

// settle applies the outcome of operation gen: write runs against the store
// first, outside mu, then apply runs under mu with write's error. A
// superseded operation touches neither.
func (m *Manager) settle(ctx context.Context, gen uint64, write func(context.Context) error, apply func(writeErr error) Result) Result {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	// generation only changes under storeMu
	if gen != m.generation {
		m.log.Debug().Err(apperrors.ErrSuperseded).Msg("discarding stale result")
		return failure(MsgSuperseded, apperrors.ErrSuperseded)
	}

	var err error
	if write != nil {
		err = write(context.WithoutCancel(ctx))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return apply(err)
}

func (m *Manager) settleUserLocked(token string, profile users.Profile) {
	m.unverified = false
	m.user = &User{Profile: profile, Token: token}
	m.expiresAt = tokenExpiry(token)
	m.lastError = ""
	m.status = Ready
}

func (m *Manager) settleAnonymousLocked(lastError string) {
	m.user = nil
	m.expiresAt = time.Time{}
	m.lastError = lastError
	m.status = Ready
}

// clearStore empties the slot. Callers hold storeMu. Failures are logged;
// the error is returned only so clearStore fits settle.
func (m *Manager) clearStore(ctx context.Context) error {
	err := m.store.Clear(context.WithoutCancel(ctx))
	if err != nil {
		err = storeError("clear", err)
		m.log.Error().Err(err).Msg("failed to clear credential store")
	}
	return err
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStoreUnavailable, err)
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:    m.status,
		LastError: m.lastError,
		ExpiresAt: m.expiresAt,
	}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}
