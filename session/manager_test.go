package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mediascan/console/authapi"
	"github.com/mediascan/console/credentials"
	apperrors "github.com/mediascan/console/internal/errors"
	"github.com/mediascan/console/session"
	"github.com/mediascan/console/users"
)

const (
	testEmail    = "a@b.com"
	testPassword = "secret"
	storedToken  = "stored-token"
	freshToken   = "fresh-token"
)

// stubAuthAPI is an httptest Auth API whose answers are set per test.
type stubAuthAPI struct {
	loginStatus int
	loginBody   string
	meStatus    map[string]int // token -> status; missing tokens get 401
	meBody      string

	loginCalls atomic.Int32
	meCalls    atomic.Int32
}

func newStubAuthAPI() *stubAuthAPI {
	return &stubAuthAPI{
		loginStatus: http.StatusOK,
		loginBody:   `{"access_token":"` + freshToken + `","token_type":"bearer"}`,
		meStatus:    map[string]int{},
		meBody:      `{"id":1,"email":"a@b.com","role":"viewer","is_active":true}`,
	}
}

func (s *stubAuthAPI) client(t *testing.T) *authapi.HTTPClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+authapi.RouteLogin, func(w http.ResponseWriter, r *http.Request) {
		s.loginCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.loginStatus)
		_, _ = w.Write([]byte(s.loginBody))
	})
	mux.HandleFunc("GET "+authapi.RouteMe, func(w http.ResponseWriter, r *http.Request) {
		s.meCalls.Add(1)
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		status, ok := s.meStatus[token]
		if !ok {
			status = http.StatusUnauthorized
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(s.meBody))
			return
		}
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	})
	mux.HandleFunc("POST "+authapi.RouteRegister, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return authapi.NewHTTPClient(authapi.HTTPClientConfig{BaseURL: srv.URL}, srv.Client())
}

func storeWith(t *testing.T, token string) *credentials.MemoryStore {
	t.Helper()
	store := credentials.NewMemoryStore()
	if token != "" {
		require.NoError(t, store.Save(context.Background(), token))
	}
	return store
}

func storedValue(t *testing.T, store credentials.Store) string {
	t.Helper()
	token, err := store.Load(context.Background())
	require.NoError(t, err)
	return token
}

func TestManager_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored token is anonymous without api calls", func(t *testing.T) {
		api := newStubAuthAPI()
		m := session.NewManager(storeWith(t, ""), api.client(t))
		require.Equal(t, session.Initializing, m.Snapshot().Status)

		snap := m.Initialize(ctx)
		require.Equal(t, session.Ready, snap.Status)
		require.Nil(t, snap.User)
		require.Zero(t, api.meCalls.Load())
		require.Zero(t, api.loginCalls.Load())
	})

	t.Run("valid stored token restores the user", func(t *testing.T) {
		api := newStubAuthAPI()
		api.meStatus[storedToken] = http.StatusOK
		store := storeWith(t, storedToken)
		m := session.NewManager(store, api.client(t))

		snap := m.Initialize(ctx)
		require.Equal(t, session.Ready, snap.Status)
		require.NotNil(t, snap.User)
		require.Equal(t, testEmail, snap.User.Email)
		require.Equal(t, storedToken, snap.Token())
		require.Equal(t, storedToken, storedValue(t, store))
	})

	t.Run("rejected stored token clears the store", func(t *testing.T) {
		api := newStubAuthAPI()
		api.meStatus[storedToken] = http.StatusUnauthorized
		store := storeWith(t, storedToken)
		m := session.NewManager(store, api.client(t))

		snap := m.Initialize(ctx)
		require.Equal(t, session.Ready, snap.Status)
		require.Nil(t, snap.User)
		require.Empty(t, storedValue(t, store))
	})

	t.Run("runs once", func(t *testing.T) {
		api := newStubAuthAPI()
		api.meStatus[storedToken] = http.StatusOK
		m := session.NewManager(storeWith(t, storedToken), api.client(t))

		m.Initialize(ctx)
		m.Initialize(ctx)
		require.Equal(t, int32(1), api.meCalls.Load())
	})

	t.Run("unavailable store fails", func(t *testing.T) {
		m := session.NewManager(&brokenStore{err: errors.New("disk gone")}, newFakeAPI())

		snap := m.Initialize(ctx)
		require.Equal(t, session.Failed, snap.Status)
		require.Nil(t, snap.User)
		require.Equal(t, session.MsgStoreUnavailable, snap.LastError)
	})
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists the token and resolves the user", func(t *testing.T) {
		api := newStubAuthAPI()
		api.meStatus[freshToken] = http.StatusOK
		store := storeWith(t, "")
		m := session.NewManager(store, api.client(t))
		m.Initialize(ctx)

		res := m.Login(ctx, testEmail, testPassword)
		require.True(t, res.OK)
		require.Empty(t, res.Message)

		snap := m.Snapshot()
		require.Equal(t, session.Ready, snap.Status)
		require.NotNil(t, snap.User)
		require.Equal(t, freshToken, snap.User.Token)
		require.Equal(t, freshToken, storedValue(t, store))
	})

	t.Run("rejected credentials leave the session anonymous", func(t *testing.T) {
		api := newStubAuthAPI()
		api.loginStatus = http.StatusUnauthorized
		api.loginBody = `{"detail":"Invalid credentials"}`
		store := storeWith(t, "")
		m := session.NewManager(store, api.client(t))
		m.Initialize(ctx)

		res := m.Login(ctx, testEmail, "wrong")
		require.False(t, res.OK)
		require.Equal(t, "Invalid credentials", res.Message)

		snap := m.Snapshot()
		require.Equal(t, session.Ready, snap.Status)
		require.Nil(t, snap.User)
		require.Equal(t, "Invalid credentials", snap.LastError)
		require.Empty(t, storedValue(t, store))
		require.Zero(t, api.meCalls.Load())
	})

	t.Run("rejected credentials without detail use the generic message", func(t *testing.T) {
		api := newStubAuthAPI()
		api.loginStatus = http.StatusInternalServerError
		api.loginBody = `oops`
		m := session.NewManager(storeWith(t, ""), api.client(t))
		m.Initialize(ctx)

		res := m.Login(ctx, testEmail, testPassword)
		require.False(t, res.OK)
		require.Equal(t, session.MsgLoginFailed, res.Message)
	})

	t.Run("missing input makes no call", func(t *testing.T) {
		api := newStubAuthAPI()
		m := session.NewManager(storeWith(t, ""), api.client(t))
		m.Initialize(ctx)

		require.Equal(t, session.MsgMissingInput, m.Login(ctx, "  ", testPassword).Message)
		require.ErrorIs(t, m.Login(ctx, testEmail, "").Err, apperrors.ErrMissingInput)
		require.Equal(t, session.MsgMissingInput, m.Login(ctx, testEmail, "").Message)
		require.Zero(t, api.loginCalls.Load())
		require.Equal(t, session.Ready, m.Snapshot().Status)
	})

	t.Run("transport failure has its own message", func(t *testing.T) {
		api := newFakeAPI()
		api.loginErr = apperrors.Wrapf(apperrors.ErrTransport, "dial")
		m := session.NewManager(storeWith(t, ""), api)
		m.Initialize(ctx)

		res := m.Login(ctx, testEmail, testPassword)
		require.False(t, res.OK)
		require.Equal(t, session.MsgUnreachable, res.Message)
		require.ErrorIs(t, res.Err, apperrors.ErrTransport)
		require.Nil(t, m.Snapshot().User)
	})

	t.Run("failed profile lookup fails the login and drops the token", func(t *testing.T) {
		api := newStubAuthAPI()
		api.meStatus[freshToken] = http.StatusUnauthorized
		store := storeWith(t, "")
		m := session.NewManager(store, api.client(t))
		m.Initialize(ctx)

		res := m.Login(ctx, testEmail, testPassword)
		require.False(t, res.OK)
		require.Equal(t, "Could not validate credentials", res.Message)
		require.Nil(t, m.Snapshot().User)
		require.Empty(t, storedValue(t, store))
	})

	t.Run("empty profile is treated as an authentication error", func(t *testing.T) {
		api := newStubAuthAPI()
		api.meStatus[freshToken] = http.StatusOK
		api.meBody = `{}`
		m := session.NewManager(storeWith(t, ""), api.client(t))
		m.Initialize(ctx)

		res := m.Login(ctx, testEmail, testPassword)
		require.False(t, res.OK)
		require.Equal(t, session.MsgProfileFailed, res.Message)
		require.Nil(t, m.Snapshot().User)
	})

	t.Run("failed persistence marks the session failed", func(t *testing.T) {
		m := session.NewManager(&brokenStore{saveErr: errors.New("read-only")}, newFakeAPI())
		m.Initialize(ctx)

		res := m.Login(ctx, testEmail, testPassword)
		require.False(t, res.OK)
		require.ErrorIs(t, res.Err, apperrors.ErrStoreUnavailable)
		snap := m.Snapshot()
		require.Equal(t, session.Failed, snap.Status)
		require.Nil(t, snap.User)
	})

	t.Run("failed login while signed in drops the previous token", func(t *testing.T) {
		api := newFakeAPI()
		store := storeWith(t, "")
		m := session.NewManager(store, api)
		m.Initialize(ctx)
		require.True(t, m.Login(ctx, testEmail, testPassword).OK)
		require.Equal(t, "tok-"+testEmail, storedValue(t, store))

		api.loginErr = &authapi.APIError{StatusCode: http.StatusUnauthorized, Detail: "Invalid credentials"}
		res := m.Login(ctx, "other@b.com", "wrong")
		require.False(t, res.OK)
		require.Nil(t, m.Snapshot().User)
		require.Empty(t, storedValue(t, store), "a restart must not restore the replaced user")
	})

	t.Run("jwt expiry is exposed", func(t *testing.T) {
		exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   testEmail,
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("server-secret"))
		require.NoError(t, err)

		api := newFakeAPI()
		api.tokenFor = func(string) string { return signed }
		m := session.NewManager(storeWith(t, ""), api)
		m.Initialize(ctx)

		require.True(t, m.Login(ctx, testEmail, testPassword).OK)
		require.True(t, exp.Equal(m.Snapshot().ExpiresAt))
	})
}

func TestManager_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success does not log in", func(t *testing.T) {
		api := newStubAuthAPI()
		store := storeWith(t, "")
		m := session.NewManager(store, api.client(t))
		m.Initialize(ctx)
		before := m.Snapshot()

		res := m.Register(ctx, testEmail, testPassword)
		require.True(t, res.OK)
		require.Equal(t, before, m.Snapshot())
		require.Empty(t, storedValue(t, store))
		require.Zero(t, api.loginCalls.Load())
	})

	t.Run("failure carries the server detail and leaves state alone", func(t *testing.T) {
		api := newFakeAPI()
		api.registerErr = &authapi.APIError{StatusCode: http.StatusBadRequest, Detail: "Email already registered"}
		m := session.NewManager(storeWith(t, ""), api)
		m.Initialize(ctx)

		res := m.Register(ctx, testEmail, testPassword)
		require.False(t, res.OK)
		require.Equal(t, "Email already registered", res.Message)
		require.Empty(t, m.Snapshot().LastError)
	})

	t.Run("malformed email", func(t *testing.T) {
		api := newStubAuthAPI()
		m := session.NewManager(storeWith(t, ""), api.client(t))
		require.Equal(t, session.MsgInvalidEmail, m.Register(ctx, "nope", testPassword).Message)
	})

	t.Run("missing input", func(t *testing.T) {
		m := session.NewManager(storeWith(t, ""), newFakeAPI())
		require.Equal(t, session.MsgMissingInput, m.Register(ctx, "", testPassword).Message)
	})

	t.Run("confirmation", func(t *testing.T) {
		require.NoError(t, session.ConfirmSecret("a", "a"))
		require.ErrorIs(t, session.ConfirmSecret("a", "b"), apperrors.ErrSecretMismatch)
	})
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()
	api := newStubAuthAPI()
	api.meStatus[freshToken] = http.StatusOK
	store := storeWith(t, "")
	m := session.NewManager(store, api.client(t))
	m.Initialize(ctx)
	require.True(t, m.Login(ctx, testEmail, testPassword).OK)

	m.Logout(ctx)
	snap := m.Snapshot()
	require.Equal(t, session.Ready, snap.Status)
	require.Nil(t, snap.User)
	require.Empty(t, storedValue(t, store))

	m.Logout(ctx)
	require.Equal(t, snap, m.Snapshot())

	t.Run("store failures are absorbed", func(t *testing.T) {
		m := session.NewManager(&brokenStore{clearErr: errors.New("nope")}, newFakeAPI())
		m.Initialize(ctx)
		require.True(t, m.Login(ctx, testEmail, testPassword).OK)

		m.Logout(ctx)
		require.Nil(t, m.Snapshot().User)
		require.Equal(t, session.Ready, m.Snapshot().Status)
	})
}

func TestManager_LogoutDoesNotBlockReaders(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	m := session.NewManager(store, newFakeAPI())
	m.Initialize(ctx)
	require.True(t, m.Login(ctx, testEmail, testPassword).OK)

	done := make(chan struct{})
	go func() {
		m.Logout(ctx)
		close(done)
	}()

	select {
	case <-store.clearing:
	case <-time.After(2 * time.Second):
		t.Fatal("logout never reached the store")
	}

	snaps := make(chan session.Snapshot, 1)
	go func() { snaps <- m.Snapshot() }()
	select {
	case snap := <-snaps:
		require.Nil(t, snap.User)
		require.Equal(t, session.Ready, snap.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot blocked behind the store")
	}

	close(store.release)
	<-done
	require.Empty(t, storedValue(t, store))
}

func TestManager_TryLogin(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.block = true
	store := storeWith(t, "")
	m := session.NewManager(store, api)
	m.Initialize(ctx)

	first := make(chan session.Result, 1)
	go func() { first <- m.TryLogin(ctx, "first@b.com", testPassword) }()
	api.waitEntered(t, "first@b.com")

	res := m.TryLogin(ctx, "second@b.com", testPassword)
	require.False(t, res.OK)
	require.Equal(t, session.MsgInProgress, res.Message)
	require.ErrorIs(t, res.Err, apperrors.ErrInProgress)
	require.Equal(t, session.Authenticating, m.Snapshot().Status, "the rejected attempt leaves the first in charge")

	api.release("first@b.com")
	require.True(t, (<-first).OK)
	require.Equal(t, "first@b.com", m.Snapshot().User.Email)
	require.Equal(t, "tok-first@b.com", storedValue(t, store))
}

func TestManager_OverlappingLogins(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.block = true
	store := storeWith(t, "")
	m := session.NewManager(store, api)
	m.Initialize(ctx)

	first := make(chan session.Result, 1)
	go func() { first <- m.Login(ctx, "first@b.com", testPassword) }()
	api.waitEntered(t, "first@b.com")
	require.Equal(t, session.Authenticating, m.Snapshot().Status)

	second := make(chan session.Result, 1)
	go func() { second <- m.Login(ctx, "second@b.com", testPassword) }()
	api.waitEntered(t, "second@b.com")

	api.release("second@b.com")
	require.True(t, (<-second).OK)

	api.release("first@b.com")
	stale := <-first
	require.False(t, stale.OK)
	require.Equal(t, session.MsgSuperseded, stale.Message)
	require.ErrorIs(t, stale.Err, apperrors.ErrSuperseded)

	snap := m.Snapshot()
	require.Equal(t, session.Ready, snap.Status)
	require.Equal(t, "second@b.com", snap.User.Email)
	require.Equal(t, "tok-second@b.com", storedValue(t, store))
}

func TestManager_LogoutDiscardsInFlightLogin(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.block = true
	store := storeWith(t, "")
	m := session.NewManager(store, api)
	m.Initialize(ctx)

	result := make(chan session.Result, 1)
	go func() { result <- m.Login(ctx, testEmail, testPassword) }()
	api.waitEntered(t, testEmail)

	m.Logout(ctx)
	api.release(testEmail)

	res := <-result
	require.False(t, res.OK)
	require.Equal(t, session.MsgSuperseded, res.Message)

	snap := m.Snapshot()
	require.Equal(t, session.Ready, snap.Status)
	require.Nil(t, snap.User)
	require.Empty(t, storedValue(t, store))
}

func TestManager_LogoutDuringInitialValidation(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.blockMe = true
	store := storeWith(t, "tok-"+testEmail)
	m := session.NewManager(store, api)

	done := make(chan session.Snapshot, 1)
	go func() { done <- m.Initialize(ctx) }()
	api.waitEntered(t, "me")
	require.Equal(t, session.Authenticating, m.Snapshot().Status)

	m.Logout(ctx)
	api.release("me")

	snap := <-done
	require.Nil(t, snap.User)
	require.Equal(t, session.Ready, snap.Status)
	require.Empty(t, storedValue(t, store))
}

// fakeAPI is an in-process authapi.Client. Tokens are "tok-<identifier>".
// With block set, Login waits until release(identifier) is called; with
// blockMe, Me waits for release("me").
type fakeAPI struct {
	loginErr    error
	registerErr error
	tokenFor    func(identifier string) string
	block       bool
	blockMe     bool

	mu      sync.Mutex
	gates   map[string]chan struct{}
	entered map[string]chan struct{}
}

var _ authapi.Client = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tokenFor: func(identifier string) string { return "tok-" + identifier },
		gates:    map[string]chan struct{}{},
		entered:  map[string]chan struct{}{},
	}
}

func (f *fakeAPI) chans(key string) (gate, entered chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.gates[key]; !ok {
		f.gates[key] = make(chan struct{})
		f.entered[key] = make(chan struct{})
	}
	return f.gates[key], f.entered[key]
}

func (f *fakeAPI) wait(ctx context.Context, key string) {
	gate, entered := f.chans(key)
	close(entered)
	select {
	case <-gate:
	case <-ctx.Done():
	}
}

func (f *fakeAPI) waitEntered(t *testing.T, key string) {
	t.Helper()
	_, entered := f.chans(key)
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s never reached the auth api", key)
	}
}

func (f *fakeAPI) release(key string) {
	gate, _ := f.chans(key)
	close(gate)
}

func (f *fakeAPI) Login(ctx context.Context, identifier, _ string) (string, error) {
	if f.block {
		f.wait(ctx, identifier)
	}
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.tokenFor(identifier), nil
}

func (f *fakeAPI) Register(context.Context, string, string) error {
	return f.registerErr
}

func (f *fakeAPI) Me(ctx context.Context, token string) (users.Profile, error) {
	if f.blockMe {
		f.wait(ctx, "me")
	}
	email := strings.TrimPrefix(token, "tok-")
	if email == token {
		email = testEmail
	}
	return users.Profile{ID: 1, Email: email, Role: users.RoleViewer, IsActive: true}, nil
}

// brokenStore fails the operations it has an error for.
type brokenStore struct {
	err      error
	saveErr  error
	clearErr error

	token string
}

func (b *brokenStore) Load(context.Context) (string, error) {
	return b.token, b.err
}

func (b *brokenStore) Save(_ context.Context, token string) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.token = token
	return nil
}

func (b *brokenStore) Clear(context.Context) error {
	if b.clearErr != nil {
		return b.clearErr
	}
	b.token = ""
	return nil
}

// gatedStore is a MemoryStore whose Clear waits for release once a token
// has been saved.
type gatedStore struct {
	*credentials.MemoryStore
	clearing chan struct{}
	release  chan struct{}
	once     sync.Once
	saved    atomic.Bool
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: credentials.NewMemoryStore(),
		clearing:    make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedStore) Save(ctx context.Context, token string) error {
	g.saved.Store(true)
	return g.MemoryStore.Save(ctx, token)
}

func (g *gatedStore) Clear(ctx context.Context) error {
	if g.saved.Load() {
		g.once.Do(func() { close(g.clearing) })
		<-g.release
	}
	return g.MemoryStore.Clear(ctx)
}
