package cli_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediascan/console/authapi"
	"github.com/mediascan/console/internal/cli"
)

func newAuthAPI(t *testing.T) *httptest.Server {
	t.Helper()
	profiles := map[string]string{
		"tok-admin":  `{"id":1,"email":"admin@b.com","role":"admin","is_active":true}`,
		"tok-viewer": `{"id":2,"email":"viewer@b.com","role":"viewer","is_active":true}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+authapi.RouteLogin, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("password") != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
			return
		}
		token := "tok-" + strings.TrimSuffix(r.PostForm.Get("username"), "@b.com")
		_, _ = w.Write([]byte(`{"access_token":"` + token + `","token_type":"bearer"}`))
	})
	mux.HandleFunc("GET "+authapi.RouteMe, func(w http.ResponseWriter, r *http.Request) {
		profile, ok := profiles[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(profile))
	})
	mux.HandleFunc("POST "+authapi.RouteRegister, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("GET "+authapi.RouteAdminUsers, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[` + profiles["tok-viewer"] + `,` + profiles["tok-admin"] + `]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("FOLDER", t.TempDir())
	t.Setenv("CREDENTIALS_BACKEND", "file")
	t.Setenv("CREDENTIALS_KEY", "")
	t.Setenv("API_BASE_URL", newAuthAPI(t).URL)
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestSessionCommands(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "whoami")
	require.ErrorContains(t, err, "not signed in")

	out, err := run(t, "pw\n", "login", "--email", "viewer@b.com")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as viewer@b.com")

	out, err = run(t, "", "whoami")
	require.NoError(t, err, "token survives across invocations")
	require.Contains(t, out, "Role:    viewer")

	_, err = run(t, "", "users", "list")
	require.ErrorContains(t, err, "admin role")

	out, err = run(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out.")

	_, err = run(t, "", "whoami")
	require.ErrorContains(t, err, "not signed in")
}

func TestLoginPromptsForEmail(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "admin@b.com\npw\n", "login")
	require.NoError(t, err)
	require.Contains(t, out, "admin@b.com")

	out, err = run(t, "", "users", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "admin@b.com")
}

func TestLoginRejected(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "wrong\n", "login", "-e", "viewer@b.com")
	require.EqualError(t, err, "Invalid credentials")
}

func TestRegister(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "a\nb\n", "register", "-e", "new@b.com")
	require.EqualError(t, err, "Passwords do not match.")

	out, err := run(t, "a\na\n", "register", "-e", "new@b.com")
	require.NoError(t, err)
	require.Contains(t, out, "Account created")

	_, err = run(t, "", "whoami")
	require.ErrorContains(t, err, "not signed in", "registering does not sign in")
}

func TestUsersUpdateValidatesFlags(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "users", "update", "2")
	require.ErrorContains(t, err, "nothing to update")

	_, err = run(t, "", "users", "update", "x", "--role", "admin")
	require.ErrorContains(t, err, "invalid user id")
}
