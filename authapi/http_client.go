package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	apperrors "github.com/mediascan/console/internal/errors"
	"github.com/mediascan/console/internal/logging"
	"github.com/mediascan/console/users"
)

const (
	RequestIDHeader = "X-Request-ID"

	// DefaultTimeout applies when the configuration does not set one.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 64 << 10
)

// HTTPClientConfig holds configuration for the HTTP Auth API client.
type HTTPClientConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8000/api/v1"
	BaseURL string
	// Timeout bounds each call; expiry is reported as a transport error
	Timeout time.Duration
}

// HTTPClient implements Client and AdminClient over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	log        zerolog.Logger
	cfg        HTTPClientConfig
}

var (
	_ Client      = (*HTTPClient)(nil)
	_ AdminClient = (*HTTPClient)(nil)
)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, a client over http.DefaultTransport is used.
func NewHTTPClient(cfg HTTPClientConfig, httpClient *http.Client) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	base := http.DefaultTransport
	if httpClient != nil && httpClient.Transport != nil {
		base = httpClient.Transport
	}

	return &HTTPClient{
		httpClient: &http.Client{Transport: requestIDTransport{base: base}},
		log:        logging.Component("authapi"),
		cfg:        cfg,
	}
}

// Login posts the form-encoded credentials as an OAuth2 password grant and
// returns the access token.
func (c *HTTPClient) Login(ctx context.Context, identifier, secret string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.url(RouteLogin),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tok, err := conf.PasswordCredentialsToken(c.oauthContext(ctx), identifier, secret)
	if err != nil {
		return "", c.classifyTokenError(err)
	}
	if tok.AccessToken == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidToken, "login")
	}
	return tok.AccessToken, nil
}

// Register posts {email, password} as JSON. Any 2xx is success.
func (c *HTTPClient) Register(ctx context.Context, identifier, secret string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	request := RegisterRequest{Email: identifier, Password: secret}
	if err := request.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(RouteRegister), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(c.httpClient, req, nil)
}

// Me resolves the profile behind token. A 2xx answer without any identity is
// reported as ErrEmptyProfile.
func (c *HTTPClient) Me(ctx context.Context, token string) (users.Profile, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(RouteMe), nil)
	if err != nil {
		return users.Profile{}, fmt.Errorf("new request: %w", err)
	}

	var profile users.Profile
	if err := c.do(c.bearerClient(ctx, token), req, &profile); err != nil {
		return users.Profile{}, err
	}
	if profile.IsEmpty() {
		return users.Profile{}, apperrors.ErrEmptyProfile
	}
	return profile, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context, token string) ([]users.Profile, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(RouteAdminUsers), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	var list []users.Profile
	if err := c.do(c.bearerClient(ctx, token), req, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) UpdateUser(ctx context.Context, token string, userID int, update users.Update) (users.Profile, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(update)
	if err != nil {
		return users.Profile{}, fmt.Errorf("marshal user update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.userURL(userID), bytes.NewReader(body))
	if err != nil {
		return users.Profile{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var profile users.Profile
	if err := c.do(c.bearerClient(ctx, token), req, &profile); err != nil {
		return users.Profile{}, err
	}
	return profile, nil
}

func (c *HTTPClient) DeleteUser(ctx context.Context, token string, userID int) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.userURL(userID), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return c.do(c.bearerClient(ctx, token), req, nil)
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
func (c *HTTPClient) do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("auth api unreachable")
		return apperrors.Wrapf(apperrors.ErrTransport, "%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
		c.log.Debug().Int("status", resp.StatusCode).Str("path", req.URL.Path).Str("detail", apiErr.Detail).Msg("auth api rejected request")
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTransport(err) {
			return apperrors.Wrapf(apperrors.ErrTransport, "read %s", req.URL.Path)
		}
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *HTTPClient) classifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return &APIError{StatusCode: status, Detail: parseDetail(retrieveErr.Body)}
	}
	if isTransport(err) {
		return apperrors.Wrapf(apperrors.ErrTransport, "login: %v", err)
	}
	return apperrors.Wrapf(apperrors.ErrInvalidToken, "login: %v", err)
}

// bearerClient returns a client that sets "Authorization: Bearer <token>".
func (c *HTTPClient) bearerClient(ctx context.Context, token string) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return oauth2.NewClient(c.oauthContext(ctx), src)
}

// oauthContext makes the oauth2 package use our transport.
func (c *HTTPClient) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *HTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *HTTPClient) url(path string) string {
	return c.cfg.BaseURL + path
}

func (c *HTTPClient) userURL(userID int) string {
	return c.url(RouteAdminUsers + "/" + strconv.Itoa(userID))
}

// requestIDTransport stamps every outgoing request with a fresh request ID.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(RequestIDHeader, uuid.NewString())
	return t.base.RoundTrip(clone)
}
