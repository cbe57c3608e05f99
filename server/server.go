package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mediascan/console/authapi"
	"github.com/mediascan/console/internal/config"
	"github.com/mediascan/console/internal/logging"
	"github.com/mediascan/console/session"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	session *session.Manager
	admin   authapi.AdminClient
	log     zerolog.Logger
}

// New builds the dashboard server around the process-wide session manager.
// The manager is expected to be initialised (or initialising) by the caller.
func New(config config.Config, sessionManager *session.Manager, admin authapi.AdminClient) (*Server, error) {
	if sessionManager == nil {
		return nil, fmt.Errorf("[Server New] session manager is required")
	}

	s := &Server{
		mux:     http.NewServeMux(),
		config:  config,
		session: sessionManager,
		admin:   admin,
		log:     logging.Component("server"),
	}
	s.env = config.GetEnv()

	if err := s.initRoutes(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise routes: %w", err)
	}
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func (s *Server) logError(method, path string, err error) {
	s.log.Error().Err(err).Msgf("[%-19s] %s", colouredMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
