package server

import (
	"net/http"
	"strings"

	"github.com/mediascan/console/guard"
	"github.com/mediascan/console/users"
)

func (s *Server) initRoutes() error {
	pages, err := s.parsePages()
	if err != nil {
		return err
	}

	authenticated := s.RequireSession(guard.Authenticated, pages.loading)
	admin := s.RequireSession(guard.Role(users.RoleAdmin), pages.loading)

	s.RegisterRouteHandler("GET "+RouteHome+"{$}", ChainMiddleware(s.DashboardHandler(pages.dashboard), s.HTMLMiddleWare(authenticated)...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(pages.login), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// REGISTER
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(pages.register), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.HTMLMiddleWare()...))

	// Admin routes
	s.RegisterRouteHandler("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersListHandler(pages.adminUsers), s.HTMLMiddleWare(admin)...))
	s.RegisterRouteHandler("POST "+RouteAdminUser, ChainMiddleware(s.AdminUserUpdateHandler(), s.HTMLMiddleWare(admin)...))
	s.RegisterRouteHandler("POST "+RouteAdminUserDelete, ChainMiddleware(s.AdminUserDeleteHandler(), s.HTMLMiddleWare(admin)...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionAPIHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPISession, ChainMiddleware(s.SessionAPIHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler("css"), s.HTMLMiddleWare(s.CacheMiddleware, s.CompressionMiddleware)...))
	return nil
}

func (s *Server) serveFileHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("file")
		if name == "" || strings.Contains(name, "..") {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, dir+"/"+name); err != nil {
			s.logError(r.Method, r.URL.Path, err)
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
