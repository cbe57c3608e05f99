package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome = "/"

	// Auth Routes - Login & Logout
	RouteLogin      = "/login"
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Auth Routes - Registration
	RouteRegister     = "/register"
	RouteAuthRegister = "/auth/register"

	// Admin Routes
	RouteAdminUsers      = "/admin/users"
	RouteAdminUser       = "/admin/users/{id}"
	RouteAdminUserDelete = "/admin/users/{id}/delete"

	// API Routes
	RouteAPISession = "/api/session"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
