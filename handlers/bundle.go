package handlers

import "bookdesk/middleware"

// HandlerBundle groups the gateway's handlers for route registration.
type HandlerBundle struct {
	// Resolver backs the bearer-token middleware.
	Resolver middleware.PrincipalResolver

	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Admin     *AdminHandler
}
