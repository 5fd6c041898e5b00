package server

// Route path constants
// All gateway routes are defined here to keep the guard rules and handlers in step
const (
	// Session API
	RouteAuthLogin   = "/api/auth/login"
	RouteAuthLogout  = "/api/auth/logout"
	RouteAuthSession = "/api/auth/session"

	// Selection API
	RouteSelection             = "/api/selection"
	RouteSelectionMerchant     = "/api/selection/merchant"
	RouteSelectionOrganization = "/api/selection/organization"

	// Service proxy, one route per forwarded method
	RouteProxy = "/api/{service}/{path...}"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Pages and static assets (catch-all)
	RoutePages = "/"
)

var proxyMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
