package server

// Route path constants
const (
	// Auth Routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthVerify   = "/auth/verify"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthRevoke   = "/auth/revoke"
	RouteAuthMe       = "/auth/me"

	// Documentation Routes, served by the admin backend
	RouteDocs        = "/docs"
	RouteRedoc       = "/redoc"
	RouteOpenAPISpec = "/openapi.json"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// DefaultPublicPaths bypass the revocation gate. Matching is exact.
var DefaultPublicPaths = []string{
	RouteAuthLogin,
	RouteAuthCallback,
	RouteAuthRefresh,
	RouteAuthVerify,
	RouteDocs,
	RouteRedoc,
	RouteOpenAPISpec,
	RouteHealth,
	RouteMetrics,
}
