package server

func (s *Server) initRoutes() {
	// SESSION
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.LoginRateLimitMiddleware)...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))

	// SELECTION (session required)
	s.RegisterRouteFunc("GET "+RouteSelection, ChainMiddleware(s.GetSelectionHandler(), s.APIMiddleware(s.RequireSession)...))
	s.RegisterRouteFunc("DELETE "+RouteSelection, ChainMiddleware(s.ClearSelectionHandler(), s.APIMiddleware(s.RequireSession)...))
	s.RegisterRouteFunc("PUT "+RouteSelectionMerchant, ChainMiddleware(s.PutMerchantHandler(), s.APIMiddleware(s.RequireSession)...))
	s.RegisterRouteFunc("PUT "+RouteSelectionOrganization, ChainMiddleware(s.PutOrganizationHandler(), s.APIMiddleware(s.RequireSession)...))

	// SERVICE PROXY
	for _, method := range proxyMethods {
		s.RegisterRouteFunc(method+" "+RouteProxy, ChainMiddleware(s.ProxyHandler(), s.APIMiddleware()...))
	}

	// OPERATIONS
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())

	// PAGES
	s.RegisterRouteFunc("GET "+RoutePages, ChainMiddleware(s.serveFileHandler(), s.PageMiddleware()...))
}
