package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/seller-gateway/guard"
	"github.com/jrsteele09/seller-gateway/internal/config"
	"github.com/jrsteele09/seller-gateway/metrics"
	"github.com/jrsteele09/seller-gateway/proxy"
	"github.com/jrsteele09/seller-gateway/selection"
	"github.com/jrsteele09/seller-gateway/sessions"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	handler    http.Handler
	config     config.Config
	codec      *sessions.Codec
	rules      guard.Rules
	proxy      *proxy.Proxy
	selections selection.Repo
	metrics    *metrics.Metrics
	loginLimit *RateLimiter
}

type Option func(*Server)

// WithGuardRules replaces the default page protection rules.
func WithGuardRules(rules guard.Rules) Option {
	return func(s *Server) {
		s.rules = rules
	}
}

// WithProxyOptions passes extra options to the service proxy.
func WithProxyOptions(opts ...proxy.Option) Option {
	return func(s *Server) {
		s.proxy = s.newProxy(opts...)
	}
}

func New(config config.Config, selections selection.Repo, opts ...Option) (*Server, error) {
	codec, err := sessions.NewCodec(
		sessions.WithCookieName(config.GetSessionCookieName()),
		sessions.WithMaxAge(config.GetSessionMaxAge()),
		sessions.WithSecret(config.GetSessionSecret()),
	)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create session codec: %w", err)
	}

	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		codec:      codec,
		rules:      guard.DefaultRules(),
		selections: selections,
		metrics:    metrics.New(),
		loginLimit: NewRateLimiter(config.GetLoginRateLimit(), config.GetLoginRateBurst()),
	}

	var targets []proxy.Target
	for _, t := range config.GetServiceTargets() {
		targets = append(targets, proxy.Target{Name: t.Name, BaseURL: t.BaseURL})
	}
	services, err := proxy.NewServices(targets...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to build service table: %w", err)
	}
	s.proxy = proxy.New(services, config.GetAppID(), s.proxyOptions()...)

	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.GlobalMiddleware()...)
	s.logRoutes()

	return s, nil
}

func (s *Server) proxyOptions() []proxy.Option {
	return []proxy.Option{
		proxy.WithTimeout(s.config.GetProxyTimeout()),
		proxy.WithMaxBodyBytes(s.config.GetProxyMaxBodyBytes()),
		proxy.WithRecorder(s.metrics),
	}
}

func (s *Server) newProxy(extra ...proxy.Option) *proxy.Proxy {
	return proxy.New(s.proxy.Services(), s.config.GetAppID(), append(s.proxyOptions(), extra...)...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RegisterRouteHandler registers pattern and records request metrics under it.
func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, s.metrics.Instrument(pattern, handler))
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.RegisterRouteHandler(pattern, http.HandlerFunc(handler))
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
