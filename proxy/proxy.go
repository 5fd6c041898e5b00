// Package proxy forwards browser requests to backend services under /api/{service}/{path...}.
package proxy

import (
	"net/http"
	"time"

	"github.com/jrsteele09/seller-gateway/internal/respond"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 32 << 20

	// Pattern is the ServeMux pattern the handler expects; it reads the
	// "service" and "path" wildcards.
	Pattern = "/api/{service}/{path...}"
)

// Recorder observes backend exchanges. The metrics package provides one.
type Recorder interface {
	ObserveUpstream(service string, status int, elapsed time.Duration)
	ObserveTransportError(service string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveUpstream(string, int, time.Duration) {}
func (nopRecorder) ObserveTransportError(string)                {}

type Option func(*Proxy)

// WithClient replaces the outbound HTTP client. The proxy works on a copy
// carrying its own timeout, whatever the option order.
func WithClient(c *http.Client) Option {
	return func(p *Proxy) {
		if c != nil {
			p.client = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Proxy) {
		p.timeout = d
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(p *Proxy) {
		if n > 0 {
			p.maxBodyBytes = n
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Proxy) {
		if r != nil {
			p.recorder = r
		}
	}
}

// Proxy is an http.Handler relaying requests to the service table.
type Proxy struct {
	services     *Services
	appID        string
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	recorder     Recorder
}

type invalidServiceResponse struct {
	Error         string   `json:"error"`
	ValidServices []string `json:"validServices"`
}

type proxyErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func New(services *Services, appID string, opts ...Option) *Proxy {
	p := &Proxy{
		services:     services,
		appID:        appID,
		client:       &http.Client{},
		timeout:      DefaultTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		recorder:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}

	client := *p.client
	client.Timeout = p.timeout
	p.client = &client
	return p
}

func (p *Proxy) Services() *Services {
	return p.services
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	base, ok := p.services.Resolve(service)
	if !ok {
		respond.JSON(w, http.StatusBadRequest, invalidServiceResponse{
			Error:         "Invalid service",
			ValidServices: p.services.Names(),
		})
		return
	}

	subPath, err := forwardedSubPath(r.URL.EscapedPath())
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("service", service).Msg("Rejected proxy path")
		respond.Error(w, http.StatusBadRequest, "Invalid path")
		return
	}

	target := targetURL(base, subPath, r.URL.RawQuery)
	logger := zerolog.Ctx(r.Context()).With().
		Str("service", service).
		Str("method", r.Method).
		Str("target", target).
		Logger()

	req, err := p.newUpstreamRequest(r, target)
	if err != nil {
		logger.Err(err).Msg("[Proxy Error] building upstream request")
		respond.JSON(w, http.StatusInternalServerError, proxyErrorResponse{Error: "Proxy Error", Message: err.Error()})
		return
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.recorder.ObserveTransportError(service)
		logger.Err(err).Msg("[Proxy Error]")
		respond.JSON(w, http.StatusInternalServerError, proxyErrorResponse{Error: "Proxy Error", Message: err.Error()})
		return
	}
	defer resp.Body.Close()

	p.recorder.ObserveUpstream(service, resp.StatusCode, time.Since(start))
	mode := relay(w, resp, wantsBinary(r.Header), logger)
	logger.Debug().Int("status", resp.StatusCode).Stringer("relay", mode).Dur("elapsed", time.Since(start)).Msg("Proxied")
}

// newUpstreamRequest inherits the inbound context so a client disconnect cancels the backend call.
func (p *Proxy) newUpstreamRequest(r *http.Request, target string) (*http.Request, error) {
	body, contentType, err := encodeBody(ExtractBody(r, p.maxBodyBytes))
	if err != nil {
		return nil, err
	}

	var req *http.Request
	if body == nil {
		req, err = http.NewRequestWithContext(r.Context(), r.Method, target, http.NoBody)
	} else {
		req, err = http.NewRequestWithContext(r.Context(), r.Method, target, body)
	}
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	forwardHeaders(req.Header, r.Header, p.appID)
	return req, nil
}
