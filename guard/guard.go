// Package guard decides, per request path, whether a browser should be let
// through or redirected based on whether it carries a session.
//
// The decision is a pure function of the path and session presence. The HTTP
// adapter that performs the redirect lives with the server.
package guard

import "strings"

// Class is the access category of a request path.
type Class int

const (
	// Unclassified paths are never redirected.
	Unclassified Class = iota
	// PublicOnly paths are for signed-out users, such as the login page.
	PublicOnly
	// Protected paths require a session.
	Protected
)

func (c Class) String() string {
	switch c {
	case PublicOnly:
		return "public-only"
	case Protected:
		return "protected"
	default:
		return "unclassified"
	}
}

// Decision is the outcome of evaluating a request. A zero Decision allows the request.
type Decision struct {
	RedirectTo string
}

// Allow lets the request through unchanged.
func Allow() Decision {
	return Decision{}
}

// RedirectTo sends the browser to path.
func RedirectTo(path string) Decision {
	return Decision{RedirectTo: path}
}

// Allowed reports whether the request passes without a redirect.
func (d Decision) Allowed() bool {
	return d.RedirectTo == ""
}

// Rules describes which paths are public-only, which are protected, and which
// are skipped entirely (API routes and static assets).
type Rules struct {
	LoginPath   string
	LandingPath string

	PublicOnly        []string
	ProtectedExact    []string
	ProtectedPrefixes []string

	ExcludedPrefixes []string
	ExcludedSuffixes []string
}

// DefaultRules protects the dashboard and sends signed-in users away from the login page.
func DefaultRules() Rules {
	return Rules{
		LoginPath:         "/login",
		LandingPath:       "/",
		PublicOnly:        []string{"/login"},
		ProtectedExact:    []string{"/"},
		ProtectedPrefixes: []string{"/dashboard"},
		ExcludedPrefixes:  []string{"/api", "/_next/static", "/_next/image"},
		ExcludedSuffixes:  []string{".png"},
	}
}

// Excluded reports whether the guard skips path altogether.
func (r Rules) Excluded(path string) bool {
	for _, prefix := range r.ExcludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, suffix := range r.ExcludedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Classify places path in exactly one Class. Excluded paths are Unclassified.
func (r Rules) Classify(path string) Class {
	if r.Excluded(path) {
		return Unclassified
	}
	for _, p := range r.PublicOnly {
		if path == p {
			return PublicOnly
		}
	}
	for _, p := range r.ProtectedExact {
		if path == p {
			return Protected
		}
	}
	for _, prefix := range r.ProtectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return Protected
		}
	}
	return Unclassified
}

// Decide applies the redirect rules in order; the first match wins.
func (r Rules) Decide(path string, authenticated bool) Decision {
	class := r.Classify(path)
	switch {
	case authenticated && class == PublicOnly:
		return RedirectTo(r.LandingPath)
	case !authenticated && class == Protected:
		return RedirectTo(r.LoginPath)
	default:
		return Allow()
	}
}
