// Package token reads claims from the access tokens carried in a session.
//
// Signatures are not verified here: the issuing backend is the authority on
// token validity, and every proxied call is checked there. The gateway only
// uses the claims to report session metadata back to the browser.
package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/seller-gateway/internal/utils"
)

// Introspection represents the unverified metadata of a bearer token.
// Active is false when the token is not a parseable JWT or has expired.
type Introspection struct {
	Active    bool       `json:"active"`
	Subject   string     `json:"sub,omitempty"`
	Issuer    string     `json:"iss,omitempty"`
	IssuedAt  *time.Time `json:"iat,omitempty"`
	ExpiresAt *time.Time `json:"exp,omitempty"`
}

// Inspect extracts registered claims from rawToken as of now.
func Inspect(rawToken string) Introspection {
	return InspectAt(rawToken, time.Now())
}

// InspectAt is Inspect with an explicit clock.
func InspectAt(rawToken string, now time.Time) Introspection {
	rawToken = strings.TrimSpace(strings.TrimPrefix(rawToken, "Bearer "))
	if rawToken == "" {
		return Introspection{Active: false}
	}

	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, &claims); err != nil {
		return Introspection{Active: false}
	}

	info := Introspection{
		Active:  true,
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = utils.Ptr(claims.IssuedAt.Time.UTC())
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = utils.Ptr(claims.ExpiresAt.Time.UTC())
		if !info.ExpiresAt.After(now) {
			info.Active = false
		}
	}
	return info
}
