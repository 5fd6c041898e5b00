package sessions

import (
	"crypto/sha256"
	"encoding/hex"
)

// AuthCenter is the token pair issued by the identity provider behind the login backend.
type AuthCenter struct {
	AccessToken      string `json:"accessToken"`
	ExpiresIn        string `json:"expiresIn"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
	RefreshToken     string `json:"refreshToken"`
}

// Session is the authenticated identity bundle carried in the session cookie.
// The cookie is the only durable copy; the gateway keeps no server-side session state.
type Session struct {
	AccessToken string     `json:"accessToken"`
	AuthCenter  AuthCenter `json:"authCenter"`
}

// Valid reports whether both access tokens are present. Partial bundles count as no session.
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.AuthCenter.AccessToken != ""
}

// Fingerprint identifies the session without exposing its tokens.
func (s Session) Fingerprint() string {
	sum := sha256.Sum256([]byte(s.AccessToken))
	return hex.EncodeToString(sum[:])
}
