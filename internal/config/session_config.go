package config

import "time"

const (
	defaultSessionCookieName = "auth-session"
	defaultSessionMaxAge     = 7 * 24 * time.Hour // 7 days
)

type SessionConfig interface {
	GetSessionCookieName() string
	GetSessionMaxAge() time.Duration
	GetSessionSecret() string
}

type Session struct {
	CookieName string        `mapstructure:"session_cookie_name"`
	MaxAge     time.Duration `mapstructure:"session_max_age"`
	Secret     string        `mapstructure:"session_secret"`
}

var _ SessionConfig = Session{}

func (s Session) GetSessionCookieName() string {
	return s.CookieName
}

func (s Session) GetSessionMaxAge() time.Duration {
	return s.MaxAge
}

// GetSessionSecret returns the cookie sealing secret. Empty keeps cookies as plain JSON.
func (s Session) GetSessionSecret() string {
	return s.Secret
}

type StoreConfig interface {
	GetRedisURL() string
}

type Store struct {
	RedisURL string `mapstructure:"redis_url"`
}

var _ StoreConfig = Store{}

// GetRedisURL returns the selection store URL; empty selects the in-memory store.
func (s Store) GetRedisURL() string {
	return s.RedisURL
}

type LimitConfig interface {
	GetLoginRateLimit() float64
	GetLoginRateBurst() int
}

type Limits struct {
	LoginRateLimit float64 `mapstructure:"login_rate_limit"`
	LoginRateBurst int     `mapstructure:"login_rate_burst"`
}

var _ LimitConfig = Limits{}

// GetLoginRateLimit returns login attempts per second per client; 0 disables limiting.
func (l Limits) GetLoginRateLimit() float64 {
	return l.LoginRateLimit
}

func (l Limits) GetLoginRateBurst() int {
	return l.LoginRateBurst
}
