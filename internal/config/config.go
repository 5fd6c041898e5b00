package config

import (
	"fmt"
	"net/url"
	"strings"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	ProxyConfig
	SessionConfig
	StoreConfig
	LimitConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFile() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars `mapstructure:",squash"`
	Cors    `mapstructure:",squash"`
	Proxy   `mapstructure:",squash"`
	Session `mapstructure:",squash"`
	Store   `mapstructure:",squash"`
	Limits  `mapstructure:",squash"`
}

// Option adjusts the viper instance before the configuration is decoded.
type Option func(*viper.Viper)

// WithOverrides sets explicit values, taking precedence over env vars and files.
func WithOverrides(values map[string]any) Option {
	return func(v *viper.Viper) {
		for k, val := range values {
			v.Set(k, val)
		}
	}
}

// WithConfigFile reads the given file instead of searching for config.yaml.
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) {
		v.SetConfigFile(path)
	}
}

// Load builds the configuration from defaults, an optional config.yaml, and the environment.
func Load(opts ...Option) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/seller-gateway/")
	v.AddConfigPath(".")

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, gwerrors.Wrapf(err, "[config Load] bind env")
	}
	v.AutomaticEnv()

	for _, opt := range opts {
		opt(v)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("[config Load] failed to read config: %w", err)
		}
	}

	var cfg mainConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("[config Load] failed to unmarshal config: %w", err)
	}

	targets, err := resolveServiceTargets(v, cfg.Proxy)
	if err != nil {
		return nil, err
	}
	cfg.Proxy.targets = targets
	cfg.Cors.origins = newAllowedOrigins(cfg.Cors.Origins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app_name", "Seller Gateway")
	v.SetDefault("env", "DEV")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetDefault("backend_url", defaultBackendURL)
	v.SetDefault("app_id", "")
	v.SetDefault("services", defaultServices)
	v.SetDefault("proxy_timeout", defaultProxyTimeout)
	v.SetDefault("proxy_max_body_bytes", defaultProxyMaxBodyBytes)

	v.SetDefault("session_cookie_name", defaultSessionCookieName)
	v.SetDefault("session_max_age", defaultSessionMaxAge)
	v.SetDefault("session_secret", "")

	v.SetDefault("redis_url", "")

	v.SetDefault("allowed_origins", []string{})

	v.SetDefault("login_rate_limit", 0)
	v.SetDefault("login_rate_burst", 5)
}

// bindEnv maps keys to the env names used by the browser application's deployments.
func bindEnv(v *viper.Viper) error {
	bindings := [][]string{
		{"backend_url", "BACKEND_URL", "INTERNAL_API_HOST", "NEXT_PUBLIC_API_HOST_URL"},
		{"app_id", "APP_ID", "NEXT_PUBLIC_ALLKONS_APP_ID", "NEXT_PUBLIC_APP_ID"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return err
		}
	}
	return nil
}

func (c mainConfig) validate() error {
	if _, err := parseHTTPURL(c.Proxy.BackendURL); err != nil {
		return gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "backend_url %q: %v", c.Proxy.BackendURL, err)
	}
	if c.Proxy.Timeout < 0 {
		return gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "proxy_timeout must not be negative")
	}
	if c.Proxy.MaxBodyBytes <= 0 {
		return gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "proxy_max_body_bytes must be positive")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "session_cookie_name is required")
	}
	if c.Session.MaxAge <= 0 {
		return gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "session_max_age must be positive")
	}
	if c.Limits.LoginRateLimit < 0 || c.Limits.LoginRateBurst < 0 {
		return gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "login rate limit values must not be negative")
	}
	return nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	return u, nil
}
