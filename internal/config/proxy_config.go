package config

import (
	"fmt"
	"strings"
	"time"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
	"github.com/spf13/viper"
)

const (
	defaultBackendURL        = "https://marketplace-api-dev.allkons.com"
	defaultProxyTimeout      = 30 * time.Second
	defaultProxyMaxBodyBytes = 32 << 20
)

var defaultServices = []string{"customer", "product", "order"}

// ServiceTarget maps a logical service name to the backend base URL it is proxied to.
type ServiceTarget struct {
	Name    string
	BaseURL string
}

type ProxyConfig interface {
	GetBackendURL() string
	GetAppID() string
	GetServiceTargets() []ServiceTarget
	GetProxyTimeout() time.Duration
	GetProxyMaxBodyBytes() int64
}

type Proxy struct {
	BackendURL   string        `mapstructure:"backend_url"`
	AppID        string        `mapstructure:"app_id"`
	Services     []string      `mapstructure:"services"`
	Timeout      time.Duration `mapstructure:"proxy_timeout"`
	MaxBodyBytes int64         `mapstructure:"proxy_max_body_bytes"`

	targets []ServiceTarget
}

var _ ProxyConfig = Proxy{}

func (p Proxy) GetBackendURL() string {
	return strings.TrimRight(p.BackendURL, "/")
}

func (p Proxy) GetAppID() string {
	return p.AppID
}

// GetServiceTargets returns a copy of the service table in configuration order.
func (p Proxy) GetServiceTargets() []ServiceTarget {
	targets := make([]ServiceTarget, len(p.targets))
	copy(targets, p.targets)
	return targets
}

func (p Proxy) GetProxyTimeout() time.Duration {
	return p.Timeout
}

func (p Proxy) GetProxyMaxBodyBytes() int64 {
	return p.MaxBodyBytes
}

// resolveServiceTargets builds <backend>/api-<service> for every service unless
// LOCAL_<SERVICE>_SERVICE_URL points the service somewhere else.
func resolveServiceTargets(v *viper.Viper, p Proxy) ([]ServiceTarget, error) {
	backend := p.GetBackendURL()
	seen := make(map[string]struct{}, len(p.Services))
	targets := make([]ServiceTarget, 0, len(p.Services))

	for _, name := range p.Services {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			return nil, gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "service %q listed twice", name)
		}
		seen[name] = struct{}{}

		baseURL := backend + "/api-" + name
		if local := strings.TrimSpace(v.GetString(localServiceKey(name))); local != "" {
			if _, err := parseHTTPURL(local); err != nil {
				return nil, gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "%s %q: %v", localServiceKey(name), local, err)
			}
			baseURL = strings.TrimRight(local, "/")
		}
		targets = append(targets, ServiceTarget{Name: name, BaseURL: baseURL})
	}

	if len(targets) == 0 {
		return nil, gwerrors.Wrapf(gwerrors.ErrInvalidConfig, "at least one service is required")
	}
	return targets, nil
}

func localServiceKey(service string) string {
	return fmt.Sprintf("local_%s_service_url", strings.ReplaceAll(service, "-", "_"))
}
