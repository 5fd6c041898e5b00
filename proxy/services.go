package proxy

import (
	"fmt"
	"net/url"
	"strings"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
)

// Target maps a logical service name to a backend base URL.
type Target struct {
	Name    string
	BaseURL string
}

// Services is the fixed service table. It is read-only after NewServices returns,
// so it can be shared by concurrent requests without locking.
type Services struct {
	names []string
	bases map[string]*url.URL
}

func NewServices(targets ...Target) (*Services, error) {
	s := &Services{
		names: make([]string, 0, len(targets)),
		bases: make(map[string]*url.URL, len(targets)),
	}
	for _, t := range targets {
		if t.Name == "" {
			return nil, gwerrors.Wrapf(gwerrors.ErrInvalidService, "[proxy NewServices] empty service name")
		}
		if _, dup := s.bases[t.Name]; dup {
			return nil, gwerrors.Wrapf(gwerrors.ErrDuplicateTarget, "[proxy NewServices] %q", t.Name)
		}
		base, err := url.Parse(strings.TrimRight(t.BaseURL, "/"))
		if err != nil || base.Scheme == "" || base.Host == "" {
			return nil, gwerrors.Wrapf(gwerrors.ErrInvalidService, "[proxy NewServices] bad base URL %q for %q", t.BaseURL, t.Name)
		}
		s.names = append(s.names, t.Name)
		s.bases[t.Name] = base
	}
	if len(s.names) == 0 {
		return nil, fmt.Errorf("[proxy NewServices] no services: %w", gwerrors.ErrInvalidService)
	}
	return s, nil
}

// Resolve returns a copy of the base URL for name.
func (s *Services) Resolve(name string) (*url.URL, bool) {
	base, ok := s.bases[name]
	if !ok {
		return nil, false
	}
	u := *base
	return &u, true
}

// Names lists the valid service names in configuration order.
func (s *Services) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// forwardedSubPath decodes the part of escapedPath after /api/{service}/.
// Segments that decode to "." or "..", and segments carrying an encoded "/" or
// a backslash, are rejected so the target always stays under the service base path.
func forwardedSubPath(escapedPath string) (string, error) {
	parts := strings.SplitN(strings.TrimPrefix(escapedPath, "/"), "/", 3)
	if len(parts) < 3 {
		return "", nil
	}

	segments := strings.Split(parts[2], "/")
	for i, seg := range segments {
		if strings.Contains(strings.ToLower(seg), "%2f") {
			return "", gwerrors.Wrapf(gwerrors.ErrInvalidRequest, "[proxy forwardedSubPath] encoded slash in %q", seg)
		}
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return "", gwerrors.Wrapf(gwerrors.ErrInvalidRequest, "[proxy forwardedSubPath] bad escape in %q", seg)
		}
		if decoded == "." || decoded == ".." || strings.Contains(decoded, "\\") {
			return "", gwerrors.Wrapf(gwerrors.ErrInvalidRequest, "[proxy forwardedSubPath] segment %q", seg)
		}
		segments[i] = decoded
	}
	return strings.Join(segments, "/"), nil
}

// targetURL joins the base URL with the forwarded sub-path and raw query.
func targetURL(base *url.URL, subPath, rawQuery string) string {
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + subPath
	u.RawPath = ""
	u.RawQuery = rawQuery
	return u.String()
}
