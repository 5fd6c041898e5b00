package sessions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
)

const (
	// DefaultCookieName is the cookie the browser application reads and writes.
	DefaultCookieName = "auth-session"
	// DefaultMaxAge keeps the session cookie for 7 days.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// Codec converts sessions to and from cookie strings. It works from a raw Cookie
// header alone, so the route guard and API handlers share one implementation.
type Codec struct {
	name   string
	maxAge time.Duration
	secret string
	sealer *sealer
}

type CodecOption func(*Codec)

func WithCookieName(name string) CodecOption {
	return func(c *Codec) {
		c.name = name
	}
}

func WithMaxAge(maxAge time.Duration) CodecOption {
	return func(c *Codec) {
		c.maxAge = maxAge
	}
}

// WithSecret seals cookie values. Without it the value is percent-encoded JSON,
// readable by anyone holding the cookie.
func WithSecret(secret string) CodecOption {
	return func(c *Codec) {
		c.secret = secret
	}
}

func NewCodec(opts ...CodecOption) (*Codec, error) {
	c := &Codec{
		name:   DefaultCookieName,
		maxAge: DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.name == "" || strings.ContainsAny(c.name, "=; \t\r\n") {
		return nil, gwerrors.Wrapf(gwerrors.ErrInvalidRequest, "[sessions NewCodec] invalid cookie name %q", c.name)
	}
	if c.maxAge <= 0 {
		return nil, gwerrors.Wrapf(gwerrors.ErrInvalidRequest, "[sessions NewCodec] max age must be positive")
	}
	if c.secret != "" {
		s, err := newSealer(c.secret)
		if err != nil {
			return nil, fmt.Errorf("[sessions NewCodec] %w", err)
		}
		c.sealer = s
	}
	return c, nil
}

// Name returns the session cookie name.
func (c *Codec) Name() string {
	return c.name
}

// Encode returns a Set-Cookie value carrying the session.
func (c *Codec) Encode(s Session) (string, error) {
	if !s.Valid() {
		return "", gwerrors.ErrInvalidSession
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("[sessions Encode] marshal session: %w", err)
	}

	var value string
	if c.sealer != nil {
		value, err = c.sealer.seal(payload)
		if err != nil {
			return "", fmt.Errorf("[sessions Encode] %w", err)
		}
	} else {
		value = escapeComponent(string(payload))
	}

	return fmt.Sprintf("%s=%s; Path=/; Max-Age=%d; SameSite=Lax", c.name, value, int64(c.maxAge/time.Second)), nil
}

// DecodeHeader extracts the session from a raw Cookie header. A missing, partial,
// or malformed cookie reports false; it never fails loudly.
func (c *Codec) DecodeHeader(header string) (Session, bool) {
	raw, ok := cookieValue(header, c.name)
	if !ok || raw == "" {
		return Session{}, false
	}

	var payload []byte
	if c.sealer != nil {
		opened, err := c.sealer.open(raw)
		if err != nil {
			return Session{}, false
		}
		payload = opened
	} else {
		unescaped, err := url.PathUnescape(raw)
		if err != nil {
			return Session{}, false
		}
		payload = []byte(unescaped)
	}

	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return Session{}, false
	}
	if !s.Valid() {
		return Session{}, false
	}
	return s, true
}

// Clear returns a Set-Cookie value that makes the browser drop the session cookie.
func (c *Codec) Clear() string {
	return fmt.Sprintf("%s=; Path=/; Max-Age=0", c.name)
}

// Write appends the session cookie to the response.
func (c *Codec) Write(w http.ResponseWriter, s Session) error {
	cookie, err := c.Encode(s)
	if err != nil {
		return err
	}
	w.Header().Add("Set-Cookie", cookie)
	return nil
}

// Read decodes the session from every Cookie header on the request.
func (c *Codec) Read(r *http.Request) (Session, bool) {
	return c.DecodeHeader(strings.Join(r.Header.Values("Cookie"), "; "))
}

// Remove appends the deletion cookie to the response.
func (c *Codec) Remove(w http.ResponseWriter) {
	w.Header().Add("Set-Cookie", c.Clear())
}

func cookieValue(header, name string) (string, bool) {
	for _, part := range strings.Split(header, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || strings.TrimSpace(key) != name {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		return value, true
	}
	return "", false
}

// escapeComponent percent-encodes everything outside the encodeURIComponent
// unreserved set, so browser-side code can decode the value unchanged.
func escapeComponent(s string) string {
	const hexDigits = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s) * 2)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isUnreserved(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[ch>>4])
		b.WriteByte(hexDigits[ch&0x0f])
	}
	return b.String()
}

func isUnreserved(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
