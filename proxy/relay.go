package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/seller-gateway/internal/respond"
	"github.com/rs/zerolog"
)

type relayMode int

const (
	relayJSONError relayMode = iota
	relayBinary
	relayJSON
)

func (m relayMode) String() string {
	switch m {
	case relayJSONError:
		return "json-error"
	case relayBinary:
		return "binary"
	default:
		return "json"
	}
}

// binaryHeaders are the only backend headers kept on a binary relay, besides Set-Cookie.
var binaryHeaders = []string{"Content-Type", "Content-Disposition", "Content-Length"}

// classify picks how a backend response is relayed. The first matching rule wins.
func classify(status int, contentType string, wantBinary bool) relayMode {
	ct := strings.ToLower(contentType)
	if status >= http.StatusBadRequest && strings.Contains(ct, "application/json") {
		return relayJSONError
	}
	if wantBinary || isBinaryContentType(ct) {
		return relayBinary
	}
	return relayJSON
}

func isBinaryContentType(ct string) bool {
	return strings.Contains(ct, "application/octet-stream") ||
		strings.Contains(ct, "application/vnd") ||
		strings.Contains(ct, "application/pdf") ||
		strings.Contains(ct, "image/")
}

func relay(w http.ResponseWriter, resp *http.Response, wantBinary bool, logger zerolog.Logger) relayMode {
	for _, c := range resp.Header.Values("Set-Cookie") {
		w.Header().Add("Set-Cookie", c)
	}

	mode := classify(resp.StatusCode, resp.Header.Get("Content-Type"), wantBinary)
	if mode == relayBinary {
		for _, name := range binaryHeaders {
			if v := resp.Header.Get(name); v != "" {
				w.Header().Set(name, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.Warn().Err(err).Msg("Binary relay interrupted")
		}
		return mode
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn().Err(err).Int("read", len(data)).Msg("Backend body read failed, relaying what arrived")
	}
	writeJSONBody(w, resp.StatusCode, data)
	return mode
}

// writeJSONBody relays a backend payload as JSON. Valid JSON passes through
// verbatim; any other text is sent as a JSON string.
func writeJSONBody(w http.ResponseWriter, status int, data []byte) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !bodyAllowed(status) {
		w.WriteHeader(status)
		return
	}
	if !json.Valid(trimmed) {
		encoded, err := json.Marshal(string(data))
		if err != nil {
			w.WriteHeader(status)
			return
		}
		trimmed = encoded
	}
	w.Header().Set("Content-Type", respond.ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(trimmed)
}

func bodyAllowed(status int) bool {
	return status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified
}
