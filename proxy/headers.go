package proxy

import (
	"net/http"
	"strings"
)

const (
	HeaderAppID            = "app-id"
	HeaderMerchantSlug     = "CurrentMerchantSlug"
	HeaderLang             = "lang"
	HeaderOrganizationUUID = "organization-uuid"
	// HeaderResponseType set to "arraybuffer" asks for the backend bytes untouched.
	HeaderResponseType = "X-Response-Type"
)

// optionalHeaders are copied only when the inbound request carries them.
var optionalHeaders = []string{
	"Authorization",
	HeaderMerchantSlug,
	HeaderLang,
	HeaderOrganizationUUID,
}

// forwardHeaders builds the outbound header set. Nothing outside this allow-list
// reaches the backend.
func forwardHeaders(dst, src http.Header, appID string) {
	dst.Set(HeaderAppID, appID)
	dst.Set("Cookie", strings.Join(src.Values("Cookie"), "; "))
	for _, name := range optionalHeaders {
		if v := src.Get(name); v != "" {
			dst.Set(name, v)
		}
	}
}

func wantsBinary(h http.Header) bool {
	return strings.EqualFold(h.Get(HeaderResponseType), "arraybuffer")
}
