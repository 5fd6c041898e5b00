// Package selection keeps the per-session UI context: the logged-in user's
// profile and the merchant and organization currently selected.
package selection

import "encoding/json"

type Merchant struct {
	MerchantID   int64  `json:"merchantId"`
	MerchantUUID string `json:"merchantUuid"`
	MerchantSlug string `json:"merchantSlug"`
}

type Organization struct {
	OrganizationID     *int64          `json:"organizationId"`
	OrganizeID         *int64          `json:"organizeId"`
	OrganizeUUID       string          `json:"organizeUuid"`
	OrganizationDetail json.RawMessage `json:"organizationDetail,omitempty"`
}

// Selection is stored per session, keyed by the session fingerprint.
type Selection struct {
	User         json.RawMessage `json:"user"`
	Merchant     *Merchant       `json:"merchant"`
	Organization *Organization   `json:"organization"`
}

// Empty reports whether nothing has been recorded.
func (s Selection) Empty() bool {
	return len(s.User) == 0 && s.Merchant == nil && s.Organization == nil
}
