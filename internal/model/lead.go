package model

// Platform identifies the ad platform a lead originated from.
type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformGoogle Platform = "google"
	PlatformTikTok Platform = "tiktok"
)

// Platforms lists every supported platform, in webhook URL order.
func Platforms() []Platform {
	return []Platform{PlatformMeta, PlatformGoogle, PlatformTikTok}
}

// Valid reports whether p names a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformMeta, PlatformGoogle, PlatformTikTok:
		return true
	}
	return false
}

// LeadMetadata carries platform-specific context alongside a canonical lead.
type LeadMetadata struct {
	CampaignID string `json:"campaign_id,omitempty"`
	AdID       string `json:"ad_id,omitempty"`
	FormID     string `json:"form_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	Source     string `json:"source"`
}

// Lead is the canonical, platform-agnostic representation of a single
// contact-form submission. It is immutable once constructed and consumed
// exactly once by the dispatcher.
type Lead struct {
	Platform     Platform          `json:"platform" validate:"required,oneof=meta google tiktok"`
	LeadID       string            `json:"lead_id" validate:"required"`
	Timestamp    int64             `json:"timestamp"` // epoch milliseconds
	Name         string            `json:"name,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Email        string            `json:"email,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	Metadata     LeadMetadata      `json:"metadata"`
}
