package model

import (
	"time"
)

// WebhookTokenSet holds the opaque per-platform webhook tokens for one
// tenant. Exactly one row per tenant, generated once and immutable after.
type WebhookTokenSet struct {
	TenantID  string    `json:"tenant_id" gorm:"primaryKey;column:tenant_id;type:text"`
	Meta      string    `json:"meta" gorm:"column:meta_token;uniqueIndex;type:text" validate:"required"`
	Google    string    `json:"google" gorm:"column:google_token;uniqueIndex;type:text" validate:"required"`
	TikTok    string    `json:"tiktok" gorm:"column:tiktok_token;uniqueIndex;type:text" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (WebhookTokenSet) TableName() string {
	return "webhook_token_sets"
}

// Token returns the token value for the given platform.
func (s *WebhookTokenSet) Token(p Platform) string {
	switch p {
	case PlatformMeta:
		return s.Meta
	case PlatformGoogle:
		return s.Google
	case PlatformTikTok:
		return s.TikTok
	}
	return ""
}

// WebhookTokenIndexEntry maps a single token value back to its owning tenant
// and platform. The three entries for a tenant are written in the same
// transaction as the WebhookTokenSet row.
type WebhookTokenIndexEntry struct {
	Token     string    `json:"token" gorm:"primaryKey;column:token;type:text" validate:"required"`
	TenantID  string    `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	Platform  Platform  `json:"platform" gorm:"column:platform;type:text" validate:"required,oneof=meta google tiktok"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (WebhookTokenIndexEntry) TableName() string {
	return "webhook_token_index"
}
