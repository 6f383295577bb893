package model

import (
	"time"
)

// SolapiCredentials is the mandatory messaging-provider section of a bundle.
type SolapiCredentials struct {
	APIKey       string `json:"api_key" validate:"required"`
	APISecret    string `json:"api_secret" validate:"required"`
	SenderNumber string `json:"sender_number" validate:"required"`
}

// MetaCredentials holds the per-tenant Meta Lead Ads configuration.
type MetaCredentials struct {
	AppSecret       string `json:"app_secret" validate:"required"`
	PageAccessToken string `json:"page_access_token" validate:"required"`
	VerifyToken     string `json:"verify_token" validate:"required"`
}

// GoogleCredentials holds the per-tenant Google Ads lead form configuration.
type GoogleCredentials struct {
	WebhookKey string `json:"webhook_key" validate:"required"`
}

// TikTokCredentials holds the per-tenant TikTok Lead Ads configuration.
type TikTokCredentials struct {
	WebhookSecret string `json:"webhook_secret" validate:"required"`
}

// KakaoCredentials holds the optional KakaoTalk channel configuration.
type KakaoCredentials struct {
	ChannelID string `json:"channel_id" validate:"required"`
	PfID      string `json:"pf_id,omitempty"`
}

// CredentialBundle is the decrypted per-tenant configuration. The Solapi
// section is mandatory for a usable tenant; platform sections are present
// iff that platform is configured. Absence is a nil pointer, not an empty
// struct.
type CredentialBundle struct {
	TenantID string             `json:"tenant_id"`
	Solapi   *SolapiCredentials `json:"solapi,omitempty"`
	Meta     *MetaCredentials   `json:"meta,omitempty"`
	Google   *GoogleCredentials `json:"google,omitempty"`
	TikTok   *TikTokCredentials `json:"tiktok,omitempty"`
	Kakao    *KakaoCredentials  `json:"kakao,omitempty"`
}

// HasPlatform reports whether the bundle carries credentials for the platform.
func (b *CredentialBundle) HasPlatform(p Platform) bool {
	switch p {
	case PlatformMeta:
		return b.Meta != nil
	case PlatformGoogle:
		return b.Google != nil
	case PlatformTikTok:
		return b.TikTok != nil
	}
	return false
}

// TenantCredential is the encrypted-at-rest row backing a CredentialBundle.
// Secret columns hold ciphertext produced by internal/crypto; plain columns
// (sender number, verify token, webhook key) are stored as-is, matching what
// the tenant can already see in the platform dashboards.
type TenantCredential struct {
	TenantID string `json:"tenant_id" gorm:"primaryKey;column:tenant_id;type:text"`

	SolapiAPIKey       string `json:"-" gorm:"column:solapi_api_key;type:text"`
	SolapiAPISecret    string `json:"-" gorm:"column:solapi_api_secret;type:text"`
	SolapiSenderNumber string `json:"-" gorm:"column:solapi_sender_number;type:text"`

	MetaAppSecret       string `json:"-" gorm:"column:meta_app_secret;type:text"`
	MetaPageAccessToken string `json:"-" gorm:"column:meta_page_access_token;type:text"`
	MetaVerifyToken     string `json:"-" gorm:"column:meta_verify_token;type:text"`
	MetaConfigured      bool   `json:"-" gorm:"column:meta_configured"`

	GoogleWebhookKey string `json:"-" gorm:"column:google_webhook_key;type:text"`
	GoogleConfigured bool   `json:"-" gorm:"column:google_configured"`

	TikTokWebhookSecret string `json:"-" gorm:"column:tiktok_webhook_secret;type:text"`
	TikTokConfigured    bool   `json:"-" gorm:"column:tiktok_configured"`

	KakaoChannelID  string `json:"-" gorm:"column:kakao_channel_id;type:text"`
	KakaoPfID       string `json:"-" gorm:"column:kakao_pf_id;type:text"`
	KakaoConfigured bool   `json:"-" gorm:"column:kakao_configured"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (TenantCredential) TableName() string {
	return "tenant_credentials"
}
