package model

import (
	"time"

	"gorm.io/datatypes"
)

// Webhook log statuses.
const (
	WebhookStatusSuccess = "success"
	WebhookStatusFailed  = "failed"
)

// WebhookLog records the outcome of one lead dispatch. Rows are append-only
// and written best-effort off the request path.
type WebhookLog struct {
	// ID is the internal database primary key.
	ID string `json:"id" gorm:"primaryKey;column:id;type:text"`
	// TenantID identifies the tenant this log entry belongs to.
	TenantID string `json:"tenant_id" gorm:"column:tenant_id;index" validate:"required"`
	// Platform is the ad platform the lead came from.
	Platform Platform `json:"platform" gorm:"column:platform;type:text" validate:"required,oneof=meta google tiktok"`
	// LeadID is the platform-assigned lead identifier.
	LeadID string `json:"lead_id" gorm:"column:lead_id;index" validate:"required"`
	// Status is either "success" or "failed".
	Status string `json:"status" gorm:"column:status;type:text" validate:"required,oneof=success failed"`
	// PhoneNumber is the number a notification was sent to, when known.
	PhoneNumber string `json:"phone_number,omitempty" gorm:"column:phone_number;type:text"`
	// ErrorMessage carries the failure reason for failed entries.
	ErrorMessage string `json:"error_message,omitempty" gorm:"column:error_message;type:text"`
	// Timestamp is when the dispatch outcome was observed.
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp"`
	// CreatedAt is when the log row was written.
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;column:metadata"`
}

// TableName specifies the table name for GORM.
func (WebhookLog) TableName() string {
	return "webhook_logs"
}

// WebhookStats aggregates log outcomes for a tenant.
type WebhookStats struct {
	Total      int64            `json:"total"`
	Success    int64            `json:"success"`
	Failed     int64            `json:"failed"`
	ByPlatform map[string]int64 `json:"by_platform"`
}
