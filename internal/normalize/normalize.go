// Package normalize converts platform webhook payloads into canonical leads.
// Each platform labels its form fields differently; Google and TikTok use
// advertiser-defined field names matched by substring, Meta uses fixed keys.
package normalize

import (
	"strings"
	"time"

	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
)

// assignField records one labeled form field on the lead. Every field lands in
// CustomFields verbatim; labels additionally fill name/phone/email by
// case-insensitive substring match, first value per slot wins. Phone numbers
// are kept as submitted; cleaning happens at dispatch time.
func assignField(lead *model.Lead, label, value string) {
	if lead.CustomFields == nil {
		lead.CustomFields = make(map[string]string)
	}
	lead.CustomFields[label] = value

	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "name"):
		if lead.Name == "" {
			lead.Name = value
		}
	case strings.Contains(lower, "phone"):
		if lead.Phone == "" {
			lead.Phone = value
		}
	case strings.Contains(lower, "email"):
		if lead.Email == "" {
			lead.Email = value
		}
	}
}

// Google converts a Google Ads lead form submission. Google sends no event
// timestamp, so the lead is stamped with the receive time.
func Google(payload *model.GoogleWebhookPayload) *model.Lead {
	lead := &model.Lead{
		Platform:  model.PlatformGoogle,
		LeadID:    payload.LeadID,
		Timestamp: time.Now().UnixMilli(),
		Metadata: model.LeadMetadata{
			CampaignID: payload.CampaignID,
			FormID:     payload.FormID,
			Source:     "google_ads_lead_form",
		},
	}
	for _, column := range payload.UserColumnData {
		label := column.ColumnName
		if label == "" {
			label = column.ColumnID
		}
		assignField(lead, label, column.StringValue)
	}
	return lead
}

// TikTok converts a TikTok lead event. TikTok timestamps are epoch seconds.
func TikTok(payload *model.TikTokWebhookPayload) *model.Lead {
	lead := &model.Lead{
		Platform:  model.PlatformTikTok,
		LeadID:    payload.Lead.LeadID,
		Timestamp: payload.Timestamp * 1000,
		Metadata: model.LeadMetadata{
			AdID:   payload.Lead.AdID,
			PageID: payload.Lead.PageID,
			Source: "tiktok_lead_ads",
		},
	}
	for _, field := range payload.Lead.UserInfo {
		assignField(lead, field.FieldName, field.FieldValue)
	}
	return lead
}

// metaTimeLayout is Meta's created_time format, ISO 8601 with a numeric
// offset and no colon.
const metaTimeLayout = "2006-01-02T15:04:05-0700"

func parseMetaTime(value string) int64 {
	if ts, err := time.Parse(metaTimeLayout, value); err == nil {
		return ts.UnixMilli()
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UnixMilli()
	}
	return time.Now().UnixMilli()
}

// Meta converts a Graph API lead detail plus the webhook change that
// announced it. Meta uses fixed field keys: full_name (or name),
// phone_number and email. First value per field wins.
func Meta(change model.MetaLeadChangeValue, data *model.MetaLeadData) *model.Lead {
	lead := &model.Lead{
		Platform:  model.PlatformMeta,
		LeadID:    data.ID,
		Timestamp: parseMetaTime(data.CreatedTime),
		Metadata: model.LeadMetadata{
			AdID:   change.AdID,
			FormID: change.FormID,
			PageID: change.PageID,
			Source: "meta_lead_ads",
		},
	}
	for _, field := range data.FieldData {
		if len(field.Values) == 0 {
			continue
		}
		value := field.Values[0]
		if lead.CustomFields == nil {
			lead.CustomFields = make(map[string]string)
		}
		lead.CustomFields[field.Name] = value

		switch field.Name {
		case "full_name", "name":
			if lead.Name == "" {
				lead.Name = value
			}
		case "phone_number":
			if lead.Phone == "" {
				lead.Phone = value
			}
		case "email":
			if lead.Email == "" {
				lead.Email = value
			}
		}
	}
	return lead
}
