package model

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// FakeMobileNumber returns a valid Korean mobile number (11 digits, 010 prefix).
func FakeMobileNumber() string {
	return fmt.Sprintf("010%08d", gofakeit.Number(0, 99999999))
}

// NewCredentialBundle creates a CredentialBundle with every section populated.
func NewCredentialBundle(tenantID string) *CredentialBundle {
	if tenantID == "" {
		tenantID = "tenant_" + gofakeit.LetterN(10)
	}
	return &CredentialBundle{
		TenantID: tenantID,
		Solapi: &SolapiCredentials{
			APIKey:       gofakeit.LetterN(16),
			APISecret:    gofakeit.LetterN(32),
			SenderNumber: FakeMobileNumber(),
		},
		Meta: &MetaCredentials{
			AppSecret:       gofakeit.LetterN(32),
			PageAccessToken: gofakeit.LetterN(48),
			VerifyToken:     gofakeit.LetterN(20),
		},
		Google: &GoogleCredentials{
			WebhookKey: gofakeit.LetterN(24),
		},
		TikTok: &TikTokCredentials{
			WebhookSecret: gofakeit.LetterN(32),
		},
	}
}

// NewLead creates a Lead instance with default fake data.
func NewLead(overrideDefaults ...*Lead) *Lead {
	base := &Lead{
		Platform:  Platform(gofakeit.RandomString([]string{"meta", "google", "tiktok"})),
		LeadID:    gofakeit.UUID(),
		Timestamp: utils.Now().UnixMilli(),
		Name:      gofakeit.Name(),
		Phone:     FakeMobileNumber(),
		Email:     gofakeit.Email(),
		CustomFields: map[string]string{
			"inquiry": gofakeit.Sentence(3),
		},
		Metadata: LeadMetadata{
			CampaignID: gofakeit.UUID(),
			Source:     "test",
		},
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.Platform != "" {
			base.Platform = ovr.Platform
		}
		if ovr.LeadID != "" {
			base.LeadID = ovr.LeadID
		}
		if ovr.Timestamp != 0 {
			base.Timestamp = ovr.Timestamp
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
		if ovr.CustomFields != nil {
			base.CustomFields = ovr.CustomFields
		}
		if ovr.Metadata.Source != "" {
			base.Metadata = ovr.Metadata
		}
	}
	return base
}

// NewWebhookLog creates a WebhookLog instance with default fake data.
func NewWebhookLog(overrideDefaults ...*WebhookLog) *WebhookLog {
	base := &WebhookLog{
		ID:          uuid.NewString(),
		TenantID:    "tenant_" + gofakeit.LetterN(10),
		Platform:    Platform(gofakeit.RandomString([]string{"meta", "google", "tiktok"})),
		LeadID:      gofakeit.UUID(),
		Status:      WebhookStatusSuccess,
		PhoneNumber: FakeMobileNumber(),
		Timestamp:   utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.Platform != "" {
			base.Platform = ovr.Platform
		}
		if ovr.LeadID != "" {
			base.LeadID = ovr.LeadID
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		base.PhoneNumber = ovr.PhoneNumber
		base.ErrorMessage = ovr.ErrorMessage
		if !ovr.Timestamp.IsZero() {
			base.Timestamp = ovr.Timestamp
		}
	}
	return base
}

// NewGooglePayload creates a Google Ads webhook payload with default fake data.
func NewGooglePayload(webhookKey string) *GoogleWebhookPayload {
	return &GoogleWebhookPayload{
		LeadID:     gofakeit.UUID(),
		GoogleKey:  webhookKey,
		GclID:      gofakeit.LetterN(20),
		APIVersion: "1.0",
		FormID:     gofakeit.UUID(),
		CampaignID: gofakeit.UUID(),
		IsTest:     false,
		UserColumnData: []GoogleUserColumn{
			{ColumnID: "FULL_NAME", ColumnName: "Full Name", StringValue: gofakeit.Name()},
			{ColumnID: "PHONE_NUMBER", ColumnName: "Phone Number", StringValue: FakeMobileNumber()},
			{ColumnID: "EMAIL", ColumnName: "Email", StringValue: gofakeit.Email()},
		},
	}
}

// NewTikTokPayload creates a TikTok webhook payload with default fake data.
func NewTikTokPayload() *TikTokWebhookPayload {
	return &TikTokWebhookPayload{
		Event:     TikTokEventLeadGenerate,
		Timestamp: utils.Now().Unix(),
		Lead: TikTokLead{
			LeadID:       gofakeit.UUID(),
			AdvertiserID: gofakeit.UUID(),
			PageID:       gofakeit.UUID(),
			AdID:         gofakeit.UUID(),
			UserInfo: []TikTokUserField{
				{FieldName: "name", FieldValue: gofakeit.Name()},
				{FieldName: "phone", FieldValue: FakeMobileNumber()},
				{FieldName: "email", FieldValue: gofakeit.Email()},
			},
		},
	}
}

// NewMetaPayload creates a Meta webhook payload referencing one leadgen change.
func NewMetaPayload(leadgenID, pageID string) *MetaWebhookPayload {
	if leadgenID == "" {
		leadgenID = gofakeit.UUID()
	}
	if pageID == "" {
		pageID = gofakeit.UUID()
	}
	return &MetaWebhookPayload{
		Object: MetaObjectPage,
		Entry: []MetaWebhookEntry{
			{
				ID:   pageID,
				Time: utils.Now().Unix(),
				Changes: []MetaLeadChange{
					{
						Field: MetaFieldLeadgen,
						Value: MetaLeadChangeValue{
							LeadgenID:   leadgenID,
							PageID:      pageID,
							FormID:      gofakeit.UUID(),
							AdID:        gofakeit.UUID(),
							CreatedTime: utils.Now().Unix(),
						},
					},
				},
			},
		},
	}
}

// NewMetaLeadData creates a Graph API lead-data response with default fields.
func NewMetaLeadData(leadID string) *MetaLeadData {
	if leadID == "" {
		leadID = gofakeit.UUID()
	}
	return &MetaLeadData{
		ID:          leadID,
		CreatedTime: utils.Now().Format(time.RFC3339),
		FieldData: []MetaLeadField{
			{Name: "full_name", Values: []string{gofakeit.Name()}},
			{Name: "phone_number", Values: []string{FakeMobileNumber()}},
			{Name: "email", Values: []string{gofakeit.Email()}},
		},
	}
}
