package model

// WebhookResponse is the acknowledgement body returned to every platform.
// Upstream ad platforms retry aggressively on non-2xx, so handlers report
// internal failures through processed=false rather than transport errors.
type WebhookResponse struct {
	Received  bool   `json:"received"`
	Processed bool   `json:"processed"`
	LeadID    string `json:"leadId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// --- Meta (Facebook/Instagram) Lead Ads ---

// MetaWebhookPayload is the envelope Meta POSTs to the webhook endpoint.
type MetaWebhookPayload struct {
	Object string             `json:"object"`
	Entry  []MetaWebhookEntry `json:"entry"`
}

// MetaWebhookEntry is one page entry inside a Meta webhook batch.
type MetaWebhookEntry struct {
	ID      string           `json:"id"`
	Time    int64            `json:"time"`
	Changes []MetaLeadChange `json:"changes"`
}

// MetaLeadChange describes a single changed field on a page.
type MetaLeadChange struct {
	Field string              `json:"field"`
	Value MetaLeadChangeValue `json:"value"`
}

// MetaLeadChangeValue carries the leadgen identifiers; the actual field data
// must be fetched separately from the Graph API.
type MetaLeadChangeValue struct {
	LeadgenID   string `json:"leadgen_id"`
	PageID      string `json:"page_id"`
	FormID      string `json:"form_id"`
	AdgroupID   string `json:"adgroup_id"`
	AdID        string `json:"ad_id"`
	CreatedTime int64  `json:"created_time"`
}

// MetaLeadData is the Graph API response for a single lead.
type MetaLeadData struct {
	ID          string          `json:"id"`
	CreatedTime string          `json:"created_time"`
	FieldData   []MetaLeadField `json:"field_data"`
}

// MetaLeadField is one name/values pair of submitted form data.
type MetaLeadField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// --- Google Ads Lead Form Extensions ---

// GoogleWebhookPayload is a Google Ads lead form submission.
type GoogleWebhookPayload struct {
	LeadID         string             `json:"lead_id"`
	GoogleKey      string             `json:"google_key"`
	GclID          string             `json:"gcl_id"`
	APIVersion     string             `json:"api_version"`
	FormID         string             `json:"form_id"`
	CampaignID     string             `json:"campaign_id"`
	IsTest         bool               `json:"is_test"`
	UserColumnData []GoogleUserColumn `json:"user_column_data"`
}

// GoogleUserColumn is one submitted form column.
type GoogleUserColumn struct {
	ColumnID    string `json:"column_id"`
	StringValue string `json:"string_value,omitempty"`
	ColumnName  string `json:"column_name,omitempty"`
}

// --- TikTok Lead Ads ---

// TikTokWebhookPayload is a TikTok lead event.
type TikTokWebhookPayload struct {
	Event     string     `json:"event"`
	Timestamp int64      `json:"timestamp"`
	Lead      TikTokLead `json:"lead"`
}

// TikTokLead carries the lead identifiers and submitted fields.
type TikTokLead struct {
	LeadID       string            `json:"lead_id"`
	AdvertiserID string            `json:"advertiser_id"`
	PageID       string            `json:"page_id"`
	AdID         string            `json:"ad_id"`
	UserInfo     []TikTokUserField `json:"user_info"`
}

// TikTokUserField is one submitted field name/value pair.
type TikTokUserField struct {
	FieldName  string `json:"field_name"`
	FieldValue string `json:"field_value"`
}

// TikTokEventLeadGenerate is the only TikTok event type that carries a lead.
const TikTokEventLeadGenerate = "lead_generate"

// Meta webhook constants.
const (
	MetaObjectPage    = "page"
	MetaFieldLeadgen  = "leadgen"
	MetaModeSubscribe = "subscribe"
)
