package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/observer"
	"github.com/KhakiSkech/SOLAPI-alert/internal/solapi"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// Dispatcher turns a canonical lead into an operator notification and
// records the outcome.
type Dispatcher struct {
	sender    solapi.Sender
	logWorker ILogWorker
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(sender solapi.Sender, logWorker ILogWorker) *Dispatcher {
	return &Dispatcher{sender: sender, logWorker: logWorker}
}

// Dispatch sends the notification for one lead and records a log entry with
// the outcome. Log persistence is asynchronous and best-effort.
func (d *Dispatcher) Dispatch(ctx context.Context, bundle *model.CredentialBundle, lead *model.Lead) error {
	if lead.Phone == "" {
		// A lead with no phone number cannot be notified. Not a failure and
		// not worth an audit row; the lead itself was received fine.
		logger.FromContext(ctx).Warn("Lead has no phone number, skipping notification",
			zap.String("tenant_id", bundle.TenantID),
			zap.String("platform", string(lead.Platform)),
			zap.String("lead_id", lead.LeadID),
		)
		return nil
	}

	if bundle.Solapi == nil {
		err := fmt.Errorf("%w: tenant %s has no solapi credentials", apperrors.ErrValidation, bundle.TenantID)
		d.recordOutcome(ctx, bundle.TenantID, lead, "", err)
		return err
	}

	result, err := d.sender.SendLeadNotification(ctx, *bundle.Solapi, lead)
	if err != nil {
		observer.IncSmsFailed(bundle.TenantID, "unknown")
		d.recordOutcome(ctx, bundle.TenantID, lead, lead.Phone, err)
		return err
	}

	observer.IncSmsSent(bundle.TenantID, result.Type)
	logger.FromContext(ctx).Info("Lead notification dispatched",
		zap.String("tenant_id", bundle.TenantID),
		zap.String("platform", string(lead.Platform)),
		zap.String("lead_id", lead.LeadID),
		zap.String("message_type", result.Type),
	)
	d.recordOutcome(ctx, bundle.TenantID, lead, result.To, nil)
	return nil
}

// SendTest sends an operator-initiated test message. No log entry is
// written; test sends are not part of the lead audit trail.
func (d *Dispatcher) SendTest(ctx context.Context, bundle *model.CredentialBundle, phone string) (*solapi.SendResult, error) {
	if bundle.Solapi == nil {
		return nil, fmt.Errorf("%w: tenant %s has no solapi credentials", apperrors.ErrValidation, bundle.TenantID)
	}
	return d.sender.SendTestMessage(ctx, *bundle.Solapi, phone)
}

func (d *Dispatcher) recordOutcome(ctx context.Context, tenantID string, lead *model.Lead, phone string, dispatchErr error) {
	entry := model.WebhookLog{
		TenantID:    tenantID,
		Platform:    lead.Platform,
		LeadID:      lead.LeadID,
		Status:      model.WebhookStatusSuccess,
		PhoneNumber: phone,
		Timestamp:   utils.Now(),
	}
	if dispatchErr != nil {
		entry.Status = model.WebhookStatusFailed
		entry.ErrorMessage = dispatchErr.Error()
	}
	entry.Metadata = datatypes.JSON(utils.MustMarshalJSON(lead.Metadata))

	// Submission failures only lose the audit row, never the dispatch.
	_ = d.logWorker.SubmitTask(LogTaskData{Ctx: context.WithoutCancel(ctx), Entry: entry})
}
