package server

import (
	"errors"
	"net/http"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/usecase"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

func writeOutcome(w http.ResponseWriter, outcome *usecase.Outcome) {
	utils.WriteJSONResponse(w, http.StatusOK, model.WebhookResponse{
		Received:  true,
		Processed: outcome.Processed,
		LeadID:    outcome.LeadID,
	})
}

// writeWebhookError maps a processing error onto the ack contract:
// authentication failures are the only case reported as not received; every
// other fault, malformed payloads included, is an acknowledged 500 so the
// platform does not retry the batch.
func writeWebhookError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, model.WebhookResponse{})
		return
	}
	utils.WriteJSONResponse(w, http.StatusInternalServerError, model.WebhookResponse{
		Received: true,
		Error:    err.Error(),
	})
}

// writeAPIError maps a management API error to a status code.
func writeAPIError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrBadRequest), errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrUpstream):
		status = http.StatusBadGateway
	}
	utils.WriteJSONResponse(w, status, map[string]string{"error": err.Error()})
}
