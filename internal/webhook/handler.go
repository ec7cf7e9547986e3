package webhook

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadbook_backend/internal/leads/transport"
	"leadbook_backend/platform/apperr"
	"leadbook_backend/platform/httpkit"
	"leadbook_backend/platform/logger"
)

// LeadIntake is the slice of the lead service webhooks need.
type LeadIntake interface {
	Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error)
}

type Handler struct {
	leads LeadIntake
	log   *logger.Logger
}

func NewHandler(leads LeadIntake, log *logger.Logger) *Handler {
	return &Handler{leads: leads, log: log}
}

// Meta handles a Meta Lead Ads submission. A duplicate phone number is
// acknowledged with 200, not an error: ad platforms retry failed deliveries
// and a duplicate should not trigger a retry storm.
func (h *Handler) Meta(c *gin.Context) {
	var payload MetaLeadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	h.intake(c, mapMetaLead(payload), payload.LeadgenID)
}

// Google handles a Google Ads lead form submission.
func (h *Handler) Google(c *gin.Context) {
	var payload GoogleLeadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	h.intake(c, mapGoogleLead(payload), payload.LeadID)
}

func (h *Handler) intake(c *gin.Context, req transport.CreateLeadRequest, externalID string) {
	lead, err := h.leads.Create(c.Request.Context(), req)
	if err != nil {
		if apperr.Is(err, apperr.KindDuplicate) {
			h.log.LeadEvent("webhook_duplicate_lead", externalID)
			httpkit.OK(c, gin.H{"status": "duplicate", "external_id": externalID})
			return
		}
		if apperr.Is(err, apperr.KindValidation) {
			h.log.LeadEvent("webhook_invalid_lead", externalID)
			httpkit.Error(c, http.StatusUnprocessableEntity, "lead payload incomplete", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, gin.H{
		"status":  "created",
		"lead_id": lead.ID,
	})
}
