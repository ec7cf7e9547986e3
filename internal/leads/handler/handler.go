// Package handler exposes the lead lifecycle over HTTP. It binds and parses
// requests, resolves the acting user from the request identity and delegates
// every decision to the service.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadbook_backend/internal/leads/policy"
	"leadbook_backend/internal/leads/service"
	"leadbook_backend/internal/leads/transport"
	"leadbook_backend/platform/httpkit"
)

type Handler struct {
	service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

func actorFrom(c *gin.Context) policy.Actor {
	identity := httpkit.GetIdentity(c)
	return policy.Actor{
		ID:   identity.UserID(),
		Tier: policy.Tier(identity.Tier()),
	}
}

func leadIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	lead, err := h.service.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) Get(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	lead, err := h.service.GetByID(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) List(c *gin.Context) {
	req, ok := parseListRequest(c)
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GroupedByLocation(c *gin.Context) {
	result, err := h.service.GroupedByLocation(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GroupedByCategory(c *gin.Context) {
	result, err := h.service.GroupedByCategory(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Assign(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	lead, err := h.service.Assign(c.Request.Context(), actorFrom(c), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	lead, err := h.service.UpdateStatus(c.Request.Context(), actorFrom(c), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) AddComment(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), actorFrom(c), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, comment)
}

func (h *Handler) ListComments(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"comments": comments})
}

func (h *Handler) ListHistory(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	history, err := h.service.ListHistory(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"history": history})
}

func (h *Handler) Delete(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	err := h.service.Delete(c.Request.Context(), actorFrom(c), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "lead deleted"})
}

func parseListRequest(c *gin.Context) (transport.ListLeadsRequest, bool) {
	req := transport.ListLeadsRequest{
		Search: c.Query("search"),
	}

	req.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	req.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	if status := c.Query("status"); status != "" {
		value := transport.LeadStatus(status)
		req.Status = &value
	}
	if source := c.Query("source"); source != "" {
		value := transport.LeadSource(source)
		req.Source = &value
	}
	if assignedTo := c.Query("assigned_to"); assignedTo != "" {
		id, err := uuid.Parse(assignedTo)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid assigned_to filter", nil)
			return transport.ListLeadsRequest{}, false
		}
		req.AssignedTo = &id
	}
	if tier := c.Query("tier"); tier != "" {
		value, err := strconv.Atoi(tier)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid tier filter", nil)
			return transport.ListLeadsRequest{}, false
		}
		req.TierFilter = &value
	}
	if from := c.Query("date_from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid date_from, expected RFC 3339", nil)
			return transport.ListLeadsRequest{}, false
		}
		req.DateFrom = &parsed
	}
	if to := c.Query("date_to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid date_to, expected RFC 3339", nil)
			return transport.ListLeadsRequest{}, false
		}
		req.DateTo = &parsed
	}

	return req, true
}
