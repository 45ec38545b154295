package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openfin/budget-approval/internal/application/service"
	"github.com/openfin/budget-approval/internal/domain/entity"
	"github.com/openfin/budget-approval/internal/domain/money"
	"github.com/openfin/budget-approval/internal/domain/routing"
	"github.com/openfin/budget-approval/internal/domain/workflow"
	"github.com/openfin/budget-approval/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflow service.WorkflowService
	ledger   service.LedgerService
	audit    service.AuditService
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	workflow service.WorkflowService,
	ledger service.LedgerService,
	audit service.AuditService,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflow: workflow,
		ledger:   ledger,
		audit:    audit,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ItemInput is one line item in a create/resubmit body. Amount is a decimal
// string like "150.00".
type ItemInput struct {
	Description string `json:"description"`
	Amount      string `json:"amount" binding:"required"`
}

// CreateRequestInput is the body of POST /requests
type CreateRequestInput struct {
	RequesterID   string      `json:"requester_id" binding:"required"`
	LineID        int64       `json:"line_id" binding:"required"`
	Title         string      `json:"title" binding:"required"`
	Justification string      `json:"justification"`
	Items         []ItemInput `json:"items"`
}

// ActorInput identifies the acting approver
type ActorInput struct {
	ActorID string `json:"actor_id" binding:"required"`
	Role    string `json:"role" binding:"required"`
}

// ReasonInput carries an approver decision with a mandatory reason
type ReasonInput struct {
	ActorID string `json:"actor_id" binding:"required"`
	Role    string `json:"role" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
}

// ResubmitInput is the body of POST /requests/:id/resubmit
type ResubmitInput struct {
	Title         string      `json:"title"`
	Justification string      `json:"justification"`
	Items         []ItemInput `json:"items"`
}

// CompletePaymentInput is the body of POST /requests/:id/payment/complete
type CompletePaymentInput struct {
	PaymentRef string `json:"payment_ref"`
}

// ItemResponse is one line item in API responses
type ItemResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
}

// RequestResponse represents a request in API responses
type RequestResponse struct {
	ID                  int64          `json:"id"`
	Number              string         `json:"number,omitempty"`
	RequesterID         string         `json:"requester_id"`
	LineID              int64          `json:"line_id"`
	Title               string         `json:"title"`
	Justification       string         `json:"justification,omitempty"`
	Total               string         `json:"total"`
	TotalCents          int64          `json:"total_cents"`
	Status              string         `json:"status"`
	CurrentApproverRole string         `json:"current_approver_role,omitempty"`
	SubmittedAt         *time.Time     `json:"submitted_at,omitempty"`
	ApprovedAt          *time.Time     `json:"approved_at,omitempty"`
	PaidAt              *time.Time     `json:"paid_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	Items               []ItemResponse `json:"items,omitempty"`
}

// EventResponse represents one audit trail entry in API responses
type EventResponse struct {
	ActorID        string    `json:"actor_id,omitempty"`
	Role           string    `json:"role"`
	Action         string    `json:"action"`
	Comment        string    `json:"comment,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	Timestamp      time.Time `json:"timestamp"`
}

// AvailabilityResponse reports a budget line's position for an amount
type AvailabilityResponse struct {
	Available      bool   `json:"available"`
	Approved       string `json:"approved"`
	Committed      string `json:"committed"`
	Actual         string `json:"actual"`
	AvailableFunds string `json:"available_funds"`
	RemainingAfter string `json:"remaining_after"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateRequest handles POST /api/v1/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var input CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := utils.ValidateActorID(input.RequesterID); err != nil {
		h.badRequest(c, err)
		return
	}

	draft := service.DraftInput{
		RequesterID:   input.RequesterID,
		LineID:        input.LineID,
		Title:         utils.SanitizeString(input.Title),
		Justification: utils.SanitizeString(input.Justification),
	}
	for _, item := range input.Items {
		cents, err := money.Parse(item.Amount)
		if err != nil {
			h.badRequest(c, err)
			return
		}
		draft.Items = append(draft.Items, service.DraftItem{
			Description: utils.SanitizeString(item.Description),
			AmountCents: cents,
		})
	}

	req, err := h.workflow.CreateDraft(c.Request.Context(), draft)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: toRequestResponse(req)})
}

// ListRequests handles GET /api/v1/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	status := c.Query("status")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	requests, err := h.workflow.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]RequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.workflow.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// GetRequestByNumber handles GET /api/v1/requests/number/:number
func (h *Handlers) GetRequestByNumber(c *gin.Context) {
	number := c.Param("number")
	if err := utils.ValidateRequestNumber(number); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflow.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// GetRequestEvents handles GET /api/v1/requests/:id/events
func (h *Handlers) GetRequestEvents(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	// 404 for unknown requests rather than an empty trail.
	if _, err := h.workflow.Get(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	events, err := h.audit.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]EventResponse, 0, len(events))
	for _, evt := range events {
		out = append(out, EventResponse{
			ActorID:        evt.ActorID,
			Role:           evt.Role,
			Action:         evt.Action,
			Comment:        evt.Comment,
			PreviousStatus: evt.PreviousStatus,
			NewStatus:      evt.NewStatus,
			Timestamp:      evt.Timestamp,
		})
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// SubmitRequest handles POST /api/v1/requests/:id/submit
func (h *Handlers) SubmitRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.workflow.Submit(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// ApproveRequest handles POST /api/v1/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	var input ActorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflow.Approve(c.Request.Context(), id, input.ActorID, input.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// QueryRequest handles POST /api/v1/requests/:id/query
func (h *Handlers) QueryRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	var input ReasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflow.Query(c.Request.Context(), id, input.ActorID, input.Role, utils.SanitizeString(input.Reason))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// DenyRequest handles POST /api/v1/requests/:id/deny
func (h *Handlers) DenyRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	var input ReasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflow.Deny(c.Request.Context(), id, input.ActorID, input.Role, utils.SanitizeString(input.Reason))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// ResubmitRequest handles POST /api/v1/requests/:id/resubmit
func (h *Handlers) ResubmitRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	var input ResubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	corrections := service.Corrections{
		Title:         utils.SanitizeString(input.Title),
		Justification: utils.SanitizeString(input.Justification),
	}
	if input.Items != nil {
		corrections.Items = make([]service.DraftItem, 0, len(input.Items))
		for _, item := range input.Items {
			cents, err := money.Parse(item.Amount)
			if err != nil {
				h.badRequest(c, err)
				return
			}
			corrections.Items = append(corrections.Items, service.DraftItem{
				Description: utils.SanitizeString(item.Description),
				AmountCents: cents,
			})
		}
	}

	req, err := h.workflow.Resubmit(c.Request.Context(), id, corrections)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// BeginPayment handles POST /api/v1/requests/:id/payment/begin
func (h *Handlers) BeginPayment(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.workflow.BeginPayment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// CompletePayment handles POST /api/v1/requests/:id/payment/complete
func (h *Handlers) CompletePayment(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	var input CompletePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflow.CompletePayment(c.Request.Context(), id, utils.SanitizeString(input.PaymentRef))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// CancelRequest handles POST /api/v1/requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	var input struct {
		ActorID string `json:"actor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	req, err := h.workflow.Cancel(c.Request.Context(), id, input.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// CheckAvailability handles GET /api/v1/budget-lines/:id/availability?amount=150.00
func (h *Handlers) CheckAvailability(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	cents, err := money.Parse(c.Query("amount"))
	if err != nil {
		h.badRequest(c, err)
		return
	}

	avail, err := h.ledger.CheckAvailability(c.Request.Context(), lineID, cents)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: AvailabilityResponse{
		Available:      avail.Available,
		Approved:       money.Format(avail.ApprovedCents),
		Committed:      money.Format(avail.CommittedCents),
		Actual:         money.Format(avail.ActualCents),
		AvailableFunds: money.Format(avail.AvailableCents),
		RemainingAfter: money.Format(avail.RemainingAfterCents),
	}})
}

func (h *Handlers) requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, err)
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
}

// respondError maps service errors onto HTTP status codes: 400 for bad input,
// 404 for missing resources, 409 for state/funds/concurrency conflicts.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, money.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, service.ErrCommitmentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInvalidCommitmentState),
		errors.Is(err, service.ErrConcurrencyConflict),
		errors.Is(err, workflow.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, routing.ErrNoRule):
		// A routing gap is a deployment problem, not a caller mistake.
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func toRequestResponse(req *entity.Request) RequestResponse {
	out := RequestResponse{
		ID:                  req.ID,
		Number:              req.Number,
		RequesterID:         req.RequesterID,
		LineID:              req.LineID,
		Title:               req.Title,
		Justification:       req.Justification,
		Total:               money.Format(req.TotalCents),
		TotalCents:          req.TotalCents,
		Status:              req.Status,
		CurrentApproverRole: req.CurrentApproverRole,
		SubmittedAt:         req.SubmittedAt,
		ApprovedAt:          req.ApprovedAt,
		PaidAt:              req.PaidAt,
		CreatedAt:           req.CreatedAt,
	}
	for _, item := range req.Items {
		out.Items = append(out.Items, ItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Amount:      money.Format(item.AmountCents),
			AmountCents: item.AmountCents,
		})
	}
	return out
}
