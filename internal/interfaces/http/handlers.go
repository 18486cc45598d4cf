package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/salonhq/billing/internal/application/service"
	"github.com/salonhq/billing/internal/domain/approval"
	"github.com/salonhq/billing/internal/domain/bill"
	"github.com/salonhq/billing/internal/domain/money"
	"github.com/salonhq/billing/internal/domain/suggestion"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	overrideService   service.OverrideService
	suggestionService service.SuggestionService
	billingService    service.BillingService
	rulesService      service.RulesService
	reportService     service.ReportService
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	overrideService service.OverrideService,
	suggestionService service.SuggestionService,
	billingService service.BillingService,
	rulesService service.RulesService,
	reportService service.ReportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		overrideService:   overrideService,
		suggestionService: suggestionService,
		billingService:    billingService,
		rulesService:      rulesService,
		reportService:     reportService,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// respondError maps domain errors to HTTP statuses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, money.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, bill.ErrInvalidPrice),
		errors.Is(err, bill.ErrReasonRequired),
		errors.Is(err, bill.ErrInsufficientPayment),
		errors.Is(err, bill.ErrDailyLimitExceeded),
		errors.Is(err, suggestion.ErrReasonRequired):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, approval.ErrAuthorizationRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, suggestion.ErrSuggestionsDisabled):
		status = http.StatusForbidden
	case errors.Is(err, suggestion.ErrSuggestionExpired),
		errors.Is(err, suggestion.ErrAlreadyResolved):
		status = http.StatusConflict
	case errors.Is(err, suggestion.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// AddLineItemRequest represents the body of POST /api/billing/line-items
type AddLineItemRequest struct {
	BookingID     string          `json:"booking_id" binding:"required"`
	ServiceID     string          `json:"service_id" binding:"required"`
	ServiceName   string          `json:"service_name"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	StaffID       string          `json:"staff_id"`
	Quantity      int             `json:"quantity"`
}

// AddLineItem handles POST /api/billing/line-items
func (h *Handlers) AddLineItem(c *gin.Context) {
	var req AddLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	item, err := h.billingService.AddLineItem(c.Request.Context(), &bill.LineItem{
		BookingID:     req.BookingID,
		ServiceID:     req.ServiceID,
		ServiceName:   req.ServiceName,
		OriginalPrice: req.OriginalPrice,
		StaffID:       req.StaffID,
		Quantity:      req.Quantity,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: item})
}

// RequestOverrideRequest represents the body of POST /api/billing/overrides
type RequestOverrideRequest struct {
	SalonID    string          `json:"salon_id" binding:"required"`
	LineItemID int64           `json:"line_item_id" binding:"required"`
	NewPrice   decimal.Decimal `json:"new_price"`
	ReasonCode string          `json:"reason_code"`
	ReasonText string          `json:"reason_text"`
	PIN        string          `json:"pin"`
}

// RequestOverride handles POST /api/billing/overrides
func (h *Handlers) RequestOverride(c *gin.Context) {
	var req RequestOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	override, err := h.overrideService.RequestOverride(c.Request.Context(), service.RequestOverrideInput{
		SalonID:    req.SalonID,
		LineItemID: req.LineItemID,
		NewPrice:   req.NewPrice,
		ReasonCode: bill.ReasonCode(req.ReasonCode),
		ReasonText: req.ReasonText,
		PIN:        req.PIN,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: override})
}

// GetOverride handles GET /api/billing/overrides/:id
func (h *Handlers) GetOverride(c *gin.Context) {
	override, err := h.overrideService.GetOverride(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if override == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "override not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: override})
}

// ListOverrides handles GET /api/billing/overrides?booking_id=
func (h *Handlers) ListOverrides(c *gin.Context) {
	bookingID := c.Query("booking_id")
	if bookingID == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "booking_id is required"})
		return
	}

	overrides, err := h.overrideService.ListOverrides(c.Request.Context(), bookingID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: overrides})
}

// SubmitSuggestionRequest represents the body of POST /api/billing/suggestions
type SubmitSuggestionRequest struct {
	SalonID        string          `json:"salon_id" binding:"required"`
	BookingID      string          `json:"booking_id" binding:"required"`
	StaffID        string          `json:"staff_id" binding:"required"`
	Type           string          `json:"type" binding:"required"`
	OriginalPrice  decimal.Decimal `json:"original_price"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	Reason         string          `json:"reason"`
}

// SubmitSuggestion handles POST /api/billing/suggestions
func (h *Handlers) SubmitSuggestion(c *gin.Context) {
	var req SubmitSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	sug, err := h.suggestionService.Submit(c.Request.Context(), service.SubmitSuggestionInput{
		SalonID:        req.SalonID,
		BookingID:      req.BookingID,
		StaffID:        req.StaffID,
		Type:           suggestion.Type(req.Type),
		OriginalPrice:  req.OriginalPrice,
		SuggestedPrice: req.SuggestedPrice,
		Reason:         req.Reason,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: sug})
}

// ReviewSuggestionRequest represents the body of the approve/reject endpoints
type ReviewSuggestionRequest struct {
	ApproverID      string `json:"approver_id" binding:"required"`
	RejectionReason string `json:"rejection_reason"`
}

// ApproveSuggestion handles POST /api/billing/suggestions/:id/approve
func (h *Handlers) ApproveSuggestion(c *gin.Context) {
	var req ReviewSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	sug, err := h.suggestionService.Approve(c.Request.Context(), c.Param("id"), req.ApproverID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: sug})
}

// RejectSuggestion handles POST /api/billing/suggestions/:id/reject
func (h *Handlers) RejectSuggestion(c *gin.Context) {
	var req ReviewSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	sug, err := h.suggestionService.Reject(c.Request.Context(), c.Param("id"), req.ApproverID, req.RejectionReason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: sug})
}

// GetSuggestion handles GET /api/billing/suggestions/:id
func (h *Handlers) GetSuggestion(c *gin.Context) {
	sug, err := h.suggestionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: sug})
}

// ListSuggestionsRequest represents query parameters for listing suggestions
type ListSuggestionsRequest struct {
	SalonID   string `form:"salon_id" binding:"required"`
	BookingID string `form:"booking_id"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// ListSuggestions handles GET /api/billing/suggestions
func (h *Handlers) ListSuggestions(c *gin.Context) {
	var req ListSuggestionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "salon_id is required"})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	suggestions, err := h.suggestionService.List(c.Request.Context(), req.SalonID, req.BookingID, req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: suggestions})
}

// FinalizeBillRequest represents the body of POST /api/billing/bills
type FinalizeBillRequest struct {
	SalonID                   string          `json:"salon_id" binding:"required"`
	BookingID                 string          `json:"booking_id" binding:"required"`
	MembershipDiscountPercent decimal.Decimal `json:"membership_discount_percent"`
	ManualAdjustment          decimal.Decimal `json:"manual_adjustment"`
	PaymentMethod             string          `json:"payment_method" binding:"required"`
	AmountReceived            decimal.Decimal `json:"amount_received"`
}

// FinalizeBill handles POST /api/billing/bills
func (h *Handlers) FinalizeBill(c *gin.Context) {
	var req FinalizeBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	b, err := h.billingService.FinalizeBill(c.Request.Context(), service.FinalizeBillInput{
		SalonID:                   req.SalonID,
		BookingID:                 req.BookingID,
		MembershipDiscountPercent: req.MembershipDiscountPercent,
		ManualAdjustment:          req.ManualAdjustment,
		PaymentMethod:             bill.PaymentMethod(req.PaymentMethod),
		AmountReceived:            req.AmountReceived,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: b})
}

// GetBill handles GET /api/billing/bills/:id
func (h *Handlers) GetBill(c *gin.Context) {
	b, err := h.billingService.GetBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if b == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "bill not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: b})
}

// GetRules handles GET /api/rules/:salonID
func (h *Handlers) GetRules(c *gin.Context) {
	rules, err := h.rulesService.GetRules(c.Request.Context(), c.Param("salonID"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// UpdateRulesRequest represents the body of PUT /api/rules/:salonID
type UpdateRulesRequest struct {
	AutoApproveThreshold     decimal.Decimal `json:"auto_approve_threshold"`
	ManagerApprovalThreshold decimal.Decimal `json:"manager_approval_threshold"`
	OwnerApprovalThreshold   decimal.Decimal `json:"owner_approval_threshold"`
	MaxDiscountPerDay        decimal.Decimal `json:"max_discount_per_day"`
	RequireReasonForDiscount bool            `json:"require_reason_for_discount"`
	AllowStaffSuggestions    bool            `json:"allow_staff_suggestions"`
	SuggestionExpiryMinutes  int             `json:"suggestion_expiry_minutes"`
}

// UpdateRules handles PUT /api/rules/:salonID
func (h *Handlers) UpdateRules(c *gin.Context) {
	var req UpdateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	rules, err := h.rulesService.UpdateRules(c.Request.Context(), &approval.Rules{
		SalonID:                  c.Param("salonID"),
		AutoApproveThreshold:     req.AutoApproveThreshold,
		ManagerApprovalThreshold: req.ManagerApprovalThreshold,
		OwnerApprovalThreshold:   req.OwnerApprovalThreshold,
		MaxDiscountPerDay:        req.MaxDiscountPerDay,
		RequireReasonForDiscount: req.RequireReasonForDiscount,
		AllowStaffSuggestions:    req.AllowStaffSuggestions,
		SuggestionExpiryMinutes:  req.SuggestionExpiryMinutes,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// ExportBillRegister handles GET /api/reports/bill-register
func (h *Handlers) ExportBillRegister(c *gin.Context) {
	salonID := c.Query("salon_id")
	if salonID == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "salon_id is required"})
		return
	}

	day := time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	path, err := h.reportService.ExportBillRegister(c.Request.Context(), salonID, day)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"path": path}})
}
