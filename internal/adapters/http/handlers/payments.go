package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/dto"
	"github.com/jsamuelsen/eyewear-quotes/internal/app"
)

// PaymentHandler handles the payments nested under a quote.
type PaymentHandler struct {
	service *app.QuoteService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service *app.QuoteService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// List handles GET /api/v1/quotes/:id/payments, oldest first.
// ?method= keeps payments made with that method.
func (h *PaymentHandler) List(c *gin.Context) {
	var req dto.ListPaymentsRequest
	if err := dto.BindQuery(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), c.Param("id"), req.Method)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaymentsResponse(payments))
}

// Get handles GET /api/v1/quotes/:id/payments/:payment_id.
func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.service.GetPayment(c.Request.Context(), c.Param("id"), c.Param("payment_id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaymentResponse(p))
}

// Create handles POST /api/v1/quotes/:id/payments.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req dto.PaymentRequest
	if err := dto.BindJSON(c, "payment", &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	p, err := h.service.AddPayment(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewPaymentResponse(p))
}

// Update handles PUT and PATCH /api/v1/quotes/:id/payments/:payment_id.
func (h *PaymentHandler) Update(c *gin.Context) {
	var req dto.PaymentRequest
	if err := dto.BindJSON(c, "payment", &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	p, err := h.service.UpdatePayment(c.Request.Context(), c.Param("id"), c.Param("payment_id"), patch)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaymentResponse(p))
}

// Delete handles DELETE /api/v1/quotes/:id/payments/:payment_id.
func (h *PaymentHandler) Delete(c *gin.Context) {
	if err := h.service.DeletePayment(c.Request.Context(), c.Param("id"), c.Param("payment_id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterPaymentRoutes registers payment routes on the given router group.
func (h *PaymentHandler) RegisterPaymentRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/quotes/:id/payments")
	payments.GET("", h.List)
	payments.POST("", h.Create)
	payments.GET("/:payment_id", h.Get)
	payments.PUT("/:payment_id", h.Update)
	payments.PATCH("/:payment_id", h.Update)
	payments.DELETE("/:payment_id", h.Delete)
}
