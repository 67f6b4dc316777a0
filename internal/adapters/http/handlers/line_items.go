package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/dto"
	"github.com/jsamuelsen/eyewear-quotes/internal/app"
)

// LineItemHandler handles the line items nested under a quote.
type LineItemHandler struct {
	service *app.QuoteService
}

// NewLineItemHandler creates a new line item handler.
func NewLineItemHandler(service *app.QuoteService) *LineItemHandler {
	return &LineItemHandler{service: service}
}

// List handles GET /api/v1/quotes/:id/line_items.
func (h *LineItemHandler) List(c *gin.Context) {
	items, err := h.service.ListLineItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLineItemsResponse(items))
}

// Get handles GET /api/v1/quotes/:id/line_items/:item_id.
func (h *LineItemHandler) Get(c *gin.Context) {
	item, err := h.service.GetLineItem(c.Request.Context(), c.Param("id"), c.Param("item_id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLineItemResponse(item))
}

// Create handles POST /api/v1/quotes/:id/line_items.
func (h *LineItemHandler) Create(c *gin.Context) {
	var req dto.LineItemRequest
	if err := dto.BindJSON(c, "line_item", &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	item, err := h.service.AddLineItem(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewLineItemResponse(item))
}

// Update handles PUT and PATCH /api/v1/quotes/:id/line_items/:item_id.
func (h *LineItemHandler) Update(c *gin.Context) {
	var req dto.LineItemRequest
	if err := dto.BindJSON(c, "line_item", &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	item, err := h.service.UpdateLineItem(c.Request.Context(), c.Param("id"), c.Param("item_id"), patch)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLineItemResponse(item))
}

// Delete handles DELETE /api/v1/quotes/:id/line_items/:item_id.
func (h *LineItemHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteLineItem(c.Request.Context(), c.Param("id"), c.Param("item_id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterLineItemRoutes registers line item routes on the given router group.
func (h *LineItemHandler) RegisterLineItemRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/quotes/:id/line_items")
	items.GET("", h.List)
	items.POST("", h.Create)
	items.GET("/:item_id", h.Get)
	items.PUT("/:item_id", h.Update)
	items.PATCH("/:item_id", h.Update)
	items.DELETE("/:item_id", h.Delete)
}
