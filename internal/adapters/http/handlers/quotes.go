package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/dto"
	"github.com/jsamuelsen/eyewear-quotes/internal/app"
)

// Paging holds the page sizes of listings.
type Paging struct {
	Default int
	Max     int
}

// QuoteHandler handles quote, summary and report endpoints.
type QuoteHandler struct {
	service *app.QuoteService
	paging  Paging
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService, paging Paging) *QuoteHandler {
	if paging.Default <= 0 {
		paging.Default = 20
	}

	if paging.Max < paging.Default {
		paging.Max = paging.Default
	}

	return &QuoteHandler{
		service: service,
		paging:  paging,
	}
}

// List handles GET /api/v1/quotes.
// Quotes are returned newest first, optionally filtered by customer name
// and by pending balance, one cursor page at a time.
func (h *QuoteHandler) List(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQuery(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	after, err := req.After()
	if err != nil {
		dto.AbortWithCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	page, err := h.service.ListQuotes(c.Request.Context(), app.ListQuotesQuery{
		Customer:    req.Customer,
		PendingOnly: req.Pending,
		After:       after,
		Limit:       req.Size(h.paging.Default, h.paging.Max),
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	items := make([]dto.QuoteIndexResponse, len(page.Quotes))
	for i, q := range page.Quotes {
		items[i] = dto.NewQuoteIndexResponse(q)
	}

	c.JSON(http.StatusOK, dto.NewPage(items, page.Next, page.HasMore))
}

// Get handles GET /api/v1/quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	q, err := h.service.GetQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// Create handles POST /api/v1/quotes.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindJSON(c, "quote", &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	q, err := h.service.CreateQuote(c.Request.Context(), in)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", c.FullPath()+"/"+q.ID)
	c.JSON(http.StatusCreated, dto.NewQuoteResponse(q))
}

// Update handles PUT and PATCH /api/v1/quotes/:id. Only fields present in
// the body change.
func (h *QuoteHandler) Update(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindJSON(c, "quote", &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	q, err := h.service.UpdateQuote(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// Delete handles DELETE /api/v1/quotes/:id. Line items and payments go with it.
func (h *QuoteHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteQuote(c.Request.Context(), c.Param("id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Summary handles GET /api/v1/quotes/:id/summary.
func (h *QuoteHandler) Summary(c *gin.Context) {
	s, err := h.service.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSummaryResponse(s))
}

// Report handles GET /api/v1/quotes/:id/report with the printable report
// as plain text.
func (h *QuoteHandler) Report(c *gin.Context) {
	report, err := h.service.RenderReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.String(http.StatusOK, report+"\n")
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.List)
	quotes.POST("", h.Create)
	quotes.GET("/:id", h.Get)
	quotes.PUT("/:id", h.Update)
	quotes.PATCH("/:id", h.Update)
	quotes.DELETE("/:id", h.Delete)
	quotes.GET("/:id/summary", h.Summary)
	quotes.GET("/:id/report", h.Report)
}
