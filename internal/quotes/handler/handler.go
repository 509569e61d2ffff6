package handler

import (
	"fmt"
	"net/http"

	"headwear_backend/internal/quotes/service"
	"headwear_backend/internal/quotes/transport"
	"headwear_backend/platform/httpkit"
	"headwear_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	contentTypePDF      = "application/pdf"
)

// Handler handles HTTP requests for quotes, conversations' quote decisions and orders.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Build prices a free-text request.
// POST /api/v1/quotes/build
func (h *Handler) Build(c *gin.Context) {
	var req transport.BuildQuoteRequest
	if !h.bind(c, &req) {
		return
	}
	httpkit.OK(c, h.svc.Build(c.Request.Context(), req))
}

// Save persists the order builder state as a quote.
// POST /api/v1/quotes/save
func (h *Handler) Save(c *gin.Context) {
	var req transport.SaveQuoteRequest
	if !h.bind(c, &req) {
		return
	}

	identity := httpkit.GetIdentity(c)
	result, err := h.svc.Save(c.Request.Context(), identity.OwnerID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateQuoteStatus approves or rejects the conversation's quote.
// PATCH /api/v1/conversations/:id/quote-status
func (h *Handler) UpdateQuoteStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateQuoteStatusRequest
	if !h.bind(c, &req) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.UpdateStatus(c.Request.Context(), identity.UserID(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DetectQuote reports where the conversation's quote was found.
// GET /api/v1/conversations/:id/quote-detection
func (h *Handler) DetectQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.Detect(c.Request.Context(), httpkit.GetIdentity(c).OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListConversationQuotes lists the quotes linked to a conversation.
// GET /api/v1/conversations/:id/quotes
func (h *Handler) ListConversationQuotes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.ListConversationQuotes(c.Request.Context(), httpkit.GetIdentity(c).OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetQuote returns one quote with its files.
// GET /api/v1/quotes/:id
func (h *Handler) GetQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.GetQuote(c.Request.Context(), httpkit.GetIdentity(c).OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DownloadPDF renders the quote document.
// GET /api/v1/quotes/:id/pdf
func (h *Handler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	body, fileName, err := h.svc.QuotePDF(c.Request.Context(), httpkit.GetIdentity(c).OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, contentTypePDF, body)
}

// PDFLink stores the quote PDF and returns a presigned download link.
// GET /api/v1/quotes/:id/pdf-url
func (h *Handler) PDFLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	link, err := h.svc.QuotePDFLink(c.Request.Context(), httpkit.GetIdentity(c).OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, link)
}

// AttachmentUploadURL presigns an artwork upload.
// POST /api/v1/quotes/attachments
func (h *Handler) AttachmentUploadURL(c *gin.Context) {
	var req transport.AttachmentUploadRequest
	if !h.bind(c, &req) {
		return
	}
	link, err := h.svc.AttachmentUploadURL(c.Request.Context(), httpkit.GetIdentity(c).OwnerID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, link)
}

// GetOrder returns one order.
// GET /api/v1/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.GetOrder(c.Request.Context(), httpkit.GetIdentity(c).OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
