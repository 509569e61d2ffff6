package handler

import (
	"context"
	"net/http"
	"strings"

	"headwear_backend/internal/catalog/domain"
	"headwear_backend/internal/pricing"
	"headwear_backend/platform/apperr"
	"headwear_backend/platform/httpkit"
	"headwear_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// CatalogLoader is the subset of the loader used by HTTP handlers.
type CatalogLoader interface {
	Load(ctx context.Context) (*domain.Catalog, error)
	Invalidate()
}

// Handler handles HTTP requests for the pricing catalog.
type Handler struct {
	loader CatalogLoader
	val    *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new catalog handler.
func New(loader CatalogLoader, val *validator.Validator) *Handler {
	return &Handler{loader: loader, val: val}
}

// PriceRequest asks for the price of one catalog entry at a quantity.
type PriceRequest struct {
	Kind     string `form:"kind" validate:"required,oneof=product logo fabric closure accessory delivery"`
	Name     string `form:"name" validate:"required,max=120"`
	Size     string `form:"size" validate:"max=40"`
	Quantity int    `form:"quantity" validate:"required,min=1,max=1000000"`
}

// PriceResponse is the resolved break for a PriceRequest.
type PriceResponse struct {
	Kind  string        `json:"kind"`
	Name  string        `json:"name"`
	Match pricing.Match `json:"match"`
}

// GetCatalog returns the loaded catalog, or the built-in one when the store is down.
// GET /api/v1/catalog
func (h *Handler) GetCatalog(c *gin.Context) {
	catalog, err := h.catalog(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, catalog)
}

// GetPrice resolves the unit price of one entry.
// GET /api/v1/catalog/price?kind=logo&name=3D%20Embroidery&size=Large&quantity=288
func (h *Handler) GetPrice(c *gin.Context) {
	var req PriceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	catalog, err := h.catalog(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	entry, name, ok := lookup(catalog, req)
	if !ok {
		httpkit.HandleError(c, apperr.NotFound("no catalog entry matches "+req.Kind+" "+req.Name))
		return
	}
	match, err := pricing.PriceForQuantity(entry, req.Quantity)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "catalog entry cannot be priced", err))
		return
	}
	httpkit.OK(c, PriceResponse{Kind: req.Kind, Name: name, Match: match})
}

// Reload drops the cached catalog so the next request reads the store.
// POST /api/v1/admin/catalog/reload
func (h *Handler) Reload(c *gin.Context) {
	h.loader.Invalidate()
	c.Status(http.StatusNoContent)
}

func (h *Handler) catalog(ctx context.Context) (*domain.Catalog, error) {
	catalog, err := h.loader.Load(ctx)
	if err == nil && !catalog.IsEmpty() {
		return catalog, nil
	}
	defaults, derr := domain.Defaults()
	if derr != nil {
		if err != nil {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindInternal, "built-in catalog is invalid", derr)
	}
	return defaults, nil
}

func lookup(c *domain.Catalog, req PriceRequest) (pricing.Priced, string, bool) {
	switch strings.ToLower(req.Kind) {
	case "product":
		for _, p := range c.Products {
			if strings.EqualFold(p.Code, req.Name) || strings.EqualFold(p.Name, req.Name) {
				return p, p.Name, true
			}
		}
	case "logo":
		if m, ok := c.FindLogoMethod(req.Name, req.Size); ok {
			return m, m.Name + " " + m.Size, true
		}
	case "fabric":
		if f, ok := c.FindPremiumFabric(req.Name); ok {
			return f, f.Name, true
		}
	case "closure":
		if f, ok := c.FindPremiumClosure(req.Name); ok {
			return f, f.Name, true
		}
	case "accessory":
		if a, ok := c.FindAccessory(req.Name); ok {
			return a, a.Name, true
		}
	case "delivery":
		for _, d := range c.DeliveryMethods {
			if strings.EqualFold(d.Name, req.Name) {
				return d, d.Name, true
			}
		}
	}
	return nil, "", false
}
