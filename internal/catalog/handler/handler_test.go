package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"headwear_backend/internal/catalog/domain"
	"headwear_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubLoader struct {
	catalog *domain.Catalog
	err     error
	dropped bool
}

func (s *stubLoader) Load(context.Context) (*domain.Catalog, error) { return s.catalog, s.err }

func (s *stubLoader) Invalidate() { s.dropped = true }

func newEngine(loader CatalogLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(loader, validator.New())
	engine := gin.New()
	engine.GET("/catalog", h.GetCatalog)
	engine.GET("/catalog/price", h.GetPrice)
	engine.POST("/catalog/reload", h.Reload)
	return engine
}

func TestGetPriceResolvesBreak(t *testing.T) {
	engine := newEngine(&stubLoader{catalog: domain.MustDefaults()})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog/price?kind=logo&name=3D%20Embroidery&size=Large&quantity=200", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Match.TierMatched != 144 || resp.Match.UnitPrice != 1.25 {
		t.Fatalf("unexpected match %+v", resp.Match)
	}
}

func TestGetPriceValidatesQuery(t *testing.T) {
	engine := newEngine(&stubLoader{catalog: domain.MustDefaults()})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog/price?kind=hat&name=x&quantity=1", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetCatalogFallsBackToDefaults(t *testing.T) {
	engine := newEngine(&stubLoader{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != string(domain.SourceDefaults) {
		t.Fatalf("expected defaults source, got %q", body.Source)
	}
}

func TestReloadInvalidates(t *testing.T) {
	loader := &stubLoader{catalog: domain.MustDefaults()}
	engine := newEngine(loader)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/catalog/reload", nil))

	if rec.Code != http.StatusNoContent || !loader.dropped {
		t.Fatalf("expected invalidation, got %d", rec.Code)
	}
}
