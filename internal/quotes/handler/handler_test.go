package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"headwear_backend/internal/quotebuilder"
	"headwear_backend/internal/quotes/service"
	"headwear_backend/internal/quotes/transport"
	"headwear_backend/platform/httpkit"
	"headwear_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type echoBuilder struct{}

func (echoBuilder) Build(_ context.Context, message string) quotebuilder.Result {
	return quotebuilder.Result{Message: "priced: " + message, Warnings: []string{"swing tag priced at fallback"}}
}

func newEngine(withUser bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(service.New(nil, echoBuilder{}, nil), validator.New())
	engine := gin.New()
	if withUser {
		engine.Use(func(c *gin.Context) {
			c.Set(httpkit.ContextUserIDKey, uuid.New())
			c.Next()
		})
	}
	engine.POST("/quotes/build", h.Build)
	engine.PATCH("/conversations/:id/quote-status", h.UpdateQuoteStatus)
	engine.GET("/quotes/:id", h.GetQuote)
	return engine
}

func do(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)
	return rec
}

func TestBuildReturnsQuoteAndMetadata(t *testing.T) {
	rec := do(newEngine(false), http.MethodPost, "/quotes/build", `{"message": "200 caps", "intent": "quote", "sessionId": "s-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.BuildQuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "priced: 200 caps" || resp.Metadata.SessionID != "s-1" || len(resp.Metadata.Warnings) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestBuildRequiresMessage(t *testing.T) {
	rec := do(newEngine(false), http.MethodPost, "/quotes/build", `{"intent": "quote"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body httpkit.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != msgValidationFailed || body.Details == nil {
		t.Fatalf("expected field errors, got %+v", body)
	}
}

func TestUpdateQuoteStatusValidatesStatus(t *testing.T) {
	rec := do(newEngine(true), http.MethodPatch, "/conversations/"+uuid.NewString()+"/quote-status", `{"status": "MAYBE"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateQuoteStatusRequiresIdentity(t *testing.T) {
	rec := do(newEngine(false), http.MethodPatch, "/conversations/"+uuid.NewString()+"/quote-status", `{"status": "APPROVED"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetQuoteRejectsMalformedID(t *testing.T) {
	rec := do(newEngine(false), http.MethodGet, "/quotes/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
