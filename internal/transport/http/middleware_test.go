package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(origins))
	router.GET("/api/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCORSPreflightAnyOrigin(t *testing.T) {
	router := corsRouter()
	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent && rec.Code != http.StatusOK {
		t.Fatalf("expected preflight success, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected any origin, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") == "true" {
		t.Fatalf("credentials must not be allowed")
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	router := corsRouter("https://quiz.example.com")

	allowed := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	allowed.Header.Set("Origin", "https://quiz.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, allowed)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "https://quiz.example.com" {
		t.Fatalf("expected allowed origin echoed, got %d %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}

	denied := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	denied.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, denied)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected foreign origin rejected, got %d", rec.Code)
	}
}
