package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shadestock/api/internal/middleware"
)

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	mw, err := middleware.RateLimit("2-M")
	if err != nil {
		t.Fatalf("rate limit: %v", err)
	}
	handler := mw(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests: got %v, want 200", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request: got %d, want %d", codes[2], http.StatusTooManyRequests)
	}

	// A different client has its own budget.
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("other client: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	if _, err := middleware.RateLimit("lots"); err == nil {
		t.Fatal("expected error for malformed rate")
	}
}
