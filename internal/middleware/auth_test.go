package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestJWTMiddleware_AcceptsGeneratedToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	learnerID := uuid.New()

	token, err := auth.GenerateAccessToken(learnerID)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	var got uuid.UUID
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/study/next", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got != learnerID {
		t.Errorf("Expected learner %s in context, got %s", learnerID, got)
	}
}

func TestJWTMiddleware_RejectsBadTokens(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	other := NewJWTAuth("different-secret")
	forged, err := other.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer format", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong signing secret", "Bearer " + forged},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("Handler must not run without a valid token")
			}))

			req := httptest.NewRequest(http.MethodGet, "/study/next", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rr.Code)
			}
		})
	}
}
