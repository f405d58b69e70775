package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noah-isme/backend-pasar/internal/common"
)

func TestTrustedUserMiddlewareLiftsHeader(t *testing.T) {
	var gotID string
	var gotOK bool
	h := common.TrustedUserMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = common.UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/cart/merge", nil)
	req.Header.Set(common.TrustedUserHeader, "user-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !gotOK || gotID != "user-42" {
		t.Fatalf("user id = %q ok=%v, want user-42", gotID, gotOK)
	}
}

func TestTrustedUserMiddlewareAnonymousWithoutHeader(t *testing.T) {
	h := common.TrustedUserMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.UserID(r.Context()); ok {
			t.Fatal("blank header must stay anonymous")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(common.TrustedUserHeader, "   ")
	h.ServeHTTP(httptest.NewRecorder(), req)
}
