package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/monopatines/accounts-service/internal/domain"
)

func TestInternalAuthMiddleware_RequiresMatchingKey(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := InternalAuthMiddleware("s2s-secret")(next)

	cases := []struct {
		name string
		key  string
		want int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "not-the-secret", http.StatusUnauthorized},
		{"matching key", "s2s-secret", http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.key != "" {
			req.Header.Set("X-Internal-API-Key", tc.key)
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestInternalAuthMiddleware_EmptyKeyLeavesGroupOpen(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := InternalAuthMiddleware("")(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected passthrough with no configured key, got %d", rec.Code)
	}
}

func TestInternalRoutes_GuardedByInternalKey(t *testing.T) {
	accountID := uuid.New()
	repo := &handlerRepoStub{account: &domain.Account{
		ID:      accountID,
		Balance: 7500,
		Status:  domain.AccountStatusActive,
	}}
	router := AccountRoutes(newTestHandlers(repo, nil, 0), "http://localhost/jwks", "s2s-secret")

	req := httptest.NewRequest(http.MethodGet, "/internal/accounts/"+accountID.String()+"/balance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("keyless internal call: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/internal/accounts/"+accountID.String()+"/balance", nil)
	req.Header.Set("X-Internal-API-Key", "s2s-secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("keyed internal call: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
