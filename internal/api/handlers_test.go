package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/monopatines/accounts-service/internal/app"
	"github.com/monopatines/accounts-service/internal/domain"
	"github.com/monopatines/accounts-service/internal/store"
)

type handlerRepoStub struct {
	store.Repository

	account *domain.Account
}

func (s *handlerRepoStub) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	result := *account
	s.account = &result
	return &result, nil
}

func (s *handlerRepoStub) FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	if s.account == nil || s.account.ID != accountID {
		return nil, store.ErrAccountNotFound
	}
	result := *s.account
	return &result, nil
}

func (s *handlerRepoStub) CreditBalance(ctx context.Context, accountID uuid.UUID, amount int64) (*domain.Account, error) {
	if s.account == nil || s.account.ID != accountID {
		return nil, store.ErrAccountNotFound
	}
	if s.account.Status == domain.AccountStatusCancelled {
		return nil, store.ErrAccountCancelled
	}
	s.account.Balance += amount
	result := *s.account
	return &result, nil
}

func (s *handlerRepoStub) DebitBalance(ctx context.Context, accountID uuid.UUID, amount int64) (*domain.Account, error) {
	if s.account == nil || s.account.ID != accountID {
		return nil, store.ErrAccountNotFound
	}
	if s.account.Status == domain.AccountStatusCancelled {
		return nil, store.ErrAccountCancelled
	}
	if s.account.Balance < amount {
		return nil, store.ErrInsufficientFunds
	}
	s.account.Balance -= amount
	result := *s.account
	return &result, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(routingKey string, body interface{}) error { return nil }
func (noopPublisher) Close()                                            {}

type throttlingLimiter struct {
	count int
}

func (l *throttlingLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	l.count++
	return l.count, 30, nil
}

// testRouter wires the handlers without the JWT middleware so tests exercise
// routing and status mapping directly.
func testRouter(h *AccountHandlers) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.CreateAccountHandler)
	r.Get("/{id}", h.GetAccountHandler)
	r.Get("/{id}/balance", h.GetBalanceHandler)
	r.Put("/{id}/balance", h.LoadBalanceHandler)
	r.Put("/{id}/balance/deduct", h.DeductBalanceHandler)
	return r
}

func newTestHandlers(repo store.Repository, limiter BalanceRateLimiter, limit int) *AccountHandlers {
	svc := app.NewService(repo, noopPublisher{}, 0)
	return NewAccountHandlers(svc, limiter, limit)
}

func TestCreateAccountHandler_ReturnsCreatedAccount(t *testing.T) {
	repo := &handlerRepoStub{}
	router := testRouter(newTestHandlers(repo, nil, 0))

	body := strings.NewReader(`{"payment_ref":"mp-ref-001","initial_balance":10000}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var account domain.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &account); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if account.Balance != 10000 || account.Status != domain.AccountStatusActive {
		t.Fatalf("unexpected account in response: %+v", account)
	}
}

func TestCreateAccountHandler_RejectsInvalidPayloads(t *testing.T) {
	router := testRouter(newTestHandlers(&handlerRepoStub{}, nil, 0))

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing payment ref", `{"initial_balance":100}`},
		{"negative opening balance", `{"payment_ref":"mp-1","initial_balance":-1}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestGetAccountHandler_UnknownAndMalformedIDs(t *testing.T) {
	router := testRouter(newTestHandlers(&handlerRepoStub{}, nil, 0))

	req := httptest.NewRequest(http.MethodGet, "/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown account: expected 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: expected 400, got %d", rec.Code)
	}
}

func TestDeductBalanceHandler_MapsInsufficientFunds(t *testing.T) {
	accountID := uuid.New()
	repo := &handlerRepoStub{account: &domain.Account{
		ID:      accountID,
		Balance: 500,
		Status:  domain.AccountStatusActive,
	}}
	router := testRouter(newTestHandlers(repo, nil, 0))

	req := httptest.NewRequest(http.MethodPut, "/"+accountID.String()+"/balance/deduct", strings.NewReader(`{"amount":501}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.account.Balance != 500 {
		t.Fatalf("rejected deduct mutated balance: %d", repo.account.Balance)
	}
}

func TestLoadBalanceHandler_MapsCancelledAccountToConflict(t *testing.T) {
	accountID := uuid.New()
	repo := &handlerRepoStub{account: &domain.Account{
		ID:     accountID,
		Status: domain.AccountStatusCancelled,
	}}
	router := testRouter(newTestHandlers(repo, nil, 0))

	req := httptest.NewRequest(http.MethodPut, "/"+accountID.String()+"/balance", strings.NewReader(`{"amount":100}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoadBalanceHandler_RoundTripUpdatesBalance(t *testing.T) {
	accountID := uuid.New()
	repo := &handlerRepoStub{account: &domain.Account{
		ID:     accountID,
		Status: domain.AccountStatusActive,
	}}
	router := testRouter(newTestHandlers(repo, nil, 0))

	req := httptest.NewRequest(http.MethodPut, "/"+accountID.String()+"/balance", strings.NewReader(`{"amount":2500}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.Balance != 2500 {
		t.Fatalf("expected balance 2500, got %d", resp.Balance)
	}
}

func TestBalanceHandlers_ThrottleAfterLimit(t *testing.T) {
	accountID := uuid.New()
	repo := &handlerRepoStub{account: &domain.Account{
		ID:      accountID,
		Balance: 1000000,
		Status:  domain.AccountStatusActive,
	}}
	limiter := &throttlingLimiter{}
	router := testRouter(newTestHandlers(repo, limiter, 2))

	var lastCode int
	var lastHeader string
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPut, "/"+accountID.String()+"/balance", strings.NewReader(`{"amount":100}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		lastCode = rec.Code
		lastHeader = rec.Header().Get("Retry-After")
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("third request should be throttled, got %d", lastCode)
	}
	if lastHeader != "30" {
		t.Fatalf("expected Retry-After 30, got %q", lastHeader)
	}
}
