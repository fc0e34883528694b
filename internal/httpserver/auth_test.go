package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
)

func TestSignupHandler_Created(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerAuthSvc{
		customer: &domain.Customer{ID: "cust-id", Email: "user@example.com", PasswordHash: "secret-hash"},
	}
	router := newTestRouter(t, deps)

	body := `{"email":"user@example.com","password":"Abcdefg1","addresses":[{"country":"US"}]}`
	rec := doRequest(router, http.MethodPost, "/auth/signup", body, "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"user@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestSignupHandler_Conflict(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerAuthSvc{signErr: domain.ErrAlreadyExists}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/auth/signup", `{"email":"user@example.com","password":"Abcdefg1"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSignupHandler_WeakPassword(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerAuthSvc{signErr: domain.Errorf(domain.ErrValidation, "Password must be at least 8 characters")}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/auth/signup", `{"email":"user@example.com","password":"x"}`, "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "at least 8 characters") {
		t.Fatalf("expected 400 with message, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTokenHandler_InvalidCredentials(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerAuthSvc{loginErr: customersvc.ErrInvalidCredentials}
	router := newTestRouter(t, deps)

	body := `grant_type=password&username=user%40example.com&password=badpass`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTokenHandler_Success(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "cust-id"}}
	router := newTestRouter(t, deps)

	body := `grant_type=password&username=user%40example.com&password=Abcdefg1`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	for _, want := range []string{`"access_token":"access"`, `"refresh_token":"refresh"`, `"expires_in":3600`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("expected %s in body %s", want, rec.Body.String())
		}
	}
}

func TestTokenHandler_UnsupportedGrant(t *testing.T) {
	router := newTestRouter(t, testDeps())

	body := `grant_type=client_credentials&username=a&password=b`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "unsupported_grant_type") {
		t.Fatalf("expected unsupported grant, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTokenHandler_RefreshGrant(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "cust-id"}, refreshToken: "r1"}
	router := newTestRouter(t, deps)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`grant_type=refresh_token&refresh_token=r1`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"access_token":"access-2"`) {
		t.Fatalf("expected rotated tokens, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = post(`grant_type=refresh_token&refresh_token=stale`)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "invalid_grant") {
		t.Fatalf("expected invalid_grant, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = post(`grant_type=refresh_token`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without refresh_token, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMeHandler_UnauthorizedWithoutToken(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := doRequest(router, http.MethodGet, "/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMeHandler_InvalidToken(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := doRequest(router, http.MethodGet, "/me", "", "stale")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMeHandler_Success(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerAuthSvc{
		customer: &domain.Customer{ID: "cust-id", Email: "me@example.com"},
	}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodGet, "/me", "", "token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"me@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
