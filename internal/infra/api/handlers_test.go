//go:build !integration

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/domain/ports/adapter"
	"edu-platform-backend/internal/infra/api"
	"edu-platform-backend/internal/usecase"
)

type mockPaymentUC struct {
	CheckoutFunc      func(ctx context.Context, userID string, packageID int64) (*usecase.CheckoutResult, error)
	HandleWebhookFunc func(ctx context.Context, raw []byte) (*adapter.Ack, error)
	StatusFunc        func(ctx context.Context, userID, orderReference string) (*model.Payment, error)
}

func (m *mockPaymentUC) Checkout(ctx context.Context, userID string, packageID int64) (*usecase.CheckoutResult, error) {
	return m.CheckoutFunc(ctx, userID, packageID)
}

func (m *mockPaymentUC) HandleWebhook(ctx context.Context, raw []byte) (*adapter.Ack, error) {
	return m.HandleWebhookFunc(ctx, raw)
}

func (m *mockPaymentUC) Status(ctx context.Context, userID, orderReference string) (*model.Payment, error) {
	return m.StatusFunc(ctx, userID, orderReference)
}

func newTestServer(uc *mockPaymentUC) (http.Handler, *api.AuthManager) {
	log := zerolog.Nop()
	auth := api.NewAuthManager("api-test-secret", time.Hour)
	srv := api.NewServer(uc, auth, nil, 10, &log)
	return srv.Router(), auth
}

func bearer(t *testing.T, auth *api.AuthManager, userID string) string {
	t.Helper()
	tok, err := auth.Mint(userID)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + tok
}

func TestCheckoutEndpoint(t *testing.T) {
	uc := &mockPaymentUC{
		CheckoutFunc: func(ctx context.Context, userID string, packageID int64) (*usecase.CheckoutResult, error) {
			if userID != "42" {
				t.Errorf("user id from token = %q, want 42", userID)
			}
			if packageID != 7 {
				t.Errorf("package id = %d, want 7", packageID)
			}
			return &usecase.CheckoutResult{
				PaymentID:      "pay-1",
				OrderReference: "pkg_7_u42_1",
				ActionURL:      "https://secure.wayforpay.com/pay",
				Fields:         map[string]string{"amount": "1200"},
			}, nil
		},
	}
	router, auth := newTestServer(uc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(`{"packageId":7}`))
	req.Header.Set("Authorization", bearer(t, auth, "42"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		PaymentID      string            `json:"paymentId"`
		OrderReference string            `json:"orderReference"`
		ActionURL      string            `json:"actionUrl"`
		Fields         map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.OrderReference != "pkg_7_u42_1" || body.ActionURL == "" || body.Fields["amount"] != "1200" {
		t.Errorf("response = %+v", body)
	}
}

func TestCheckoutEndpoint_Unauthorized(t *testing.T) {
	router, _ := newTestServer(&mockPaymentUC{})

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"malformed", "Token abc"},
		{"bad token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(`{"packageId":7}`))
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestCheckoutEndpoint_BadRequest(t *testing.T) {
	router, auth := newTestServer(&mockPaymentUC{})

	for _, body := range []string{`not json`, `{}`, `{"packageId":0}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(body))
		req.Header.Set("Authorization", bearer(t, auth, "42"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestCheckoutEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown package", domain.ErrNotFound, http.StatusNotFound},
		{"invalid price", domain.ErrInvalidArgument, http.StatusBadRequest},
		{"provider down", domain.ErrProviderNotConfigured, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &mockPaymentUC{
				CheckoutFunc: func(context.Context, string, int64) (*usecase.CheckoutResult, error) {
					return nil, tc.err
				},
			}
			router, auth := newTestServer(uc)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(`{"packageId":7}`))
			req.Header.Set("Authorization", bearer(t, auth, "42"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestWebhookEndpoint(t *testing.T) {
	var received []byte
	uc := &mockPaymentUC{
		HandleWebhookFunc: func(_ context.Context, raw []byte) (*adapter.Ack, error) {
			received = raw
			return &adapter.Ack{OrderReference: "pkg_7_u42_1", Status: "accept", Time: 1700000000, Signature: "sig"}, nil
		},
	}
	router, _ := newTestServer(uc)

	// No Authorization header: the webhook authenticates by merchant signature.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/wayforpay", strings.NewReader(`{"orderReference":"pkg_7_u42_1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if string(received) != `{"orderReference":"pkg_7_u42_1"}` {
		t.Errorf("raw body passed through = %q", received)
	}
	var ack adapter.Ack
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Status != "accept" || ack.OrderReference != "pkg_7_u42_1" {
		t.Errorf("ack = %+v", ack)
	}
}

func TestWebhookEndpoint_SignatureMismatch(t *testing.T) {
	uc := &mockPaymentUC{
		HandleWebhookFunc: func(context.Context, []byte) (*adapter.Ack, error) {
			return nil, domain.ErrSignatureMismatch
		},
	}
	router, _ := newTestServer(uc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/wayforpay", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uc := &mockPaymentUC{
		StatusFunc: func(_ context.Context, userID, ref string) (*model.Payment, error) {
			if ref != "pkg_7_u42_1" {
				return nil, domain.ErrNotFound
			}
			return &model.Payment{
				OrderReference: ref,
				Status:         model.PaymentStatusApproved,
				Amount:         1200,
				Currency:       "UAH",
				PaidAt:         &paidAt,
			}, nil
		},
	}
	router, auth := newTestServer(uc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/status?orderReference=pkg_7_u42_1", nil)
	req.Header.Set("Authorization", bearer(t, auth, "42"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		OrderReference string  `json:"orderReference"`
		Status         string  `json:"status"`
		Amount         float64 `json:"amount"`
		PaidAt         string  `json:"paidAt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "APPROVED" || body.Amount != 1200 || body.PaidAt == "" {
		t.Errorf("response = %+v", body)
	}
}

func TestStatusEndpoint_NotFound(t *testing.T) {
	uc := &mockPaymentUC{
		StatusFunc: func(context.Context, string, string) (*model.Payment, error) {
			return nil, domain.ErrNotFound
		},
	}
	router, auth := newTestServer(uc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/status?orderReference=missing", nil)
	req.Header.Set("Authorization", bearer(t, auth, "42"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStatusEndpoint_MissingReference(t *testing.T) {
	router, auth := newTestServer(&mockPaymentUC{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/status", nil)
	req.Header.Set("Authorization", bearer(t, auth, "42"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestServer(&mockPaymentUC{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}
