package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"edu-platform-backend/internal/domain"
	"edu-platform-backend/internal/domain/model"
	"edu-platform-backend/internal/infra/logging"
)

type checkoutRequest struct {
	PackageID int64 `json:"packageId"`
}

type checkoutResponse struct {
	PaymentID      string            `json:"paymentId"`
	OrderReference string            `json:"orderReference"`
	ActionURL      string            `json:"actionUrl"`
	Fields         map[string]string `json:"fields"`
}

type statusResponse struct {
	OrderReference string     `json:"orderReference"`
	Status         string     `json:"status"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	PaidAt         *time.Time `json:"paidAt,omitempty"`
	FailReason     *string    `json:"failReason,omitempty"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PackageID <= 0 {
		http.Error(w, "packageId is required", http.StatusBadRequest)
		return
	}

	res, err := s.payUC.Checkout(ctx, logging.UserID(ctx), req.PackageID)
	if err != nil {
		s.writeError(w, r, err, "checkout failed")
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		PaymentID:      res.PaymentID,
		OrderReference: res.OrderReference,
		ActionURL:      res.ActionURL,
		Fields:         res.Fields,
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	ack, err := s.payUC.HandleWebhook(ctx, body)
	if err != nil {
		s.writeError(w, r, err, "webhook processing failed")
		return
	}

	writeJSON(w, http.StatusOK, ack)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderReference := r.URL.Query().Get("orderReference")
	if orderReference == "" {
		http.Error(w, "orderReference is required", http.StatusBadRequest)
		return
	}

	p, err := s.payUC.Status(ctx, logging.UserID(ctx), orderReference)
	if err != nil {
		s.writeError(w, r, err, "status lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, paymentStatusBody(p))
}

func paymentStatusBody(p *model.Payment) statusResponse {
	return statusResponse{
		OrderReference: p.OrderReference,
		Status:         string(p.Status),
		Amount:         p.Amount,
		Currency:       p.Currency,
		PaidAt:         p.PaidAt,
		FailReason:     p.FailReason,
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	l := logging.With(r.Context(), s.log)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownTemplate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrSignatureMismatch):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		l.Error().Err(err).Msg(msg)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
