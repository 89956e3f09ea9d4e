package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"edu-platform-backend/internal/infra/logging"
	red "edu-platform-backend/internal/infra/redis"
	"edu-platform-backend/internal/usecase"
)

// Server exposes the payment core over HTTP: checkout and status for
// authenticated users, the provider-facing webhook, health and metrics.
type Server struct {
	payUC             usecase.PaymentUseCase
	auth              *AuthManager
	limiter           *red.RateLimiter
	checkoutPerMinute int
	log               *zerolog.Logger
}

func NewServer(payUC usecase.PaymentUseCase, auth *AuthManager, limiter *red.RateLimiter, checkoutPerMinute int, logger *zerolog.Logger) *Server {
	compLog := logger.With().Str("component", "api").Logger()
	return &Server{
		payUC:             payUC,
		auth:              auth,
		limiter:           limiter,
		checkoutPerMinute: checkoutPerMinute,
		log:               &compLog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/payments", func(r chi.Router) {
		// Provider-facing, authenticated by merchant signature, not JWT.
		r.Post("/webhook/wayforpay", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.With(s.rateLimit).Post("/checkout", s.handleCheckout)
			r.Get("/status", s.handleStatus)
		})
	})

	return r
}

// rateLimit caps checkout attempts per user; webhook and status stay
// unthrottled (the provider controls redelivery pacing, and polling is cheap).
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		userID := logging.UserID(r.Context())
		ok, err := s.limiter.Allow(r.Context(), red.UserActionKey(userID, "checkout"), s.checkoutPerMinute, time.Minute)
		if err != nil {
			// Redis being down should not block purchases.
			s.log.Error().Err(err).Msg("rate limiter unavailable; allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			http.Error(w, "Too many checkout attempts", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
