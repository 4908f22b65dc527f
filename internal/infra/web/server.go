package web

import (
	"context"
	"net/http"

	"clinic-code-service/internal/infra/logging"
	"clinic-code-service/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type ctxKey string

const ctxKeySubject ctxKey = "subject"

// Server wires the HTTP surface to the use cases. Route layout:
//
//	POST /api/v1/hospital-codes/verify            public, rate limited
//	POST /api/v1/hospital-codes                   doctor session
//	GET  /api/v1/hospital-codes                   doctor session
//	PATCH /api/v1/hospital-codes/{id}/active      doctor session
//	DELETE /api/v1/hospital-codes/{id}            doctor session
//	GET  /api/v1/hospital-codes/{id}/usages       doctor session
//	POST /api/v1/hospital-codes/{id}/redeem       service token
type Server struct {
	verifyUC    usecase.VerificationUseCase
	lifecycleUC usecase.LifecycleUseCase
	auth        *AuthManager
	tr          usecase.Translator
	log         *zerolog.Logger
}

func NewServer(
	verifyUC usecase.VerificationUseCase,
	lifecycleUC usecase.LifecycleUseCase,
	auth *AuthManager,
	tr usecase.Translator,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		verifyUC:    verifyUC,
		lifecycleUC: lifecycleUC,
		auth:        auth,
		tr:          tr,
		log:         logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(traceID)
	r.Use(requestLog(s.log))
	r.Use(recoverer(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/hospital-codes", func(r chi.Router) {
		r.Post("/verify", s.handleVerify)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(RoleDoctor))
			r.Post("/", s.handleCreateCode)
			r.Get("/", s.handleListCodes)
			r.Patch("/{id}/active", s.handleSetActive)
			r.Delete("/{id}", s.handleDeleteCode)
			r.Get("/{id}/usages", s.handleListUsages)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(RoleService, RoleDoctor))
			r.Post("/{id}/redeem", s.handleRedeem)
		})
	})

	return r
}

// requireRole authenticates the request and admits it only when the session
// role is one of the given roles. The subject ID lands in the request context.
func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := s.auth.ParseFromRequest(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Authentication required"})
				return
			}
			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				writeJSON(w, http.StatusForbidden, errorResponse{Error: "Insufficient role"})
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeySubject, claims.Subject)
			ctx = logging.WithDoctorID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// doctorID returns the authenticated subject stored by requireRole.
func doctorID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySubject).(string); ok {
		return v
	}
	return ""
}
