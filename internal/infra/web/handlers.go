package web

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"clinic-code-service/internal/domain"
	"clinic-code-service/internal/domain/model"
	"clinic-code-service/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
)

// ---- wire types ----

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type rateLimitResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

type invalidCodeResponse struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type validCodeResponse struct {
	IsValid bool          `json:"isValid"`
	Code    *codeResponse `json:"code"`
}

type codeResponse struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	DoctorID   string     `json:"doctor_id"`
	Name       string     `json:"name"`
	IsActive   bool       `json:"is_active"`
	UsageCount int        `json:"usage_count"`
	MaxUsage   *int       `json:"max_usage,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toCodeResponse(hc *model.HospitalCode) *codeResponse {
	return &codeResponse{
		ID:         hc.ID,
		Code:       hc.Code,
		DoctorID:   hc.DoctorID,
		Name:       hc.Name,
		IsActive:   hc.IsActive,
		UsageCount: hc.UsageCount,
		MaxUsage:   hc.MaxUsage,
		ExpiresAt:  hc.ExpiresAt,
		CreatedAt:  hc.CreatedAt,
		UpdatedAt:  hc.UpdatedAt,
	}
}

type usageResponse struct {
	ID         string    `json:"id"`
	CodeID     string    `json:"code_id"`
	CustomerID string    `json:"customer_id"`
	UsedAt     time.Time `json:"used_at"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// clientIdentity derives the rate-limit key for a request: first hop of
// X-Forwarded-For, then X-Real-IP, then the literal "unknown".
func clientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	return "unknown"
}

// ---- public verification endpoint ----

type verifyRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Code is required"})
		return
	}

	outcome, err := s.verifyUC.Verify(ctx, clientIdentity(r), req.Code)
	if err != nil {
		s.log.Error().Err(err).Msg("verification failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	switch outcome.Kind {
	case model.OutcomeRateLimited:
		writeJSON(w, http.StatusTooManyRequests, rateLimitResponse{
			Error:      "HOSPITAL_CODE_RATE_LIMIT_EXCEEDED",
			Message:    s.tr.T(string(model.ErrRateLimitExceeded)),
			RetryAfter: retrySeconds(outcome.RetryAfter),
		})
	case model.OutcomeBadRequest:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: outcome.Reason})
	case model.OutcomeInvalid:
		writeJSON(w, http.StatusBadRequest, invalidCodeResponse{
			IsValid: false,
			Message: outcome.Message,
			Error:   string(outcome.Error),
		})
	case model.OutcomeValid:
		writeJSON(w, http.StatusOK, validCodeResponse{IsValid: true, Code: toCodeResponse(outcome.Code)})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

// retrySeconds rounds a retry hint up to whole seconds, clamped at zero.
func retrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// ---- management endpoints (doctor role) ----

type createCodeRequest struct {
	Name      string     `json:"name"`
	MaxUsage  *int       `json:"max_usage"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (s *Server) handleCreateCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Name is required"})
		return
	}

	hc, err := s.lifecycleUC.Create(ctx, doctorID(ctx), strings.TrimSpace(req.Name), req.MaxUsage, req.ExpiresAt)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCodeResponse(hc))
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	codes, err := s.lifecycleUC.ListByDoctor(ctx, doctorID(ctx))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	out := make([]*codeResponse, 0, len(codes))
	for _, hc := range codes {
		out = append(out, toCodeResponse(hc))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*codeResponse `json:"data"`
	}{Data: out})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	hc, err := s.lifecycleUC.SetActive(ctx, doctorID(ctx), chi.URLParam(r, "id"), req.Active)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCodeResponse(hc))
}

func (s *Server) handleDeleteCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.lifecycleUC.Delete(ctx, doctorID(ctx), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	usages, err := s.lifecycleUC.ListUsage(ctx, doctorID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	out := make([]*usageResponse, 0, len(usages))
	for _, u := range usages {
		out = append(out, &usageResponse{ID: u.ID, CodeID: u.CodeID, CustomerID: u.CustomerID, UsedAt: u.UsedAt})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*usageResponse `json:"data"`
	}{Data: out})
}

// ---- redemption endpoint (service role) ----

type redeemRequest struct {
	CustomerID string `json:"customer_id"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "customer_id is required"})
		return
	}

	usage, err := s.lifecycleUC.RecordRedemption(ctx, req.CustomerID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	metrics.IncRedemption()
	writeJSON(w, http.StatusCreated, &usageResponse{ID: usage.ID, CodeID: usage.CodeID, CustomerID: usage.CustomerID, UsedAt: usage.UsedAt})
}

// writeDomainError maps expected domain errors to transport responses and
// everything else to an opaque 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:   string(model.ErrUnauthorized),
			Message: s.tr.T(string(model.ErrUnauthorized)),
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   string(model.ErrCodeNotFound),
			Message: s.tr.T(string(model.ErrCodeNotFound)),
		})
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   string(model.ErrDuplicateCode),
			Message: s.tr.T(string(model.ErrDuplicateCode)),
		})
	case errors.Is(err, domain.ErrDuplicateRedemption):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "DUPLICATE_REDEMPTION",
			Message: "customer already redeemed this code",
		})
	case errors.Is(err, domain.ErrCodeNotUsable):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "CODE_NOT_USABLE",
			Message: "code is no longer usable",
		})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request"})
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}
