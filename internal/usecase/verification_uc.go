package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinic-code-service/internal/domain"
	"clinic-code-service/internal/domain/model"
	"clinic-code-service/internal/domain/ports/adapter"
	"clinic-code-service/internal/domain/ports/repository"
	"clinic-code-service/internal/infra/logging"
	"clinic-code-service/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Translator resolves an error tag to user-facing text.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Compile-time check
var _ VerificationUseCase = (*verificationUC)(nil)

// VerificationUseCase is the single entry point for answering "is this code
// usable", combining attempt throttling with code validation.
//
// Verify returns an error only for infrastructure faults (store unreachable);
// every expected condition comes back as a structured Outcome.
type VerificationUseCase interface {
	Verify(ctx context.Context, identity, rawCode string) (model.Outcome, error)
	// Validate checks a normalized code against the record store without
	// touching the rate limiter.
	Validate(ctx context.Context, code string) (model.VerificationResult, error)
}

type verificationUC struct {
	codes   repository.HospitalCodeRepository
	limiter adapter.RateLimiter
	tr      Translator
	log     *zerolog.Logger
	now     func() time.Time
}

func NewVerificationUseCase(codes repository.HospitalCodeRepository, limiter adapter.RateLimiter, tr Translator, logger *zerolog.Logger) *verificationUC {
	return &verificationUC{
		codes:   codes,
		limiter: limiter,
		tr:      tr,
		log:     logger,
		now:     time.Now,
	}
}

func (u *verificationUC) Verify(ctx context.Context, identity, rawCode string) (model.Outcome, error) {
	defer logging.TraceDuration(u.log, "VerificationUC.Verify")()

	// Blank input is rejected before the limiter so a typo'd submit does not
	// burn one of the caller's attempt slots.
	if strings.TrimSpace(rawCode) == "" {
		metrics.IncVerification("bad_request")
		return model.Outcome{Kind: model.OutcomeBadRequest, Reason: "Code is required"}, nil
	}

	decision, err := u.limiter.Check(ctx, identity)
	if err != nil {
		// Counter store hiccups must not block signups: fail open.
		u.log.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
		decision = adapter.Decision{Allowed: true}
	}
	if !decision.Allowed {
		metrics.IncRateLimited()
		return model.Outcome{Kind: model.OutcomeRateLimited, RetryAfter: decision.RetryAfter}, nil
	}

	result, err := u.Validate(ctx, model.NormalizeCode(rawCode))
	if err != nil {
		return model.Outcome{}, err
	}
	if !result.IsValid {
		metrics.IncVerification(string(result.Error))
		return model.Outcome{Kind: model.OutcomeInvalid, Error: result.Error, Message: result.Message}, nil
	}
	metrics.IncVerification("valid")
	return model.Outcome{Kind: model.OutcomeValid, Code: result.Code}, nil
}

// Validate assumes input already normalized via model.NormalizeCode. State
// checks run in a fixed order; the first failing condition wins.
func (u *verificationUC) Validate(ctx context.Context, code string) (model.VerificationResult, error) {
	if !model.CodePattern.MatchString(code) {
		return u.fail(model.ErrInvalidCodeFormat), nil
	}

	hc, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return u.fail(model.ErrCodeNotFound), nil
		}
		return model.VerificationResult{}, err
	}

	now := u.now()
	switch {
	case !hc.IsActive:
		return u.fail(model.ErrCodeInactive), nil
	case hc.ExpiresAt != nil && !hc.ExpiresAt.After(now):
		return u.fail(model.ErrCodeExpired), nil
	case hc.MaxUsage != nil && hc.UsageCount >= *hc.MaxUsage:
		return u.fail(model.ErrCodeUsageExceeded), nil
	}
	return model.VerificationResult{IsValid: true, Code: hc}, nil
}

func (u *verificationUC) fail(tag model.VerificationError) model.VerificationResult {
	return model.VerificationResult{
		IsValid: false,
		Error:   tag,
		Message: u.tr.T(string(tag)),
	}
}
