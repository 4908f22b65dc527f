package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-code-service/internal/domain"
	"clinic-code-service/internal/domain/model"
	"clinic-code-service/internal/domain/ports/repository"
	"clinic-code-service/internal/infra/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// codeGenAttempts bounds retries when a freshly generated code string
// collides with an existing one. With 26^3 * 10^5 possible codes a second
// collision in a row is effectively a broken random source.
const codeGenAttempts = 5

// Compile-time check
var _ LifecycleUseCase = (*lifecycleUC)(nil)

// LifecycleUseCase owns hospital-code management: creation, activation
// toggling, deletion, listings, and redemption recording. All operations
// except RecordRedemption act on behalf of the issuing doctor and enforce
// ownership.
type LifecycleUseCase interface {
	Create(ctx context.Context, doctorID, name string, maxUsage *int, expiresAt *time.Time) (*model.HospitalCode, error)
	SetActive(ctx context.Context, doctorID, codeID string, active bool) (*model.HospitalCode, error)
	Delete(ctx context.Context, doctorID, codeID string) error
	ListByDoctor(ctx context.Context, doctorID string) ([]*model.HospitalCode, error)
	ListUsage(ctx context.Context, doctorID, codeID string) ([]*model.HospitalCodeUsage, error)
	// RecordRedemption registers that a customer completed signup with a
	// code: one usage row plus a counter increment, atomically. A customer
	// can redeem a given code at most once.
	RecordRedemption(ctx context.Context, customerID, codeID string) (*model.HospitalCodeUsage, error)
}

type lifecycleUC struct {
	codes  repository.HospitalCodeRepository
	usages repository.CodeUsageRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
	now    func() time.Time
}

func NewLifecycleUseCase(codes repository.HospitalCodeRepository, usages repository.CodeUsageRepository, tm repository.TransactionManager, logger *zerolog.Logger) *lifecycleUC {
	return &lifecycleUC{
		codes:  codes,
		usages: usages,
		tm:     tm,
		log:    logger,
		now:    time.Now,
	}
}

func (u *lifecycleUC) Create(ctx context.Context, doctorID, name string, maxUsage *int, expiresAt *time.Time) (*model.HospitalCode, error) {
	defer logging.TraceDuration(u.log, "LifecycleUC.Create")()

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := generateHospitalCode()
		if err != nil {
			return nil, err
		}
		hc, err := model.NewHospitalCode(uuid.NewString(), code, doctorID, name, maxUsage, expiresAt)
		if err != nil {
			return nil, err
		}
		err = u.codes.Create(ctx, repository.NoTX, hc)
		if err == nil {
			u.log.Info().Str("doctor_id", doctorID).Str("code_id", hc.ID).Msg("hospital code created")
			return hc, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		u.log.Debug().Str("code", code).Msg("generated code collided, retrying")
	}
	return nil, domain.ErrAlreadyExists
}

func (u *lifecycleUC) SetActive(ctx context.Context, doctorID, codeID string, active bool) (*model.HospitalCode, error) {
	defer logging.TraceDuration(u.log, "LifecycleUC.SetActive")()

	hc, err := u.ownedCode(ctx, repository.NoTX, doctorID, codeID)
	if err != nil {
		return nil, err
	}
	if err := u.codes.SetActive(ctx, repository.NoTX, codeID, active); err != nil {
		return nil, err
	}
	hc.IsActive = active
	hc.UpdatedAt = u.now()
	return hc, nil
}

func (u *lifecycleUC) Delete(ctx context.Context, doctorID, codeID string) error {
	defer logging.TraceDuration(u.log, "LifecycleUC.Delete")()

	if _, err := u.ownedCode(ctx, repository.NoTX, doctorID, codeID); err != nil {
		return err
	}
	return u.codes.Delete(ctx, repository.NoTX, codeID)
}

func (u *lifecycleUC) ListByDoctor(ctx context.Context, doctorID string) ([]*model.HospitalCode, error) {
	return u.codes.ListByDoctor(ctx, repository.NoTX, doctorID)
}

func (u *lifecycleUC) ListUsage(ctx context.Context, doctorID, codeID string) ([]*model.HospitalCodeUsage, error) {
	if _, err := u.ownedCode(ctx, repository.NoTX, doctorID, codeID); err != nil {
		return nil, err
	}
	return u.usages.ListByCode(ctx, repository.NoTX, codeID)
}

func (u *lifecycleUC) RecordRedemption(ctx context.Context, customerID, codeID string) (*model.HospitalCodeUsage, error) {
	defer logging.TraceDuration(u.log, "LifecycleUC.RecordRedemption")()

	if customerID == "" || codeID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var usage *model.HospitalCodeUsage
	// The row lock taken by FindByID inside the tx serializes concurrent
	// redemptions of one code, so the cap check and increment cannot race.
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		hc, err := u.codes.FindByID(ctx, tx, codeID)
		if err != nil {
			return err
		}
		if !hc.Usable(u.now()) {
			return domain.ErrCodeNotUsable
		}

		redeemed, err := u.usages.ExistsByCustomerAndCode(ctx, tx, customerID, codeID)
		if err != nil {
			return err
		}
		if redeemed {
			return domain.ErrDuplicateRedemption
		}

		nu, err := model.NewHospitalCodeUsage(ulid.Make().String(), codeID, customerID)
		if err != nil {
			return err
		}
		if err := u.usages.Create(ctx, tx, nu); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrDuplicateRedemption
			}
			return err
		}
		if err := u.codes.IncrementUsage(ctx, tx, codeID); err != nil {
			return err
		}
		usage = nu
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("code_id", codeID).Msg("hospital code redeemed")
	return usage, nil
}

func (u *lifecycleUC) ownedCode(ctx context.Context, tx repository.Tx, doctorID, codeID string) (*model.HospitalCode, error) {
	hc, err := u.codes.FindByID(ctx, tx, codeID)
	if err != nil {
		return nil, err
	}
	if hc.DoctorID != doctorID {
		return nil, domain.ErrUnauthorized
	}
	return hc, nil
}
