//go:build !integration

package web_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"clinic-code-service/internal/domain"
	"clinic-code-service/internal/domain/model"
	"clinic-code-service/internal/domain/ports/repository"
	"clinic-code-service/internal/infra/i18n"
	"clinic-code-service/internal/infra/ratelimit"
	"clinic-code-service/internal/infra/web"
	"clinic-code-service/internal/usecase"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

const testJWTSecret = "test-secret"

// --- in-memory repositories backing the handler tests ---

type memCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*model.HospitalCode
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{codes: map[string]*model.HospitalCode{}}
}

func (m *memCodeRepo) Create(ctx context.Context, tx repository.Tx, code *model.HospitalCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.codes {
		if existing.Code == code.Code {
			return domain.ErrAlreadyExists
		}
	}
	cp := *code
	m.codes[code.ID] = &cp
	return nil
}

func (m *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.HospitalCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, hc := range m.codes {
		if hc.Code == code {
			cp := *hc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.HospitalCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hc, ok := m.codes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *hc
	return &cp, nil
}

func (m *memCodeRepo) ListByDoctor(ctx context.Context, tx repository.Tx, doctorID string) ([]*model.HospitalCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.HospitalCode
	for _, hc := range m.codes {
		if hc.DoctorID == doctorID {
			cp := *hc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCodeRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hc, ok := m.codes[id]
	if !ok {
		return domain.ErrNotFound
	}
	hc.IsActive = active
	return nil
}

func (m *memCodeRepo) IncrementUsage(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hc, ok := m.codes[id]
	if !ok {
		return domain.ErrNotFound
	}
	hc.UsageCount++
	return nil
}

func (m *memCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.codes, id)
	return nil
}

func (m *memCodeRepo) put(hc *model.HospitalCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *hc
	m.codes[hc.ID] = &cp
}

type memUsageRepo struct {
	mu     sync.Mutex
	usages []*model.HospitalCodeUsage
}

func newMemUsageRepo() *memUsageRepo { return &memUsageRepo{} }

func (m *memUsageRepo) Create(ctx context.Context, tx repository.Tx, usage *model.HospitalCodeUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.usages {
		if u.CustomerID == usage.CustomerID && u.CodeID == usage.CodeID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *usage
	m.usages = append(m.usages, &cp)
	return nil
}

func (m *memUsageRepo) ListByCode(ctx context.Context, tx repository.Tx, codeID string) ([]*model.HospitalCodeUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.HospitalCodeUsage
	for _, u := range m.usages {
		if u.CodeID == codeID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUsageRepo) ExistsByCustomerAndCode(ctx context.Context, tx repository.Tx, customerID, codeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.usages {
		if u.CustomerID == customerID && u.CodeID == codeID {
			return true, nil
		}
	}
	return false, nil
}

type passTxManager struct{}

func (passTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// --- test server assembly ---

type testEnv struct {
	handler   http.Handler
	auth      *web.AuthManager
	codeRepo  *memCodeRepo
	usageRepo *memUsageRepo
}

func newTestEnv() *testEnv {
	logger := zerolog.New(io.Discard)
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}

	codeRepo := newMemCodeRepo()
	usageRepo := newMemUsageRepo()
	limiter := ratelimit.NewMemoryLimiter(ratelimit.DefaultWindow, ratelimit.DefaultMaxAttempts)

	verifyUC := usecase.NewVerificationUseCase(codeRepo, limiter, tr, &logger)
	lifecycleUC := usecase.NewLifecycleUseCase(codeRepo, usageRepo, passTxManager{}, &logger)
	auth := web.NewAuthManager(testJWTSecret, false, "", time.Hour)
	srv := web.NewServer(verifyUC, lifecycleUC, auth, tr, &logger)

	return &testEnv{
		handler:   srv.Router(),
		auth:      auth,
		codeRepo:  codeRepo,
		usageRepo: usageRepo,
	}
}

func (e *testEnv) seedCode(code, doctorID string, mutate func(*model.HospitalCode)) *model.HospitalCode {
	hc, err := model.NewHospitalCode(uuid.NewString(), code, doctorID, "Main Clinic", nil, nil)
	if err != nil {
		panic(err)
	}
	if mutate != nil {
		mutate(hc)
	}
	e.codeRepo.put(hc)
	return hc
}

// token mints a session token for the given subject and role.
func (e *testEnv) token(subjectID, role string) string {
	rec := httptest.NewRecorder()
	tok, err := e.auth.Mint(rec, subjectID, role)
	if err != nil {
		panic(err)
	}
	return tok
}

func intPtr(v int) *int { return &v }
