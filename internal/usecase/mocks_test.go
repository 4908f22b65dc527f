//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"clinic-code-service/internal/domain"
	"clinic-code-service/internal/domain/model"
	"clinic-code-service/internal/domain/ports/adapter"
	"clinic-code-service/internal/domain/ports/repository"
	"clinic-code-service/internal/infra/i18n"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// --- Mock Repositories (Ports) ---

type MockHospitalCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*model.HospitalCode // by ID

	CreateFunc     func(ctx context.Context, tx repository.Tx, code *model.HospitalCode) error
	FindByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.HospitalCode, error)
}

func NewMockHospitalCodeRepo() *MockHospitalCodeRepo {
	return &MockHospitalCodeRepo{codes: map[string]*model.HospitalCode{}}
}

func (m *MockHospitalCodeRepo) Create(ctx context.Context, tx repository.Tx, code *model.HospitalCode) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, code)
	}
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

func (m *MockHospitalCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.HospitalCode, error) {
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, tx, code)
	}
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

func (m *MockHospitalCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.HospitalCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hc, ok := m.codes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *hc
	return &cp, nil
}

func (m *MockHospitalCodeRepo) ListByDoctor(ctx context.Context, tx repository.Tx, doctorID string) ([]*model.HospitalCode, error) {
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

func (m *MockHospitalCodeRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hc, ok := m.codes[id]
	if !ok {
		return domain.ErrNotFound
	}
	hc.IsActive = active
	return nil
}

func (m *MockHospitalCodeRepo) IncrementUsage(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hc, ok := m.codes[id]
	if !ok {
		return domain.ErrNotFound
	}
	hc.UsageCount++
	return nil
}

func (m *MockHospitalCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.codes, id)
	return nil
}

// Put seeds the mock store directly.
func (m *MockHospitalCodeRepo) Put(hc *model.HospitalCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *hc
	m.codes[hc.ID] = &cp
}

type MockCodeUsageRepo struct {
	mu     sync.Mutex
	usages []*model.HospitalCodeUsage

	CreateFunc func(ctx context.Context, tx repository.Tx, usage *model.HospitalCodeUsage) error
}

func NewMockCodeUsageRepo() *MockCodeUsageRepo {
	return &MockCodeUsageRepo{}
}

func (m *MockCodeUsageRepo) Create(ctx context.Context, tx repository.Tx, usage *model.HospitalCodeUsage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, usage)
	}
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

func (m *MockCodeUsageRepo) ListByCode(ctx context.Context, tx repository.Tx, codeID string) ([]*model.HospitalCodeUsage, error) {
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

func (m *MockCodeUsageRepo) ExistsByCustomerAndCode(ctx context.Context, tx repository.Tx, customerID, codeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.usages {
		if u.CustomerID == customerID && u.CodeID == codeID {
			return true, nil
		}
	}
	return false, nil
}

// --- Mock TransactionManager ---

// MockTxManager runs the callback directly with a nil tx handle.
type MockTxManager struct {
	WithTxError error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxError != nil {
		return m.WithTxError
	}
	return fn(ctx, repository.NoTX)
}

// --- Mock RateLimiter ---

type MockRateLimiter struct {
	mu       sync.Mutex
	Calls    int
	Decision adapter.Decision
	Err      error
}

func (m *MockRateLimiter) Check(ctx context.Context, identity string) (adapter.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return adapter.Decision{}, m.Err
	}
	return m.Decision, nil
}

func allowAll() *MockRateLimiter {
	return &MockRateLimiter{Decision: adapter.Decision{Allowed: true}}
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newTestTranslator loads the real embedded catalog so assertions cover the
// exact user-facing messages.
func newTestTranslator() *i18n.Translator {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	return tr
}

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }
