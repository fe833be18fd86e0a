package mocks

import (
	"context"

	"tipsettle/internal/port"
)

// MockStore is a port.Store backed by testify mock repositories. WithinTx runs fn against the
// store itself, so expectations set on the repositories apply inside and outside transactions.
type MockStore struct {
	RuleSetRepo    *MockRuleSetRepo
	EmployeeRepo   *MockEmployeeRepo
	PaymentRepo    *MockPaymentRepo
	ShiftRepo      *MockShiftRepo
	BatchRepo      *MockBatchRepo
	AdjustmentRepo *MockAdjustmentRepo
	DisputeRepo    *MockDisputeRepo
	ExportRunRepo  *MockExportRunRepo

	// TxCount is the number of WithinTx calls.
	TxCount int
}

// NewMockStore returns a MockStore with fresh repository mocks.
func NewMockStore() *MockStore {
	return &MockStore{
		RuleSetRepo:    new(MockRuleSetRepo),
		EmployeeRepo:   new(MockEmployeeRepo),
		PaymentRepo:    new(MockPaymentRepo),
		ShiftRepo:      new(MockShiftRepo),
		BatchRepo:      new(MockBatchRepo),
		AdjustmentRepo: new(MockAdjustmentRepo),
		DisputeRepo:    new(MockDisputeRepo),
		ExportRunRepo:  new(MockExportRunRepo),
	}
}

func (s *MockStore) RuleSets() port.RuleSetRepository       { return s.RuleSetRepo }
func (s *MockStore) Employees() port.EmployeeRepository     { return s.EmployeeRepo }
func (s *MockStore) Payments() port.PaymentRepository       { return s.PaymentRepo }
func (s *MockStore) Shifts() port.ShiftRepository           { return s.ShiftRepo }
func (s *MockStore) Batches() port.BatchRepository          { return s.BatchRepo }
func (s *MockStore) Adjustments() port.AdjustmentRepository { return s.AdjustmentRepo }
func (s *MockStore) Disputes() port.DisputeRepository       { return s.DisputeRepo }
func (s *MockStore) ExportRuns() port.ExportRunRepository   { return s.ExportRunRepo }

func (s *MockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Store) error) error {
	s.TxCount++
	return fn(ctx, s)
}
