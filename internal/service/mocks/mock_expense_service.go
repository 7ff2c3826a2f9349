package mocks

import (
	"context"
	"io"

	"expensetracker/internal/model"
	"expensetracker/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockExpenseService struct {
	mock.Mock
}

func (m *MockExpenseService) Add(ctx context.Context, userID string, in service.ExpenseInput) (*model.Expense, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Expense), args.Error(1)
}

func (m *MockExpenseService) List(ctx context.Context, userID string, limit, offset int) (*service.ExpenseListResult, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExpenseListResult), args.Error(1)
}

func (m *MockExpenseService) Get(ctx context.Context, userID, id string) (*model.Expense, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Expense), args.Error(1)
}

func (m *MockExpenseService) Update(ctx context.Context, userID, id string, in service.ExpenseInput) (*model.Expense, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Expense), args.Error(1)
}

func (m *MockExpenseService) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockExpenseService) Summary(ctx context.Context, userID string) (*service.DashboardSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DashboardSummary), args.Error(1)
}

func (m *MockExpenseService) AttachReceipt(ctx context.Context, userID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Expense, error) {
	args := m.Called(ctx, userID, id, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Expense), args.Error(1)
}

func (m *MockExpenseService) ReceiptURL(ctx context.Context, userID, id string) (string, error) {
	args := m.Called(ctx, userID, id)
	return args.String(0), args.Error(1)
}
