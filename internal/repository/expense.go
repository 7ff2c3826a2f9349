package repository

import (
	"context"

	"expensetracker/internal/model"
)

// ExpenseRepository defines data access for ledger entries using SQL queries only.
// Every query is scoped to a single owning user; the repository never returns
// another user's rows from the ListByUser or SummarizeByUser calls.
type ExpenseRepository interface {
	// Create inserts a new expense record and returns the stored row.
	Create(ctx context.Context, e *model.Expense) (*model.Expense, error)

	// FindByID returns an expense by its ID regardless of owner.
	// Ownership checks belong to the service layer.
	FindByID(ctx context.Context, id string) (*model.Expense, error)

	// ListByUser returns a page of the user's entries ordered by date descending,
	// plus the total row count for the user.
	ListByUser(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.Expense], error)

	// Update rewrites the mutable fields of an expense row and returns the stored row.
	Update(ctx context.Context, e *model.Expense) (*model.Expense, error)

	// Delete removes an expense by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// SetReceiptPath stores the object-storage key of the entry's receipt.
	SetReceiptPath(ctx context.Context, id, path string) error

	// SummarizeByUser aggregates the user's entries: income/expense totals and
	// per-category sums of expenses only.
	SummarizeByUser(ctx context.Context, userID string) (*Summary, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// CategoryTotal is a per-category sum of expense amounts.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Summary holds the aggregates backing the dashboard.
type Summary struct {
	TotalIncome  float64
	TotalExpense float64
	Categories   []CategoryTotal
}
