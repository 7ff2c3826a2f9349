package postgres

import (
	"context"
	"database/sql"

	"expensetracker/internal/model"
	"expensetracker/internal/repository"
)

// ExpensePostgres is a PostgreSQL implementation of repository.ExpenseRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ExpensePostgres struct {
	db *sql.DB
}

// NewExpensePostgres creates a new ExpensePostgres repository.
func NewExpensePostgres(db *sql.DB) *ExpensePostgres {
	return &ExpensePostgres{db: db}
}

var _ repository.ExpenseRepository = (*ExpensePostgres)(nil)

const expenseColumns = `id, user_id, title, amount, category, expense_type, date, receipt_path, created_at`

// Create inserts a new expense row and returns the stored record.
func (r *ExpensePostgres) Create(ctx context.Context, e *model.Expense) (*model.Expense, error) {
	const q = `
		INSERT INTO expenses (id, user_id, title, amount, category, expense_type, date, receipt_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + expenseColumns
	row := r.db.QueryRowContext(ctx, q,
		e.ID,
		e.UserID,
		e.Title,
		e.Amount,
		e.Category,
		e.ExpenseType,
		e.Date,
		e.ReceiptPath,
		e.CreatedAt,
	)
	return scanExpense(row)
}

// FindByID fetches a single expense by its ID.
func (r *ExpensePostgres) FindByID(ctx context.Context, id string) (*model.Expense, error) {
	const q = `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE id = $1
	`
	return scanExpense(r.db.QueryRowContext(ctx, q, id))
}

// ListByUser returns the user's expenses newest-date first with LIMIT/OFFSET pagination
// and a total count.
func (r *ExpensePostgres) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.Expense], error) {
	// Count total rows for the user
	const qCount = `SELECT COUNT(*) FROM expenses WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, userID).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, userID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Expense, 0)
	for rows.Next() {
		var e model.Expense
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Title,
			&e.Amount,
			&e.Category,
			&e.ExpenseType,
			&e.Date,
			&e.ReceiptPath,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Expense]{
		Items: items,
		Total: total,
	}, nil
}

// Update rewrites the mutable fields of an expense row and returns the stored record.
func (r *ExpensePostgres) Update(ctx context.Context, e *model.Expense) (*model.Expense, error) {
	const q = `
		UPDATE expenses
		SET title = $2, amount = $3, category = $4, expense_type = $5, date = $6
		WHERE id = $1
		RETURNING ` + expenseColumns
	row := r.db.QueryRowContext(ctx, q,
		e.ID,
		e.Title,
		e.Amount,
		e.Category,
		e.ExpenseType,
		e.Date,
	)
	return scanExpense(row)
}

// Delete removes an expense by ID. It does not return an error if the row does not exist.
func (r *ExpensePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM expenses WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// SetReceiptPath stores the object-storage key of the entry's receipt.
func (r *ExpensePostgres) SetReceiptPath(ctx context.Context, id, path string) error {
	const q = `UPDATE expenses SET receipt_path = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, path)
	return err
}

// SummarizeByUser aggregates income/expense totals and per-category expense sums in SQL.
func (r *ExpensePostgres) SummarizeByUser(ctx context.Context, userID string) (*repository.Summary, error) {
	const qTotals = `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE expense_type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE expense_type = 'expense'), 0)
		FROM expenses
		WHERE user_id = $1
	`
	var s repository.Summary
	if err := r.db.QueryRowContext(ctx, qTotals, userID).Scan(&s.TotalIncome, &s.TotalExpense); err != nil {
		return nil, err
	}

	const qCategories = `
		SELECT category, SUM(amount)
		FROM expenses
		WHERE user_id = $1 AND expense_type = 'expense'
		GROUP BY category
		ORDER BY SUM(amount) DESC, category ASC
	`
	rows, err := r.db.QueryContext(ctx, qCategories, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.Categories = make([]repository.CategoryTotal, 0)
	for rows.Next() {
		var ct repository.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Amount); err != nil {
			return nil, err
		}
		s.Categories = append(s.Categories, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &s, nil
}

func scanExpense(row *sql.Row) (*model.Expense, error) {
	var e model.Expense
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&e.Amount,
		&e.Category,
		&e.ExpenseType,
		&e.Date,
		&e.ReceiptPath,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
