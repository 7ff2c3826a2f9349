package model

import "time"

// Entry types. Every entry is either money coming in or going out.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Expense represents a single ledger entry belonging to a user.
// Date carries day precision only; the time portion is always midnight UTC.
type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	ExpenseType string    `json:"expense_type"`
	Date        time.Time `json:"date"`
	ReceiptPath string    `json:"receipt_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
