package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/model"
	"expensetracker/internal/repository"
	"expensetracker/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("entry not found")
	ErrForbidden  = errors.New("entry belongs to another user")
	ErrNoReceipt  = errors.New("entry has no receipt")
	ErrReaderNil  = errors.New("reader is nil")
)

// receiptURLExpiry bounds how long a presigned receipt link stays valid.
const receiptURLExpiry = 15 * time.Minute

// ExpenseInput carries the user-editable fields of a ledger entry.
type ExpenseInput struct {
	Title       string
	Amount      float64
	Category    string
	ExpenseType string
	Date        time.Time
}

// ExpenseListResult is the service-level DTO for paginated entries.
type ExpenseListResult struct {
	Items []model.Expense `json:"data"`
	Total int             `json:"total"`
}

// DashboardSummary mirrors the dashboard view: income/expense totals, net balance,
// and parallel label/value slices for the category chart.
type DashboardSummary struct {
	TotalIncome  float64   `json:"total_income"`
	TotalExpense float64   `json:"total_expense"`
	NetBalance   float64   `json:"net_balance"`
	Labels       []string  `json:"labels"`
	Values       []float64 `json:"values"`
}

// ExpenseService defines the use cases for handling a user's ledger entries.
// Every operation is scoped to the acting user; touching another user's entry
// yields ErrForbidden.
type ExpenseService interface {
	// Add creates a new entry for the user. Missing expense_type defaults to
	// "expense" and a zero date defaults to today.
	Add(ctx context.Context, userID string, in ExpenseInput) (*model.Expense, error)

	// List returns the user's entries, newest date first, using limit/offset.
	List(ctx context.Context, userID string, limit, offset int) (*ExpenseListResult, error)

	// Get returns a single entry owned by the user.
	Get(ctx context.Context, userID, id string) (*model.Expense, error)

	// Update rewrites an entry owned by the user.
	Update(ctx context.Context, userID, id string, in ExpenseInput) (*model.Expense, error)

	// Delete removes an entry owned by the user, including its stored receipt.
	Delete(ctx context.Context, userID, id string) error

	// Summary aggregates the user's entries for the dashboard.
	Summary(ctx context.Context, userID string) (*DashboardSummary, error)

	// AttachReceipt uploads a receipt image to object storage and links it to the
	// entry, rolling the upload back if the link cannot be saved.
	AttachReceipt(ctx context.Context, userID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Expense, error)

	// ReceiptURL returns a time-limited download URL for the entry's receipt.
	ReceiptURL(ctx context.Context, userID, id string) (string, error)
}

// expenseService is a concrete implementation of ExpenseService.
type expenseService struct {
	store storage.Storage
	repo  repository.ExpenseRepository
}

// NewExpenseService constructs a new ExpenseService.
func NewExpenseService(store storage.Storage, repo repository.ExpenseRepository) ExpenseService {
	return &expenseService{store: store, repo: repo}
}

func (s *expenseService) Add(ctx context.Context, userID string, in ExpenseInput) (*model.Expense, error) {
	if in.ExpenseType == "" {
		in.ExpenseType = model.TypeExpense
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	e := &model.Expense{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       in.Title,
		Amount:      in.Amount,
		Category:    in.Category,
		ExpenseType: in.ExpenseType,
		Date:        in.Date,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return stored, nil
}

// List returns paginated entries without exposing repository types.
func (s *expenseService) List(ctx context.Context, userID string, limit, offset int) (*ExpenseListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByUser(ctx, userID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ExpenseListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *expenseService) Get(ctx context.Context, userID, id string) (*model.Expense, error) {
	return s.findOwned(ctx, userID, id)
}

func (s *expenseService) Update(ctx context.Context, userID, id string, in ExpenseInput) (*model.Expense, error) {
	e, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	e.Title = in.Title
	e.Amount = in.Amount
	e.Category = in.Category
	if in.ExpenseType != "" {
		e.ExpenseType = in.ExpenseType
	}
	if !in.Date.IsZero() {
		e.Date = in.Date
	}

	stored, err := s.repo.Update(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return stored, nil
}

// Delete removes the receipt from storage first, then deletes the row.
func (s *expenseService) Delete(ctx context.Context, userID, id string) error {
	e, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep the DB row so the receipt
	// reference is not lost.
	if e.ReceiptPath != "" {
		if err := s.store.Delete(ctx, e.ReceiptPath); err != nil {
			return fmt.Errorf("delete receipt: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *expenseService) Summary(ctx context.Context, userID string) (*DashboardSummary, error) {
	agg, err := s.repo.SummarizeByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &DashboardSummary{
		TotalIncome:  agg.TotalIncome,
		TotalExpense: agg.TotalExpense,
		NetBalance:   agg.TotalIncome - agg.TotalExpense,
		Labels:       make([]string, 0, len(agg.Categories)),
		Values:       make([]float64, 0, len(agg.Categories)),
	}
	for _, ct := range agg.Categories {
		out.Labels = append(out.Labels, ct.Category)
		out.Values = append(out.Values, ct.Amount)
	}
	return out, nil
}

func (s *expenseService) AttachReceipt(ctx context.Context, userID, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Expense, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	e, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// Generate object key using UUID + original extension
	ext := filepath.Ext(originalFilename)
	key := filepath.ToSlash(filepath.Join("receipts", uuid.New().String()+ext))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
			"expense-id":        id,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	if err := s.repo.SetReceiptPath(ctx, id, objInfo.Key); err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	// A replaced receipt leaves its old object behind; clean it up best effort.
	if e.ReceiptPath != "" && e.ReceiptPath != objInfo.Key {
		_ = s.store.Delete(ctx, e.ReceiptPath)
	}

	e.ReceiptPath = objInfo.Key
	return e, nil
}

func (s *expenseService) ReceiptURL(ctx context.Context, userID, id string) (string, error) {
	e, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if e.ReceiptPath == "" {
		return "", ErrNoReceipt
	}
	return s.store.PresignGet(ctx, e.ReceiptPath, receiptURLExpiry)
}

// findOwned loads an entry and enforces that it belongs to the acting user.
func (s *expenseService) findOwned(ctx context.Context, userID, id string) (*model.Expense, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if e.UserID != userID {
		return nil, ErrForbidden
	}
	return e, nil
}
