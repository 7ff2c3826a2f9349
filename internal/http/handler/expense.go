package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"expensetracker/internal/http/middleware"
	"expensetracker/internal/service"
)

// expenseRequest is the body of add and edit calls.
// Date uses YYYY-MM-DD, matching the ledger's day precision.
type expenseRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Category    string  `json:"category" validate:"required,max=50"`
	ExpenseType string  `json:"expense_type" validate:"omitempty,oneof=income expense"`
	Date        string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (r expenseRequest) toInput() service.ExpenseInput {
	in := service.ExpenseInput{
		Title:       r.Title,
		Amount:      r.Amount,
		Category:    r.Category,
		ExpenseType: r.ExpenseType,
	}
	if r.Date != "" {
		// Format already checked by validation
		in.Date, _ = time.Parse("2006-01-02", r.Date)
	}
	return in
}

// Dashboard returns the user's totals and category breakdown.
func Dashboard(expSvc service.ExpenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserIDFromCtx(c)
		s, err := expSvc.Summary(c.UserContext(), userID)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(s)
	}
}

// ListExpenses returns the user's entries with limit & offset.
func ListExpenses(expSvc service.ExpenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		userID := middleware.UserIDFromCtx(c)
		res, err := expSvc.List(c.UserContext(), userID, limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// AddExpense creates a new entry for the user.
func AddExpense(expSvc service.ExpenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req expenseRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid entry fields")
		}

		userID := middleware.UserIDFromCtx(c)
		e, err := expSvc.Add(c.UserContext(), userID, req.toInput())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

// GetExpense returns a single entry by ID.
func GetExpense(expSvc service.ExpenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		userID := middleware.UserIDFromCtx(c)
		e, err := expSvc.Get(c.UserContext(), userID, id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(e)
	}
}

// UpdateExpense rewrites an entry by ID.
func UpdateExpense(expSvc service.ExpenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req expenseRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid entry fields")
		}

		userID := middleware.UserIDFromCtx(c)
		e, err := expSvc.Update(c.UserContext(), userID, id, req.toInput())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(e)
	}
}

// DeleteExpense removes an entry by ID.
func DeleteExpense(expSvc service.ExpenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		userID := middleware.UserIDFromCtx(c)
		if err := expSvc.Delete(c.UserContext(), userID, id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadReceipt attaches a receipt image to an entry (multipart/form-data, field name: file).
func UploadReceipt(expSvc service.ExpenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		userID := middleware.UserIDFromCtx(c)
		e, err := expSvc.AttachReceipt(c.UserContext(), userID, id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

// GetReceiptURL returns a time-limited download link for the entry's receipt.
func GetReceiptURL(expSvc service.ExpenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		userID := middleware.UserIDFromCtx(c)
		url, err := expSvc.ReceiptURL(c.UserContext(), userID, id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// serviceError translates expense service sentinels into HTTP error responses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "entry not found")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "unauthorized access")
	case errors.Is(err, service.ErrNoReceipt):
		return writeError(c, fiber.StatusNotFound, "NO_RECEIPT", "entry has no receipt")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
