package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expensetracker/internal/config"
	"expensetracker/internal/http/middleware"
	"expensetracker/internal/model"
	"expensetracker/internal/service"
	serviceMocks "expensetracker/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeUser injects a logged-in user the way RequireAuth would.
func fakeUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDLocalKey, userID)
		return c.Next()
	}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/auth/register", Register(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, "alice", "secret123").
			Return(&model.User{ID: uuid.New().String(), Username: "alice"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			jsonBody(t, map[string]string{"username": "alice", "password": "secret123"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var u model.User
		json.NewDecoder(resp.Body).Decode(&u)
		assert.Equal(t, "alice", u.Username)
		mockSvc.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, "alice", "secret123").
			Return(nil, service.ErrUsernameTaken).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			jsonBody(t, map[string]string{"username": "alice", "password": "secret123"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "USERNAME_TAKEN", body.Error.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			jsonBody(t, map[string]string{"username": "al", "password": ""}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	})
}

func TestLoginAndLogout(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	store := middleware.NewSessionStore(config.SessionConfig{CookieName: "expense_session", IdleTimeoutMn: 60})

	app := fiber.New()
	app.Post("/auth/login", Login(store, mockSvc))
	app.Post("/auth/logout", middleware.RequireAuth(store), Logout(store))
	app.Get("/private", middleware.RequireAuth(store), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "alice", "wrong").
			Return(nil, service.ErrInvalidCredentials).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			jsonBody(t, map[string]string{"username": "alice", "password": "wrong"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_CREDENTIALS", body.Error.Code)
	})

	t.Run("login establishes session, logout destroys it", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "alice", "secret123").
			Return(&model.User{ID: "user-id", Username: "alice"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			jsonBody(t, map[string]string{"username": "alice", "password": "secret123"}))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		cookies := resp.Cookies()
		require.NotEmpty(t, cookies)

		// Session grants access to guarded routes
		privReq := httptest.NewRequest(http.MethodGet, "/private", nil)
		for _, ck := range cookies {
			privReq.AddCookie(ck)
		}
		privResp, _ := app.Test(privReq)
		assert.Equal(t, http.StatusOK, privResp.StatusCode)

		// Logout invalidates the session
		outReq := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		for _, ck := range cookies {
			outReq.AddCookie(ck)
		}
		outResp, _ := app.Test(outReq)
		assert.Equal(t, http.StatusNoContent, outResp.StatusCode)

		againReq := httptest.NewRequest(http.MethodGet, "/private", nil)
		for _, ck := range cookies {
			againReq.AddCookie(ck)
		}
		againResp, _ := app.Test(againReq)
		assert.Equal(t, http.StatusUnauthorized, againResp.StatusCode)
	})
}

func TestDashboard(t *testing.T) {
	mockSvc := new(serviceMocks.MockExpenseService)
	app := fiber.New()
	app.Get("/dashboard", fakeUser("user-id"), Dashboard(mockSvc))

	mockSvc.On("Summary", mock.Anything, "user-id").Return(&service.DashboardSummary{
		TotalIncome:  2000,
		TotalExpense: 1250.5,
		NetBalance:   749.5,
		Labels:       []string{"Housing", "Food"},
		Values:       []float64{900, 350.5},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var s service.DashboardSummary
	json.NewDecoder(resp.Body).Decode(&s)
	assert.Equal(t, 749.5, s.NetBalance)
	assert.Equal(t, []string{"Housing", "Food"}, s.Labels)
	mockSvc.AssertExpectations(t)
}

func TestListExpenses(t *testing.T) {
	mockSvc := new(serviceMocks.MockExpenseService)
	app := fiber.New()
	app.Get("/expenses", fakeUser("user-id"), ListExpenses(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.ExpenseListResult{
			Items: []model.Expense{{ID: uuid.New().String(), Title: "Rent"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, "user-id", 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/expenses?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.ExpenseListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/expenses?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, "user-id", 10, 0).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestAddExpense(t *testing.T) {
	mockSvc := new(serviceMocks.MockExpenseService)
	app := fiber.New()
	app.Post("/expenses", fakeUser("user-id"), AddExpense(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Add", mock.Anything, "user-id", mock.MatchedBy(func(in service.ExpenseInput) bool {
			return in.Title == "Groceries" && in.Amount == 42.5 && in.Date.Format("2006-01-02") == "2026-08-15"
		})).Return(&model.Expense{ID: uuid.New().String(), Title: "Groceries"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/expenses", jsonBody(t, map[string]any{
			"title":        "Groceries",
			"amount":       42.5,
			"category":     "Food",
			"expense_type": "expense",
			"date":         "2026-08-15",
		}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("rejects unknown expense_type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/expenses", jsonBody(t, map[string]any{
			"title":        "Groceries",
			"amount":       42.5,
			"category":     "Food",
			"expense_type": "transfer",
		}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/expenses", jsonBody(t, map[string]any{
			"title":    "Groceries",
			"amount":   0,
			"category": "Food",
		}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetExpense(t *testing.T) {
	mockSvc := new(serviceMocks.MockExpenseService)
	app := fiber.New()
	app.Get("/expenses/:id", fakeUser("user-id"), GetExpense(mockSvc))

	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "user-id", id).
			Return(&model.Expense{ID: id, Title: "Rent"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/expenses/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var e model.Expense
		json.NewDecoder(resp.Body).Decode(&e)
		assert.Equal(t, "Rent", e.Title)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/expenses/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_ID", body.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "user-id", id).
			Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/expenses/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("foreign entry", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "user-id", id).
			Return(nil, service.ErrForbidden).Once()

		req := httptest.NewRequest(http.MethodGet, "/expenses/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FORBIDDEN", body.Error.Code)
	})
}

func TestUpdateExpense(t *testing.T) {
	mockSvc := new(serviceMocks.MockExpenseService)
	app := fiber.New()
	app.Put("/expenses/:id", fakeUser("user-id"), UpdateExpense(mockSvc))

	id := uuid.New().String()

	mockSvc.On("Update", mock.Anything, "user-id", id, mock.MatchedBy(func(in service.ExpenseInput) bool {
		return in.Title == "Rent (edited)" && in.Amount == 950
	})).Return(&model.Expense{ID: id, Title: "Rent (edited)"}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/expenses/"+id, jsonBody(t, map[string]any{
		"title":    "Rent (edited)",
		"amount":   950,
		"category": "Housing",
	}))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestDeleteExpense(t *testing.T) {
	mockSvc := new(serviceMocks.MockExpenseService)
	app := fiber.New()
	app.Delete("/expenses/:id", fakeUser("user-id"), DeleteExpense(mockSvc))

	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "user-id", id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/expenses/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("foreign entry", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "user-id", id).Return(service.ErrForbidden).Once()

		req := httptest.NewRequest(http.MethodDelete, "/expenses/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestUploadReceipt(t *testing.T) {
	mockSvc := new(serviceMocks.MockExpenseService)
	app := fiber.New()
	app.Post("/expenses/:id/receipt", fakeUser("user-id"), UploadReceipt(mockSvc))

	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		mockSvc.On("AttachReceipt", mock.Anything, "user-id", id, mock.Anything, "receipt.jpg", mock.Anything, mock.Anything).
			Return(&model.Expense{ID: id, ReceiptPath: "receipts/uuid.jpg"}, nil).Once()

		body := new(bytes.Buffer)
		mw := multipart.NewWriter(body)
		fw, err := mw.CreateFormFile("file", "receipt.jpg")
		require.NoError(t, err)
		fw.Write([]byte("image-bytes"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/expenses/"+id+"/receipt", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var e model.Expense
		json.NewDecoder(resp.Body).Decode(&e)
		assert.Equal(t, "receipts/uuid.jpg", e.ReceiptPath)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/expenses/"+id+"/receipt", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FILE_REQUIRED", body.Error.Code)
	})
}

func TestGetReceiptURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockExpenseService)
	app := fiber.New()
	app.Get("/expenses/:id/receipt", fakeUser("user-id"), GetReceiptURL(mockSvc))

	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		mockSvc.On("ReceiptURL", mock.Anything, "user-id", id).
			Return("https://minio.local/signed", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/expenses/"+id+"/receipt", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://minio.local/signed", body["url"])
	})

	t.Run("no receipt", func(t *testing.T) {
		mockSvc.On("ReceiptURL", mock.Anything, "user-id", id).
			Return("", service.ErrNoReceipt).Once()

		req := httptest.NewRequest(http.MethodGet, "/expenses/"+id+"/receipt", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NO_RECEIPT", body.Error.Code)
	})
}
