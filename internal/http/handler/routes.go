package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"expensetracker/internal/http/middleware"
	"expensetracker/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; everything domain-shaped lives in the services.
func RegisterRoutes(app *fiber.App, db *sql.DB, store *session.Store, authSvc service.AuthService, expSvc service.ExpenseService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoints: readiness checks DB connectivity, liveness does not
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Account endpoints
	app.Post("/auth/register", Register(authSvc))
	app.Post("/auth/login", Login(store, authSvc))
	app.Post("/auth/logout", middleware.RequireAuth(store), Logout(store))

	// Everything below requires a logged-in session
	auth := middleware.RequireAuth(store)

	app.Get("/dashboard", auth, Dashboard(expSvc))

	app.Get("/expenses", auth, ListExpenses(expSvc))
	app.Post("/expenses", auth, AddExpense(expSvc))
	app.Get("/expenses/:id", auth, GetExpense(expSvc))
	app.Put("/expenses/:id", auth, UpdateExpense(expSvc))
	app.Delete("/expenses/:id", auth, DeleteExpense(expSvc))

	app.Post("/expenses/:id/receipt", auth, UploadReceipt(expSvc))
	app.Get("/expenses/:id/receipt", auth, GetReceiptURL(expSvc))
}
