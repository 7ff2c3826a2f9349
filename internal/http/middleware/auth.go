package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"expensetracker/internal/config"
)

const (
	// UserIDSessionKey is the session field holding the logged-in user's ID.
	UserIDSessionKey = "user_id"
	// UserIDLocalKey is the key under which RequireAuth stores the user ID in
	// Fiber's context locals for downstream handlers.
	UserIDLocalKey = "user_id"
)

// NewSessionStore builds the server-side session store backing login cookies.
// The default in-memory storage holds the sessions; the browser only carries an
// opaque session ID.
func NewSessionStore(cfg config.SessionConfig) *session.Store {
	return session.New(session.Config{
		KeyLookup:      "cookie:" + cfg.CookieName,
		Expiration:     time.Duration(cfg.IdleTimeoutMn) * time.Minute,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
}

// RequireAuth guards a route group: the request must carry a session with a
// logged-in user. On success the user ID is placed in context locals; otherwise
// the request is rejected with 401 before reaching the handler.
func RequireAuth(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "login required")
		}

		uid, ok := sess.Get(UserIDSessionKey).(string)
		if !ok || uid == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "login required")
		}

		c.Locals(UserIDLocalKey, uid)
		return c.Next()
	}
}

// UserIDFromCtx extracts the authenticated user's ID stored by RequireAuth.
func UserIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(UserIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
