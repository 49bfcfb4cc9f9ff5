package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo.Context key holding the authenticated user id.
const UserIDKey = "user_id"

// Authenticator resolves the user behind a request's session.
type Authenticator interface {
	Authenticate(r *http.Request) (uint, error)
}

// SessionAuth rejects requests without a valid session cookie and stores the
// user id in the context for handlers.
func SessionAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := auth.Authenticate(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}
