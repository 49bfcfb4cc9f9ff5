package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// FirebaseTokenKey is the echo.Context key holding the verified *auth.Token.
const FirebaseTokenKey = "firebase_token"

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseIDToken verifies a Firebase ID token sent as a Bearer token. It
// guards only the federated login exchange; every other route authenticates
// with the session cookie.
func FirebaseIDToken(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.SplitN(authHeader, " ", 2)
			if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), strings.TrimSpace(tokenParts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			c.Set(FirebaseTokenKey, token)
			return next(c)
		}
	}
}
