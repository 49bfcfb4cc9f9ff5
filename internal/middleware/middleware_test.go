package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	userID uint
	err    error
}

func (s stubAuthenticator) Authenticate(*http.Request) (uint, error) {
	return s.userID, s.err
}

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if idToken != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: "firebase-uid"}, nil
}

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return c, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected *echo.HTTPError, got %v", err)
	return he.Code
}

func TestSessionAuthSetsUserID(t *testing.T) {
	c, err := run(t, SessionAuth(stubAuthenticator{userID: 12}), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, err)
	assert.Equal(t, uint(12), c.Get(UserIDKey))
}

func TestSessionAuthRejects(t *testing.T) {
	_, err := run(t, SessionAuth(stubAuthenticator{err: errors.New("nope")}), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestFirebaseIDToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	c, err := run(t, FirebaseIDToken(stubVerifier{}), req)
	require.NoError(t, err)
	token, ok := c.Get(FirebaseTokenKey).(*auth.Token)
	require.True(t, ok)
	assert.Equal(t, "firebase-uid", token.UID)

	for _, header := range []string{"", "good", "Bearer bad"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		_, err := run(t, FirebaseIDToken(stubVerifier{}), req)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err), "header %q", header)
	}
}
