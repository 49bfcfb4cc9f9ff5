package services

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const SessionCookieName = "wg_session"

var ErrUnauthenticated = errors.New("unauthenticated")

// SessionManager issues and verifies session cookies. The cookie carries a
// signed token naming a server-side session; deleting the session revokes
// the cookie even before the token expires.
type SessionManager struct {
	repo   repositories.SessionRepository
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionManager(repo repositories.SessionRepository, secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.Errorf("invalid session ttl %s", ttl)
	}
	return &SessionManager{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}, nil
}

// Create stores a new session for userID and returns the cookie to set.
func (m *SessionManager) Create(ctx context.Context, userID uint) (*http.Cookie, error) {
	now := m.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.repo.CreateSession(ctx, session); err != nil {
		return nil, errors.Wrap(err, "unable to store session")
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, errors.Wrap(err, "unable to sign session token")
	}
	return m.cookie(token, session.ExpiresAt), nil
}

// Authenticate resolves the user behind the request's session cookie. Any
// failure yields ErrUnauthenticated so callers cannot tell the causes apart.
func (m *SessionManager) Authenticate(r *http.Request) (uint, error) {
	session, err := m.lookup(r)
	if err != nil {
		return 0, ErrUnauthenticated
	}
	return session.UserID, nil
}

// Destroy deletes the request's session, if any, and returns a cookie that
// clears it in the browser.
func (m *SessionManager) Destroy(r *http.Request) (*http.Cookie, error) {
	expired := m.cookie("", time.Unix(0, 0))
	expired.MaxAge = -1

	claims, err := m.parse(r)
	if err != nil {
		return expired, nil
	}
	if err := m.repo.DeleteSession(r.Context(), claims.ID); err != nil {
		return expired, errors.Wrap(err, "unable to delete session")
	}
	return expired, nil
}

func (m *SessionManager) lookup(r *http.Request) (*models.Session, error) {
	claims, err := m.parse(r)
	if err != nil {
		return nil, err
	}
	session, err := m.repo.GetSession(r.Context(), claims.ID)
	if err != nil {
		return nil, err
	}
	if session.Expired(m.now()) {
		return nil, repositories.ErrSessionNotFound
	}
	if strconv.FormatUint(uint64(session.UserID), 10) != claims.Subject {
		return nil, errors.New("session subject mismatch")
	}
	return session, nil
}

func (m *SessionManager) parse(r *http.Request) (*jwt.RegisteredClaims, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrUnauthenticated
	}
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func (m *SessionManager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
