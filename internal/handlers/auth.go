package handlers

import (
	"net/http"
	"strings"
	"unicode"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/writers-guild/backend/internal/middleware"
	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	sessions       *services.SessionManager
	log            *logrus.Entry
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, sessions *services.SessionManager, log *logrus.Entry) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		sessions:       sessions,
		log:            log,
	}
}

// RegisterAuthRoutes registers the public authentication routes. The
// firebase-login route is only mounted when a token verifier is available.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, verifier middleware.TokenVerifier) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/logout", h.Logout)
	if verifier != nil {
		g.POST("/firebase-login", h.FirebaseLogin, middleware.FirebaseIDToken(verifier))
	}
}

// RegisterMeRoute registers routes that need an authenticated session.
func (h *AuthHandler) RegisterMeRoute(g *echo.Group) {
	g.GET("/auth/me", h.Me)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.userRepository.GetUserByEmail(req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username:    req.Username,
		Email:       strings.ToLower(req.Email),
		DisplayName: req.DisplayName,
		Password:    string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Username or email already taken")
		}
		return internalError(err)
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"user": user})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil || user.Password == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"user": user})
}

// Logout deletes the server-side session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := h.sessions.Destroy(c.Request())
	if err != nil {
		h.log.WithError(err).Warn("failed to delete session")
	}
	c.SetCookie(cookie)
	return success(c, http.StatusOK, echo.Map{"logged_out": true})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"user": user})
}

// FirebaseLogin exchanges a verified Firebase ID token for a session, linking
// or creating the local account.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	token, ok := c.Get(middleware.FirebaseTokenKey).(*auth.Token)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}

	user, err := h.userRepository.GetUserByFirebaseUID(token.UID)
	switch {
	case err == nil:
	case isNotFound(err):
		user, err = h.linkOrCreate(token.UID, email, name)
		if err != nil {
			return internalError(err)
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"user": user})
}

func (h *AuthHandler) linkOrCreate(firebaseUID, email, name string) (*models.User, error) {
	user, err := h.userRepository.GetUserByEmail(email)
	if err == nil {
		user.FirebaseUID = &firebaseUID
		return user, h.userRepository.UpdateUser(user)
	}
	if !isNotFound(err) {
		return nil, err
	}

	user = &models.User{
		Username:    usernameFromEmail(email),
		Email:       strings.ToLower(email),
		DisplayName: name,
		FirebaseUID: &firebaseUID,
	}
	err = h.userRepository.CreateUser(user)
	if isDuplicate(err) {
		user.Username = usernameFromEmail(email) + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		err = h.userRepository.CreateUser(user)
	}
	return user, err
}

func (h *AuthHandler) startSession(c echo.Context, user *models.User) error {
	cookie, err := h.sessions.Create(c.Request().Context(), user.ID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", user.ID).Error("failed to create session")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}
	c.SetCookie(cookie)
	return nil
}

// usernameFromEmail derives an alphanumeric username from the local part.
func usernameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) > 24 {
		name = name[:24]
	}
	for len(name) < 3 {
		name += "0"
	}
	return name
}
