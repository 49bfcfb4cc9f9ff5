package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const searchCandidateLimit = 100

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo, followRepository: followRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
}

// GetUser returns another user's profile and whether the caller follows them.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(id)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return internalError(err)
	}

	following := false
	if current := getUserIDFromContext(c); current != 0 && current != id {
		following, err = h.followRepository.IsFollowing(current, id)
		if err != nil {
			return internalError(err)
		}
	}
	return success(c, http.StatusOK, echo.Map{"user": user, "is_following": following})
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"user": user})
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return internalError(err)
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}
	if req.Email != "" {
		user.Email = strings.ToLower(req.Email)
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Email already in use")
		}
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"user": user})
}

// SearchUsers finds users whose username or display name contains q and
// orders them by fuzzy match distance.
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}
	_, limit := getPagination(c, 20)

	users, err := h.userRepository.SearchUsers(query, searchCandidateLimit)
	if err != nil {
		return internalError(err)
	}
	users = rankUsers(query, users)
	if len(users) > limit {
		users = users[:limit]
	}

	results := make([]models.UserCompact, len(users))
	for i := range users {
		results[i] = users[i].ToCompact()
	}
	return success(c, http.StatusOK, echo.Map{"users": results})
}

// rankUsers sorts users by their best fuzzy distance to query over username
// and display name. Users matching neither keep their order at the end.
func rankUsers(query string, users []models.User) []models.User {
	distance := func(u *models.User) int {
		best := -1
		for _, target := range []string{u.Username, u.DisplayName} {
			if target == "" {
				continue
			}
			if d := fuzzy.RankMatchFold(query, target); d >= 0 && (best < 0 || d < best) {
				best = d
			}
		}
		if best < 0 {
			return int(^uint(0) >> 1)
		}
		return best
	}

	ranked := make([]models.User, len(users))
	copy(ranked, users)
	dist := make(map[uint]int, len(ranked))
	for i := range ranked {
		dist[ranked[i].ID] = distance(&ranked[i])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return dist[ranked[i].ID] < dist[ranked[j].ID]
	})
	return ranked
}
