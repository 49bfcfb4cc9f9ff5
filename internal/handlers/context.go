package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/writers-guild/backend/internal/middleware"
	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// getUserIDFromContext returns the id stored by the session middleware, or 0.
func getUserIDFromContext(c echo.Context) uint {
	id, _ := c.Get(middleware.UserIDKey).(uint)
	return id
}

func getPagination(c echo.Context, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = defaultLimit
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// bindAndValidate binds the request body into req and runs the registered
// validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, repositories.ErrNotFound) ||
		errors.Is(err, repositories.ErrPostNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func internalError(err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// postNotification builds a notification about post addressed to recipientID.
func postNotification(kind string, actor *models.User, recipientID uint, post *models.Post, message string) *models.Notification {
	postID := post.ID.Hex()
	return &models.Notification{
		Type:        kind,
		ActorID:     actor.ID,
		RecipientID: recipientID,
		PostID:      &postID,
		Message:     actor.Name() + " " + message,
		Payload:     map[string]interface{}{"post_title": post.Title},
	}
}
