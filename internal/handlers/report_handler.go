package handlers

import (
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	reportRepository repositories.ReportRepository
	postRepository   repositories.PostRepository
	userRepository   repositories.UserRepository
	notifier         *services.Notifier
	log              *logrus.Entry
}

func NewReportHandler(reportRepo repositories.ReportRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifier *services.Notifier, log *logrus.Entry) *ReportHandler {
	return &ReportHandler{
		reportRepository: reportRepo,
		postRepository:   postRepo,
		userRepository:   userRepo,
		notifier:         notifier,
		log:              log,
	}
}

func (h *ReportHandler) RegisterReportRoutes(g *echo.Group) {
	g.POST("/posts/:id/report", h.ReportPost)
}

// ReportPost files a report against someone else's post and alerts every
// admin.
func (h *ReportHandler) ReportPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	var req models.CreateReportRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}
	if post.AuthorID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot report your own post")
	}

	open, err := h.reportRepository.HasOpenReport(postID, currentUserID)
	if err != nil {
		return internalError(err)
	}
	if open {
		return echo.NewHTTPError(http.StatusConflict, "Post already reported")
	}

	report := &models.Report{
		PostID:     postID,
		ReporterID: currentUserID,
		Reason:     req.Reason,
		Status:     models.ReportStatusOpen,
	}
	if err := h.reportRepository.CreateReport(report); err != nil {
		return internalError(err)
	}

	h.notifyAdmins(currentUserID, post, report)

	return success(c, http.StatusCreated, echo.Map{"report": report})
}

func (h *ReportHandler) notifyAdmins(reporterID uint, post *models.Post, report *models.Report) {
	admins, err := h.userRepository.GetAdmins()
	if err != nil {
		h.log.WithError(err).Warn("failed to load admins for report")
		return
	}
	actor, err := h.userRepository.GetUserByID(reporterID)
	if err != nil {
		h.log.WithError(err).Warn("failed to load reporter")
		return
	}

	ids := make([]uint, len(admins))
	for i, a := range admins {
		ids[i] = a.ID
	}
	h.notifier.NotifyAll(ids, func(adminID uint) *models.Notification {
		n := postNotification(models.NotificationReport, actor, adminID, post, "reported a post")
		n.Payload["report_id"] = report.ID
		n.Payload["reason"] = services.Excerpt(report.Reason, 100)
		return n
	})
}
