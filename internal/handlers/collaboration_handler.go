package handlers

import (
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/repositories"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// CollaborationHandler handles co-authoring invites
type CollaborationHandler struct {
	collaborationRepository repositories.CollaborationRepository
	postRepository          repositories.PostRepository
	userRepository          repositories.UserRepository
	notifier                *services.Notifier
	log                     *logrus.Entry
}

func NewCollaborationHandler(
	collabRepo repositories.CollaborationRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifier *services.Notifier,
	log *logrus.Entry,
) *CollaborationHandler {
	return &CollaborationHandler{
		collaborationRepository: collabRepo,
		postRepository:          postRepo,
		userRepository:          userRepo,
		notifier:                notifier,
		log:                     log,
	}
}

func (h *CollaborationHandler) RegisterCollaborationRoutes(g *echo.Group) {
	g.POST("/posts/:id/collaborators", h.Invite)
	g.GET("/collaborations/invites", h.GetInvites)
	g.POST("/collaborations/:id/accept", h.Accept)
	g.POST("/collaborations/:id/decline", h.Decline)
}

// Invite asks another user to co-author the caller's post.
func (h *CollaborationHandler) Invite(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	var req models.CreateInviteRequest
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
	if post.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the author can invite collaborators")
	}
	if req.InviteeID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot invite yourself")
	}
	if post.HasCollaborator(req.InviteeID) {
		return echo.NewHTTPError(http.StatusConflict, "User is already a collaborator")
	}
	if _, err := h.userRepository.GetUserByID(req.InviteeID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return internalError(err)
	}

	pending, err := h.collaborationRepository.HasPendingInvite(postID, req.InviteeID)
	if err != nil {
		return internalError(err)
	}
	if pending {
		return echo.NewHTTPError(http.StatusConflict, "Invite already pending")
	}

	invite := &models.CollaborationInvite{
		PostID:    postID,
		InviterID: currentUserID,
		InviteeID: req.InviteeID,
		Status:    models.InviteStatusPending,
	}
	if err := h.collaborationRepository.CreateInvite(invite); err != nil {
		return internalError(err)
	}

	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		n := postNotification(models.NotificationCollaborationInvite, actor, req.InviteeID, post, "invited you to collaborate")
		n.Payload["invite_id"] = invite.ID
		h.notifier.Notify(n)
	}

	return success(c, http.StatusCreated, echo.Map{"invite": invite})
}

// GetInvites lists the caller's pending invites.
func (h *CollaborationHandler) GetInvites(c echo.Context) error {
	invites, err := h.collaborationRepository.GetPendingInvitesForUser(getUserIDFromContext(c))
	if err != nil {
		return internalError(err)
	}
	return success(c, http.StatusOK, echo.Map{"invites": invites})
}

// Accept adds the invitee to the post's collaborators and tells the inviter.
func (h *CollaborationHandler) Accept(c echo.Context) error {
	invite, err := h.pendingInviteFor(c)
	if err != nil {
		return err
	}

	if err := h.collaborationRepository.Respond(invite.ID, models.InviteStatusAccepted); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusConflict, "Invite already answered")
		}
		return internalError(err)
	}

	ctx := c.Request().Context()
	if err := h.postRepository.AddCollaborator(ctx, invite.PostID, invite.InviteeID); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return internalError(err)
	}
	invite.Status = models.InviteStatusAccepted

	post, err := h.postRepository.GetPostByID(ctx, invite.PostID)
	if err != nil {
		h.log.WithError(err).WithField("post_id", invite.PostID).Warn("accepted invite for unreadable post")
		return success(c, http.StatusOK, echo.Map{"invite": invite})
	}
	if actor, err := h.userRepository.GetUserByID(invite.InviteeID); err == nil {
		n := postNotification(models.NotificationCollaborationAccepted, actor, invite.InviterID, post, "accepted your collaboration invite")
		n.Payload["invite_id"] = invite.ID
		h.notifier.Notify(n)
	}

	return success(c, http.StatusOK, echo.Map{"invite": invite})
}

// Decline marks the invite declined. The inviter is not notified.
func (h *CollaborationHandler) Decline(c echo.Context) error {
	invite, err := h.pendingInviteFor(c)
	if err != nil {
		return err
	}
	if err := h.collaborationRepository.Respond(invite.ID, models.InviteStatusDeclined); err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusConflict, "Invite already answered")
		}
		return internalError(err)
	}
	invite.Status = models.InviteStatusDeclined
	return success(c, http.StatusOK, echo.Map{"invite": invite})
}

// pendingInviteFor loads the invite named in the path and checks the caller
// is its invitee and that it is still pending.
func (h *CollaborationHandler) pendingInviteFor(c echo.Context) (*models.CollaborationInvite, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	invite, err := h.collaborationRepository.GetInviteByID(id)
	if err != nil {
		if isNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Invite not found")
		}
		return nil, internalError(err)
	}
	if invite.InviteeID != getUserIDFromContext(c) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Invite not found")
	}
	if invite.Status != models.InviteStatusPending {
		return nil, echo.NewHTTPError(http.StatusConflict, "Invite already answered")
	}
	return invite, nil
}
