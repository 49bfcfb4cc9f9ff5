package repositories

import (
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"gorm.io/gorm"
)

type CollaborationRepository interface {
	CreateInvite(invite *models.CollaborationInvite) error
	GetInviteByID(id uint) (*models.CollaborationInvite, error)
	HasPendingInvite(postID string, inviteeID uint) (bool, error)
	GetPendingInvitesForUser(inviteeID uint) ([]models.CollaborationInvite, error)
	Respond(id uint, status string) error
}

type PostgresCollaborationRepository struct {
	db *gorm.DB
}

func NewPostgresCollaborationRepository(db *gorm.DB) *PostgresCollaborationRepository {
	return &PostgresCollaborationRepository{db: db}
}

func (r *PostgresCollaborationRepository) CreateInvite(invite *models.CollaborationInvite) error {
	if invite.Status == "" {
		invite.Status = models.InviteStatusPending
	}
	return r.db.Create(invite).Error
}

func (r *PostgresCollaborationRepository) GetInviteByID(id uint) (*models.CollaborationInvite, error) {
	var invite models.CollaborationInvite
	if err := r.db.First(&invite, id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *PostgresCollaborationRepository) HasPendingInvite(postID string, inviteeID uint) (bool, error) {
	return exists(r.db.Model(&models.CollaborationInvite{}).
		Where("post_id = ? AND invitee_id = ? AND status = ?", postID, inviteeID, models.InviteStatusPending))
}

func (r *PostgresCollaborationRepository) GetPendingInvitesForUser(inviteeID uint) ([]models.CollaborationInvite, error) {
	var invites []models.CollaborationInvite
	err := r.db.Where("invitee_id = ? AND status = ?", inviteeID, models.InviteStatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

// Respond moves a pending invite to status. It returns ErrNotFound when the
// invite is no longer pending, so two concurrent responses cannot both win.
func (r *PostgresCollaborationRepository) Respond(id uint, status string) error {
	now := time.Now()
	return affectedOne(r.db.Model(&models.CollaborationInvite{}).
		Where("id = ? AND status = ?", id, models.InviteStatusPending).
		Updates(map[string]interface{}{"status": status, "responded_at": now}))
}
