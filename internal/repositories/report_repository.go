package repositories

import (
	"github.com/anonto42/writers-guild/backend/internal/models"
	"gorm.io/gorm"
)

type ReportRepository interface {
	CreateReport(report *models.Report) error
	HasOpenReport(postID string, reporterID uint) (bool, error)
}

type PostgresReportRepository struct {
	db *gorm.DB
}

func NewPostgresReportRepository(db *gorm.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

func (r *PostgresReportRepository) CreateReport(report *models.Report) error {
	if report.Status == "" {
		report.Status = models.ReportStatusOpen
	}
	return r.db.Create(report).Error
}

func (r *PostgresReportRepository) HasOpenReport(postID string, reporterID uint) (bool, error) {
	return exists(r.db.Model(&models.Report{}).
		Where("post_id = ? AND reporter_id = ? AND status = ?", postID, reporterID, models.ReportStatusOpen))
}
