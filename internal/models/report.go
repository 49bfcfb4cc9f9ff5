package models

import "time"

const (
	ReportStatusOpen     = "open"
	ReportStatusResolved = "resolved"
)

type Report struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PostID     string    `json:"post_id" gorm:"size:24;index"`
	ReporterID uint      `json:"reporter_id" gorm:"index"`
	Reason     string    `json:"reason" gorm:"size:500"`
	Status     string    `json:"status" gorm:"size:20;default:'open';index"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateReportRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}
