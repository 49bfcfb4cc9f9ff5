package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every relational table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Session{},
		&Comment{},
		&Like{},
		&Repost{},
		&Follow{},
		&SavedPost{},
		&CollaborationInvite{},
		&Report{},
		&Notification{},
		&Conversation{},
		&Message{},
	)
}
