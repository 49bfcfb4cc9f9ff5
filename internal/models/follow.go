package models

import "time"

// Follow is one directed edge. Mutual follows are two rows and a user can
// never follow themselves.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"uniqueIndex:idx_follow_edge;check:chk_follow_not_self,follower_id <> following_id"`
	FollowingID uint      `json:"following_id" gorm:"uniqueIndex:idx_follow_edge;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
