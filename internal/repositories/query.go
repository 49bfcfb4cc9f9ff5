package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a delete or update matched no row.
var ErrNotFound = errors.New("record not found")

// exists reports whether scope matches at least one row.
func exists(scope *gorm.DB) (bool, error) {
	var found int
	err := scope.Select("1").Limit(1).Scan(&found).Error
	return found == 1, err
}

// affectedOne turns a write that touched nothing into ErrNotFound.
func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// postIDSet returns which of postIDs the user has a row for in scope's table.
func postIDSet(scope *gorm.DB, userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	var ids []string
	if err := scope.Where("user_id = ? AND post_id IN ?", userID, postIDs).Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
