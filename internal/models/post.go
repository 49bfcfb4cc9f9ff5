package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PostKindText   = "text"
	PostKindPoetry = "poetry"
	PostKindStory  = "story"
)

// Post is a piece of writing stored in MongoDB. AuthorID and
// CollaboratorIDs reference PostgreSQL user ids.
type Post struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID        uint               `json:"author_id" bson:"author_id"`
	Title           string             `json:"title" bson:"title"`
	Content         string             `json:"content" bson:"content"`
	Kind            string             `json:"kind" bson:"kind"`
	Tags            []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	CollaboratorIDs []uint             `json:"collaborator_ids" bson:"collaborator_ids"`
	LikesCount      int                `json:"likes_count" bson:"likes_count"`
	CommentsCount   int                `json:"comments_count" bson:"comments_count"`
	RepostsCount    int                `json:"reposts_count" bson:"reposts_count"`
	BookmarksCount  int                `json:"bookmarks_count" bson:"bookmarks_count"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// CanEdit reports whether the user is the author or an accepted collaborator.
func (p *Post) CanEdit(userID uint) bool {
	if p.AuthorID == userID {
		return true
	}
	return p.HasCollaborator(userID)
}

func (p *Post) HasCollaborator(userID uint) bool {
	for _, id := range p.CollaboratorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Counter names accepted by PostRepository.AdjustCounter.
const (
	CounterLikes     = "likes_count"
	CounterComments  = "comments_count"
	CounterReposts   = "reposts_count"
	CounterBookmarks = "bookmarks_count"
)

type CreatePostRequest struct {
	Title   string   `json:"title" validate:"required,min=1,max=200"`
	Content string   `json:"content" validate:"required,min=1,max=50000"`
	Kind    string   `json:"kind" validate:"required,oneof=text poetry story"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=30"`
}

type UpdatePostRequest struct {
	Title   string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content string   `json:"content,omitempty" validate:"omitempty,min=1,max=50000"`
	Kind    string   `json:"kind,omitempty" validate:"omitempty,oneof=text poetry story"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=30"`
}
