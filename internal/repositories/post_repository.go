package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrPostNotFound is returned for unknown or malformed post ids.
var ErrPostNotFound = errors.New("post not found")

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID uint, skip, limit int64) ([]models.Post, error)
	GetPostsByAuthors(ctx context.Context, authorIDs []uint, skip, limit int64) ([]models.Post, int64, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
	SearchPosts(ctx context.Context, query string, skip, limit int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, id string, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	AdjustCounter(ctx context.Context, postID, counter string, delta int) error
	AddCollaborator(ctx context.Context, postID string, userID uint) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes the feed and profile queries rely on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	return err
}

func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.CollaboratorIDs == nil {
		post.CollaboratorIDs = []uint{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPostNotFound
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, 0, int64(len(objIDs)))
}

func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorID uint, skip, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.M{"author_id": authorID}, skip, limit)
}

// GetPostsByAuthors returns one page of posts written by any of authorIDs plus
// the total number of matching posts.
func (r *MongoPostRepository) GetPostsByAuthors(ctx context.Context, authorIDs []uint, skip, limit int64) ([]models.Post, int64, error) {
	filter := bson.M{"author_id": bson.M{"$in": authorIDs}}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	posts, err := r.find(ctx, filter, skip, limit)
	return posts, total, err
}

func (r *MongoPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.D{}, skip, limit)
}

// SearchPosts matches query case-insensitively against title, content and tags.
func (r *MongoPostRepository) SearchPosts(ctx context.Context, query string, skip, limit int64) ([]models.Post, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"content": pattern},
		bson.M{"tags": pattern},
	}}
	return r.find(ctx, filter, skip, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter interface{}, skip, limit int64) ([]models.Post, error) {
	posts := []models.Post{}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrPostNotFound
	}

	post.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":      post.Title,
			"content":    post.Content,
			"kind":       post.Kind,
			"tags":       post.Tags,
			"updated_at": post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrPostNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// AdjustCounter applies delta to one of the engagement counters. Decrements
// never take a counter below zero.
func (r *MongoPostRepository) AdjustCounter(ctx context.Context, postID, counter string, delta int) error {
	switch counter {
	case models.CounterLikes, models.CounterComments, models.CounterReposts, models.CounterBookmarks:
	default:
		return fmt.Errorf("unknown post counter %q", counter)
	}
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrPostNotFound
	}

	filter := bson.M{"_id": objID}
	if delta < 0 {
		filter[counter] = bson.M{"$gte": -delta}
	}
	_, err = r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{counter: delta}})
	return err
}

func (r *MongoPostRepository) AddCollaborator(ctx context.Context, postID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrPostNotFound
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$addToSet": bson.M{"collaborator_ids": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}
