package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrSessionNotFound covers unknown, deleted and expired sessions alike.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository is the server-side session store.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// PostgresSessionRepository keeps sessions in the relational store. Expired
// rows are ignored on read and purged by DeleteExpired.
type PostgresSessionRepository struct {
	db *gorm.DB
}

func NewPostgresSessionRepository(db *gorm.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *PostgresSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("id = ? AND expires_at > ?", id, time.Now()).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *PostgresSessionRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

// DeleteExpired removes sessions past their expiry and reports how many.
func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

const sessionKeyPrefix = "session:"

// RedisSessionRepository stores sessions as JSON values whose TTL matches
// the session expiry.
type RedisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func (r *RedisSessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return r.client.Set(ctx, sessionKeyPrefix+session.ID, data, ttl).Err()
}

func (r *RedisSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.Expired(time.Now()) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (r *RedisSessionRepository) DeleteSession(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}
