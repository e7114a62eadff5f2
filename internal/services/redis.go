package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gemcase-backend/internal/config"
	"gemcase-backend/internal/models"
)

const recentDropsKey = "drops:recent"

// RedisService covers the ephemeral concerns next to the SQL store: login
// sessions, per-account rate limits, and the recent-drops feed backing the
// websocket replay.
type RedisService struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{client: client, ctx: ctx}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func sessionKey(userID int64, sessionID string) string {
	return fmt.Sprintf("user:%d:session:%s", userID, sessionID)
}

func (s *RedisService) StoreSession(session *models.Session, expiry time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(s.ctx, sessionKey(session.UserID, session.SessionID), data, expiry).Err()
}

func (s *RedisService) GetSession(userID int64, sessionID string, expiry time.Duration) (*models.Session, error) {
	key := sessionKey(userID, sessionID)
	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now()
	updated, _ := json.Marshal(session)
	s.client.Set(s.ctx, key, updated, expiry)

	return &session, nil
}

func (s *RedisService) DeleteSession(userID int64, sessionID string) error {
	return s.client.Del(s.ctx, sessionKey(userID, sessionID)).Err()
}

// CheckRateLimit counts actions in a fixed window. Returns false once the
// window's limit is exceeded.
func (s *RedisService) CheckRateLimit(userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("ratelimit:%d:%s", userID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}
	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

// PushDrop prepends a drop to the capped recent-drops list.
func (s *RedisService) PushDrop(drop *DropFeedItem) error {
	data, err := json.Marshal(drop)
	if err != nil {
		return err
	}
	if err := s.client.LPush(s.ctx, recentDropsKey, data).Err(); err != nil {
		return err
	}
	return s.client.LTrim(s.ctx, recentDropsKey, 0, 49).Err()
}

// RecentDrops returns the newest drops, most recent first.
func (s *RedisService) RecentDrops(limit int64) ([]*DropFeedItem, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	raw, err := s.client.LRange(s.ctx, recentDropsKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	var drops []*DropFeedItem
	for _, item := range raw {
		var drop DropFeedItem
		if err := json.Unmarshal([]byte(item), &drop); err != nil {
			continue
		}
		drops = append(drops, &drop)
	}
	return drops, nil
}
