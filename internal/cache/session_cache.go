package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"jornada/internal/model"
)

// SessionCache holds the open session per worker code. It absorbs the
// client's load-time polling of the active lookup; the store stays
// authoritative for every mutation.
type SessionCache interface {
	SetActive(ctx context.Context, session *model.WorkSession) error
	GetActive(ctx context.Context, code string) (*model.WorkSession, error)
	DeleteActive(ctx context.Context, code string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) SetActive(ctx context.Context, session *model.WorkSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "active:"+session.Code, data, c.ttl).Err()
}

func (c *sessionCache) GetActive(ctx context.Context, code string) (*model.WorkSession, error) {
	data, err := c.client.Get(ctx, "active:"+code).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}
	var session model.WorkSession
	err = json.Unmarshal([]byte(data), &session)
	return &session, err
}

func (c *sessionCache) DeleteActive(ctx context.Context, code string) error {
	return c.client.Del(ctx, "active:"+code).Err()
}
