package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/langfix/store"
)

// RedisTrailStore implements store.TrailStore using Redis
type RedisTrailStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "langfix:"
	TTL      time.Duration // Expiration for trails, default 0 (no expiration)
}

// NewRedisTrailStore creates a new Redis trail store
func NewRedisTrailStore(opts RedisOptions) *RedisTrailStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisTrailStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisTrailStoreWithClient wraps an existing client, cluster or failover client included.
func NewRedisTrailStoreWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisTrailStore {
	if prefix == "" {
		prefix = "langfix:"
	}
	return &RedisTrailStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisTrailStore) trailKey(id string) string {
	return fmt.Sprintf("%strail:%s", s.prefix, id)
}

func (s *RedisTrailStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s:trails", s.prefix, id)
}

// Save stores a trail and indexes it under its session
func (s *RedisTrailStore) Save(ctx context.Context, trail *store.Trail) error {
	if trail == nil || trail.ID == "" {
		return fmt.Errorf("trail must have an ID")
	}

	data, err := json.Marshal(trail)
	if err != nil {
		return fmt.Errorf("failed to marshal trail: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.trailKey(trail.ID), data, s.ttl)

	sessKey := s.sessionKey(trail.SessionID)
	pipe.SAdd(ctx, sessKey, trail.ID)
	if s.ttl > 0 {
		pipe.Expire(ctx, sessKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save trail to redis: %w", err)
	}
	return nil
}

// Load retrieves a trail by ID
func (s *RedisTrailStore) Load(ctx context.Context, trailID string) (*store.Trail, error) {
	data, err := s.client.Get(ctx, s.trailKey(trailID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrTrailNotFound, trailID)
		}
		return nil, fmt.Errorf("failed to load trail from redis: %w", err)
	}

	var trail store.Trail
	if err := json.Unmarshal(data, &trail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trail: %w", err)
	}
	return &trail, nil
}

// List returns all trails of a session, oldest first
func (s *RedisTrailStore) List(ctx context.Context, sessionID string) ([]*store.Trail, error) {
	ids, err := s.client.SMembers(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list trails for session %s: %w", sessionID, err)
	}

	trails := make([]*store.Trail, 0, len(ids))
	if len(ids) == 0 {
		return trails, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.trailKey(id))
	}

	// expired keys come back as nil
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trails: %w", err)
	}

	for _, result := range results {
		raw, ok := result.(string)
		if !ok {
			continue
		}
		var trail store.Trail
		if err := json.Unmarshal([]byte(raw), &trail); err != nil {
			continue
		}
		trails = append(trails, &trail)
	}

	store.SortByTimestamp(trails)
	return trails, nil
}

// Delete removes a trail and its session index entry
func (s *RedisTrailStore) Delete(ctx context.Context, trailID string) error {
	trail, err := s.Load(ctx, trailID)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.trailKey(trailID))
	pipe.SRem(ctx, s.sessionKey(trail.SessionID), trailID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete trail: %w", err)
	}
	return nil
}

// Clear removes all trails of a session
func (s *RedisTrailStore) Clear(ctx context.Context, sessionID string) error {
	sessKey := s.sessionKey(sessionID)
	ids, err := s.client.SMembers(ctx, sessKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get trails for clearing: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.trailKey(id))
	}
	pipe.Del(ctx, sessKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear trails: %w", err)
	}
	return nil
}
