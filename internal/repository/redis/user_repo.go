package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const UserTokenPrefix = "login:user:token"

// TokenRepository keeps the single live access token of each user.
type TokenRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewTokenRepository(client *redis.Client, ttl time.Duration) *TokenRepository {
	return &TokenRepository{Client: client, TTL: ttl}
}

func userTokenKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func (r *TokenRepository) SaveToken(ctx context.Context, userID uint64, token string) error {
	if err := r.Client.Set(ctx, userTokenKey(userID), token, r.TTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *TokenRepository) GetToken(ctx context.Context, userID uint64) (string, error) {
	token, err := r.Client.Get(ctx, userTokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

func (r *TokenRepository) DeleteToken(ctx context.Context, userID uint64) error {
	if err := r.Client.Del(ctx, userTokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
