package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultResetCodeTTL = 5 * time.Minute
	// DefaultMaxAttempts wrong guesses burn the stored code.
	DefaultMaxAttempts = 5
	ResetCodePrefix    = "email:code:reset"
	ResetTriesPrefix   = "email:code:tries"
)

// consumeScript deletes the stored code when it matches, so a code can be
// redeemed once. Misses are counted and the code is dropped once they reach
// ARGV[2].
var consumeScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
if val == ARGV[1] then
  redis.call("DEL", KEYS[1], KEYS[2])
  return 1
end
local tries = redis.call("INCR", KEYS[2])
if tries == 1 then
  redis.call("PEXPIRE", KEYS[2], ARGV[3])
end
if tries >= tonumber(ARGV[2]) then
  redis.call("DEL", KEYS[1], KEYS[2])
end
return 0
`)

// ResetCodeRepository stores password reset codes by email address.
type ResetCodeRepository struct {
	Client      *redis.Client
	TTL         time.Duration
	MaxAttempts int
}

func NewResetCodeRepository(client *redis.Client) *ResetCodeRepository {
	return &ResetCodeRepository{Client: client, TTL: DefaultResetCodeTTL, MaxAttempts: DefaultMaxAttempts}
}

func resetCodeKey(email string) string {
	return fmt.Sprintf("%s:%s", ResetCodePrefix, email)
}

func resetTriesKey(email string) string {
	return fmt.Sprintf("%s:%s", ResetTriesPrefix, email)
}

// SaveCode replaces any code previously issued for email and resets its miss
// counter.
func (r *ResetCodeRepository) SaveCode(ctx context.Context, email, code string) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resetCodeKey(email), code, r.TTL)
		pipe.Del(ctx, resetTriesKey(email))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ConsumeCode reports whether code matches the stored one and deletes it if so.
func (r *ResetCodeRepository) ConsumeCode(ctx context.Context, email, code string) (bool, error) {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	keys := []string{resetCodeKey(email), resetTriesKey(email)}
	n, err := consumeScript.Run(ctx, r.Client, keys, code, maxAttempts, r.TTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}
