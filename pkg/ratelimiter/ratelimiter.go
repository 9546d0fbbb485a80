package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitError is returned when an action is attempted again inside its window.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func key(userID uint, action string) string {
	return fmt.Sprintf("rate_limit:%s:%d", action, userID)
}

// CheckAndSetRateLimit claims the window for userID and action. It returns false when
// the window is already held. A nil client disables limiting.
func CheckAndSetRateLimit(ctx context.Context, client *redis.Client, userID uint, action string, window time.Duration) (bool, error) {
	if client == nil || window <= 0 {
		return true, nil
	}
	return client.SetNX(ctx, key(userID, action), 1, window).Result()
}

// GetRateLimitTTL returns how long until the window for userID and action expires.
func GetRateLimitTTL(ctx context.Context, client *redis.Client, userID uint, action string) (time.Duration, error) {
	if client == nil {
		return 0, nil
	}
	ttl, err := client.TTL(ctx, key(userID, action)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// ClearRateLimit releases the window, used when the guarded action fails.
func ClearRateLimit(ctx context.Context, client *redis.Client, userID uint, action string) error {
	if client == nil {
		return nil
	}
	return client.Del(ctx, key(userID, action)).Err()
}

// Guard claims the window and returns a RateLimitError carrying the remaining TTL
// when it is already held.
func Guard(ctx context.Context, client *redis.Client, userID uint, action string, window time.Duration) error {
	allowed, err := CheckAndSetRateLimit(ctx, client, userID, action, window)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}
	ttl, _ := GetRateLimitTTL(ctx, client, userID, action)
	return &RateLimitError{
		Message:    fmt.Sprintf("please wait %.0f seconds before trying again", ttl.Seconds()),
		RetryAfter: ttl,
	}
}
