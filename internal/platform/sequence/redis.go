package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Source backed by a shared redis instance so multiple front-desk
// processes can issue from the same per-day sequence. Keys expire two days
// after their issuing day.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Next(ctx context.Context, day time.Time) (int64, error) {
	key := fmt.Sprintf("token:seq:%s", day.Format("20060102"))
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing token sequence: %w", err)
	}
	if n == 1 {
		r.client.Expire(ctx, key, 48*time.Hour)
	}
	return n, nil
}
