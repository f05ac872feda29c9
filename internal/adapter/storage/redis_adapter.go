package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Reservation lock keys: resv:lock:{sku_id} -> holder token.
const lockKeyPrefix = "resv:lock:"

// Delete only if the caller still holds the lease. A token that
// expired and was reacquired by someone else must not delete the new
// holder's lock.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// Acquire is a single SET NX PX attempt. ok=false means someone else
// holds the lease right now; the caller surfaces that to the user
// instead of spinning.
func (r *RedisAdapter) Acquire(ctx context.Context, skuID string, lease time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+skuID, token, lease).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release is idempotent: releasing an expired or reassigned lease is
// a no-op, not an error.
func (r *RedisAdapter) Release(ctx context.Context, skuID, token string) error {
	return releaseLockScript.Run(ctx, r.client, []string{lockKeyPrefix + skuID}, token).Err()
}
