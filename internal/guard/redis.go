package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/macabreb0b/interpunctbot/engine"
)

// redisMarkerTTL bounds how long a crashed holder can block a (game, user)
// pair.
const redisMarkerTTL = 10 * time.Second

// releaseScript deletes the marker only if this holder still owns it, so a
// marker that expired and was re-acquired by a newer press is never deleted
// by the old holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Redis is a Guard shared across processes via SET NX markers.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func redisMarkerKey(gameID engine.GameID, userID engine.UserID) string {
	return fmt.Sprintf("press:%d:%s", gameID, userID)
}

func (r *Redis) Acquire(ctx context.Context, gameID engine.GameID, userID engine.UserID) (func(), bool, error) {
	key := redisMarkerKey(gameID, userID)
	owner := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, owner, redisMarkerTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire marker %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// Release outlives the press context so a canceled interaction still
		// frees the marker.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.client.Eval(rctx, releaseScript, []string{key}, owner).Err(); err != nil {
			log.WithFields(log.Fields{"key": key, "error": err}).Warn("failed to release press marker")
		}
	}
	return release, true, nil
}
