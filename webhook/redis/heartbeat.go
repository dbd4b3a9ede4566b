package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/redis/go-redis/v9"
)

const (
	heartbeatPrefix = "poller:heartbeat"

	// HeartbeatTTL is how long a poller is considered alive after its last heartbeat
	HeartbeatTTL = 30 * time.Second
)

// PollerHeartbeat represents the heartbeat data for a retry poller
type PollerHeartbeat struct {
	PollerID      string    `json:"poller_id"`
	Status        string    `json:"status"` // "idle", "processing", "stopped"
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// SetPollerHeartbeat stores or updates a poller's heartbeat in Redis
// The key expires after HeartbeatTTL - a poller that misses its ticks is considered inactive
func (r *Repository) SetPollerHeartbeat(ctx context.Context, pollerID, status string) error {
	key := fmt.Sprintf("%s:%s", heartbeatPrefix, pollerID)

	heartbeat := PollerHeartbeat{
		PollerID:      pollerID,
		Status:        status,
		LastHeartbeat: time.Now(),
	}

	data, err := json.Marshal(heartbeat)
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	if err := r.client.Set(ctx, key, data, HeartbeatTTL).Err(); err != nil {
		return fmt.Errorf("setting heartbeat: %w", err)
	}

	return nil
}

// GetActivePollers retrieves every poller with a live heartbeat, stopped ones excluded
func (r *Repository) GetActivePollers(ctx context.Context) ([]PollerHeartbeat, error) {
	pattern := heartbeatPrefix + ":*"
	var pollers []PollerHeartbeat

	var cursor uint64
	for {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning poller keys: %w", err)
		}

		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				// Key expired between scan and get
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("getting poller heartbeat: %w", err)
			}

			var heartbeat PollerHeartbeat
			if err := json.Unmarshal([]byte(data), &heartbeat); err != nil {
				continue
			}
			if heartbeat.Status == webhook.PollerStopped {
				continue
			}

			pollers = append(pollers, heartbeat)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return pollers, nil
}
