package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// TurnMarker records charged chat-turn attempts in Redis so a retried turn
// is not billed twice. The marker is written with SET NX, which makes the
// first charge for a turn ID win atomically.
type TurnMarker struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTurnMarker(client *redisv9.Client, ttl time.Duration) *TurnMarker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TurnMarker{client: client, ttl: ttl}
}

// MarkTurnCharged claims the turn ID. It returns true when this call is the
// first to claim it, false when the turn was already charged.
func (m *TurnMarker) MarkTurnCharged(ctx context.Context, turnID string) (bool, error) {
	fresh, err := m.client.SetNX(ctx, m.key(turnID), "1", m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis mark turn failed: %w", err)
	}
	return fresh, nil
}

// ClearTurn releases a claim, used when the charge was denied so a later
// attempt is checked against the ceiling again.
func (m *TurnMarker) ClearTurn(ctx context.Context, turnID string) error {
	if err := m.client.Del(ctx, m.key(turnID)).Err(); err != nil {
		return fmt.Errorf("redis clear turn failed: %w", err)
	}
	return nil
}

func (m *TurnMarker) key(turnID string) string {
	return fmt.Sprintf("usage:turn:%s", turnID)
}
