package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

// TicketGuard records redeemed activation tickets so each is used once.
// Key format: activation:<jti>
type TicketGuard struct {
	client *redis.Client
}

func NewTicketGuard(client *redis.Client) *TicketGuard {
	return &TicketGuard{client: client}
}

// Claim marks the ticket as redeemed until it would have expired anyway.
func (g *TicketGuard) Claim(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := g.client.SetNX(ctx, g.key(id), "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("claim ticket: %w", err)
	}
	if !ok {
		return domain.ErrActivationTicketUsed
	}
	return nil
}

// Release undoes a claim when the account could not be created.
func (g *TicketGuard) Release(ctx context.Context, id string) error {
	return g.client.Del(ctx, g.key(id)).Err()
}

func (g *TicketGuard) key(id string) string {
	return "activation:" + id
}
