package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pasar/internal/common"
)

// Store persists session carts. A missing cart reads as empty; writes replace
// the whole cart so the mutation is a single logical transaction. Concurrent
// writes to the same session are last-write-wins.
type Store interface {
	Get(ctx context.Context, sessionID string) (Cart, error)
	Replace(ctx context.Context, sessionID string, cart Cart) error
}

// RedisStore keeps carts as JSON blobs with a sliding TTL.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s RedisStore) key(sessionID string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "cart:"
	}
	return prefix + sessionID
}

func (s RedisStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Get loads the cart for the session, returning an empty cart when absent.
func (s RedisStore) Get(ctx context.Context, sessionID string) (Cart, error) {
	if s.Client == nil {
		return Cart{}, fmt.Errorf("cart store not configured")
	}
	data, err := s.Client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Cart{}, nil
		}
		return Cart{}, fmt.Errorf("load cart: %w", storeErr(err))
	}
	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		// a corrupt blob heals to an empty cart instead of erroring the session
		return Cart{}, nil
	}
	return cart, nil
}

// Replace overwrites the session cart and refreshes its TTL.
func (s RedisStore) Replace(ctx context.Context, sessionID string, cart Cart) error {
	if s.Client == nil {
		return fmt.Errorf("cart store not configured")
	}
	if len(cart.Lines) == 0 && cart.PromoCode == "" {
		if err := s.Client.Del(ctx, s.key(sessionID)).Err(); err != nil {
			return fmt.Errorf("clear cart: %w", storeErr(err))
		}
		return nil
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.Client.Set(ctx, s.key(sessionID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart: %w", storeErr(err))
	}
	return nil
}

// storeErr folds context-driven redis failures into the shared transient
// sentinel so callers can answer 503 instead of 500.
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%v: %w", err, common.ErrTransient)
	}
	return err
}
