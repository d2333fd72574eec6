package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetFlights returns nil, nil on a miss.
func (c *RedisCache) GetFlights(ctx context.Context, search string) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey(search)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, search string, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(search), payload, c.flightsTTL).Err()
}

func (c *RedisCache) AcquireCheckoutLock(ctx context.Context, userID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, checkoutLockKey(userID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseCheckoutLock(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, checkoutLockKey(userID)).Err()
}

// SearchKey normalizes search parameters into a cache key component.
func SearchKey(origin, destination, date string) string {
	return strings.ToUpper(strings.TrimSpace(origin)) + ":" + strings.ToUpper(strings.TrimSpace(destination)) + ":" + strings.TrimSpace(date)
}

func flightsKey(search string) string {
	return "cache:flights:" + search
}

func checkoutLockKey(userID int64) string {
	return fmt.Sprintf("lock:checkout:user:%d", userID)
}
