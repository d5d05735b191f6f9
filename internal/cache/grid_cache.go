package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rentalhub/pricing-api/internal/config"
	"github.com/rentalhub/pricing-api/internal/models"
)

// gridTTL bounds staleness for cached grids that survive a missed
// invalidation (e.g. prices edited outside the API).
const gridTTL = 10 * time.Minute

const versionKey = "pricing:grid:ver"

// GridCache caches assembled price grids in Redis. Entries live under a
// namespace version; invalidation bumps the version so stale entries simply
// stop being addressed and expire on their own.
type GridCache struct {
	client *redis.Client
}

// NewGridCache connects to Redis and returns a grid cache backed by it.
func NewGridCache(cfg *config.RedisConfig) (*GridCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &GridCache{client: client}, nil
}

// Close closes the Redis connection.
func (c *GridCache) Close() error {
	return c.client.Close()
}

// key builds the cache key for one grid request under the current version.
func (c *GridCache) key(ctx context.Context, rentalLocationID, rateTypeID int64, seasonDefinitionID, seasonID *int64, timeMeasurement string) string {
	ver, err := c.client.Get(ctx, versionKey).Result()
	if err != nil {
		ver = "0"
	}
	sd, s := int64(0), int64(0)
	if seasonDefinitionID != nil {
		sd = *seasonDefinitionID
	}
	if seasonID != nil {
		s = *seasonID
	}
	return fmt.Sprintf("pricing:grid:v%s:%d:%d:%d:%d:%s", ver, rentalLocationID, rateTypeID, sd, s, timeMeasurement)
}

// Get returns a cached grid, or nil on miss or any cache failure.
func (c *GridCache) Get(ctx context.Context, rentalLocationID, rateTypeID int64, seasonDefinitionID, seasonID *int64, timeMeasurement string) *models.PricesGrid {
	key := c.key(ctx, rentalLocationID, rateTypeID, seasonDefinitionID, seasonID, timeMeasurement)
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var grid models.PricesGrid
	if err := json.Unmarshal([]byte(raw), &grid); err != nil {
		return nil
	}
	return &grid
}

// Set stores an assembled grid. Cache failures are ignored; the grid was
// already computed and the caller does not care.
func (c *GridCache) Set(ctx context.Context, rentalLocationID, rateTypeID int64, seasonDefinitionID, seasonID *int64, timeMeasurement string, grid *models.PricesGrid) {
	key := c.key(ctx, rentalLocationID, rateTypeID, seasonDefinitionID, seasonID, timeMeasurement)
	raw, err := json.Marshal(grid)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, string(raw), gridTTL).Err()
}

// Invalidate drops all cached grids by bumping the namespace version.
func (c *GridCache) Invalidate(ctx context.Context) {
	_ = c.client.Incr(ctx, versionKey).Err()
}
