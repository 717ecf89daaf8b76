package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/restock-engine/internal/config"
	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	forecastKeyPrefix     = "forecast:series"
	forecastScanBatchSize = 100
)

// ForecastCache stores normalized forecast series per query.
type ForecastCache interface {
	Get(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, bool, error)
	Set(ctx context.Context, q domain.ForecastQuery, points []domain.ForecastPoint) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, bool, error) {
	payload, err := c.client.Get(ctx, ForecastKey(q)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var points []domain.ForecastPoint
	if err := json.Unmarshal(payload, &points); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return points, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, q domain.ForecastQuery, points []domain.ForecastPoint) error {
	payload, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}
	if err := c.client.Set(ctx, ForecastKey(q), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) Get(ctx context.Context, q domain.ForecastQuery) ([]domain.ForecastPoint, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, q domain.ForecastQuery, points []domain.ForecastPoint) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// ForecastKey hashes every input that changes the forecast, including the
// start date so entries roll over at midnight.
func ForecastKey(q domain.ForecastQuery) string {
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, forecastQueryHash(q))
}

func forecastQueryHash(q domain.ForecastQuery) string {
	parts := []string{
		"store=" + strings.TrimSpace(q.StoreID),
		"product=" + strings.TrimSpace(q.ProductID),
		"horizon=" + strconv.Itoa(q.Horizon),
		"start=" + q.StartDate.UTC().Format("2006-01-02"),
	}

	s := q.Scenario
	if s.Discount != nil {
		parts = append(parts, "discount="+formatFloat(*s.Discount))
	}
	if s.HolidayType != nil {
		parts = append(parts, "holiday="+strings.ToLower(strings.TrimSpace(*s.HolidayType)))
	}
	if s.Weather != nil {
		parts = append(parts, "weather="+strings.ToLower(strings.TrimSpace(*s.Weather)))
	}
	if s.Price != nil {
		parts = append(parts, "price="+formatFloat(*s.Price))
	}
	if s.CompetitorPrice != nil {
		parts = append(parts, "competitor_price="+formatFloat(*s.CompetitorPrice))
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
