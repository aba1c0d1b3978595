package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"frontdesk-server/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

func NewRedisClient(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: "",
		DB:       0,
	}), nil
}

// CalendarCache keeps rendered month calendars in redis. Each room has a
// version counter that is part of the key, so invalidation is one INCR and
// stale months simply expire. Calls go through a circuit breaker; when redis
// is unhealthy the cache reports misses and the caller computes fresh data.
type CalendarCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
	logger  *logrus.Logger
}

func NewCalendarCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *CalendarCache {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "calendar-cache",
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"path": "storage/redis", "breaker": name}).
				Warnf("circuit breaker state changed from %s to %s", from, to)
		},
	})
	return &CalendarCache{client: client, breaker: breaker, ttl: ttl, logger: logger}
}

func versionKey(roomID string) string {
	return "calendar:ver:" + roomID
}

func monthKey(roomID string, version int64, year int, month time.Month) string {
	return fmt.Sprintf("calendar:%s:v%d:%04d-%02d", roomID, version, year, int(month))
}

// Get returns the cached month and the room version it was looked up under.
// A caller that misses renders the month and hands that version back to Put,
// so a render racing an invalidation lands under a key nobody reads again.
// A negative version means redis could not be asked.
func (c *CalendarCache) Get(ctx context.Context, roomID string, year int, month time.Month) ([]models.CalendarDay, int64, bool) {
	var version int64
	res, err := c.breaker.Execute(func() (interface{}, error) {
		ver, err := c.client.Get(ctx, versionKey(roomID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		version = ver
		raw, err := c.client.Get(ctx, monthKey(roomID, ver, year, month)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return raw, err
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"path": "storage/redis", "room": roomID}).Debugf("calendar cache read failed: %v", err)
		return nil, -1, false
	}
	raw, _ := res.([]byte)
	if raw == nil {
		return nil, version, false
	}
	var days []models.CalendarDay
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, version, false
	}
	return days, version, true
}

func (c *CalendarCache) Put(ctx context.Context, roomID string, year int, month time.Month, version int64, days []models.CalendarDay) {
	if version < 0 {
		return
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, monthKey(roomID, version, year, month), raw, c.ttl).Err()
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"path": "storage/redis", "room": roomID}).Debugf("calendar cache write failed: %v", err)
	}
}

func (c *CalendarCache) Invalidate(ctx context.Context, roomID string) {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Incr(ctx, versionKey(roomID)).Err()
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"path": "storage/redis", "room": roomID}).Warnf("calendar cache invalidation failed: %v", err)
	}
}
