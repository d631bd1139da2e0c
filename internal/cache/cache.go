// Package cache stores search results keyed by index generation and query,
// so a swapped-in index never serves results computed against the old one.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/gcbaptista/go-archive-search/internal/logging"
	"github.com/gcbaptista/go-archive-search/model"
)

const keyPrefix = "archive-search:"

// ComputeFunc produces a result on a cache miss.
type ComputeFunc func() (*model.SearchResult, error)

// Cache looks up a result or computes and stores it.
type Cache interface {
	GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (result *model.SearchResult, cached bool, err error)
}

// Key derives a cache key from the serving generation and the query. Term
// order and multiplicity are part of the key since both affect scores.
func Key(generation uint64, terms []string, maxLength int, minScore float64) string {
	h := sha256.New()
	for _, term := range terms {
		h.Write([]byte(strconv.Itoa(len(term))))
		h.Write([]byte{':'})
		h.Write([]byte(term))
	}
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(maxLength)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatUint(math.Float64bits(minScore), 16)))
	return keyPrefix + strconv.FormatUint(generation, 10) + ":" + hex.EncodeToString(h.Sum(nil))
}

// Noop never caches.
type Noop struct{}

// GetOrCompute always computes.
func (Noop) GetOrCompute(_ context.Context, _ string, compute ComputeFunc) (*model.SearchResult, bool, error) {
	result, err := compute()
	return result, false, err
}

// Redis caches results in Redis and collapses concurrent identical misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *logrus.Entry
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis connects to Redis and verifies the connection with a PING.
func NewRedis(ctx context.Context, opts *redis.Options, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newRedisWithClient(client, ttl), nil
}

func newRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logging.WithComponent("query-cache"),
	}
}

// GetOrCompute implements Cache. Redis failures degrade to computing.
func (c *Redis) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (*model.SearchResult, bool, error) {
	if result, ok := c.get(ctx, key); ok {
		return result, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}

	// Callers may stamp per-request fields on the result; give each its own copy.
	shared := v.(*model.SearchResult)
	result := *shared
	return &result, false, nil
}

func (c *Redis) get(ctx context.Context, key string) (*model.SearchResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).WithField("key", key).Error("cache get failed")
		}
		c.misses.Add(1)
		return nil, false
	}
	var result model.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("cache unmarshal failed")
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &result, true
}

func (c *Redis) set(ctx context.Context, key string, result *model.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("cache set failed")
	}
}

// Stats returns hit and miss counts since start.
func (c *Redis) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the Redis connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}
