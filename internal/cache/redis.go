package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/tickersense/internal/model"
)

// Key prefixes.
const (
	quotePrefix   = "quote:"
	historyPrefix = "sentiment:history:"
)

// Config holds Redis connection settings.
type Config struct {
	Addr       string
	Password   string
	DB         int
	HistoryTTL time.Duration // Entries older than this are trimmed
}

// RedisStore implements quote.Store and History on Redis.
type RedisStore struct {
	client     *redis.Client
	historyTTL time.Duration
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(ctx context.Context, cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	ttl := cfg.HistoryTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStore{client: client, historyTTL: ttl}, nil
}

// GetQuote returns a cached quote, reporting false on a miss.
func (s *RedisStore) GetQuote(ctx context.Context, symbol string) (model.Quote, bool, error) {
	data, err := s.client.Get(ctx, quotePrefix+symbol).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Quote{}, false, nil
	}
	if err != nil {
		return model.Quote{}, false, fmt.Errorf("get quote: %w", err)
	}

	var q model.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return model.Quote{}, false, fmt.Errorf("decode quote: %w", err)
	}
	return q, true, nil
}

// SetQuote caches a quote for ttl.
func (s *RedisStore) SetQuote(ctx context.Context, q model.Quote, ttl time.Duration) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	if err := s.client.Set(ctx, quotePrefix+q.Symbol, data, ttl).Err(); err != nil {
		return fmt.Errorf("set quote: %w", err)
	}
	return nil
}

// RecordSentiment appends a raw sentiment to the symbol's history and trims
// entries older than the history TTL.
func (s *RedisStore) RecordSentiment(ctx context.Context, symbol string, at time.Time, value float64) error {
	key := historyPrefix + symbol
	member := historyMember(at, value)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixMilli()), Member: member})
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(at.Add(-s.historyTTL).UnixMilli(), 10))
	pipe.Expire(ctx, key, s.historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record sentiment: %w", err)
	}
	return nil
}

// PreviousSentiment returns the newest recorded sentiment strictly before
// the given time.
func (s *RedisStore) PreviousSentiment(ctx context.Context, symbol string, before time.Time) (float64, bool, error) {
	vals, err := s.client.ZRevRangeByScore(ctx, historyPrefix+symbol, &redis.ZRangeBy{
		Max:   "(" + strconv.FormatInt(before.UnixMilli(), 10),
		Min:   "-inf",
		Count: 1,
	}).Result()
	if err != nil {
		return 0, false, fmt.Errorf("previous sentiment: %w", err)
	}
	if len(vals) == 0 {
		return 0, false, nil
	}
	_, v, err := parseHistoryMember(vals[0])
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// historyMember encodes a history entry as "<unix ms>:<value>" so equal
// values at different times stay distinct set members.
func historyMember(at time.Time, value float64) string {
	return strconv.FormatInt(at.UnixMilli(), 10) + ":" + strconv.FormatFloat(value, 'f', -1, 64)
}

func parseHistoryMember(m string) (time.Time, float64, error) {
	for i := 0; i < len(m); i++ {
		if m[i] != ':' {
			continue
		}
		ms, err := strconv.ParseInt(m[:i], 10, 64)
		if err != nil {
			break
		}
		v, err := strconv.ParseFloat(m[i+1:], 64)
		if err != nil {
			break
		}
		return time.UnixMilli(ms).UTC(), v, nil
	}
	return time.Time{}, 0, fmt.Errorf("malformed history member %q", m)
}
