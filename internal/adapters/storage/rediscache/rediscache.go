// internal/adapters/storage/rediscache/rediscache.go
// Package rediscache implements the tool status cache on Redis. Each scan is one
// hash keyed by scan id with one field per tool, so DeleteScan is a single DEL
// and stale scans expire as a unit.
package rediscache

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
)

const keyPrefix = "domscout:status:"

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// KeyTTL expiración del hash de cada scan, renovada en cada Put (0 = nunca)
	KeyTTL time.Duration

	DialTimeout time.Duration
}

// StatusCache implements ports.StatusCache.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logx.Logger
}

var _ ports.StatusCache = (*StatusCache)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, logger logx.Logger) (*StatusCache, error) {
	if logger == nil {
		logger = logx.NewNop()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(errors.Join(errors.ErrUnavailable, err), "connect to redis at %s", cfg.Addr)
	}

	logger.Info("redis status cache ready", "addr", cfg.Addr, "db", cfg.DB)
	return &StatusCache{client: client, ttl: cfg.KeyTTL, logger: logger.With("component", "redis")}, nil
}

// Key returns the hash key of a scan.
func Key(scanID string) string {
	return keyPrefix + scanID
}

// Put upserts the field of record.Tool in the scan hash.
func (c *StatusCache) Put(ctx context.Context, record domain.ToolRecord) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal tool record")
	}

	key := Key(record.ScanID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, record.Tool, data)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "redis put")
	}
	return nil
}

// Get returns domain.ErrStatusNotCached when the field does not exist.
func (c *StatusCache) Get(ctx context.Context, scanID, tool string) (domain.ToolRecord, error) {
	raw, err := c.client.HGet(ctx, Key(scanID), tool).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ToolRecord{}, domain.ErrStatusNotCached
	}
	if err != nil {
		return domain.ToolRecord{}, errors.Wrap(err, "redis get")
	}
	return decode(raw)
}

// List returns every record of a scan ordered by tool. Malformed fields are
// logged and skipped.
func (c *StatusCache) List(ctx context.Context, scanID string) ([]domain.ToolRecord, error) {
	fields, err := c.client.HGetAll(ctx, Key(scanID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis list")
	}

	out := make([]domain.ToolRecord, 0, len(fields))
	for tool, raw := range fields {
		rec, err := decode([]byte(raw))
		if err != nil {
			c.logger.Warn("skipping malformed status record", "scan_id", scanID, "tool", tool, "error", err.Error())
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out, nil
}

// DeleteScan drops the scan hash.
func (c *StatusCache) DeleteScan(ctx context.Context, scanID string) error {
	if err := c.client.Del(ctx, Key(scanID)).Err(); err != nil {
		return errors.Wrap(err, "redis delete")
	}
	return nil
}

// Close closes the client.
func (c *StatusCache) Close() error {
	return c.client.Close()
}

func decode(raw []byte) (domain.ToolRecord, error) {
	var rec domain.ToolRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.ToolRecord{}, errors.Wrap(err, "decode tool record")
	}
	return rec, nil
}
