// Package bus publishes change notifications to Redis streams.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Topics carried by every write.
const (
	TopicCreate = "submission.notification.create"
	TopicUpdate = "submission.notification.update"
	TopicDelete = "submission.notification.delete"
)

const mimeType = "application/json"

// Publisher sends an event for a committed write.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Event is the envelope written to the stream.
type Event struct {
	Topic      string `json:"topic"`
	Originator string `json:"originator"`
	Timestamp  string `json:"timestamp"`
	MimeType   string `json:"mime-type"`
	Payload    any    `json:"payload"`
}

// Config locates the Redis server and names the streams.
type Config struct {
	Addr         string
	Password     string
	DB           int
	StreamPrefix string
	Originator   string
	MaxLen       int64
}

// Streamer is the part of the Redis client the publisher needs.
type Streamer interface {
	XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, cfg Config, logger *zap.Logger) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))
	return rdb, nil
}

// RedisPublisher appends events to one stream per topic.
type RedisPublisher struct {
	rdb        Streamer
	prefix     string
	originator string
	maxLen     int64
	now        func() time.Time
	logger     *zap.Logger
}

// NewRedisPublisher publishes to streams named prefix+topic.
func NewRedisPublisher(rdb Streamer, cfg Config, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{
		rdb:        rdb,
		prefix:     cfg.StreamPrefix,
		originator: cfg.Originator,
		maxLen:     cfg.MaxLen,
		now:        time.Now,
		logger:     logger,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload any) error {
	raw, err := json.Marshal(Event{
		Topic:      topic,
		Originator: p.originator,
		Timestamp:  p.now().UTC().Format(time.RFC3339Nano),
		MimeType:   mimeType,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", topic, err)
	}

	args := &goredis.XAddArgs{
		Stream: p.prefix + topic,
		Values: map[string]any{"event": string(raw)},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.rdb.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.Debug("event published", zap.String("topic", topic), zap.String("id", id))
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
