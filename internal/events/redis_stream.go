package events

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"wolontariat/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultStreamKey is the Redis stream gamification events are appended to
const DefaultStreamKey = "gamification:events"

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// RedisStream appends events to a capped Redis stream
type RedisStream struct {
	rdb    *redis.Client
	key    string
	maxLen int64
}

func NewRedisStream(rdb *redis.Client, key string, maxLen int64) *RedisStream {
	if key == "" {
		key = DefaultStreamKey
	}
	return &RedisStream{rdb: rdb, key: key, maxLen: maxLen}
}

func (s *RedisStream) Publish(ctx context.Context, event models.GamificationEvent) error {
	data, err := MarshalEvent(NewEvent(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.key,
		Values: map[string]interface{}{"type": event.Type, "data": data},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.key, err)
	}
	return nil
}

// Broadcaster receives events read back from the stream
type Broadcaster interface {
	Publish(ctx context.Context, event models.GamificationEvent) error
}

// StreamConsumer forwards stream entries to the local websocket hub. Every
// server instance reads with its own consumer group so each instance sees
// every event.
type StreamConsumer struct {
	rdb          *redis.Client
	key          string
	groupName    string
	consumerName string
	hub          Broadcaster
	log          *zap.Logger
}

func NewStreamConsumer(rdb *redis.Client, key string, hub Broadcaster, log *zap.Logger) *StreamConsumer {
	if key == "" {
		key = DefaultStreamKey
	}
	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	return &StreamConsumer{
		rdb:          rdb,
		key:          key,
		groupName:    "feed-" + instanceID,
		consumerName: "consumer-" + instanceID,
		hub:          hub,
		log:          log.Named("stream"),
	}
}

// Run consumes until ctx is cancelled
func (sc *StreamConsumer) Run(ctx context.Context) error {
	err := sc.rdb.XGroupCreateMkStream(ctx, sc.key, sc.groupName, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() {
		// The group belongs to this process only
		_ = sc.rdb.XGroupDestroy(context.Background(), sc.key, sc.groupName).Err()
	}()

	for {
		streams, err := sc.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    sc.groupName,
			Consumer: sc.consumerName,
			Streams:  []string{sc.key, ">"},
			Count:    100,
			Block:    time.Second,
		}).Result()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			sc.log.Warn("stream read failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				if err := sc.processMessage(ctx, message); err != nil {
					sc.log.Warn("dropping stream message", zap.String("id", message.ID), zap.Error(err))
				}
				if err := sc.rdb.XAck(ctx, sc.key, sc.groupName, message.ID).Err(); err != nil {
					sc.log.Warn("stream ack failed", zap.String("id", message.ID), zap.Error(err))
				}
			}
		}
	}
}

func (sc *StreamConsumer) processMessage(ctx context.Context, message redis.XMessage) error {
	data, ok := message.Values["data"].(string)
	if !ok {
		return fmt.Errorf("invalid message format: missing data field")
	}
	event, err := UnmarshalEvent(data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return sc.hub.Publish(ctx, event.Payload)
}
