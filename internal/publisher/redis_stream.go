// Package publisher mirrors presentation updates onto a Redis stream.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/litescript/ls-awaydays/internal/logging"
	"github.com/litescript/ls-awaydays/internal/stats"
	"github.com/litescript/ls-awaydays/internal/timeline"
)

// DefaultBuffer is the number of queued updates before new ones are dropped.
const DefaultBuffer = 256

// Streamer is the subset of the Redis client used for publishing.
type Streamer interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamName returns the stream a team's playback is published to.
func StreamName(team string) string {
	return "awaydays.playback." + team
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type entry struct {
	kind    string
	payload interface{}
	at      time.Time
}

// RedisStream is a timeline.Bridge that queues every update and publishes it
// from its own goroutine. Enqueueing never blocks; a full queue drops the update.
type RedisStream struct {
	client  Streamer
	stream  string
	queue   chan entry
	log     *logging.Logger
	now     func() time.Time
	dropped atomic.Uint64
}

// NewRedisStream creates a publisher for one team's playback.
func NewRedisStream(client Streamer, team string, buffer int, log *logging.Logger) *RedisStream {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = logging.Discard()
	}
	return &RedisStream{
		client: client,
		stream: StreamName(team),
		queue:  make(chan entry, buffer),
		log:    log,
		now:    time.Now,
	}
}

// Stream returns the stream name.
func (p *RedisStream) Stream() string { return p.stream }

// Dropped returns how many updates were discarded because the queue was full.
func (p *RedisStream) Dropped() uint64 { return p.dropped.Load() }

func (p *RedisStream) SetInfo(info timeline.Info) { p.enqueue("info", info) }

func (p *RedisStream) AppendRow(row stats.Row) { p.enqueue("row", row) }

func (p *RedisStream) ClearRows() { p.enqueue("rows_cleared", nil) }

func (p *RedisStream) SetStat(cell stats.Cell) { p.enqueue("stat", cell) }

func (p *RedisStream) enqueue(kind string, payload interface{}) {
	select {
	case p.queue <- entry{kind: kind, payload: payload, at: p.now()}:
	default:
		if n := p.dropped.Add(1); n == 1 || n%100 == 0 {
			p.log.Warn("stream %s queue full, %d updates dropped", p.stream, n)
		}
	}
}

// Run publishes queued updates until ctx is cancelled.
func (p *RedisStream) Run(ctx context.Context) error {
	p.log.Info("publishing to stream %s", p.stream)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-p.queue:
			if err := p.publish(ctx, e); err != nil {
				p.log.Warn("publish %s: %v", e.kind, err)
			}
		}
	}
}

func (p *RedisStream) publish(ctx context.Context, e entry) error {
	data, err := json.Marshal(e.payload)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":      e.kind,
			"data":      string(data),
			"timestamp": e.at.Unix(),
		},
	}).Err()
}
