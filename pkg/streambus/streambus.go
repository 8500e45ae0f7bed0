// Package streambus wraps Redis streams, dedupe sets, and heartbeats
// behind the small interface the original's app.utils module exposed
// to every worker (ensure_consumer_group, consume_from_stream,
// acknowledge_message, retry_or_dead_letter, publish_to_stream, plus
// ops.start_heartbeat/stop_heartbeat) — rebuilt here on go-redis
// streams rather than translated line for line.
package streambus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StreamRawEvents     = "titan:raw_events"
	StreamDecodedTrades = "titan:decoded_trades"
	StreamRiskJobs      = "titan:risk_jobs"
	StreamProfileJobs   = "titan:profile_jobs"
	StreamAlertJobs     = "titan:alert_jobs"

	DeadSuffix = ":dead"

	defaultMaxRetries = 3
)

type Bus struct {
	rdb *redis.Client
}

func New(redisURL string) (*Bus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Bus{rdb: redis.NewClient(opt)}, nil
}

func (b *Bus) Close() error {
	return b.rdb.Close()
}

// Message is a flat string->string stream entry; list/dict values are
// JSON-encoded strings, per §6.
type Message struct {
	ID     string
	Fields map[string]string
}

func (m Message) JSON(key string, out interface{}) error {
	raw, ok := m.Fields[key]
	if !ok || raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

// Publish appends a message to a stream, JSON-encoding any field value
// that isn't already a string.
func (b *Bus) Publish(ctx context.Context, stream string, fields map[string]interface{}) error {
	flat := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			flat[k] = val
		default:
			encoded, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("encoding field %q: %w", k, err)
			}
			flat[k] = string(encoded)
		}
	}
	return b.rdb.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: flat}).Err()
}

// EnsureConsumerGroup creates the group starting from the beginning of
// the stream if it doesn't already exist.
func (b *Bus) EnsureConsumerGroup(ctx context.Context, stream, group string) error {
	err := b.rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !isBusyGroupErr(err) {
		return fmt.Errorf("ensuring consumer group %s/%s: %w", stream, group, err)
	}
	return nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && (err.Error() == "BUSYGROUP Consumer Group name already exists")
}

// Consume reads up to count messages for a consumer group/consumer
// pair. Entries this consumer already read but never acked (left
// pending by RetryOrDeadLetter) are redelivered first; only when there
// are none does it read new entries, blocking up to blockFor (short
// timeouts keep the worker cancellable, per §5's "websocket receives
// use short timeouts" requirement, generalized to every blocking read).
func (b *Bus) Consume(ctx context.Context, stream, group, consumer string, count int64, blockFor time.Duration) ([]Message, error) {
	start := ">"
	pending, err := b.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream, Group: group, Start: "-", End: "+", Count: 1, Consumer: consumer,
	}).Result()
	if err == nil && len(pending) > 0 {
		start = "0"
	}
	res, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, start},
		Count:    count,
		Block:    blockFor,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading from %s/%s: %w", stream, group, err)
	}
	var out []Message
	for _, s := range res {
		for _, m := range s.Messages {
			fields := make(map[string]string, len(m.Values))
			for k, v := range m.Values {
				if s, ok := v.(string); ok {
					fields[k] = s
				}
			}
			out = append(out, Message{ID: m.ID, Fields: fields})
		}
	}
	return out, nil
}

func (b *Bus) Ack(ctx context.Context, stream, group, id string) error {
	return b.rdb.XAck(ctx, stream, group, id).Err()
}

// RetryOrDeadLetter implements the source's retry/dead-letter helper:
// increments a retry counter for the message, and once it exceeds
// maxRetries (default 3), republishes the message body onto the
// stream's :dead companion and acks the original so it stops being
// redelivered.
func (b *Bus) RetryOrDeadLetter(ctx context.Context, stream, group string, msg Message, maxRetries int) error {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryKey := fmt.Sprintf("titan:retry:%s:%s", stream, msg.ID)
	count, err := b.rdb.Incr(ctx, retryKey).Result()
	if err != nil {
		return fmt.Errorf("incrementing retry counter: %w", err)
	}
	b.rdb.Expire(ctx, retryKey, time.Hour)

	if count <= int64(maxRetries) {
		return nil // leave pending; the next Consume redelivers it
	}

	deadFields := make(map[string]interface{}, len(msg.Fields)+1)
	for k, v := range msg.Fields {
		deadFields[k] = v
	}
	deadFields["retry_count"] = count
	if err := b.Publish(ctx, stream+DeadSuffix, deadFields); err != nil {
		return fmt.Errorf("publishing to dead letter stream: %w", err)
	}
	return b.Ack(ctx, stream, group, msg.ID)
}

// DedupeCheckAndSet returns true if the key was already present
// (a duplicate), setting it with the given TTL if it was not.
func (b *Bus) DedupeCheckAndSet(ctx context.Context, set, key string, ttl time.Duration) (bool, error) {
	ok, err := b.rdb.SetNX(ctx, fmt.Sprintf("%s:%s", set, key), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// CacheGet/CacheSet back the decoder's token_lookup cache and the
// risk worker's DexScreener/GoPlus in-process-equivalent TTL caches.
func (b *Bus) CacheGet(ctx context.Context, key string) (string, bool, error) {
	val, err := b.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (b *Bus) CacheSet(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

// CacheSetJSON/CacheGetJSON are CacheSet/CacheGet for structured
// values (the Risk worker's DexScreener/GoPlus entries and the
// Outcomes worker's DexScreener cache).
func (b *Bus) CacheSetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.CacheSet(ctx, key, string(encoded), ttl)
}

func (b *Bus) CacheGetJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	val, ok, err := b.CacheGet(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	return true, json.Unmarshal([]byte(val), out)
}

// Heartbeat writes titan:hb:{worker} with a 60s TTL every 15s, per §5,
// until ctx is cancelled.
func (b *Bus) Heartbeat(ctx context.Context, worker string) {
	key := fmt.Sprintf("titan:hb:%s", worker)
	write := func() {
		b.rdb.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), 60*time.Second)
	}
	write()
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			write()
		}
	}
}

// HeartbeatAge reports how long ago a worker's heartbeat was written,
// for the query API's ops/health surface. Returns ok=false if the key
// has expired or never existed.
func (b *Bus) HeartbeatAge(ctx context.Context, worker string) (time.Duration, bool, error) {
	key := fmt.Sprintf("titan:hb:%s", worker)
	val, err := b.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	ts, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return 0, false, nil
	}
	return time.Since(ts), true, nil
}

// PendingCount reports a consumer group's pending-entries count, for
// the query API's ops/health surface.
func (b *Bus) PendingCount(ctx context.Context, stream, group string) (int64, error) {
	summary, err := b.rdb.XPending(ctx, stream, group).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return summary.Count, nil
}
