// Package cache decorates the victim and case stores with a Redis
// read-through cache on the FindByID path. Every write through a decorator
// invalidates the keys it touched.
//
// Each key has a generation counter next to it. Invalidation bumps the
// counter, and a read only fills the cache while the generation it saw on the
// miss is unchanged, so a row read before a write can never be cached after
// it. Writes inside a transaction are invalidated again once Tx.RunInTx
// returns.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"casefile/pkg/platform/circuit"
	txcontext "casefile/pkg/platform/tx"
)

const (
	victimKeyPrefix = "casefile:victim:"
	caseKeyPrefix   = "casefile:case:"

	defaultTTL = 5 * time.Minute

	genSuffix = ":gen"
	// genGrace keeps a generation alive past the value TTL so a slow reader
	// cannot see it expire and mistake the key for never written.
	genGrace = time.Minute
)

// fillScript writes ARGV[2] to KEYS[1] only when the generation in KEYS[2]
// still equals ARGV[1] (empty for a key never invalidated).
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "casefile_cache_lookups_total",
	Help: "Read-through cache lookups by entity and result (hit, miss, error, bypass)",
}, []string{"entity", "result"})

type Option func(*base)

func WithTTL(ttl time.Duration) Option {
	return func(b *base) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBreaker shares one breaker between decorators backed by the same client.
func WithBreaker(breaker *circuit.Breaker) Option {
	return func(b *base) {
		if breaker != nil {
			b.breaker = breaker
		}
	}
}

// base holds the Redis plumbing shared by both decorators.
type base struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	entity  string
	breaker *circuit.Breaker
}

func newBase(client *redis.Client, entity string, opts []Option) base {
	b := base{client: client, ttl: defaultTTL, logger: slog.Default(), entity: entity}
	for _, opt := range opts {
		opt(&b)
	}
	if b.breaker == nil {
		b.breaker = circuit.New("redis-cache")
	}
	return b
}

// observe feeds a Redis round trip into the breaker. It returns false while
// the circuit is open: invalidations may have been lost during the outage, so
// cached values are not trusted until Redis has been healthy for a while.
func (b *base) observe(ctx context.Context, err error) bool {
	if err != nil && !errors.Is(err, redis.Nil) {
		_, change := b.breaker.RecordFailure()
		if change.Opened {
			b.logger.WarnContext(ctx, "cache circuit opened", "breaker", b.breaker.Name(), "error", err)
		}
		return false
	}
	usePrimary, change := b.breaker.RecordSuccess()
	if change.Closed {
		b.logger.InfoContext(ctx, "cache circuit closed", "breaker", b.breaker.Name())
	}
	return usePrimary
}

// inTx reports whether ctx carries an open database transaction. Reads made
// inside one may see uncommitted rows, so they bypass the cache.
func inTx(ctx context.Context) bool {
	if _, ok := pendingFrom(ctx); ok {
		return true
	}
	if _, ok := txcontext.From(ctx); ok {
		return true
	}
	return mongo.SessionFromContext(ctx) != nil
}

func genKey(key string) string {
	return key + genSuffix
}

// lease is the generation observed on a miss. A fill made with an invalid
// lease is dropped.
type lease struct {
	gen   string
	valid bool
}

// get decodes a cached record into dst. Redis failures count as misses so a
// cache outage never fails a read.
func (b *base) get(ctx context.Context, key string, dst any) (bool, lease) {
	vals, err := b.client.MGet(ctx, key, genKey(key)).Result()
	trusted := b.observe(ctx, err)
	if err != nil {
		cacheLookups.WithLabelValues(b.entity, "error").Inc()
		b.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return false, lease{}
	}

	l := lease{valid: true}
	if gen, ok := vals[1].(string); ok {
		l.gen = gen
	}
	raw, ok := vals[0].(string)
	if !ok {
		cacheLookups.WithLabelValues(b.entity, "miss").Inc()
		return false, l
	}
	if !trusted {
		cacheLookups.WithLabelValues(b.entity, "bypass").Inc()
		return false, lease{}
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		cacheLookups.WithLabelValues(b.entity, "error").Inc()
		b.logger.WarnContext(ctx, "cache decode failed", "key", key, "error", err)
		return false, l
	}
	cacheLookups.WithLabelValues(b.entity, "hit").Inc()
	return true, l
}

// put fills key unless it was invalidated after the lease was taken.
func (b *base) put(ctx context.Context, key string, l lease, v any) {
	if !l.valid || b.breaker.IsOpen() {
		return
	}
	raw, err := json.Marshal(v)
	if err == nil {
		err = fillScript.Run(ctx, b.client, []string{key, genKey(key)}, l.gen, raw, b.ttl.Milliseconds()).Err()
		b.observe(ctx, err)
	}
	if err != nil {
		b.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

// invalidate drops keys and bumps their generations. Inside Tx.RunInTx the
// keys are also remembered and invalidated again after the transaction ends.
func (b *base) invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if p, ok := pendingFrom(ctx); ok {
		p.add(keys)
	}
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, genKey(key))
			pipe.PExpire(ctx, genKey(key), b.ttl+genGrace)
		}
		return nil
	})
	b.observe(ctx, err)
	if err != nil {
		b.logger.WarnContext(ctx, "cache invalidation failed", "keys", len(keys), "error", err)
	}
}

type pendingKey struct{}

// pending collects the keys invalidated inside one transaction.
type pending struct {
	mu   sync.Mutex
	keys []string
}

func (p *pending) add(keys []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, keys...)
}

func (p *pending) drain() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := p.keys
	p.keys = nil
	return keys
}

func pendingFrom(ctx context.Context) (*pending, bool) {
	p, ok := ctx.Value(pendingKey{}).(*pending)
	return p, ok
}
