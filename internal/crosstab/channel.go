// Package crosstab keeps sibling sessions of the same shopper convergent. A
// session that mutates the cart writes an opaque sync token to a shared key
// and announces it; every other session observing a token change refetches the
// authoritative cart. This mirrors storage-event fan-out: the writer does not
// react to its own announcement.
package crosstab

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
	"github.com/harborline/storefront-sync/pkg/metrics"
)

// Refetcher pulls the authoritative cart into local state.
type Refetcher interface {
	Refetch(ctx context.Context) error
}

// Medium is the shared store carrying the sync token. Satisfied by the redis
// client.
type Medium interface {
	WriteSyncToken(ctx context.Context, token string) error
	ReadSyncToken(ctx context.Context) (string, error)
	SubscribeSync(ctx context.Context) (*goredis.PubSub, error)
}

// Channel is one session's handle on the shared sync token.
type Channel struct {
	medium  Medium
	refetch Refetcher
	metrics *metrics.SyncMetrics
	logg    *logger.Logger

	lastSeen int64
}

func New(medium Medium, refetch Refetcher, m *metrics.SyncMetrics, logg *logger.Logger) (*Channel, error) {
	if medium == nil {
		return nil, errors.New(errors.CodeValidation, "sync medium is required")
	}
	if refetch == nil {
		return nil, errors.New(errors.CodeValidation, "refetcher is required")
	}
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "crosstab"})
	}
	return &Channel{
		medium:  medium,
		refetch: refetch,
		metrics: m,
		logg:    logg,
	}, nil
}

// Broadcast writes a fresh sync token so sibling sessions refetch. The token
// is recorded locally first; this session already holds the state the token
// announces and must not refetch on its own echo.
func (c *Channel) Broadcast(ctx context.Context) error {
	token := time.Now().UnixNano()
	c.mark(token)
	return c.medium.WriteSyncToken(ctx, strconv.FormatInt(token, 10))
}

// Run subscribes to sync announcements and blocks until ctx is cancelled or
// the subscription closes. A token written while this session was offline is
// caught up on before the live stream is consumed.
func (c *Channel) Run(ctx context.Context) error {
	sub, err := c.medium.SubscribeSync(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	if token, err := c.medium.ReadSyncToken(ctx); err != nil {
		c.logg.Warn(ctx, "reading stored sync token failed")
	} else if token != "" {
		c.observe(ctx, token)
	}

	c.consume(ctx, sub.Channel())
	return nil
}

func (c *Channel) consume(ctx context.Context, msgs <-chan *goredis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			c.observe(ctx, msg.Payload)
		}
	}
}

// observe handles one announced token. Tokens at or below the last seen value
// are echoes or replays and are skipped.
func (c *Channel) observe(ctx context.Context, payload string) {
	token, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		c.logg.Warn(ctx, "ignoring malformed sync token")
		return
	}
	if !c.advance(token) {
		return
	}
	if err := c.refetch.Refetch(ctx); err != nil {
		c.logg.Error(ctx, "refetch on sync announcement failed", err)
	}
}

func (c *Channel) mark(token int64) {
	c.advance(token)
}

// advance moves the high-water mark forward. Broadcaster and consumer run on
// different goroutines, hence the CAS loop.
func (c *Channel) advance(token int64) bool {
	for {
		last := atomic.LoadInt64(&c.lastSeen)
		if token <= last {
			return false
		}
		if atomic.CompareAndSwapInt64(&c.lastSeen, last, token) {
			return true
		}
	}
}
