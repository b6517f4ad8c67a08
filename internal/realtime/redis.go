package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisFeed fans change events out through Redis Pub/Sub so that every API
// instance sees writes made by any other instance.
type RedisFeed struct {
	rdb    *redis.Client
	prefix string
	log    *logrus.Entry
}

// NewRedisFeed binds a feed to an existing client. prefix namespaces the
// channels (default "billboard").
func NewRedisFeed(rdb *redis.Client, prefix string, log *logrus.Entry) *RedisFeed {
	return &RedisFeed{rdb: rdb, prefix: prefix, log: log.WithField("component", "realtime")}
}

// Publish serializes ev as JSON onto the billboard's channel.
func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, Channel(f.prefix, ev.BillboardID), body).Err()
}

// Subscribe opens a dedicated Pub/Sub connection for one billboard and
// decodes messages until cancel is called or ctx ends.
func (f *RedisFeed) Subscribe(ctx context.Context, billboardID uint64) (<-chan Event, func(), error) {
	ps := f.rdb.Subscribe(ctx, Channel(f.prefix, billboardID))
	// Wait for the subscription confirmation so that errors surface here.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan Event, 16)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					f.log.WithError(err).Warn("discarding malformed change event")
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, cancel, nil
}
