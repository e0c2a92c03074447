// Package distributed carries office events over Redis pub/sub, for
// deployments where the office server fans out through Redis instead of
// holding a websocket per client.
package distributed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	"morpheus/internal/infrastructure/signal"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RedisTransport reads inbound frames from a channel and publishes
// outbound frames on "<channel>:outbound". Frames use the websocket
// envelope.
type RedisTransport struct {
	client     *redis.Client
	channel    string
	outbound   string
	instanceID string
	buffer     int
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	pubsub *redis.PubSub
}

var _ ports.Transport = (*RedisTransport)(nil)

type Options struct {
	Channel           string
	EventBuffer       int
	MessagesPerSecond float64
	Burst             int
}

func NewRedisTransport(client *redis.Client, opts Options, logger *zap.SugaredLogger) *RedisTransport {
	if opts.Channel == "" {
		opts.Channel = "morpheus:events"
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}

	return &RedisTransport{
		client:     client,
		channel:    opts.Channel,
		outbound:   opts.Channel + ":outbound",
		instanceID: uuid.NewString(),
		buffer:     opts.EventBuffer,
		limiter:    rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), opts.Burst),
		logger:     logger,
	}
}

func (t *RedisTransport) InitEvents(ctx context.Context, rooms []domain.Room) (ports.Subscription, error) {
	pubsub := t.client.Subscribe(ctx, t.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", t.channel, err)
	}

	join, err := signal.JoinOffice(rooms)
	if err != nil {
		pubsub.Close()
		return nil, err
	}
	if err := t.client.Publish(ctx, t.outbound, join).Err(); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to publish %s: %w", signal.TypeJoinOffice, err)
	}

	t.mu.Lock()
	prev := t.pubsub
	t.pubsub = pubsub
	t.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	sub := &subscription{
		id:     t.instanceID + ":" + uuid.NewString(),
		events: make(chan domain.Event, t.buffer),
		done:   make(chan struct{}),
	}
	go t.forward(pubsub, sub)

	t.logger.Infow("subscribed to office events",
		"channel", t.channel,
		"subscription_id", sub.id,
		"rooms", len(rooms),
	)

	return sub, nil
}

// forward decodes messages until the pubsub is closed or the subscription
// is released.
func (t *RedisTransport) forward(pubsub *redis.PubSub, sub *subscription) {
	defer close(sub.events)

	ch := pubsub.Channel()
	for {
		select {
		case <-sub.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			ev, err := signal.DecodeEvent([]byte(msg.Payload))
			if err != nil {
				if errors.Is(err, signal.ErrUnknownMessageType) {
					t.logger.Debugw("ignoring message", "channel", msg.Channel, "error", err)
				} else {
					t.logger.Warnw("failed to decode event", "channel", msg.Channel, "error", err)
				}
				continue
			}

			select {
			case sub.events <- ev:
			case <-sub.done:
				return
			}
		}
	}
}

func (t *RedisTransport) CloseConnection() error {
	t.mu.Lock()
	pubsub := t.pubsub
	t.pubsub = nil
	t.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	if err := pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close pubsub: %w", err)
	}
	return nil
}

func (t *RedisTransport) EmitEnterInRoom(ctx context.Context, roomID domain.RoomID) error {
	data, err := signal.EnterRoom(roomID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	open := t.pubsub != nil
	t.mu.Unlock()
	if !open {
		return domain.ErrConnectionClosed
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("outbound rate limit: %w", err)
	}
	if err := t.client.Publish(ctx, t.outbound, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", signal.TypeEnterRoom, err)
	}

	t.logger.Debugw("published event", "type", signal.TypeEnterRoom, "room_id", roomID)
	return nil
}

type subscription struct {
	id     string
	events chan domain.Event

	doneOnce sync.Once
	done     chan struct{}
}

func (s *subscription) ID() string                  { return s.id }
func (s *subscription) Events() <-chan domain.Event { return s.events }

func (s *subscription) Close() error {
	s.doneOnce.Do(func() {
		close(s.done)
	})
	return nil
}
