package services

import (
	"context"
	"sync"
	"sync/atomic"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
	rlog "morpheus/pkg/logger"

	"go.uber.org/zap"
)

// SessionService owns the lifetime of the event subscription. A
// subscription is acquired while the host snapshot says the user is logged
// in and is released on every exit path: logout, dependency change, Close.
//
// Every dependency change tears the subscription down and opens a new one;
// events the server sends during that window are missed.
type SessionService struct {
	transport ports.Transport
	router    *EventRouter
	loop      *EventLoop
	logger    *zap.SugaredLogger
	metrics   ports.Metrics

	// Confined to the loop goroutine. snap is the last applied snapshot and
	// only drives subscription decisions; handlers get latest.
	snap       domain.Snapshot
	applied    bool
	sub        ports.Subscription
	cancelPump context.CancelFunc
	generation uint64

	latest    atomic.Pointer[domain.Snapshot]
	active    atomic.Bool
	closeOnce sync.Once
}

func NewSessionService(
	transport ports.Transport,
	loop *EventLoop,
	logger *zap.SugaredLogger,
	metrics ports.Metrics,
) *SessionService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	s := &SessionService{
		transport: transport,
		router:    NewEventRouter(logger, metrics),
		loop:      loop,
		logger:    logger,
		metrics:   metrics,
	}
	s.latest.Store(&domain.Snapshot{})

	return s
}

// Router exposes the handler table so synchronizers can register.
func (s *SessionService) Router() *EventRouter {
	return s.router
}

// Update hands the session the host's latest snapshot. It never blocks and
// is safe to call from a state mutator running inside a handler. The
// snapshot is visible to the next dispatched event at once; the
// resubscribe decision runs on the loop.
func (s *SessionService) Update(snap domain.Snapshot) {
	s.latest.Store(&snap)
	s.loop.Post(func() {
		s.apply(snap)
	})
}

// Current returns the latest snapshot passed to Update.
func (s *SessionService) Current() domain.Snapshot {
	return *s.latest.Load()
}

// CurrentSettings reads the settings at call time.
func (s *SessionService) CurrentSettings() domain.Settings {
	return s.Current().Settings
}

// Active reports whether a subscription is currently held.
func (s *SessionService) Active() bool {
	return s.active.Load()
}

// Flush waits until every Update and event posted so far has been handled.
func (s *SessionService) Flush() {
	s.loop.Do(func() {})
}

// Close releases the subscription and stops the loop. Idempotent. It must
// not be called from inside a handler.
func (s *SessionService) Close() {
	s.closeOnce.Do(func() {
		s.loop.Do(func() {
			if s.applied {
				s.release()
			}
		})
		s.loop.Stop()
		s.logger.Infow("session closed")
	})
}

// Run blocks until ctx is done, then closes the session.
func (s *SessionService) Run(ctx context.Context) {
	defer s.Close()
	<-ctx.Done()
}

func (s *SessionService) apply(snap domain.Snapshot) {
	prev := s.snap
	s.snap = snap

	if s.applied && !prev.DependsDiffer(snap) {
		return
	}

	if s.applied {
		s.release()
	}
	s.applied = true

	if snap.LoggedIn {
		s.acquire(snap.Rooms)
	}
}

func (s *SessionService) acquire(rooms []domain.Room) {
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := s.transport.InitEvents(ctx, rooms)
	if err != nil {
		cancel()
		s.metrics.RecordSideEffectFailure("subscribe")
		s.logger.Warnw("failed to open event subscription", "error", err, "rooms", len(rooms))
		return
	}

	s.generation++
	s.sub = sub
	s.cancelPump = cancel
	s.active.Store(true)
	s.metrics.RecordSubscriptionOpened()

	s.logger.Infow("event subscription opened",
		"subscription_id", sub.ID(),
		"user_id", s.snap.CurrentUser.ID,
		"rooms", len(rooms),
	)

	go s.pump(rlog.WithSubscriptionID(ctx, sub.ID()), s.generation, sub)
}

// pump forwards events onto the loop until the subscription is released
// or its channel closes.
func (s *SessionService) pump(ctx context.Context, gen uint64, sub ports.Subscription) {
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.loop.Post(func() {
					s.streamClosed(gen)
				})
				return
			}
			s.loop.Post(func() {
				s.dispatch(ctx, gen, ev)
			})
		}
	}
}

func (s *SessionService) dispatch(ctx context.Context, gen uint64, ev domain.Event) {
	if s.sub == nil || gen != s.generation {
		s.logger.Debugw("dropping event from released subscription", "event_type", ev.Type)
		return
	}
	s.router.Dispatch(ctx, s.sub.ID(), s.Current(), ev)
}

func (s *SessionService) streamClosed(gen uint64) {
	if s.sub == nil || gen != s.generation {
		return
	}
	s.logger.Infow("event stream closed by transport", "subscription_id", s.sub.ID())
	s.drop()
}

func (s *SessionService) release() {
	if s.sub != nil {
		id := s.sub.ID()
		if err := s.sub.Close(); err != nil {
			s.logger.Debugw("error closing subscription", "subscription_id", id, "error", err)
		}
		s.drop()
		s.logger.Infow("event subscription released", "subscription_id", id)
	}

	if err := s.transport.CloseConnection(); err != nil {
		s.logger.Debugw("error closing connection", "error", err)
	}
}

func (s *SessionService) drop() {
	if s.cancelPump != nil {
		s.cancelPump()
		s.cancelPump = nil
	}
	s.sub = nil
	s.generation++
	s.active.Store(false)
	s.metrics.RecordSubscriptionClosed()
}
