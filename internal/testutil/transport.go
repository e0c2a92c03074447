// Package testutil holds in-memory collaborators for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"
)

// FakeSubscription is a channel-backed ports.Subscription.
type FakeSubscription struct {
	id string

	mu     sync.Mutex
	events chan domain.Event
	closed bool
}

func NewFakeSubscription(id string) *FakeSubscription {
	return &FakeSubscription{
		id:     id,
		events: make(chan domain.Event, 256),
	}
}

func (s *FakeSubscription) ID() string                  { return s.id }
func (s *FakeSubscription) Events() <-chan domain.Event { return s.events }

// Push delivers ev as if the server sent it. Pushing on a closed
// subscription is a no-op and reports false.
func (s *FakeSubscription) Push(ev domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.events <- ev
	return true
}

func (s *FakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

func (s *FakeSubscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FakeTransport records every call the session makes.
type FakeTransport struct {
	mu         sync.Mutex
	subs       []*FakeSubscription
	initRooms  [][]domain.Room
	closeCalls int
	emits      []domain.RoomID
	connected  bool

	InitErr error
	EmitErr error
}

var _ ports.Transport = (*FakeTransport)(nil)

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func (t *FakeTransport) InitEvents(_ context.Context, rooms []domain.Room) (ports.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.InitErr != nil {
		return nil, t.InitErr
	}

	sub := NewFakeSubscription(fmt.Sprintf("sub-%d", len(t.subs)+1))
	t.subs = append(t.subs, sub)
	t.initRooms = append(t.initRooms, rooms)
	t.connected = true
	return sub, nil
}

func (t *FakeTransport) CloseConnection() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeCalls++
	t.connected = false
	return nil
}

// EmitEnterInRoom fails with domain.ErrConnectionClosed when no connection
// is open.
func (t *FakeTransport) EmitEnterInRoom(_ context.Context, roomID domain.RoomID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return domain.ErrConnectionClosed
	}
	if t.EmitErr != nil {
		return t.EmitErr
	}
	t.emits = append(t.emits, roomID)
	return nil
}

// Current returns the most recently opened subscription, or nil.
func (t *FakeTransport) Current() *FakeSubscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.subs) == 0 {
		return nil
	}
	return t.subs[len(t.subs)-1]
}

// Push delivers ev on the current subscription.
func (t *FakeTransport) Push(ev domain.Event) bool {
	sub := t.Current()
	if sub == nil {
		return false
	}
	return sub.Push(ev)
}

func (t *FakeTransport) Subscriptions() []*FakeSubscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*FakeSubscription(nil), t.subs...)
}

// OpenSubscriptions counts subscriptions that have not been closed.
func (t *FakeTransport) OpenSubscriptions() int {
	n := 0
	for _, sub := range t.Subscriptions() {
		if !sub.Closed() {
			n++
		}
	}
	return n
}

func (t *FakeTransport) InitRooms() [][]domain.Room {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]domain.Room(nil), t.initRooms...)
}

func (t *FakeTransport) CloseCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCalls
}

func (t *FakeTransport) Emits() []domain.RoomID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.RoomID(nil), t.emits...)
}
