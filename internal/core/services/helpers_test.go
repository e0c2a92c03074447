package services

import (
	"sync"
	"testing"
	"time"

	"morpheus/internal/core/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	alice = domain.User{ID: "u1", Name: "Alice"}
	bob   = domain.User{ID: "u2", Name: "Bob"}
	lobby = domain.Room{ID: "r1", Name: "Lobby"}
	patio = domain.Room{ID: "r2", Name: "Patio"}
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

// nopLogger is used wherever goroutines may log after the test returns.
func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func loggedIn(rooms ...domain.Room) domain.Snapshot {
	return domain.Snapshot{
		LoggedIn:    true,
		Rooms:       rooms,
		CurrentUser: alice,
	}
}

func inRoom(snap domain.Snapshot, room domain.Room) domain.Snapshot {
	snap.CurrentRoom = room
	return snap
}

type spyNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (s *spyNotifier) Show(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

func (s *spyNotifier) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

type staticSettings struct {
	mu       sync.Mutex
	settings domain.Settings
}

func (s *staticSettings) CurrentSettings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *staticSettings) Set(settings domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// manualScheduler captures scheduled callbacks so tests fire them.
type manualScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (m *manualScheduler) AfterFunc(d time.Duration, fn func()) *time.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
	m.fns = append(m.fns, fn)

	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func (m *manualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fns)
}

func (m *manualScheduler) RunAll() {
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// queued reports how many tasks wait on the loop.
func (l *EventLoop) queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// hold blocks the loop until the returned func is called.
func hold(t *testing.T, l *EventLoop) (release func()) {
	t.Helper()

	running := make(chan struct{})
	gate := make(chan struct{})
	require.True(t, l.Post(func() {
		close(running)
		<-gate
	}))
	waitClosed(t, running)

	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return release
}
