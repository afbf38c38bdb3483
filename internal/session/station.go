package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/scanventory/internal/scan"
)

const defaultQueueSize = 64

// ErrStationStopped is returned when work is submitted after Run returned.
var ErrStationStopped = errors.New("session: station stopped")

// ErrEmptyToken is returned by Submit for blank input.
var ErrEmptyToken = errors.New("session: empty token")

// StationConfig wires a Station. Dispatch, Clock and OnChange of the machine
// configuration are owned by the station.
type StationConfig struct {
	Machine   MachineConfig
	KeyGap    time.Duration
	QueueSize int
	Logger    *slog.Logger
}

// Station owns one scan session. Its Run loop is the only goroutine touching
// the machine; tokens, key bursts and timer callbacks are queued onto it.
type Station struct {
	machine *Machine
	clock   Clock
	logger  *slog.Logger

	inbox   chan func(context.Context)
	done    chan struct{}
	running atomic.Bool

	keyMu   sync.Mutex
	decoder *scan.Decoder
	decoded []scan.Token

	snapshot atomic.Pointer[Snapshot]
}

// NewStation builds the machine and the key decoder.
func NewStation(cfg StationConfig) (*Station, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Machine.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	s := &Station{
		clock:  clock,
		logger: logger.With("component", "station"),
		inbox:  make(chan func(context.Context), size),
		done:   make(chan struct{}),
	}

	mcfg := cfg.Machine
	mcfg.Clock = clock
	mcfg.Dispatch = s.dispatch
	mcfg.OnChange = s.publish
	if mcfg.Logger == nil {
		mcfg.Logger = logger
	}
	machine, err := NewMachine(mcfg)
	if err != nil {
		return nil, err
	}
	s.machine = machine
	s.decoder = scan.NewDecoder(cfg.KeyGap, func(token scan.Token) {
		s.decoded = append(s.decoded, token)
	})
	s.publish()
	return s, nil
}

// Run processes queued work until ctx is cancelled.
func (s *Station) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session: station already running")
	}
	defer close(s.done)
	defer s.machine.Shutdown()

	s.logger.InfoContext(ctx, "station loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "station loop stopped")
			return ctx.Err()
		case work := <-s.inbox:
			work(ctx)
		}
	}
}

// Submit queues a complete token.
func (s *Station) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyToken
	}
	token := scan.Token{Text: text, CapturedAt: s.clock.Now()}
	return s.enqueue(ctx, func(ctx context.Context) {
		s.machine.Handle(ctx, token)
	})
}

// FeedKeys decodes raw key events on the caller's goroutine and queues every
// completed token in order. It returns the number of tokens queued.
func (s *Station) FeedKeys(ctx context.Context, events []scan.KeyEvent) (int, error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	for _, ev := range events {
		if ev.At.IsZero() {
			ev.At = s.clock.Now()
		}
		s.decoder.Feed(ev)
	}
	tokens := s.decoded
	s.decoded = nil

	for i, token := range tokens {
		token := token
		if err := s.enqueue(ctx, func(ctx context.Context) { s.machine.Handle(ctx, token) }); err != nil {
			return i, err
		}
	}
	return len(tokens), nil
}

// Snapshot returns the last published session copy.
func (s *Station) Snapshot() Snapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return *snap
	}
	return Snapshot{}
}

func (s *Station) enqueue(ctx context.Context, work func(context.Context)) error {
	select {
	case <-s.done:
		return ErrStationStopped
	default:
	}
	select {
	case s.inbox <- work:
		return nil
	case <-s.done:
		return ErrStationStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch marshals timer callbacks onto the loop. Callbacks arriving after
// the loop stopped are dropped.
func (s *Station) dispatch(fn func()) {
	select {
	case s.inbox <- func(context.Context) { fn() }:
	case <-s.done:
	}
}

func (s *Station) publish() {
	snap := s.machine.Snapshot()
	s.snapshot.Store(&snap)
}
