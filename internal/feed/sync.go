package feed

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"bookingfeed/internal/command"
	"bookingfeed/internal/domain"
	"bookingfeed/internal/transport"
)

// ErrNoCommandAPI is returned by Accept when the sync was built
// without a command client.
var ErrNoCommandAPI = errors.New("no command api configured")

// Update is delivered to observers whenever the feed changes. State is
// always set; Bookings is non-nil only when the collection changed;
// Err is set on connection failures.
type Update struct {
	State    domain.ConnectionState
	Bookings []domain.Booking
	Err      error
}

// Options configures a Sync.
type Options struct {
	Channel   transport.Channel
	Commander command.API

	// ReconnectAttempts bounds automatic redials after a transport
	// drop. After exhaustion the sync stays disconnected until an
	// explicit Reconnect. Defaults to 3.
	ReconnectAttempts int

	// ReconnectDelay is the fixed delay between redial attempts.
	// Defaults to 2 seconds.
	ReconnectDelay time.Duration

	Logger *log.Logger
}

// Sync keeps an ordered, deduplicated booking collection consistent
// with the remote source of truth delivered over the transport
// channel, and dispatches accept commands.
//
// One Sync instance owns one connection and one collection. Consumers
// that need the feed share the instance and register observers via
// Subscribe; they must not open their own connections.
//
// All collection mutations happen on a single event-loop goroutine.
// State and Bookings are safe to call from any goroutine.
type Sync struct {
	channel   transport.Channel
	commander command.API
	attempts  int
	delay     time.Duration
	logger    *log.Logger

	mu        sync.Mutex
	list      *BookingList
	state     domain.ConnectionState
	observers map[int]func(Update)
	nextObs   int
	loopDone  chan struct{}
	stopCh    chan struct{}
	stopping  bool
}

// NewSync creates a Sync in the disconnected state. Nothing connects
// until Start is called.
func NewSync(opts Options) *Sync {
	attempts := opts.ReconnectAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Sync{
		channel:   opts.Channel,
		commander: opts.Commander,
		attempts:  attempts,
		delay:     delay,
		logger:    logger,
		list:      NewBookingList(),
		state:     domain.ConnectionDisconnected,
		observers: make(map[int]func(Update)),
	}
}

// Start establishes the transport channel and begins applying events.
// Calling Start while connecting or connected is a no-op. On success
// the server is immediately asked for a fresh snapshot.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != domain.ConnectionDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = domain.ConnectionConnecting
	s.stopping = false
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.mu.Unlock()
	s.notify(Update{State: domain.ConnectionConnecting})

	if err := s.channel.Dial(ctx); err != nil {
		s.mu.Lock()
		s.state = domain.ConnectionDisconnected
		s.mu.Unlock()
		s.notify(Update{State: domain.ConnectionDisconnected, Err: err})
		return err
	}

	s.mu.Lock()
	if s.stopping {
		// Stop raced the dial; release the fresh connection.
		s.state = domain.ConnectionDisconnected
		s.mu.Unlock()
		_ = s.channel.Close()
		return nil
	}
	events := s.channel.Events()
	done := make(chan struct{})
	s.loopDone = done
	s.mu.Unlock()

	go s.run(ctx, events, done, stopCh)
	return nil
}

// Stop tears down the transport channel. After Stop returns no
// observer fires until the next Start. Safe to call when never
// started.
func (s *Sync) Stop() {
	s.mu.Lock()
	s.stopping = true
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	done := s.loopDone
	s.loopDone = nil
	s.mu.Unlock()

	_ = s.channel.Close()
	if done != nil {
		<-done
	}

	s.mu.Lock()
	changed := s.state != domain.ConnectionDisconnected
	s.state = domain.ConnectionDisconnected
	s.mu.Unlock()
	if changed {
		s.notify(Update{State: domain.ConnectionDisconnected})
	}
}

// Reconnect tears down any existing channel and starts again. It is
// the explicit recovery path once automatic redials are exhausted.
func (s *Sync) Reconnect(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// RequestSnapshot asks the server for a full booking list. When
// disconnected this is a no-op: the request is not queued, since the
// next successful connect triggers a fresh snapshot anyway.
func (s *Sync) RequestSnapshot() error {
	s.mu.Lock()
	connected := s.state == domain.ConnectionConnected
	s.mu.Unlock()
	if !connected {
		return nil
	}
	return s.channel.RequestSnapshot()
}

// Accept asks the command API to transition the booking to accepted.
// Local state is never mutated optimistically; the authoritative
// record arrives later as a status-updated delta.
func (s *Sync) Accept(ctx context.Context, bookingID string) (*command.Result, error) {
	if s.commander == nil {
		return nil, ErrNoCommandAPI
	}
	return s.commander.AcceptBooking(ctx, bookingID)
}

// Subscribe registers an observer for feed updates and returns its
// unsubscribe function.
func (s *Sync) Subscribe(fn func(Update)) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// State returns the current connection state.
func (s *Sync) State() domain.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bookings returns the ordered collection as a copy.
func (s *Sync) Bookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Bookings()
}

// run is the event loop. It drains the current connection's event
// stream and, when the stream closes, attempts the bounded redial
// sequence before giving up.
func (s *Sync) run(ctx context.Context, events <-chan transport.Event, done chan struct{}, stop <-chan struct{}) {
	defer close(done)
	for {
		ev, ok := <-events
		if !ok {
			if !s.redial(ctx, stop) {
				return
			}
			events = s.channel.Events()
			continue
		}
		s.handle(ev)
	}
}

func (s *Sync) handle(ev transport.Event) {
	switch ev.Type {
	case transport.EventConnected:
		s.mu.Lock()
		s.state = domain.ConnectionConnected
		s.mu.Unlock()
		s.notify(Update{State: domain.ConnectionConnected})
		if err := s.channel.RequestSnapshot(); err != nil {
			s.logger.Printf("feed: snapshot request failed: %v", err)
		}

	case transport.EventSnapshot:
		s.mu.Lock()
		s.list.ApplySnapshot(ev.Bookings)
		bookings := s.list.Bookings()
		state := s.state
		s.mu.Unlock()
		s.notify(Update{State: state, Bookings: bookings})

	case transport.EventDelta:
		s.mu.Lock()
		err := s.list.ApplyDelta(ev.Action, ev.Booking)
		bookings := s.list.Bookings()
		state := s.state
		s.mu.Unlock()
		if err != nil {
			s.logger.Printf("feed: dropping delta: %v", err)
			return
		}
		s.notify(Update{State: state, Bookings: bookings})

	case transport.EventDisconnected:
		s.mu.Lock()
		stopping := s.stopping
		s.state = domain.ConnectionDisconnected
		s.mu.Unlock()
		if !stopping {
			if ev.Err != nil {
				s.logger.Printf("feed: channel dropped: %v", ev.Err)
			}
			s.notify(Update{State: domain.ConnectionDisconnected, Err: ev.Err})
		}
	}
}

// redial runs the bounded reconnect sequence: fixed delay between
// attempts, no backoff growth. Returns true once a dial succeeds.
func (s *Sync) redial(ctx context.Context, stop <-chan struct{}) bool {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		select {
		case <-stop:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(s.delay):
		}

		s.mu.Lock()
		if s.stopping {
			s.mu.Unlock()
			return false
		}
		s.state = domain.ConnectionConnecting
		s.mu.Unlock()
		s.notify(Update{State: domain.ConnectionConnecting})

		if err := s.channel.Dial(ctx); err != nil {
			s.logger.Printf("feed: reconnect attempt %d/%d failed: %v", attempt, s.attempts, err)
			s.mu.Lock()
			s.state = domain.ConnectionDisconnected
			s.mu.Unlock()
			s.notify(Update{State: domain.ConnectionDisconnected, Err: err})
			continue
		}

		s.mu.Lock()
		if s.stopping {
			s.mu.Unlock()
			_ = s.channel.Close()
			return false
		}
		s.mu.Unlock()
		return true
	}

	s.logger.Printf("feed: reconnect attempts exhausted; waiting for explicit Reconnect")
	return false
}

// notify delivers an update to a snapshot of the current observers.
// Observers run outside the lock so they may call back into the sync.
func (s *Sync) notify(u Update) {
	s.mu.Lock()
	fns := make([]func(Update), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}
