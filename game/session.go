package game

import (
	"context"
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type State int8
type EventType int8

const (
	StateIdle State = iota
	StateReady
)

const (
	NoEvent EventType = iota
	AllEvents
	EventOnReady
	EventOnLoadFailed
	EventOnDraw
	EventOnPlay
)

var (
	ErrNotReady       = errors.New("session is not ready")
	ErrSessionStarted = errors.New("session already started")
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

func (e EventType) String() string {
	switch e {
	case NoEvent:
		return "none"
	case AllEvents:
		return "all"
	case EventOnReady:
		return "ready"
	case EventOnLoadFailed:
		return "load-failed"
	case EventOnDraw:
		return "draw"
	case EventOnPlay:
		return "play"
	}
	return "unknown"
}

// Event.Subject is a copy of the card involved.
type Event struct {
	Event   EventType
	Subject *CardInstance
	Sound   string
	Err     error
}

type EventHandler func(*Event)

// Snapshot is a read-only copy of a session for rendering.
type Snapshot struct {
	Ready   bool           `json:"ready"`
	Hand    []CardInstance `json:"hand"`
	Field   []CardInstance `json:"field"`
	Mana    int            `json:"mana"`
	CanDraw bool           `json:"canDraw"`
}

// Session is one player's game: Idle until its catalog loads, then Ready for good.
type Session struct {
	Id       ulid.ULID
	mu       sync.Mutex
	state    State
	started  bool
	economy  *Economy
	ready    chan struct{}
	opts     []Option
	handlers map[EventType][]EventHandler
	log      *logrus.Entry
}

func NewSession(log *logrus.Logger, opts ...Option) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	id := ulid.Make()
	return &Session{
		Id:       id,
		ready:    make(chan struct{}),
		opts:     opts,
		handlers: map[EventType][]EventHandler{},
		log:      log.WithField("session", id.String()),
	}
}

func (s *Session) On(event EventType, handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], handler)
}

func (s *Session) emit(e *Event) {
	s.mu.Lock()
	handlers := append([]EventHandler{}, s.handlers[e.Event]...)
	handlers = append(handlers, s.handlers[AllEvents]...)
	s.mu.Unlock()
	for _, f := range handlers {
		f(e)
	}
}

// Start loads the catalog and flips the session to Ready. A failed load is logged and
// leaves the session Idle permanently; there is no retry.
func (s *Session) Start(ctx context.Context, loader *Loader) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	s.started = true
	s.mu.Unlock()

	res := <-loader.LoadAsync(ctx)
	if res.Err != nil {
		s.log.WithError(res.Err).Error("failed to load game assets")
		s.emit(&Event{Event: EventOnLoadFailed, Err: res.Err})
		return res.Err
	}

	s.mu.Lock()
	s.economy = NewEconomy(res.Catalog, s.opts...)
	s.state = StateReady
	close(s.ready)
	s.mu.Unlock()

	s.log.WithField("cards", res.Catalog.Len()).Info("session ready")
	s.emit(&Event{Event: EventOnReady})
	return nil
}

// Ready is closed once the session has loaded.
func (s *Session) Ready() <-chan struct{} { return s.ready }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Catalog() *Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.economy == nil {
		return nil
	}
	return s.economy.Catalog()
}

// Draw is a no-op returning nil while Idle.
func (s *Session) Draw() *CardInstance {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return nil
	}
	card := s.economy.Draw()
	s.mu.Unlock()

	if card == nil {
		s.log.Debug("draw skipped")
		return nil
	}
	s.log.WithField("card", card.String()).WithField("instance", card.InstanceId.String()).Debug("card drawn")
	s.emit(&Event{Event: EventOnDraw, Subject: card.clone()})
	return card
}

func (s *Session) Play(i int) (*CardInstance, error) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	card, err := s.economy.Play(i)
	mana := s.economy.Mana()
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if card == nil {
		s.log.WithField("index", i).Debug("play skipped")
		return nil, nil
	}
	s.log.WithField("card", card.String()).WithField("mana", mana).Debug("card played")
	s.emit(&Event{Event: EventOnPlay, Subject: card.clone(), Sound: SoundCardPlay})
	return card, nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Hand: []CardInstance{}, Field: []CardInstance{}}
	if s.state != StateReady {
		return snap
	}
	snap.Ready = true
	snap.Mana = s.economy.Mana()
	snap.CanDraw = s.economy.CanDraw()
	for _, c := range s.economy.hand {
		snap.Hand = append(snap.Hand, *c)
	}
	for _, c := range s.economy.field {
		snap.Field = append(snap.Field, *c)
	}
	return snap
}

// CanPlay reports whether Play(i) would succeed right now.
func (s *Session) CanPlay(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady && s.economy.CanPlay(i)
}
