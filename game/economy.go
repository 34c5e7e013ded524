package game

import (
	"errors"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	MaxHand   = 5
	MaxField  = 4
	StartMana = 4
)

var ErrInvalidHandIndex = errors.New("hand index out of range")

// Selector picks which catalog entry a draw produces. Select must return a value in
// [0, n).
type Selector interface {
	Select(n int) int
}

type SelectorFunc func(n int) int

func (f SelectorFunc) Select(n int) int { return f(n) }

type RandomSelector struct {
	rng *rand.Rand
}

func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	return &RandomSelector{rng: rng}
}

func (s *RandomSelector) Select(n int) int { return s.rng.Intn(n) }

// Economy owns the hand, field and mana of one session. It is not safe for
// concurrent use; Session serializes access.
type Economy struct {
	catalog  *Catalog
	hand     []*CardInstance
	field    []*CardInstance
	mana     int
	selector Selector
	newId    func() ulid.ULID
}

type Option func(*Economy)

// WithSeed makes both card selection and instance ids reproducible. Seeded ids take
// their timestamp from a draw counter instead of the wall clock.
func WithSeed(seed int64) Option {
	return func(e *Economy) {
		e.selector = NewRandomSelector(rand.New(rand.NewSource(seed)))
		var tick uint64
		e.newId = monotonicIds(rand.New(rand.NewSource(seed)), func() uint64 {
			tick++
			return tick
		})
	}
}

func WithSelector(s Selector) Option {
	return func(e *Economy) { e.selector = s }
}

func WithMana(mana int) Option {
	return func(e *Economy) { e.mana = max(mana, 0) }
}

func NewEconomy(catalog *Catalog, opts ...Option) *Economy {
	e := &Economy{
		catalog: catalog,
		hand:    []*CardInstance{},
		field:   []*CardInstance{},
		mana:    StartMana,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.selector == nil || e.newId == nil {
		seed := time.Now().UnixNano()
		if e.selector == nil {
			e.selector = NewRandomSelector(rand.New(rand.NewSource(seed)))
		}
		if e.newId == nil {
			e.newId = monotonicIds(rand.New(rand.NewSource(seed)), ulid.Now)
		}
	}
	return e
}

func monotonicIds(rng *rand.Rand, clock func() uint64) func() ulid.ULID {
	entropy := ulid.Monotonic(rng, 0)
	return func() ulid.ULID {
		return ulid.MustNew(clock(), entropy)
	}
}

// Hand and Field return copies; mutating them does not affect the economy.
func (e *Economy) Hand() []*CardInstance  { return cloneAll(e.hand) }
func (e *Economy) Field() []*CardInstance { return cloneAll(e.field) }
func (e *Economy) Mana() int              { return e.mana }
func (e *Economy) Catalog() *Catalog      { return e.catalog }

func cloneAll(cards []*CardInstance) []*CardInstance {
	out := make([]*CardInstance, len(cards))
	for i, c := range cards {
		out[i] = c.clone()
	}
	return out
}

func (e *Economy) CanDraw() bool {
	return e.catalog.Len() > 0 && len(e.hand) < MaxHand
}

// Draw appends a new instance of a selected catalog card to the hand and returns a
// copy of it. It returns nil and changes nothing when the hand is full or the catalog
// is empty.
func (e *Economy) Draw() *CardInstance {
	if !e.CanDraw() {
		return nil
	}
	n := e.catalog.Len()
	i := e.selector.Select(n)
	if i < 0 || i >= n {
		panic("selector returned invalid catalog index")
	}
	card := NewCardInstance(e.catalog.Cards[i], e.newId())
	e.hand = append(e.hand, card)
	return card.clone()
}

func (e *Economy) CanPlay(i int) bool {
	if i < 0 || i >= len(e.hand) {
		return false
	}
	return e.mana >= e.hand[i].Cost && len(e.field) < MaxField
}

// Play moves hand[i] onto the field and pays its cost. Unaffordable cards and a full
// field are silent no-ops returning nil; an index outside the hand is an error.
func (e *Economy) Play(i int) (*CardInstance, error) {
	if i < 0 || i >= len(e.hand) {
		return nil, ErrInvalidHandIndex
	}
	if !e.CanPlay(i) {
		return nil, nil
	}
	card := e.hand[i]
	e.field = append(e.field, card)
	e.hand = append(e.hand[:i], e.hand[i+1:]...)
	e.mana -= card.Cost
	return card.clone(), nil
}
