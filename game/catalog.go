package game

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
)

//go:embed cards.txt
var DefaultCards string

const (
	SoundCardPlay = "cardPlay"
	SoundAttack   = "attack"
)

var ErrEmptyCatalog = errors.New("catalog has no cards")

// Sound is a named audio handle. Playback is left to the presentation layer.
type Sound struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// Catalog is the read-only result of a successful load.
type Catalog struct {
	Cards  []*Card
	Sounds map[string]Sound
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Cards)
}

func (c *Catalog) Sound(name string) (Sound, bool) {
	if c == nil {
		return Sound{}, false
	}
	s, ok := c.Sounds[name]
	return s, ok
}

func DefaultSounds() map[string]Sound {
	return map[string]Sound{
		SoundCardPlay: {Name: SoundCardPlay},
		SoundAttack:   {Name: SoundAttack},
	}
}

// CatalogSource provides card templates to a Loader.
type CatalogSource interface {
	Cards(ctx context.Context) ([]*Card, error)
}

// TextSource parses cards from catalog text.
type TextSource struct {
	Text   string
	parser *CardParser
}

func NewTextSource(text string) *TextSource {
	return &TextSource{Text: text, parser: NewCardParser()}
}

// NewFileSource reads a catalog file eagerly so a missing file fails at startup.
func NewFileSource(path string) (*TextSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return NewTextSource(string(b)), nil
}

func (s *TextSource) Cards(ctx context.Context) ([]*Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.ParseCatalog(s.Text)
}
