package game

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// cardText is the grammar of a card block after its name line prefix:
//
//	Husker Knight {2}
//	2/3
//	art "/api/placeholder/200/280"
type cardText struct {
	Cost    int     `"{" @Int "}"`
	Attack  int     `@Int "/"`
	Defense int     `@Int`
	Art     *string `("art" @String)?`
}

type CardParser struct {
	parser *participle.Parser[cardText]
}

func NewCardParser() *CardParser {
	parser := participle.MustBuild[cardText](
		participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
			{Name: "Whitespace", Pattern: `[\s]+`},
			{Name: "Comment", Pattern: `#[^\n]*`},
			{Name: "String", Pattern: `"(\\"|[^"])*"`},
			{Name: "Ident", Pattern: `[a-zA-Z]\w*`},
			{Name: "Int", Pattern: `\d+`},
			{Name: "Punct", Pattern: `[{}/]`},
		})),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
	)
	return &CardParser{parser}
}

// Parse reads a single card block. The name is everything on the first line before
// the cost, so names may contain spaces.
func (p *CardParser) Parse(txt string) (*Card, error) {
	txt = strings.TrimSpace(stripComments(txt))
	first := strings.SplitN(txt, "\n", 2)[0]
	idx := strings.Index(first, "{")
	if idx < 0 {
		return nil, fmt.Errorf("card %q: missing cost", first)
	}
	name := strings.TrimSpace(first[:idx])
	if name == "" {
		return nil, fmt.Errorf("card %q: missing name", first)
	}
	ct, err := p.parser.ParseString(name, txt[idx:])
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", name, err)
	}
	card := &Card{
		Name:    name,
		Attack:  ct.Attack,
		Defense: ct.Defense,
		Cost:    ct.Cost,
	}
	if ct.Art != nil {
		card.Image = *ct.Art
	}
	return card, nil
}

// ParseCatalog reads blank-line separated card blocks and numbers them from 1 in
// file order.
func (p *CardParser) ParseCatalog(txt string) ([]*Card, error) {
	cards := []*Card{}
	txt = strings.ReplaceAll(txt, "\r\n", "\n")
	for _, block := range strings.Split(txt, "\n\n") {
		if strings.TrimSpace(stripComments(block)) == "" {
			continue
		}
		card, err := p.Parse(block)
		if err != nil {
			return nil, err
		}
		card.Id = len(cards) + 1
		cards = append(cards, card)
	}
	return cards, nil
}

func stripComments(txt string) string {
	lines := strings.Split(txt, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}
