package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardParser(t *testing.T) {
	parser := NewCardParser()

	tests := []struct {
		text string
		card *Card
	}{
		{
			text: `Husker Knight {2}
			2/3
			art "/api/placeholder/200/280"`,
			card: &Card{Name: "Husker Knight", Image: "/api/placeholder/200/280", Attack: 2, Defense: 3, Cost: 2},
		},
		{
			text: `Cool Dog {2} 1/4`,
			card: &Card{Name: "Cool Dog", Attack: 1, Defense: 4, Cost: 2},
		},
		{
			text: `# a free card
			Peppermint Butler {0}
			0/1 # fragile`,
			card: &Card{Name: "Peppermint Butler", Attack: 0, Defense: 1, Cost: 0},
		},
	}
	for _, test := range tests {
		card, err := parser.Parse(test.text)
		require.NoError(t, err, test.text)
		assert.Equal(t, test.card, card)
	}
}

func TestCardParserErrors(t *testing.T) {
	parser := NewCardParser()
	for _, text := range []string{
		"Husker Knight\n2/3",
		"{2}\n2/3",
		"Husker Knight {two}\n2/3",
		"Husker Knight {2}\n2",
		"Husker Knight {2}\n2/3\nart",
	} {
		_, err := parser.Parse(text)
		assert.Error(t, err, text)
	}
}

func TestParseCatalogAssignsIds(t *testing.T) {
	cards, err := NewCardParser().ParseCatalog(DefaultCards)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, 1, cards[0].Id)
	assert.Equal(t, "Husker Knight", cards[0].Name)
	assert.Equal(t, 2, cards[1].Id)
	assert.Equal(t, "Cool Dog", cards[1].Name)
	for _, c := range cards {
		assert.Equal(t, 2, c.Cost)
		assert.Equal(t, "/api/placeholder/200/280", c.Image)
	}
}

func TestParseCatalogReportsBadBlock(t *testing.T) {
	_, err := NewCardParser().ParseCatalog("Good {1}\n1/1\n\nBad\n1/1")
	assert.ErrorContains(t, err, "Bad")
}

func TestParseCatalogEmpty(t *testing.T) {
	cards, err := NewCardParser().ParseCatalog("# nothing here\n\n\n")
	require.NoError(t, err)
	assert.Empty(t, cards)
}
