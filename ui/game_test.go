package ui

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SvenDH/card-wars/game"
)

type brokenSource struct{}

func (brokenSource) Cards(ctx context.Context) ([]*game.Card, error) {
	return nil, errors.New("missing assets")
}

func newTestGame(source game.CatalogSource) *CardGame {
	log := logrus.New()
	log.SetOutput(io.Discard)
	session := game.NewSession(log, game.WithSeed(5))
	return NewCardGame(context.Background(), session, game.NewLoader(source, 0, log))
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, g *CardGame) {
	t.Helper()
	g.Update(g.load()())
	require.True(t, g.ready())
}

func TestLoadingView(t *testing.T) {
	g := newTestGame(game.NewTextSource(game.DefaultCards))
	assert.Contains(t, g.View(), loadingText)

	g.Update(key("d"))
	assert.Empty(t, g.session.Snapshot().Hand)

	_, cmd := g.Update(spinMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, g.frame)
}

func TestLoadFailureKeepsSpinning(t *testing.T) {
	g := newTestGame(brokenSource{})
	g.Update(g.load()())
	assert.False(t, g.ready())
	assert.Equal(t, game.StateIdle, g.session.State())
	assert.Contains(t, g.View(), loadingText)
	_, cmd := g.Update(spinMsg{})
	assert.NotNil(t, cmd)
}

func TestDrawAndPlay(t *testing.T) {
	g := newTestGame(game.NewTextSource(game.DefaultCards))
	loaded(t, g)

	_, cmd := g.Update(spinMsg{})
	assert.Nil(t, cmd)

	view := g.View()
	assert.Contains(t, view, Title)
	assert.Contains(t, view, "Mana: 4")
	assert.Contains(t, view, "Your hand is empty")

	g.Update(key("d"))
	g.Update(key("d"))
	snap := g.session.Snapshot()
	require.Len(t, snap.Hand, 2)
	assert.Contains(t, g.View(), snap.Hand[0].Name)

	g.Update(key("right"))
	assert.Equal(t, 1, g.cursor)
	g.Update(key("enter"))
	snap = g.session.Snapshot()
	assert.Len(t, snap.Hand, 1)
	assert.Len(t, snap.Field, 1)
	assert.Equal(t, 2, snap.Mana)
	assert.Equal(t, 0, g.cursor)
	assert.Equal(t, game.SoundCardPlay, g.cue)
	assert.Contains(t, g.View(), "Mana: 2")

	g.Update(key("1"))
	assert.Equal(t, 0, g.session.Snapshot().Mana)

	g.Update(key("d"))
	g.Update(key("1"))
	snap = g.session.Snapshot()
	assert.Len(t, snap.Hand, 1, "no mana left to play")
	assert.Len(t, snap.Field, 2)
}

func TestQuit(t *testing.T) {
	g := newTestGame(game.NewTextSource(game.DefaultCards))
	_, cmd := g.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
