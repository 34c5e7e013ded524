package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SvenDH/card-wars/game"
)

const (
	Title       = "Card Wars"
	loadingText = "Loading Card Wars..."

	spinnerInterval = 100 * time.Millisecond
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type loadedMsg struct{}

type spinMsg time.Time

// CardGame is the terminal front end of one session. Input is ignored until the
// session is ready; a failed load keeps the spinner going.
type CardGame struct {
	ctx     context.Context
	session *game.Session
	loader  *game.Loader
	frame   int
	cursor  int
	cue     string
	width   int
}

func NewCardGame(ctx context.Context, session *game.Session, loader *game.Loader) *CardGame {
	return &CardGame{ctx: ctx, session: session, loader: loader}
}

func (g *CardGame) Init() tea.Cmd {
	return tea.Batch(g.load(), spin())
}

func (g *CardGame) load() tea.Cmd {
	return func() tea.Msg {
		// A failed load is logged by the session and leaves it Idle.
		_ = g.session.Start(g.ctx, g.loader)
		return loadedMsg{}
	}
}

func spin() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg { return spinMsg(t) })
}

func (g *CardGame) ready() bool { return g.session.State() == game.StateReady }

func (g *CardGame) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		g.width = msg.Width
	case loadedMsg:
	case spinMsg:
		if g.ready() {
			return g, nil
		}
		g.frame = (g.frame + 1) % len(spinnerFrames)
		return g, spin()
	case tea.KeyMsg:
		return g.handleKey(msg)
	}
	return g, nil
}

func (g *CardGame) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c", "esc":
		return g, tea.Quit
	}
	if !g.ready() {
		return g, nil
	}
	g.cue = ""
	switch key := msg.String(); key {
	case "d":
		g.session.Draw()
	case "left", "h":
		g.moveCursor(-1)
	case "right", "l":
		g.moveCursor(1)
	case "enter", " ":
		g.play(g.cursor)
	case "1", "2", "3", "4", "5":
		g.play(int(key[0] - '1'))
	}
	return g, nil
}

func (g *CardGame) moveCursor(d int) {
	n := len(g.session.Snapshot().Hand)
	if n == 0 {
		g.cursor = 0
		return
	}
	g.cursor = (g.cursor + d + n) % n
}

func (g *CardGame) play(i int) {
	card, err := g.session.Play(i)
	if err != nil || card == nil {
		return
	}
	if s, ok := g.session.Catalog().Sound(game.SoundCardPlay); ok {
		g.cue = s.Name
	}
	if n := len(g.session.Snapshot().Hand); g.cursor >= n {
		g.cursor = max(n-1, 0)
	}
}

func (g *CardGame) View() string {
	if !g.ready() {
		return fmt.Sprintf("\n  %s %s\n", spinnerFrames[g.frame], loadingText)
	}
	snap := g.session.Snapshot()

	header := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(Title),
		manaStyle.Render(fmt.Sprintf("Mana: %d", snap.Mana)),
	)

	field := make([]cardView, len(snap.Field))
	for i, c := range snap.Field {
		field[i] = cardView{card: c}
	}
	hand := make([]cardView, len(snap.Hand))
	for i, c := range snap.Hand {
		hand[i] = cardView{
			card:     c,
			showCost: true,
			selected: i == g.cursor,
			playable: g.session.CanPlay(i),
		}
	}

	button := buttonStyle.Render("Draw Card")
	if !snap.CanDraw {
		button = disabledButtonStyle.Render("Draw Card")
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString(panel("Field", renderRow(field, "No cards on the field")) + "\n")
	b.WriteString(panel("Hand", renderRow(hand, "Your hand is empty")) + "\n\n")
	b.WriteString(button)
	if g.cue != "" {
		b.WriteString("  " + cueStyle.Render("♪ "+g.cue))
	}
	b.WriteString("\n\n" + helpStyle.Render("d draw • ←/→ select • enter or 1-5 play • q quit") + "\n")
	return b.String()
}

func panel(title, body string) string {
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, panelTitleStyle.Render(title), body))
}

// Run starts the session load and blocks until the player quits.
func Run(ctx context.Context, session *game.Session, loader *game.Loader) error {
	_, err := tea.NewProgram(NewCardGame(ctx, session, loader), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
