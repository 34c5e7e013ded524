package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/SvenDH/card-wars/game"
)

type cardView struct {
	card     game.CardInstance
	showCost bool
	selected bool
	playable bool
}

func (c cardView) View() string {
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(cardWidth/2-1).Render(fmt.Sprintf("ATK: %d", c.card.Attack)),
		fmt.Sprintf("DEF: %d", c.card.Defense),
	)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(c.card.Name),
		stats,
	}
	if c.showCost {
		lines = append(lines, manaStyle.Render(fmt.Sprintf("Cost: %d", c.card.Cost)))
	}
	style := cardStyle
	switch {
	case c.selected:
		style = selectedCardStyle
	case c.showCost && !c.playable:
		style = unplayableCardStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderRow(views []cardView, empty string) string {
	if len(views) == 0 {
		return helpStyle.Render(empty)
	}
	rendered := make([]string, len(views))
	for i, v := range views {
		rendered[i] = v.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
