package ui

import "github.com/charmbracelet/lipgloss"

const cardWidth = 18

var (
	colorBlue  = lipgloss.Color("#60a5fa")
	colorLight = lipgloss.Color("#f3f4f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorPanel = lipgloss.Color("#374151")
	colorGold  = lipgloss.Color("#fbbf24")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorLight)
	manaStyle  = lipgloss.NewStyle().Foreground(colorBlue)
	helpStyle  = lipgloss.NewStyle().Foreground(colorDim)
	cueStyle   = lipgloss.NewStyle().Foreground(colorGold)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPanel).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorLight).
			Padding(0, 1).
			Width(cardWidth)

	selectedCardStyle   = cardStyle.BorderForeground(colorGold)
	unplayableCardStyle = cardStyle.BorderForeground(colorDim).Foreground(colorDim)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Background(colorLight).
			Foreground(lipgloss.Color("#111827"))

	disabledButtonStyle = buttonStyle.Background(colorPanel).Foreground(colorDim)
)
