package study

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Faint(true)
	masteredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	learningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Align(lipgloss.Center)
	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Render draws the current card at the given width.
func Render(p *Player, width int) string {
	card, ok := p.Current()
	if !ok {
		return cardStyle.Width(width).Render("No flashcards available.")
	}

	label, face := "Front", card.Front
	if p.Flipped() {
		label, face = "Back", card.Back
	}

	status := learningStyle.Render("Not mastered")
	if card.Mastered {
		status = masteredStyle.Render("Mastered")
	}

	_, total := p.Position()
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render(p.Progress()),
		"  ",
		status,
		"  ",
		labelStyle.Render(fmt.Sprintf("%d/%d mastered", p.MasteredCount(), total)),
	)

	body := cardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Center, labelStyle.Render(label), "", face),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		helpStyle.Render("[f]lip  [n]ext  [p]rev  [m]astered  [q]uit"),
	)
}
