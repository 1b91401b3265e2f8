// Package study runs flip-card sessions over persisted flashcards.
package study

import (
	"context"
	"fmt"

	"github.com/conorfennell/studybuddy/internal/domain"
	"go.uber.org/zap"
)

// MasteryUpdater stores a card's mastered flag on the backend.
type MasteryUpdater interface {
	SetMastered(ctx context.Context, cardID int64, mastered bool) (bool, error)
}

// Player walks a list of cards one at a time.
type Player struct {
	cards   []domain.Flashcard
	current int
	flipped bool
	updater MasteryUpdater
	log     *zap.Logger
}

// NewPlayer starts at index start, clamped into range.
func NewPlayer(cards []domain.Flashcard, start int, updater MasteryUpdater, log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Player{updater: updater, log: log, current: start}
	p.SetCards(cards)
	return p
}

// SetCards replaces the deck, e.g. after a refetch, keeping the position
// when it is still in range.
func (p *Player) SetCards(cards []domain.Flashcard) {
	p.cards = append([]domain.Flashcard(nil), cards...)
	p.clamp()
}

func (p *Player) clamp() {
	switch {
	case len(p.cards) == 0 || p.current < 0:
		p.current = 0
	case p.current >= len(p.cards):
		p.current = len(p.cards) - 1
	}
}

// Current returns the card on screen. ok is false for an empty deck.
func (p *Player) Current() (card domain.Flashcard, ok bool) {
	if len(p.cards) == 0 {
		return domain.Flashcard{}, false
	}
	return p.cards[p.current], true
}

// Flipped reports whether the back of the card is showing.
func (p *Player) Flipped() bool { return p.flipped }

// Flip turns the card over.
func (p *Player) Flip() { p.flipped = !p.flipped }

// Next moves forward, stopping at the last card.
func (p *Player) Next() { p.move(p.current + 1) }

// Prev moves back, stopping at the first card.
func (p *Player) Prev() { p.move(p.current - 1) }

func (p *Player) move(to int) {
	prev := p.current
	p.current = to
	p.clamp()
	if p.current != prev {
		p.flipped = false
	}
}

// Position returns the 1-based index of the current card and the deck size.
func (p *Player) Position() (int, int) {
	if len(p.cards) == 0 {
		return 0, 0
	}
	return p.current + 1, len(p.cards)
}

// Progress renders the position for display.
func (p *Player) Progress() string {
	i, n := p.Position()
	return fmt.Sprintf("Flashcard %d of %d", i, n)
}

// MasteredCount counts mastered cards in the deck.
func (p *Player) MasteredCount() int {
	var n int
	for _, c := range p.cards {
		if c.Mastered {
			n++
		}
	}
	return n
}

// ToggleMastered flips the mastered flag of the current card on the backend
// and adopts the value the backend reports.
func (p *Player) ToggleMastered(ctx context.Context) error {
	card, ok := p.Current()
	if !ok {
		return nil
	}

	got, err := p.updater.SetMastered(ctx, card.ID, !card.Mastered)
	if err != nil {
		p.log.Warn("Failed to update mastery", zap.Int64("card_id", card.ID), zap.Error(err))
		return err
	}
	p.cards[p.current].Mastered = got
	return nil
}
