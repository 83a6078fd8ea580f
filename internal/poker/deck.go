package poker

import (
	"encoding/json"
	"errors"
	rand "math/rand/v2"
)

// ErrDeckEmpty is returned when dealing or burning from an exhausted deck.
// A full hand consumes at most 25 cards, so hitting this mid-hand is a bug.
var ErrDeckEmpty = errors.New("poker: deck is empty")

// Deck is the shuffled 52-card sequence for one hand. Dealt and burned cards
// are consumed from the front; the remainder is never exposed on the wire.
type Deck struct {
	cards []Card
}

// NewDeck returns a full deck shuffled with Fisher-Yates driven by rng.
// The RNG is required so tests can seed deals deterministically.
func NewDeck(rng *rand.Rand) *Deck {
	cards := make([]Card, 0, 52)
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return &Deck{cards: cards}
}

// NewStackedDeck returns a deck that deals the given cards in order.
// Test helper for scripted boards and hole cards.
func NewStackedDeck(cards ...Card) *Deck {
	return &Deck{cards: cards}
}

// Deal removes and returns the top card.
func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		return 0, ErrDeckEmpty
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

// Burn removes and discards the top card.
func (d *Deck) Burn() error {
	_, err := d.Deal()
	return err
}

// Remaining returns the number of cards left.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns the remaining cards in deal order. Used by snapshot encoding;
// never exposed to subscribers.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// MarshalJSON encodes the remaining cards in deal order. Only the
// persistence layer sees this; it never reaches subscribers.
func (d *Deck) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.cards)
}

// UnmarshalJSON restores a deck from its persisted card sequence.
func (d *Deck) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &d.cards)
}
