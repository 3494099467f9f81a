package engine

import (
	"fmt"
	"sort"
)

// PlayerID identifies a seat. The engine never interprets it.
type PlayerID string

// Hand is a per-player multiset: card identity → count. The engine only reads
// hands; every helper that "removes" cards returns a fresh Hand.
type Hand map[Card]int

// NewHand builds a hand from a card list, counting duplicates.
func NewHand(cards ...Card) Hand {
	h := make(Hand, len(cards))
	for _, c := range cards {
		h[c]++
	}
	return h
}

// Count returns how many copies of c the hand holds.
func (h Hand) Count(c Card) int { return h[c] }

// Size returns the total number of cards.
func (h Hand) Size() int {
	n := 0
	for _, k := range h {
		n += k
	}
	return n
}

// Clone returns an independent copy without zero entries.
func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	for c, k := range h {
		if k > 0 {
			out[c] = k
		}
	}
	return out
}

// Cards expands the hand into a list in catalog order.
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.Size())
	for _, c := range h.identities() {
		for i := 0; i < h[c]; i++ {
			out = append(out, c)
		}
	}
	return out
}

// identities returns the held identities in catalog order.
func (h Hand) identities() []Card {
	ids := make([]Card, 0, len(h))
	for c, k := range h {
		if k > 0 {
			ids = append(ids, c)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].index() < ids[j].index() })
	return ids
}

// Validate rejects unknown identities and negative counts.
func (h Hand) Validate() error {
	for c, k := range h {
		if !c.Valid() {
			return fmt.Errorf("%w: %#02x", ErrInvalidCard, uint8(c))
		}
		if k < 0 {
			return fmt.Errorf("%w: negative count %d for %v", ErrInvalidArgument, k, c)
		}
	}
	return nil
}

// Contains reports whether every card in cards (as a multiset) is in h.
func (h Hand) Contains(cards []Card) bool {
	need := NewHand(cards...)
	for c, k := range need {
		if h[c] < k {
			return false
		}
	}
	return true
}

// Without returns h minus cards, or ErrCardsNotInHand.
func (h Hand) Without(cards []Card) (Hand, error) {
	if err := validateCards(cards); err != nil {
		return nil, err
	}
	if !h.Contains(cards) {
		return nil, fmt.Errorf("%w: %v", ErrCardsNotInHand, cards)
	}
	out := h.Clone()
	for _, c := range cards {
		out[c]--
		if out[c] == 0 {
			delete(out, c)
		}
	}
	return out, nil
}

// inGroup returns the group's cards, ascending by t.Compare.
func (h Hand) inGroup(t Trump, g Group) []Card {
	var out []Card
	for _, c := range h.identities() {
		if t.Group(c) == g {
			for i := 0; i < h[c]; i++ {
				out = append(out, c)
			}
		}
	}
	sortCards(t, out)
	return out
}

// groupSize counts the hand's cards in g.
func (h Hand) groupSize(t Trump, g Group) int {
	n := 0
	for c, k := range h {
		if k > 0 && t.Group(c) == g {
			n += k
		}
	}
	return n
}

func validateCards(cards []Card) error {
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("%w: %#02x", ErrInvalidCard, uint8(c))
		}
	}
	return nil
}

// sortCards sorts in place, ascending by t.Compare.
func sortCards(t Trump, cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool { return t.Compare(cards[i], cards[j]) < 0 })
}
