package engine

import "fmt"

// Friend names a teammate: whoever plays the Ordinal-th copy of Card joins
// the landlord.
type Friend struct {
	Card    Card
	Ordinal int
}

// friendRule is indexed by FriendSelectionPolicy and reports why c cannot
// name a friend, or "" when it can.
var friendRule = [numFriendSelectionPolicies]func(t Trump, c Card) string{
	FriendUnrestricted: func(t Trump, c Card) string {
		return rejectTrump(t, c)
	},
	FriendTrumpsIncluded: func(t Trump, c Card) string {
		if c.IsJoker() || (t.hasRank() && c.Rank() == t.Rank) {
			return "jokers and trump-rank cards cannot be friends"
		}
		return ""
	},
	FriendHighestCardNotAllowed: func(t Trump, c Card) string {
		if r := rejectTrump(t, c); r != "" {
			return r
		}
		top := RankAce
		if t.Rank == RankAce {
			top = RankKing
		}
		if c.Rank() == top {
			return fmt.Sprintf("the highest card (%v) cannot be a friend", top)
		}
		return ""
	},
	FriendPointCardNotAllowed: func(t Trump, c Card) string {
		if r := rejectTrump(t, c); r != "" {
			return r
		}
		if c.Points() > 0 {
			return "point cards cannot be friends"
		}
		return ""
	},
}

func rejectTrump(t Trump, c Card) string {
	if t.IsTrump(c) {
		return "trump cards cannot be friends"
	}
	return ""
}

// ValidateFriend checks a friend declaration under t.
func ValidateFriend(t Trump, f Friend, numDecks int, policy FriendSelectionPolicy) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !policy.Valid() {
		return fmt.Errorf("%w: friend selection policy %v", ErrInvalidRules, policy)
	}
	if !f.Card.Valid() {
		return fmt.Errorf("%w: %#02x", ErrInvalidCard, uint8(f.Card))
	}
	if f.Ordinal < 1 || f.Ordinal > numDecks {
		return fmt.Errorf("%w: ordinal %d out of range 1..%d", ErrInvalidArgument, f.Ordinal, numDecks)
	}
	if reason := friendRule[policy](t, f.Card); reason != "" {
		return fmt.Errorf("%w: %v: %s", ErrInvalidArgument, f.Card, reason)
	}
	return nil
}
