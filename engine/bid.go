package engine

import (
	"fmt"
	"sort"
)

// Bid is a claim of Count identical cards. Suited claims use a card of the
// level rank; joker claims declare no-trump.
type Bid struct {
	Player PlayerID
	Card   Card
	Count  int
}

func (b Bid) String() string { return fmt.Sprintf("%s:%d×%v", b.Player, b.Count, b.Card) }

// ---------------------------------------------------------------------------
// Policy tables
// ---------------------------------------------------------------------------

// bidRank orders claims of equal length: suited by suit precedence, then LJ,
// then BJ.
func bidRank(c Card) int {
	switch c {
	case LittleJoker:
		return int(SuitHearts) + 1
	case BigJoker:
		return int(SuitHearts) + 2
	}
	return int(c.Suit())
}

// sameLengthWins is indexed by BidPolicy: may cand overturn cur at equal count?
var sameLengthWins = [numBidPolicies]func(cur, cand Card) bool{
	JokerOrHigherSuit: func(cur, cand Card) bool { return bidRank(cand) > bidRank(cur) },
	JokerOrGreaterLength: func(cur, cand Card) bool {
		return cand.IsJoker() && bidRank(cand) > bidRank(cur)
	},
	GreaterLength: func(Card, Card) bool { return false },
}

// winnerMayOverturn is indexed by BidReinforcementPolicy: may the current
// winner replace their own claim with a different card?
var winnerMayOverturn = [numReinforcementPolicies]bool{
	ReinforceWhileWinning:           false,
	ReinforceWhileEquivalent:        false,
	OverturnOrReinforceWhileWinning: true,
}

// parityAllowed is indexed by BidReinforcementPolicy: may an overturned bidder
// re-assert their card at the winner's count?
var parityAllowed = [numReinforcementPolicies]bool{
	ReinforceWhileEquivalent: true,
}

// jokerCounts is indexed by JokerBidPolicy and reports whether count copies
// of joker form a legal claim with numDecks decks.
var jokerCounts = [numJokerBidPolicies]func(joker Card, count, numDecks int) bool{
	BothTwoOrMore: func(_ Card, count, _ int) bool { return count >= 2 },
	BothNumDecks:  func(_ Card, count, numDecks int) bool { return count == numDecks },
	LJNumDecksHJNumDecksLessOne: func(joker Card, count, numDecks int) bool {
		if joker == LittleJoker {
			return count == numDecks
		}
		return count >= max(1, numDecks-1)
	},
	DisabledJokerBids: func(Card, int, int) bool { return false },
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

// Beats reports whether cand overturns cur under policy. A shorter claim never
// wins.
func Beats(cur, cand Bid, policy BidPolicy) bool {
	switch {
	case cand.Count > cur.Count:
		return true
	case cand.Count < cur.Count:
		return false
	}
	return sameLengthWins[policy](cur.Card, cand.Card)
}

// FindValidBids lists every bid player may submit next. bids is the bid
// history in submission order; the last entry is the current winner. An
// empty result is a normal outcome, not an error. Results are ordered by card
// (no-trump order at level) then count, for presentation only.
func FindValidBids(player PlayerID, hand Hand, bids []Bid, policies BiddingPolicies, level Rank, numDecks int) ([]Bid, error) {
	if err := validateBidInputs(hand, bids, policies, level, numDecks); err != nil {
		return nil, err
	}

	var (
		winner    Bid
		hasWinner = len(bids) > 0
		previous  *Bid
	)
	if hasWinner {
		winner = bids[len(bids)-1]
	}
	for i := len(bids) - 1; i >= 0; i-- {
		if bids[i].Player == player {
			previous = &bids[i]
			break
		}
	}

	out := []Bid{}
	for _, c := range hand.identities() {
		if c.Rank() != level && !c.IsJoker() {
			continue
		}
		for count := 1; count <= hand[c]; count++ {
			if c.IsJoker() && !jokerCounts[policies.Joker](c, count, numDecks) {
				continue
			}
			cand := Bid{Player: player, Card: c, Count: count}
			if !hasWinner || bidAllowed(winner, previous, cand, policies) {
				out = append(out, cand)
			}
		}
	}

	order := NoTrump(level)
	sort.Slice(out, func(i, j int) bool {
		if d := order.Compare(out[i].Card, out[j].Card); d != 0 {
			return d < 0
		}
		return out[i].Count < out[j].Count
	})
	return out, nil
}

func bidAllowed(winner Bid, previous *Bid, cand Bid, policies BiddingPolicies) bool {
	if winner.Player == cand.Player {
		if cand.Card == winner.Card {
			return cand.Count > winner.Count
		}
		return winnerMayOverturn[policies.Reinforcement] && Beats(winner, cand, policies.Bid)
	}
	if Beats(winner, cand, policies.Bid) {
		return true
	}
	return parityAllowed[policies.Reinforcement] && previous != nil &&
		previous.Card == cand.Card && cand.Count == winner.Count && cand.Count > previous.Count
}

func validateBidInputs(hand Hand, bids []Bid, policies BiddingPolicies, level Rank, numDecks int) error {
	if err := hand.Validate(); err != nil {
		return err
	}
	if level > RankAce {
		return fmt.Errorf("%w: level %v", ErrInvalidArgument, level)
	}
	if numDecks < 1 || numDecks > MaxDecks {
		return fmt.Errorf("%w: num_decks %d", ErrInvalidRules, numDecks)
	}
	if !policies.Bid.Valid() || !policies.Reinforcement.Valid() || !policies.Joker.Valid() {
		return fmt.Errorf("%w: bidding policies %v/%v/%v", ErrInvalidRules,
			policies.Bid, policies.Reinforcement, policies.Joker)
	}
	for _, b := range bids {
		if !b.Card.Valid() {
			return fmt.Errorf("%w: bid card %#02x", ErrInvalidCard, uint8(b.Card))
		}
		if b.Count < 1 || (!b.Card.IsJoker() && b.Card.Rank() != level) {
			return fmt.Errorf("%w: bid %v at level %v", ErrInvalidArgument, b, level)
		}
	}
	return nil
}

// TrumpFromBid derives the round's trump from the winning bid.
func TrumpFromBid(b Bid, level Rank) (Trump, error) {
	if !b.Card.Valid() {
		return Trump{}, fmt.Errorf("%w: %#02x", ErrInvalidCard, uint8(b.Card))
	}
	if level > RankAce {
		return Trump{}, fmt.Errorf("%w: level %v", ErrInvalidArgument, level)
	}
	if b.Card.IsJoker() {
		return NoTrump(level), nil
	}
	if b.Card.Rank() != level {
		return Trump{}, fmt.Errorf("%w: %v is not a level-%v card", ErrInvalidArgument, b.Card, level)
	}
	return StandardTrump(b.Card.Suit(), level), nil
}
