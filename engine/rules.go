package engine

import (
	"fmt"
	"strings"
)

// MaxDecks bounds NumDecks. Bids, friend ordinals and scoring ranges all scale
// with the deck count.
const MaxDecks = 8

// Rules holds every configurable rule axis for a game.
type Rules struct {
	NumDecks int // number of 54-card decks shuffled together

	Bid             BidPolicy
	Reinforcement   BidReinforcementPolicy
	JokerBid        JokerBidPolicy
	TrickDraw       TrickDrawPolicy
	ThrowEvaluation ThrowEvaluationPolicy
	FriendSelection FriendSelectionPolicy
	KittyBid        KittyBidPolicy
	Advancement     AdvancementPolicy
	KittyPenalty    KittyPenalty
	ThrowPenalty    ThrowPenalty

	Scoring ScoringParameters
}

// DefaultRules returns the standard two-deck Finding Friends rules.
func DefaultRules() Rules {
	return Rules{
		NumDecks:        2,
		Bid:             JokerOrGreaterLength,
		Reinforcement:   ReinforceWhileWinning,
		JokerBid:        BothTwoOrMore,
		TrickDraw:       NoProtections,
		ThrowEvaluation: ThrowEvalAll,
		FriendSelection: FriendUnrestricted,
		KittyBid:        KittyFirstCard,
		Advancement:     AdvanceUnrestricted,
		KittyPenalty:    KittyPenaltyTimes,
		ThrowPenalty:    NoThrowPenalty,
		Scoring:         DefaultScoringParameters(),
	}
}

// Validate reports every problem at once, wrapped in ErrInvalidRules.
func (r Rules) Validate() error {
	var problems []string
	if r.NumDecks < 1 || r.NumDecks > MaxDecks {
		problems = append(problems, fmt.Sprintf("num_decks %d out of range 1..%d", r.NumDecks, MaxDecks))
	}
	check := func(ok bool, axis string, v fmt.Stringer) {
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown %s %v", axis, v))
		}
	}
	check(r.Bid.Valid(), "bid policy", r.Bid)
	check(r.Reinforcement.Valid(), "reinforcement policy", r.Reinforcement)
	check(r.JokerBid.Valid(), "joker bid policy", r.JokerBid)
	check(r.TrickDraw.Valid(), "trick draw policy", r.TrickDraw)
	check(r.ThrowEvaluation.Valid(), "throw evaluation policy", r.ThrowEvaluation)
	check(r.FriendSelection.Valid(), "friend selection policy", r.FriendSelection)
	check(r.KittyBid.Valid(), "kitty bid policy", r.KittyBid)
	check(r.Advancement.Valid(), "advancement policy", r.Advancement)
	check(r.KittyPenalty.Valid(), "kitty penalty", r.KittyPenalty)
	check(r.ThrowPenalty.Valid(), "throw penalty", r.ThrowPenalty)
	if r.NumDecks >= 1 && r.NumDecks <= MaxDecks {
		if err := r.Scoring.Validate(r.NumDecks); err != nil {
			problems = append(problems, strings.TrimPrefix(err.Error(), ErrInvalidRules.Error()+": "))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRules, strings.Join(problems, "; "))
	}
	return nil
}

// BiddingPolicies is the subset of Rules consulted by FindValidBids.
type BiddingPolicies struct {
	Bid           BidPolicy
	Reinforcement BidReinforcementPolicy
	Joker         JokerBidPolicy
}

// BiddingPolicies extracts the bidding axes.
func (r Rules) BiddingPolicies() BiddingPolicies {
	return BiddingPolicies{Bid: r.Bid, Reinforcement: r.Reinforcement, Joker: r.JokerBid}
}
