package engine

import "fmt"

// kittyTrumpCard is indexed by KittyBidPolicy and picks the card whose suit
// becomes trump. ok is false when only jokers qualify.
var kittyTrumpCard = [numKittyBidPolicies]func(kitty []Card, level Rank) (Card, bool){
	KittyFirstCard: func(kitty []Card, _ Rank) (Card, bool) {
		return kitty[0], !kitty[0].IsJoker()
	},
	KittyFirstCardOfLevelOrHighest: func(kitty []Card, level Rank) (Card, bool) {
		for _, c := range kitty {
			if !c.IsJoker() && c.Rank() == level {
				return c, true
			}
		}
		var best Card
		found := false
		for _, c := range kitty {
			if c.IsJoker() {
				continue
			}
			if !found || c.Rank() > best.Rank() || (c.Rank() == best.Rank() && c.Suit() > best.Suit()) {
				best, found = c, true
			}
		}
		return best, found
	},
}

// KittyTrump picks trump from the revealed kitty when nobody bid. A joker
// choice declares no-trump at level.
func KittyTrump(kitty []Card, level Rank, policy KittyBidPolicy) (Trump, error) {
	if !policy.Valid() {
		return Trump{}, fmt.Errorf("%w: kitty bid policy %v", ErrInvalidRules, policy)
	}
	if level > RankAce {
		return Trump{}, fmt.Errorf("%w: level %v", ErrInvalidArgument, level)
	}
	if err := validateCards(kitty); err != nil {
		return Trump{}, err
	}
	if len(kitty) == 0 {
		return Trump{}, fmt.Errorf("%w: empty kitty", ErrInvalidArgument)
	}
	c, ok := kittyTrumpCard[policy](kitty, level)
	if !ok {
		return NoTrump(level), nil
	}
	return StandardTrump(c.Suit(), level), nil
}

// kittyMultiplier is indexed by KittyPenalty; size is the largest unit of
// the last trick.
var kittyMultiplier = [numKittyPenalties]func(size int) int{
	KittyPenaltyTimes: func(size int) int { return 2 * size },
	KittyPenaltyPower: func(size int) int { return 1 << size },
}

// KittyMultiplier returns the factor applied to kitty points when the
// attackers win the last trick with lastTrick.
func KittyMultiplier(lastTrick TrickFormat, policy KittyPenalty) (int, error) {
	if !policy.Valid() {
		return 0, fmt.Errorf("%w: kitty penalty %v", ErrInvalidRules, policy)
	}
	if len(lastTrick.Units) == 0 {
		return 0, fmt.Errorf("%w: last trick has no units", ErrInvalidLead)
	}
	largest := 0
	for _, u := range lastTrick.Units {
		largest = max(largest, u.Size())
	}
	return kittyMultiplier[policy](largest), nil
}

// KittyPoints returns the points the attackers earn from the kitty.
func KittyPoints(kitty []Card, lastTrick TrickFormat, policy KittyPenalty) (int, error) {
	if err := validateCards(kitty); err != nil {
		return 0, err
	}
	mult, err := KittyMultiplier(lastTrick, policy)
	if err != nil {
		return 0, err
	}
	return PointsIn(kitty) * mult, nil
}
