package engine

import "fmt"

// LevelResult is a team's level after a round.
type LevelResult struct {
	Level Rank
	Won   bool // the team passed Ace and won the match
}

// mustDefend is indexed by AdvancementPolicy: ranks a team cannot advance
// past unless it starts the round there as landlord. A nil entry allows
// passing Ace freely.
var mustDefend = [numAdvancementPolicies]map[Rank]bool{
	AdvanceUnrestricted:      {RankAce: true},
	AdvanceFullyUnrestricted: nil,
	AdvanceDefendPoints:      {RankFive: true, RankTen: true, RankKing: true, RankAce: true},
}

// AdvanceLevel moves a team up delta levels from level.
func AdvanceLevel(level Rank, delta int, asLandlord bool, policy AdvancementPolicy) (LevelResult, error) {
	if level > RankAce {
		return LevelResult{}, fmt.Errorf("%w: level %v", ErrInvalidArgument, level)
	}
	if delta < 0 {
		return LevelResult{}, fmt.Errorf("%w: negative level delta %d", ErrInvalidArgument, delta)
	}
	if !policy.Valid() {
		return LevelResult{}, fmt.Errorf("%w: advancement policy %v", ErrInvalidRules, policy)
	}

	stops := mustDefend[policy]
	cur := level
	for ; delta > 0; delta-- {
		if stops[cur] && !(cur == level && asLandlord) {
			break
		}
		if cur == RankAce {
			return LevelResult{Level: RankAce, Won: true}, nil
		}
		cur++
	}
	return LevelResult{Level: cur}, nil
}
