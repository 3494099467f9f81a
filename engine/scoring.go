package engine

import (
	"fmt"
	"sort"
)

// PointsPerDeck is the total of all point cards in one deck (4×5 + 4×10 + 4×10).
const PointsPerDeck = 100

// ScoringParameters configure the level-change table.
type ScoringParameters struct {
	StepSizePerDeck               int
	DeadzoneSize                  int         // steps past turnover that gain nothing
	NumStepsToNonLandlordTurnover int         // steps from zero to turnover
	StepAdjustments               map[int]int // deck count → added to the step
	BonusLevelPolicy              BonusLevelPolicy
}

// DefaultScoringParameters: 20 points per deck per step, one deadzone step,
// turnover after two steps, bonus level for a short-handed landlord.
func DefaultScoringParameters() ScoringParameters {
	return ScoringParameters{
		StepSizePerDeck:               20,
		DeadzoneSize:                  1,
		NumStepsToNonLandlordTurnover: 2,
		BonusLevelPolicy:              BonusLevelForSmallerLandlordTeam,
	}
}

// StepSize returns the effective step for numDecks.
func (p ScoringParameters) StepSize(numDecks int) int {
	return p.StepSizePerDeck*numDecks + p.StepAdjustments[numDecks]
}

// TotalPoints is the top of the scorable range.
func TotalPoints(numDecks int) int { return PointsPerDeck * numDecks }

// turnover is the first point total at which the landlord loses.
func (p ScoringParameters) turnover(numDecks int) int {
	return p.NumStepsToNonLandlordTurnover * p.StepSize(numDecks)
}

// Validate checks the parameters against a deck count.
func (p ScoringParameters) Validate(numDecks int) error {
	if numDecks < 1 {
		return fmt.Errorf("%w: num_decks %d", ErrInvalidRules, numDecks)
	}
	step := p.StepSize(numDecks)
	switch {
	case step <= 0:
		return fmt.Errorf("%w: step size %d must be positive", ErrInvalidRules, step)
	case step%5 != 0:
		return fmt.Errorf("%w: step size %d is not a multiple of 5", ErrInvalidRules, step)
	case p.DeadzoneSize < 0:
		return fmt.Errorf("%w: deadzone size %d is negative", ErrInvalidRules, p.DeadzoneSize)
	case p.NumStepsToNonLandlordTurnover < 1:
		return fmt.Errorf("%w: turnover needs at least one step", ErrInvalidRules)
	case p.turnover(numDecks) > TotalPoints(numDecks):
		return fmt.Errorf("%w: turnover at %d exceeds %d available points",
			ErrInvalidRules, p.turnover(numDecks), TotalPoints(numDecks))
	case !p.BonusLevelPolicy.Valid():
		return fmt.Errorf("%w: unknown bonus level policy %v", ErrInvalidRules, p.BonusLevelPolicy)
	}
	return nil
}

// ScoreResult is the outcome of a round for a given non-landlord total.
type ScoreResult struct {
	LandlordWon      bool
	LandlordBonus    bool // bonus level included in LandlordDelta
	LandlordDelta    int
	NonLandlordDelta int
	NextThreshold    int // first threshold above the points; valid when HasNext
	HasNext          bool
}

// bonusLevel is indexed by BonusLevelPolicy.
var bonusLevel = [numBonusLevelPolicies]func(smallerLandlordTeam bool) bool{
	NoBonusLevel:                     func(bool) bool { return false },
	BonusLevelForSmallerLandlordTeam: func(smaller bool) bool { return smaller },
}

// ComputeScore returns the level changes for nonLandlordPoints. Totals above
// the deck total (from kitty multipliers) keep climbing by whole steps.
func ComputeScore(params ScoringParameters, numDecks int, smallerLandlordTeam bool, nonLandlordPoints int) (ScoreResult, error) {
	if err := params.Validate(numDecks); err != nil {
		return ScoreResult{}, err
	}
	if nonLandlordPoints < 0 {
		return ScoreResult{}, fmt.Errorf("%w: negative points %d", ErrInvalidArgument, nonLandlordPoints)
	}
	return computeScore(params, numDecks, smallerLandlordTeam, nonLandlordPoints, thresholds(params, numDecks)), nil
}

func computeScore(params ScoringParameters, numDecks int, smaller bool, points int, table []int) ScoreResult {
	step := params.StepSize(numDecks)
	turnover := params.turnover(numDecks)

	var res ScoreResult
	if points < turnover {
		res.LandlordWon = true
		res.LandlordDelta = params.NumStepsToNonLandlordTurnover - points/step
		if points == 0 {
			res.LandlordDelta++
		}
		if bonusLevel[params.BonusLevelPolicy](smaller) {
			res.LandlordBonus = true
			res.LandlordDelta++
		}
	} else {
		res.NonLandlordDelta = max(0, (points-turnover)/step-params.DeadzoneSize+1)
	}

	i := sort.SearchInts(table, points+1)
	if i < len(table) {
		res.NextThreshold = table[i]
		res.HasNext = true
	}
	return res
}

// thresholds lists, ascending, every point total at which the result changes.
func thresholds(params ScoringParameters, numDecks int) []int {
	step := params.StepSize(numDecks)
	total := TotalPoints(numDecks)
	turnover := params.turnover(numDecks)

	seen := map[int]bool{}
	var out []int
	add := func(p int) {
		if p <= total && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	add(0)
	add(5)
	for k := 1; k <= params.NumStepsToNonLandlordTurnover; k++ {
		add(k * step)
	}
	for p := turnover + params.DeadzoneSize*step; p <= total; p += step {
		add(p)
	}
	sort.Ints(out)
	return out
}

// ScoreRow is one line of the scoring legend.
type ScoreRow struct {
	PointThreshold int
	Result         ScoreResult
}

// ExplainScoring returns the full threshold table. Each row's Result equals
// ComputeScore at that exact threshold.
func ExplainScoring(params ScoringParameters, numDecks int, smallerLandlordTeam bool) ([]ScoreRow, error) {
	if err := params.Validate(numDecks); err != nil {
		return nil, err
	}
	table := thresholds(params, numDecks)
	rows := make([]ScoreRow, len(table))
	for i, p := range table {
		rows[i] = ScoreRow{
			PointThreshold: p,
			Result:         computeScore(params, numDecks, smallerLandlordTeam, p, table),
		}
	}
	return rows, nil
}

// NextThresholdReachable reports whether the points still unplayed could lift
// the non-landlord total to the next threshold. A false result means the
// round's outcome is settled and play may end early.
func NextThresholdReachable(params ScoringParameters, numDecks, observedPoints, nonLandlordPoints int) (bool, error) {
	if err := params.Validate(numDecks); err != nil {
		return false, err
	}
	total := TotalPoints(numDecks)
	if observedPoints < 0 || observedPoints > total {
		return false, fmt.Errorf("%w: observed points %d out of range 0..%d", ErrInvalidArgument, observedPoints, total)
	}
	if nonLandlordPoints < 0 || nonLandlordPoints > observedPoints {
		return false, fmt.Errorf("%w: non-landlord points %d out of range 0..%d",
			ErrInvalidArgument, nonLandlordPoints, observedPoints)
	}
	res := computeScore(params, numDecks, false, nonLandlordPoints, thresholds(params, numDecks))
	if !res.HasNext {
		return false, nil
	}
	return nonLandlordPoints+(total-observedPoints) >= res.NextThreshold, nil
}
