package models

import (
	"errors"
	"testing"

	engine "github.com/findfriends/tractor/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseRulesZeroIsDefault(t *testing.T) {
	r, err := HouseRules{}.ToEngine()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultRules(), r)
}

func TestHouseRulesMerge(t *testing.T) {
	base := HouseRules{
		NumDecks:        3,
		TrickDrawPolicy: "LongerTuplesProtected",
		KittyPenalty:    "Power",
		Scoring:         &ScoringRules{StepSizePerDeck: 20, DeadzoneSize: 1, NumStepsToNonLandlordTurnover: 2},
	}
	over := HouseRules{TrickDrawPolicy: "NoFormatBasedDraw", ThrowPenalty: "TenPointsPerAttempt"}

	got := base.Merge(over)
	assert.Equal(t, 3, got.NumDecks)
	assert.Equal(t, "NoFormatBasedDraw", got.TrickDrawPolicy)
	assert.Equal(t, "Power", got.KittyPenalty)
	assert.Equal(t, "TenPointsPerAttempt", got.ThrowPenalty)
	assert.Same(t, base.Scoring, got.Scoring, "scoring inherited untouched")

	scoring := &ScoringRules{StepSizePerDeck: 25, NumStepsToNonLandlordTurnover: 2}
	got = base.Merge(HouseRules{Scoring: scoring})
	require.NotNil(t, got.Scoring)
	assert.Equal(t, 25, got.Scoring.StepSizePerDeck)
	assert.Zero(t, got.Scoring.DeadzoneSize, "scoring replaced whole")
	assert.NotSame(t, scoring, got.Scoring)
}

func TestHouseRulesToEngine(t *testing.T) {
	r, err := HouseRules{
		NumDecks:               3,
		BidPolicy:              "GreaterLength",
		BidReinforcementPolicy: "reinforcewhileequivalent",
		JokerBidPolicy:         "Disabled",
		ThrowEvaluationPolicy:  "Highest",
		FriendSelectionPolicy:  "PointCardNotAllowed",
		KittyBidPolicy:         "FirstCardOfLevelOrHighest",
		AdvancementPolicy:      "DefendPoints",
		Scoring: &ScoringRules{
			StepSizePerDeck:               20,
			DeadzoneSize:                  0,
			NumStepsToNonLandlordTurnover: 2,
			StepAdjustments:               map[int]int{3: 5},
			BonusLevelPolicy:              "NoBonusLevel",
		},
	}.ToEngine()
	require.NoError(t, err)
	assert.Equal(t, 3, r.NumDecks)
	assert.Equal(t, engine.GreaterLength, r.Bid)
	assert.Equal(t, engine.ReinforceWhileEquivalent, r.Reinforcement)
	assert.Equal(t, engine.DisabledJokerBids, r.JokerBid)
	assert.Equal(t, engine.ThrowEvalHighest, r.ThrowEvaluation)
	assert.Equal(t, engine.FriendPointCardNotAllowed, r.FriendSelection)
	assert.Equal(t, engine.KittyFirstCardOfLevelOrHighest, r.KittyBid)
	assert.Equal(t, engine.AdvanceDefendPoints, r.Advancement)
	assert.Equal(t, 65, r.Scoring.StepSize(3))
	assert.Equal(t, engine.NoBonusLevel, r.Scoring.BonusLevelPolicy)
}

func TestHouseRulesToEngineCollectsErrors(t *testing.T) {
	_, err := HouseRules{
		BidPolicy:         "Loudest",
		TrickDrawPolicy:   "Sometimes",
		AdvancementPolicy: "Never",
	}.ToEngine()
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidRules))
	for _, field := range []string{"bidPolicy", "trickDrawPolicy", "advancementPolicy"} {
		assert.Contains(t, err.Error(), field)
	}

	_, err = HouseRules{NumDecks: 9}.ToEngine()
	assert.ErrorIs(t, err, engine.ErrInvalidRules)

	_, err = HouseRules{Scoring: &ScoringRules{StepSizePerDeck: 7, NumStepsToNonLandlordTurnover: 2}}.ToEngine()
	assert.ErrorIs(t, err, engine.ErrInvalidRules)
}

func TestHouseRulesFromEngineRoundTrip(t *testing.T) {
	want := engine.DefaultRules()
	want.NumDecks = 4
	want.TrickDraw = engine.OnlyDrawTractorOnTractor
	want.KittyPenalty = engine.KittyPenaltyPower
	want.ThrowPenalty = engine.TenPointsPerAttempt

	h := HouseRulesFromEngine(want)
	assert.Equal(t, "OnlyDrawTractorOnTractor", h.TrickDrawPolicy)
	assert.Equal(t, "None", HouseRulesFromEngine(engine.DefaultRules()).ThrowPenalty)

	got, err := h.ToEngine()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCallerMayActFor(t *testing.T) {
	assert.True(t, Caller{Role: RoleCoordinator}.MayActFor("anyone"))
	assert.True(t, Caller{Player: "p1", Role: RoleClient}.MayActFor("p1"))
	assert.False(t, Caller{Player: "p1", Role: RoleClient}.MayActFor("p2"))
	assert.False(t, Role("spectator").Valid())
}
