// internal/models/house_rules.go
package models

import (
	"encoding"
	"errors"
	"fmt"

	engine "github.com/findfriends/tractor/engine"
)

// ErrPresetNotFound is returned by preset sources that do not know a name.
var ErrPresetNotFound = errors.New("rules preset not found")

// HouseRules is the serializable form of engine.Rules used by presets and
// request payloads. Policies are named by their text form ("LongerTuplesProtected").
// A zero field means "inherit": from the base preset when layering, or from
// engine.DefaultRules when converting.
type HouseRules struct {
	// NumDecks is the number of 54-card decks shuffled together.
	NumDecks int `json:"numDecks,omitempty" yaml:"num_decks,omitempty"`

	// Bidding.
	BidPolicy              string `json:"bidPolicy,omitempty" yaml:"bid_policy,omitempty"`
	BidReinforcementPolicy string `json:"bidReinforcementPolicy,omitempty" yaml:"bid_reinforcement_policy,omitempty"`
	JokerBidPolicy         string `json:"jokerBidPolicy,omitempty" yaml:"joker_bid_policy,omitempty"`

	// Play.
	TrickDrawPolicy       string `json:"trickDrawPolicy,omitempty" yaml:"trick_draw_policy,omitempty"`
	ThrowEvaluationPolicy string `json:"throwEvaluationPolicy,omitempty" yaml:"throw_evaluation_policy,omitempty"`
	ThrowPenalty          string `json:"throwPenalty,omitempty" yaml:"throw_penalty,omitempty"`

	// Round setup and settlement.
	FriendSelectionPolicy string `json:"friendSelectionPolicy,omitempty" yaml:"friend_selection_policy,omitempty"`
	KittyBidPolicy        string `json:"kittyBidPolicy,omitempty" yaml:"kitty_bid_policy,omitempty"`
	KittyPenalty          string `json:"kittyPenalty,omitempty" yaml:"kitty_penalty,omitempty"`
	AdvancementPolicy     string `json:"advancementPolicy,omitempty" yaml:"advancement_policy,omitempty"`

	// Scoring replaces the default scoring table when set.
	Scoring *ScoringRules `json:"scoring,omitempty" yaml:"scoring,omitempty"`
}

// ScoringRules mirrors engine.ScoringParameters. Unlike HouseRules it is taken
// whole: every numeric field is used as given.
type ScoringRules struct {
	StepSizePerDeck               int         `json:"stepSizePerDeck" yaml:"step_size_per_deck"`
	DeadzoneSize                  int         `json:"deadzoneSize" yaml:"deadzone_size"`
	NumStepsToNonLandlordTurnover int         `json:"numStepsToNonLandlordTurnover" yaml:"num_steps_to_non_landlord_turnover"`
	StepAdjustments               map[int]int `json:"stepAdjustments,omitempty" yaml:"step_adjustments,omitempty"`
	BonusLevelPolicy              string      `json:"bonusLevelPolicy,omitempty" yaml:"bonus_level_policy,omitempty"`
}

// Merge layers over on top of h: every non-zero field of over wins.
func (h HouseRules) Merge(over HouseRules) HouseRules {
	out := h
	if over.NumDecks != 0 {
		out.NumDecks = over.NumDecks
	}
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.BidPolicy, over.BidPolicy)
	pick(&out.BidReinforcementPolicy, over.BidReinforcementPolicy)
	pick(&out.JokerBidPolicy, over.JokerBidPolicy)
	pick(&out.TrickDrawPolicy, over.TrickDrawPolicy)
	pick(&out.ThrowEvaluationPolicy, over.ThrowEvaluationPolicy)
	pick(&out.ThrowPenalty, over.ThrowPenalty)
	pick(&out.FriendSelectionPolicy, over.FriendSelectionPolicy)
	pick(&out.KittyBidPolicy, over.KittyBidPolicy)
	pick(&out.KittyPenalty, over.KittyPenalty)
	pick(&out.AdvancementPolicy, over.AdvancementPolicy)
	if over.Scoring != nil {
		s := *over.Scoring
		out.Scoring = &s
	}
	return out
}

// ToEngine converts to engine.Rules and validates the result. All problems
// are reported together; the error wraps engine.ErrInvalidRules.
func (h HouseRules) ToEngine() (engine.Rules, error) {
	r := engine.DefaultRules()
	if h.NumDecks != 0 {
		r.NumDecks = h.NumDecks
	}

	var errs []error
	set := func(field, v string, dst encoding.TextUnmarshaler) {
		if v == "" {
			return
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	set("bidPolicy", h.BidPolicy, &r.Bid)
	set("bidReinforcementPolicy", h.BidReinforcementPolicy, &r.Reinforcement)
	set("jokerBidPolicy", h.JokerBidPolicy, &r.JokerBid)
	set("trickDrawPolicy", h.TrickDrawPolicy, &r.TrickDraw)
	set("throwEvaluationPolicy", h.ThrowEvaluationPolicy, &r.ThrowEvaluation)
	set("throwPenalty", h.ThrowPenalty, &r.ThrowPenalty)
	set("friendSelectionPolicy", h.FriendSelectionPolicy, &r.FriendSelection)
	set("kittyBidPolicy", h.KittyBidPolicy, &r.KittyBid)
	set("kittyPenalty", h.KittyPenalty, &r.KittyPenalty)
	set("advancementPolicy", h.AdvancementPolicy, &r.Advancement)

	if s := h.Scoring; s != nil {
		r.Scoring = engine.ScoringParameters{
			StepSizePerDeck:               s.StepSizePerDeck,
			DeadzoneSize:                  s.DeadzoneSize,
			NumStepsToNonLandlordTurnover: s.NumStepsToNonLandlordTurnover,
			StepAdjustments:               s.StepAdjustments,
			BonusLevelPolicy:              engine.DefaultScoringParameters().BonusLevelPolicy,
		}
		set("scoring.bonusLevelPolicy", s.BonusLevelPolicy, &r.Scoring.BonusLevelPolicy)
	}

	if len(errs) > 0 {
		return engine.Rules{}, errors.Join(errs...)
	}
	if err := r.Validate(); err != nil {
		return engine.Rules{}, err
	}
	return r, nil
}

// HouseRulesFromEngine is the inverse of ToEngine. Every field is filled in.
func HouseRulesFromEngine(r engine.Rules) HouseRules {
	s := r.Scoring
	return HouseRules{
		NumDecks:               r.NumDecks,
		BidPolicy:              r.Bid.String(),
		BidReinforcementPolicy: r.Reinforcement.String(),
		JokerBidPolicy:         r.JokerBid.String(),
		TrickDrawPolicy:        r.TrickDraw.String(),
		ThrowEvaluationPolicy:  r.ThrowEvaluation.String(),
		ThrowPenalty:           r.ThrowPenalty.String(),
		FriendSelectionPolicy:  r.FriendSelection.String(),
		KittyBidPolicy:         r.KittyBid.String(),
		KittyPenalty:           r.KittyPenalty.String(),
		AdvancementPolicy:      r.Advancement.String(),
		Scoring: &ScoringRules{
			StepSizePerDeck:               s.StepSizePerDeck,
			DeadzoneSize:                  s.DeadzoneSize,
			NumStepsToNonLandlordTurnover: s.NumStepsToNonLandlordTurnover,
			StepAdjustments:               s.StepAdjustments,
			BonusLevelPolicy:              s.BonusLevelPolicy.String(),
		},
	}
}

// Preset is a named HouseRules bundle.
type Preset struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       HouseRules `json:"rules" yaml:"rules"`
}
