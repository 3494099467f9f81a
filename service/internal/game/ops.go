// internal/game/ops.go
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	engine "github.com/findfriends/tractor/engine"
	"github.com/findfriends/tractor/service/internal/cache"
	"github.com/findfriends/tractor/service/internal/models"
)

var opOrder = []Op{
	OpValidBids, OpEstablishFormat, OpCanFollow, OpDecompose, OpEvaluateThrow,
	OpComputeScore, OpExplainScoring, OpNextThresholdReachable, OpSortHand,
	OpTrumpFromBid, OpKittyTrump, OpKittyPoints, OpValidateFriend, OpAdvanceLevel,
}

var handlers = map[Op]handler{
	OpValidBids:              handle(opValidBids),
	OpEstablishFormat:        handle(opEstablishFormat),
	OpCanFollow:              handle(opCanFollow),
	OpDecompose:              handle(opDecompose),
	OpEvaluateThrow:          handle(opEvaluateThrow),
	OpComputeScore:           handle(opComputeScore),
	OpExplainScoring:         handle(opExplainScoring),
	OpNextThresholdReachable: handle(opNextThresholdReachable),
	OpSortHand:               handle(opSortHand),
	OpTrumpFromBid:           handle(opTrumpFromBid),
	OpKittyTrump:             handle(opKittyTrump),
	OpKittyPoints:            handle(opKittyPoints),
	OpValidateFriend:         handle(opValidateFriend),
	OpAdvanceLevel:           handle(opAdvanceLevel),
}

// ---------------------------------------------------------------------------
// Bidding
// ---------------------------------------------------------------------------

// ValidBidsRequest asks which bids player may make now.
type ValidBidsRequest struct {
	RulesRef
	Player string       `json:"player"`
	Hand   HandPayload  `json:"hand"`
	Bids   []BidPayload `json:"bids"` // history, oldest first
	Level  string       `json:"level"`
}

// ValidBidsResult lists the legal bids.
type ValidBidsResult struct {
	Bids []BidPayload `json:"bids"`
}

func opValidBids(ctx context.Context, e *Evaluator, caller models.Caller, p ValidBidsRequest) (any, error) {
	if err := authorize(caller, p.Player); err != nil {
		return nil, err
	}
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}
	hand, err := parseHand("hand", p.Hand)
	if err != nil {
		return nil, err
	}
	bids, err := parseBids("bids", p.Bids)
	if err != nil {
		return nil, err
	}
	level, err := parseRank("level", p.Level)
	if err != nil {
		return nil, err
	}
	valid, err := engine.FindValidBids(engine.PlayerID(p.Player), hand, bids, rules.BiddingPolicies(), level, rules.NumDecks)
	if err != nil {
		return nil, err
	}
	res := ValidBidsResult{Bids: bidPayloads(valid)}
	if len(valid) == 0 {
		return res, fmt.Errorf("%w: no available bids", engine.ErrNoLegalOption)
	}
	return res, nil
}

// TrumpFromBidRequest derives trump from the winning bid.
type TrumpFromBidRequest struct {
	Bid   BidPayload `json:"bid"`
	Level string     `json:"level"`
}

func opTrumpFromBid(_ context.Context, _ *Evaluator, _ models.Caller, p TrumpFromBidRequest) (any, error) {
	card, err := parseCard("bid.card", p.Bid.Card)
	if err != nil {
		return nil, err
	}
	level, err := parseRank("level", p.Level)
	if err != nil {
		return nil, err
	}
	t, err := engine.TrumpFromBid(engine.Bid{Player: engine.PlayerID(p.Bid.Player), Card: card, Count: p.Bid.Count}, level)
	if err != nil {
		return nil, err
	}
	return trumpPayload(t), nil
}

// KittyTrumpRequest picks trump from the revealed kitty when nobody bid.
type KittyTrumpRequest struct {
	RulesRef
	Kitty []string `json:"kitty"`
	Level string   `json:"level"`
}

func opKittyTrump(ctx context.Context, e *Evaluator, caller models.Caller, p KittyTrumpRequest) (any, error) {
	if err := coordinatorOnly(caller); err != nil {
		return nil, err
	}
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}
	kitty, err := parseCards("kitty", p.Kitty)
	if err != nil {
		return nil, err
	}
	level, err := parseRank("level", p.Level)
	if err != nil {
		return nil, err
	}
	t, err := engine.KittyTrump(kitty, level, rules.KittyBid)
	if err != nil {
		return nil, err
	}
	return trumpPayload(t), nil
}

// ---------------------------------------------------------------------------
// Tricks
// ---------------------------------------------------------------------------

// EstablishFormatRequest reads a lead. Choice selects a grouping after an
// ambiguous response.
type EstablishFormatRequest struct {
	Trump  TrumpPayload `json:"trump"`
	Lead   []string     `json:"lead"`
	Choice *int         `json:"choice,omitempty"`
}

func opEstablishFormat(_ context.Context, _ *Evaluator, _ models.Caller, p EstablishFormatRequest) (any, error) {
	t, err := p.Trump.toEngine()
	if err != nil {
		return nil, err
	}
	lead, err := parseCards("lead", p.Lead)
	if err != nil {
		return nil, err
	}
	if p.Choice == nil {
		f, err := engine.EstablishFormat(lead, t)
		if err != nil {
			return nil, err
		}
		return formatPayload(f), nil
	}
	groupings, err := engine.LeadGroupings(lead, t)
	if err != nil {
		return nil, err
	}
	i := *p.Choice
	if i < 0 || i >= len(groupings) {
		return nil, fmt.Errorf("%w: choice %d out of range 0..%d", engine.ErrInvalidArgument, i, len(groupings)-1)
	}
	f, err := engine.NewTrickFormat(t, groupings[i].Units)
	if err != nil {
		return nil, err
	}
	return formatPayload(f), nil
}

// CanFollowRequest checks a proposed follow.
type CanFollowRequest struct {
	RulesRef
	Player string        `json:"player"`
	Hand   HandPayload   `json:"hand"`
	Format FormatPayload `json:"format"`
	Play   []string      `json:"play"`
}

// CanFollowResult carries the verdict and, when illegal, the strongest
// obligation the play failed to meet.
type CanFollowResult struct {
	Legal bool   `json:"legal"`
	Hint  string `json:"hint,omitempty"`
}

func opCanFollow(ctx context.Context, e *Evaluator, caller models.Caller, p CanFollowRequest) (any, error) {
	if err := authorize(caller, p.Player); err != nil {
		return nil, err
	}
	rules, hand, format, err := e.followInputs(ctx, p.RulesRef, p.Hand, p.Format)
	if err != nil {
		return nil, err
	}
	play, err := parseCards("play", p.Play)
	if err != nil {
		return nil, err
	}
	ok, err := engine.CanFollow(hand, format, play, rules.TrickDraw)
	if err != nil {
		return nil, err
	}
	res := CanFollowResult{Legal: ok}
	if !ok {
		if dec, err := engine.Decompose(format, hand, engine.PlayerID(p.Player), rules.TrickDraw); err == nil && len(dec.Obligations) > 0 {
			res.Hint = dec.Obligations[0].Description
		}
	}
	return res, nil
}

// DecomposeRequest asks for the follow hint ladder.
type DecomposeRequest struct {
	RulesRef
	Player string        `json:"player"`
	Hand   HandPayload   `json:"hand"`
	Format FormatPayload `json:"format"`
}

func opDecompose(ctx context.Context, e *Evaluator, caller models.Caller, p DecomposeRequest) (any, error) {
	if err := authorize(caller, p.Player); err != nil {
		return nil, err
	}
	rules, hand, format, err := e.followInputs(ctx, p.RulesRef, p.Hand, p.Format)
	if err != nil {
		return nil, err
	}
	dec, err := engine.Decompose(format, hand, engine.PlayerID(p.Player), rules.TrickDraw)
	if err != nil {
		return nil, err
	}
	return decompositionPayload(dec), nil
}

func (e *Evaluator) followInputs(ctx context.Context, ref RulesRef, hp HandPayload, fp FormatPayload) (engine.Rules, engine.Hand, engine.TrickFormat, error) {
	rules, err := e.ResolveRules(ctx, ref)
	if err != nil {
		return engine.Rules{}, nil, engine.TrickFormat{}, err
	}
	hand, err := parseHand("hand", hp)
	if err != nil {
		return engine.Rules{}, nil, engine.TrickFormat{}, err
	}
	format, err := fp.toEngine()
	if err != nil {
		return engine.Rules{}, nil, engine.TrickFormat{}, err
	}
	return rules, hand, format, nil
}

// ResponderPayload is a player who could contest a throw.
type ResponderPayload struct {
	Player string      `json:"player"`
	Hand   HandPayload `json:"hand"`
}

// EvaluateThrowRequest checks a multi-unit lead against the other hands, in
// play order after the leader.
type EvaluateThrowRequest struct {
	RulesRef
	Leader     string             `json:"leader"`
	Format     FormatPayload      `json:"format"`
	Responders []ResponderPayload `json:"responders"`
}

// EvaluateThrowResult is what the leader actually plays and why.
type EvaluateThrowResult struct {
	Played        PlayedPayload  `json:"played"`
	Verdict       VerdictPayload `json:"verdict"`
	PenaltyPoints int            `json:"penaltyPoints,omitempty"`
}

func opEvaluateThrow(ctx context.Context, e *Evaluator, caller models.Caller, p EvaluateThrowRequest) (any, error) {
	if err := coordinatorOnly(caller); err != nil {
		return nil, err
	}
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}
	format, err := p.Format.toEngine()
	if err != nil {
		return nil, err
	}
	responders := make([]engine.Responder, len(p.Responders))
	for i, r := range p.Responders {
		hand, err := parseHand(fmt.Sprintf("responders[%d].hand", i), r.Hand)
		if err != nil {
			return nil, err
		}
		responders[i] = engine.Responder{Player: engine.PlayerID(r.Player), Hand: hand}
	}
	played, verdict, err := engine.ResolveLead(engine.PlayerID(p.Leader), format, responders, rules.ThrowEvaluation)
	if err != nil {
		return nil, err
	}
	res := EvaluateThrowResult{Played: playedPayload(played), Verdict: verdictPayload(verdict)}
	if verdict.BadThrow {
		if res.PenaltyPoints, err = engine.ThrowPenaltyPoints(rules.ThrowPenalty, 1); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// SortHandRequest groups a hand for display.
type SortHandRequest struct {
	Player string       `json:"player"`
	Hand   HandPayload  `json:"hand"`
	Trump  TrumpPayload `json:"trump"`
}

// SortHandResult holds the display groups, clubs first and trump last.
type SortHandResult struct {
	Groups []SuitGroupPayload `json:"groups"`
}

func opSortHand(_ context.Context, _ *Evaluator, caller models.Caller, p SortHandRequest) (any, error) {
	if err := authorize(caller, p.Player); err != nil {
		return nil, err
	}
	t, err := p.Trump.toEngine()
	if err != nil {
		return nil, err
	}
	hand, err := parseHand("hand", p.Hand)
	if err != nil {
		return nil, err
	}
	groups, err := engine.SortAndGroupCards(hand, t)
	if err != nil {
		return nil, err
	}
	return SortHandResult{Groups: suitGroupPayloads(groups)}, nil
}

// ---------------------------------------------------------------------------
// Scoring
// ---------------------------------------------------------------------------

// ComputeScoreRequest settles a round.
type ComputeScoreRequest struct {
	RulesRef
	NonLandlordPoints   int  `json:"nonLandlordPoints"`
	SmallerLandlordTeam bool `json:"smallerLandlordTeam,omitempty"`
}

func opComputeScore(ctx context.Context, e *Evaluator, _ models.Caller, p ComputeScoreRequest) (any, error) {
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}
	res, err := engine.ComputeScore(rules.Scoring, rules.NumDecks, p.SmallerLandlordTeam, p.NonLandlordPoints)
	if err != nil {
		return nil, err
	}
	return scoreResultPayload(res), nil
}

// ExplainScoringRequest asks for the scoring legend.
type ExplainScoringRequest struct {
	RulesRef
	SmallerLandlordTeam bool `json:"smallerLandlordTeam,omitempty"`
}

// ExplainScoringResult is the full threshold table.
type ExplainScoringResult struct {
	NumDecks    int               `json:"numDecks"`
	TotalPoints int               `json:"totalPoints"`
	Rows        []ScoreRowPayload `json:"rows"`
}

// explainKey is everything the legend depends on.
type explainKey struct {
	Scoring             engine.ScoringParameters
	NumDecks            int
	SmallerLandlordTeam bool
}

func opExplainScoring(ctx context.Context, e *Evaluator, _ models.Caller, p ExplainScoringRequest) (any, error) {
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}

	var key string
	if e.explain != nil {
		key, err = cache.ExplainKey(explainKey{rules.Scoring, rules.NumDecks, p.SmallerLandlordTeam})
		if err != nil {
			return nil, err
		}
		if res, ok := e.cachedExplain(ctx, key); ok {
			return res, nil
		}
	}

	rows, err := engine.ExplainScoring(rules.Scoring, rules.NumDecks, p.SmallerLandlordTeam)
	if err != nil {
		return nil, err
	}
	res := ExplainScoringResult{
		NumDecks:    rules.NumDecks,
		TotalPoints: engine.TotalPoints(rules.NumDecks),
		Rows:        scoreRowPayloads(rows),
	}

	if e.explain != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := e.explain.Set(ctx, key, b); err != nil {
				e.log.WithError(err).WithField("key", key).Warn("explain cache write failed")
			}
		}
	}
	return res, nil
}

// cachedExplain reads a memoized legend. Cache failures fall through to a
// fresh computation.
func (e *Evaluator) cachedExplain(ctx context.Context, key string) (ExplainScoringResult, bool) {
	b, ok, err := e.explain.Get(ctx, key)
	if err != nil {
		e.log.WithError(err).WithField("key", key).Warn("explain cache read failed")
		return ExplainScoringResult{}, false
	}
	if !ok {
		return ExplainScoringResult{}, false
	}
	var res ExplainScoringResult
	if err := json.Unmarshal(b, &res); err != nil {
		e.log.WithError(err).WithField("key", key).Warn("discarding corrupt explain cache entry")
		return ExplainScoringResult{}, false
	}
	return res, true
}

// NextThresholdRequest asks whether the attackers can still reach the next
// scoring threshold with the points left in play.
type NextThresholdRequest struct {
	RulesRef
	ObservedPoints    int `json:"observedPoints"`
	NonLandlordPoints int `json:"nonLandlordPoints"`
}

// NextThresholdResult answers NextThresholdRequest.
type NextThresholdResult struct {
	Reachable bool `json:"reachable"`
}

func opNextThresholdReachable(ctx context.Context, e *Evaluator, _ models.Caller, p NextThresholdRequest) (any, error) {
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}
	ok, err := engine.NextThresholdReachable(rules.Scoring, rules.NumDecks, p.ObservedPoints, p.NonLandlordPoints)
	if err != nil {
		return nil, err
	}
	return NextThresholdResult{Reachable: ok}, nil
}

// KittyPointsRequest values the kitty for attackers who won the last trick.
type KittyPointsRequest struct {
	RulesRef
	Kitty     []string      `json:"kitty"`
	LastTrick FormatPayload `json:"lastTrick"`
}

// KittyPointsResult is the multiplied kitty value.
type KittyPointsResult struct {
	Points     int `json:"points"`
	Multiplier int `json:"multiplier"`
}

func opKittyPoints(ctx context.Context, e *Evaluator, _ models.Caller, p KittyPointsRequest) (any, error) {
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}
	kitty, err := parseCards("kitty", p.Kitty)
	if err != nil {
		return nil, err
	}
	last, err := p.LastTrick.toEngine()
	if err != nil {
		return nil, err
	}
	mult, err := engine.KittyMultiplier(last, rules.KittyPenalty)
	if err != nil {
		return nil, err
	}
	points, err := engine.KittyPoints(kitty, last, rules.KittyPenalty)
	if err != nil {
		return nil, err
	}
	return KittyPointsResult{Points: points, Multiplier: mult}, nil
}

// ---------------------------------------------------------------------------
// Round setup and settlement
// ---------------------------------------------------------------------------

// FriendPayload names a friend card and which copy of it counts.
type FriendPayload struct {
	Card    string `json:"card"`
	Ordinal int    `json:"ordinal"`
}

// ValidateFriendRequest checks the landlord's friend declarations.
type ValidateFriendRequest struct {
	RulesRef
	Trump   TrumpPayload    `json:"trump"`
	Friends []FriendPayload `json:"friends"`
}

// ValidateFriendResult is returned when every declaration is allowed.
type ValidateFriendResult struct {
	Allowed bool `json:"allowed"`
}

func opValidateFriend(ctx context.Context, e *Evaluator, _ models.Caller, p ValidateFriendRequest) (any, error) {
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}
	t, err := p.Trump.toEngine()
	if err != nil {
		return nil, err
	}
	if len(p.Friends) == 0 {
		return nil, fmt.Errorf("%w: no friends declared", engine.ErrInvalidArgument)
	}
	var errs []error
	for i, f := range p.Friends {
		card, err := parseCard(fmt.Sprintf("friends[%d].card", i), f.Card)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := engine.ValidateFriend(t, engine.Friend{Card: card, Ordinal: f.Ordinal}, rules.NumDecks, rules.FriendSelection); err != nil {
			errs = append(errs, fmt.Errorf("friends[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return ValidateFriendResult{Allowed: true}, nil
}

// AdvanceLevelRequest moves a team up after a round.
type AdvanceLevelRequest struct {
	RulesRef
	Level      string `json:"level"`
	Delta      int    `json:"delta"`
	AsLandlord bool   `json:"asLandlord,omitempty"`
}

// AdvanceLevelResult is the team's new level.
type AdvanceLevelResult struct {
	Level string `json:"level"`
	Won   bool   `json:"won,omitempty"`
}

func opAdvanceLevel(ctx context.Context, e *Evaluator, _ models.Caller, p AdvanceLevelRequest) (any, error) {
	rules, err := e.ResolveRules(ctx, p.RulesRef)
	if err != nil {
		return nil, err
	}
	level, err := parseRank("level", p.Level)
	if err != nil {
		return nil, err
	}
	res, err := engine.AdvanceLevel(level, p.Delta, p.AsLandlord, rules.Advancement)
	if err != nil {
		return nil, err
	}
	return AdvanceLevelResult{Level: res.Level.String(), Won: res.Won}, nil
}
