package engine

import (
	"fmt"
	"sort"
)

// Responder is a player who could contest a throw.
type Responder struct {
	Player PlayerID
	Hand   Hand
}

// ThrowVerdict is the outcome of checking a multi-unit lead.
type ThrowVerdict struct {
	BadThrow     bool
	BetterPlayer PlayerID    // first responder able to beat the throw
	Beaten       []TrickUnit // lead units BetterPlayer can beat
	Forced       []Card      // what the leader must play instead
}

// PlayedCards records one player's contribution to a trick. BetterPlayer only
// names the responder who exposed a bad throw; it holds no reference to them.
type PlayedCards struct {
	Player       PlayerID
	Cards        []Card
	BadThrow     bool
	BetterPlayer PlayerID
}

// contestedUnits is indexed by ThrowEvaluationPolicy and picks the lead units
// a responder has to beat.
var contestedUnits = [numThrowEvaluationPolicies]func(t Trump, lead []TrickUnit) []TrickUnit{
	ThrowEvalAll: func(_ Trump, lead []TrickUnit) []TrickUnit { return lead },
	ThrowEvalHighest: func(t Trump, lead []TrickUnit) []TrickUnit {
		best := 0
		for i, u := range lead {
			if t.Compare(highest(u), highest(lead[best])) > 0 {
				best = i
			}
		}
		return lead[best : best+1]
	},
	ThrowEvalTrickUnitLength: func(t Trump, lead []TrickUnit) []TrickUnit {
		best := 0
		for i, u := range lead {
			b := lead[best]
			if u.Size() > b.Size() || (u.Size() == b.Size() && t.Compare(highest(u), highest(b)) > 0) {
				best = i
			}
		}
		return lead[best : best+1]
	},
}

func highest(u TrickUnit) Card { return u.Members[len(u.Members)-1] }

// unitBeats reports whether resp has lead's shape and group at a higher level.
func unitBeats(t Trump, lead, resp TrickUnit) bool {
	if lead.Kind != resp.Kind || lead.Width != resp.Width || len(lead.Members) != len(resp.Members) {
		return false
	}
	if t.Group(resp.Members[0]) != t.Group(lead.Members[0]) {
		return false
	}
	return t.Level(resp.Members[0]) > t.Level(lead.Members[0])
}

// EvaluateUnits reports whether response beats every contested unit of lead,
// each unit independently by some response unit. Single-unit leads are never
// bad throws.
func EvaluateUnits(t Trump, lead, response []TrickUnit, policy ThrowEvaluationPolicy) (bool, error) {
	if err := validateThrowInputs(t, lead, policy); err != nil {
		return false, err
	}
	for _, u := range response {
		if err := validateUnit(t, u); err != nil {
			return false, err
		}
	}
	if len(lead) < 2 {
		return false, nil
	}
	for _, l := range contestedUnits[policy](t, lead) {
		beaten := false
		for _, r := range response {
			if unitBeats(t, l, r) {
				beaten = true
				break
			}
		}
		if !beaten {
			return false, nil
		}
	}
	return true, nil
}

// EvaluateThrow checks a lead against the other players' hands in order. The
// first responder able to beat every contested unit makes the throw bad; the
// leader is then forced to play the smallest unit that responder beats.
func EvaluateThrow(format TrickFormat, responders []Responder, policy ThrowEvaluationPolicy) (ThrowVerdict, error) {
	t := format.Trump
	if err := validateThrowInputs(t, format.Units, policy); err != nil {
		return ThrowVerdict{}, err
	}
	if !format.IsThrow() {
		return ThrowVerdict{}, nil
	}
	for _, r := range responders {
		if err := r.Hand.Validate(); err != nil {
			return ThrowVerdict{}, fmt.Errorf("responder %s: %w", r.Player, err)
		}
	}

	contested := contestedUnits[policy](t, format.Units)
	for _, r := range responders {
		var beaten []TrickUnit
		for _, l := range contested {
			if handBeats(t, r.Hand, l) {
				beaten = append(beaten, l)
			}
		}
		if len(beaten) < len(contested) {
			continue
		}
		forced := append([]TrickUnit(nil), beaten...)
		sort.SliceStable(forced, func(i, j int) bool {
			if forced[i].Size() != forced[j].Size() {
				return forced[i].Size() < forced[j].Size()
			}
			return t.Compare(highest(forced[i]), highest(forced[j])) < 0
		})
		return ThrowVerdict{
			BadThrow:     true,
			BetterPlayer: r.Player,
			Beaten:       beaten,
			Forced:       forced[0].Cards(),
		}, nil
	}
	return ThrowVerdict{}, nil
}

// handBeats reports whether hand holds a unit of lead's shape and group at a
// higher level. A wider tuple can stand in for a narrower one.
func handBeats(t Trump, hand Hand, lead TrickUnit) bool {
	g := t.Group(lead.Members[0])
	pool := hand.inGroup(t, g)
	m := newMatcher(t, pool, nil, false)
	floor := t.Level(lead.Members[0])
	for i, c := range m.ids {
		if t.Level(c) <= floor || !m.usable(c, lead.Width) {
			continue
		}
		shape := lead.Shape()
		if shape.Kind == UnitRepeated {
			return true
		}
		if _, ok := m.chain(shape, i, []Card{c}, nil, nil, nil); ok {
			return true
		}
	}
	return false
}

// ResolveLead applies a throw verdict to the leader's offered cards.
func ResolveLead(leader PlayerID, format TrickFormat, responders []Responder, policy ThrowEvaluationPolicy) (PlayedCards, ThrowVerdict, error) {
	v, err := EvaluateThrow(format, responders, policy)
	if err != nil {
		return PlayedCards{}, ThrowVerdict{}, err
	}
	played := PlayedCards{Player: leader, Cards: format.Cards()}
	if v.BadThrow {
		played.Cards = v.Forced
		played.BadThrow = true
		played.BetterPlayer = v.BetterPlayer
	}
	return played, v, nil
}

// throwPenalty is indexed by ThrowPenalty: points per failed attempt.
var throwPenalty = [numThrowPenalties]int{
	NoThrowPenalty:      0,
	TenPointsPerAttempt: 10,
}

// ThrowPenaltyPoints returns the points charged after attempts failed throws.
func ThrowPenaltyPoints(policy ThrowPenalty, attempts int) (int, error) {
	if !policy.Valid() {
		return 0, fmt.Errorf("%w: throw penalty %v", ErrInvalidRules, policy)
	}
	if attempts < 0 {
		return 0, fmt.Errorf("%w: attempts %d", ErrInvalidArgument, attempts)
	}
	return throwPenalty[policy] * attempts, nil
}

func validateThrowInputs(t Trump, lead []TrickUnit, policy ThrowEvaluationPolicy) error {
	if !policy.Valid() {
		return fmt.Errorf("%w: throw evaluation policy %v", ErrInvalidRules, policy)
	}
	_, err := NewTrickFormat(t, lead)
	return err
}
