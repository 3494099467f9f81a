// engine_adapter.go — Bridge between client payloads and the rules engine.
package game

import (
	"encoding/json"
	"fmt"
	"sort"

	engine "github.com/findfriends/tractor/engine"
)

// Card identities travel as canonical strings ("10H", "QS", "LJ"). Hands are
// card-to-count objects; a flat list with one entry per physical card is
// accepted too.

// parseCards converts identities, naming the offending field on failure.
func parseCards(field string, ids []string) ([]engine.Card, error) {
	out := make([]engine.Card, 0, len(ids))
	for i, id := range ids {
		c, err := engine.ParseCard(id)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// HandPayload is a hand on the wire, keyed by card identity.
type HandPayload map[string]int

// UnmarshalJSON accepts {"10H": 2, "LJ": 1} or ["10H", "10H", "LJ"].
func (h *HandPayload) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err == nil {
		out := make(HandPayload, len(ids))
		for _, id := range ids {
			out[id]++
		}
		*h = out
		return nil
	}
	var counts map[string]int
	if err := json.Unmarshal(b, &counts); err != nil {
		return fmt.Errorf("hand must be a card list or a card-to-count object: %w", err)
	}
	*h = counts
	return nil
}

// parseHand converts a wire hand into a multiset. Aliased identities are
// summed.
func parseHand(field string, p HandPayload) (engine.Hand, error) {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	hand := make(engine.Hand, len(p))
	for _, id := range ids {
		c, err := engine.ParseCard(id)
		if err != nil {
			return nil, fmt.Errorf("%s[%s]: %w", field, id, err)
		}
		if p[id] < 0 {
			return nil, fmt.Errorf("%s[%s]: %w: negative count %d", field, id, engine.ErrInvalidArgument, p[id])
		}
		hand[c] += p[id]
	}
	return hand, nil
}

func parseCard(field, id string) (engine.Card, error) {
	c, err := engine.ParseCard(id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return c, nil
}

func parseRank(field, v string) (engine.Rank, error) {
	r, err := engine.ParseRank(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return r, nil
}

// cardIDs converts engine cards to identities. A nil input stays nil so
// "no example" survives serialization as an omitted field.
func cardIDs(cards []engine.Card) []string {
	if cards == nil {
		return nil
	}
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// ---------------------------------------------------------------------------
// Trump
// ---------------------------------------------------------------------------

const (
	trumpKindStandard = "standard"
	trumpKindNoTrump  = "noTrump"
)

// TrumpPayload is the wire form of engine.Trump.
type TrumpPayload struct {
	Kind string `json:"kind"`           // "standard" or "noTrump"
	Suit string `json:"suit,omitempty"` // "C", "D", "S", "H"; standard only
	Rank string `json:"rank"`           // "2".."A", or "none" for jokers-only no-trump
}

func (p TrumpPayload) toEngine() (engine.Trump, error) {
	rank, err := parseRank("trump.rank", p.Rank)
	if err != nil {
		return engine.Trump{}, err
	}
	var t engine.Trump
	switch p.Kind {
	case trumpKindStandard:
		suit, err := engine.ParseSuit(p.Suit)
		if err != nil {
			return engine.Trump{}, fmt.Errorf("trump.suit: %w", err)
		}
		t = engine.StandardTrump(suit, rank)
	case trumpKindNoTrump:
		t = engine.NoTrump(rank)
	default:
		return engine.Trump{}, fmt.Errorf("%w: trump kind %q", engine.ErrInvalidRules, p.Kind)
	}
	if err := t.Validate(); err != nil {
		return engine.Trump{}, err
	}
	return t, nil
}

func trumpPayload(t engine.Trump) TrumpPayload {
	if t.Kind == engine.TrumpNoTrump {
		return TrumpPayload{Kind: trumpKindNoTrump, Rank: t.Rank.String()}
	}
	return TrumpPayload{Kind: trumpKindStandard, Suit: t.Suit.String(), Rank: t.Rank.String()}
}

// ---------------------------------------------------------------------------
// Trick formats
// ---------------------------------------------------------------------------

// UnitPayload is the wire form of engine.TrickUnit.
type UnitPayload struct {
	Kind        string   `json:"kind"` // "repeated" or "tractor"
	Width       int      `json:"width"`
	Members     []string `json:"members"`
	Description string   `json:"description,omitempty"`
}

// FormatPayload is the wire form of engine.TrickFormat. Group, Size and
// IsThrow are derived and ignored on input.
type FormatPayload struct {
	Trump   TrumpPayload  `json:"trump"`
	Units   []UnitPayload `json:"units"`
	Group   string        `json:"group,omitempty"`
	Size    int           `json:"size,omitempty"`
	IsThrow bool          `json:"isThrow,omitempty"`
}

// GroupingPayload is one candidate reading of an ambiguous lead.
type GroupingPayload struct {
	Index       int           `json:"index"`
	Description string        `json:"description"`
	Units       []UnitPayload `json:"units"`
}

func unitPayload(u engine.TrickUnit) UnitPayload {
	return UnitPayload{
		Kind:        u.Kind.String(),
		Width:       u.Width,
		Members:     cardIDs(u.Members),
		Description: u.Description(),
	}
}

func unitPayloads(units []engine.TrickUnit) []UnitPayload {
	out := make([]UnitPayload, len(units))
	for i, u := range units {
		out[i] = unitPayload(u)
	}
	return out
}

func parseUnits(field string, in []UnitPayload) ([]engine.TrickUnit, error) {
	out := make([]engine.TrickUnit, len(in))
	for i, p := range in {
		var kind engine.UnitKind
		if err := kind.UnmarshalText([]byte(p.Kind)); err != nil {
			return nil, fmt.Errorf("%s[%d].kind: %w", field, i, err)
		}
		members, err := parseCards(fmt.Sprintf("%s[%d].members", field, i), p.Members)
		if err != nil {
			return nil, err
		}
		out[i] = engine.TrickUnit{Kind: kind, Width: p.Width, Members: members}
	}
	return out, nil
}

func (p FormatPayload) toEngine() (engine.TrickFormat, error) {
	t, err := p.Trump.toEngine()
	if err != nil {
		return engine.TrickFormat{}, err
	}
	units, err := parseUnits("format.units", p.Units)
	if err != nil {
		return engine.TrickFormat{}, err
	}
	return engine.NewTrickFormat(t, units)
}

func formatPayload(f engine.TrickFormat) FormatPayload {
	return FormatPayload{
		Trump:   trumpPayload(f.Trump),
		Units:   unitPayloads(f.Units),
		Group:   f.Group.String(),
		Size:    f.Size(),
		IsThrow: f.IsThrow(),
	}
}

func groupingPayloads(gs []engine.Grouping) []GroupingPayload {
	out := make([]GroupingPayload, len(gs))
	for i, g := range gs {
		out[i] = GroupingPayload{Index: i, Description: g.Description, Units: unitPayloads(g.Units)}
	}
	return out
}

// ---------------------------------------------------------------------------
// Bids, hints, verdicts, scores
// ---------------------------------------------------------------------------

// BidPayload is the wire form of engine.Bid.
type BidPayload struct {
	Player string `json:"player"`
	Card   string `json:"card"`
	Count  int    `json:"count"`
}

func parseBids(field string, in []BidPayload) ([]engine.Bid, error) {
	out := make([]engine.Bid, len(in))
	for i, b := range in {
		c, err := parseCard(fmt.Sprintf("%s[%d].card", field, i), b.Card)
		if err != nil {
			return nil, err
		}
		out[i] = engine.Bid{Player: engine.PlayerID(b.Player), Card: c, Count: b.Count}
	}
	return out, nil
}

func bidPayloads(bids []engine.Bid) []BidPayload {
	out := make([]BidPayload, len(bids))
	for i, b := range bids {
		out[i] = BidPayload{Player: string(b.Player), Card: b.Card.String(), Count: b.Count}
	}
	return out
}

// ObligationPayload is one rung of the follow hint ladder.
type ObligationPayload struct {
	Description string   `json:"description"`
	Shape       []string `json:"shape"`
	Playable    []string `json:"playable,omitempty"`
}

// DecompositionPayload is the hint ladder for one player.
type DecompositionPayload struct {
	Player      string              `json:"player"`
	Obligations []ObligationPayload `json:"obligations"`
}

func decompositionPayload(d engine.Decomposition) DecompositionPayload {
	out := DecompositionPayload{Player: string(d.Player), Obligations: make([]ObligationPayload, len(d.Obligations))}
	for i, ob := range d.Obligations {
		shape := make([]string, len(ob.Shape))
		for j, s := range ob.Shape {
			shape[j] = s.String()
		}
		out.Obligations[i] = ObligationPayload{Description: ob.Description, Shape: shape, Playable: cardIDs(ob.Playable)}
	}
	return out
}

// PlayedPayload is the wire form of engine.PlayedCards.
type PlayedPayload struct {
	Player       string   `json:"player"`
	Cards        []string `json:"cards"`
	BadThrow     bool     `json:"badThrow"`
	BetterPlayer string   `json:"betterPlayer,omitempty"`
}

// VerdictPayload is the wire form of engine.ThrowVerdict.
type VerdictPayload struct {
	BadThrow     bool          `json:"badThrow"`
	BetterPlayer string        `json:"betterPlayer,omitempty"`
	Beaten       []UnitPayload `json:"beaten,omitempty"`
	Forced       []string      `json:"forced,omitempty"`
}

func playedPayload(p engine.PlayedCards) PlayedPayload {
	return PlayedPayload{
		Player:       string(p.Player),
		Cards:        cardIDs(p.Cards),
		BadThrow:     p.BadThrow,
		BetterPlayer: string(p.BetterPlayer),
	}
}

func verdictPayload(v engine.ThrowVerdict) VerdictPayload {
	out := VerdictPayload{BadThrow: v.BadThrow, BetterPlayer: string(v.BetterPlayer), Forced: cardIDs(v.Forced)}
	if len(v.Beaten) > 0 {
		out.Beaten = unitPayloads(v.Beaten)
	}
	return out
}

// ScoreResultPayload is the wire form of engine.ScoreResult.
type ScoreResultPayload struct {
	LandlordWon      bool `json:"landlordWon"`
	LandlordBonus    bool `json:"landlordBonus,omitempty"`
	LandlordDelta    int  `json:"landlordDelta"`
	NonLandlordDelta int  `json:"nonLandlordDelta"`
	NextThreshold    *int `json:"nextThreshold,omitempty"`
}

// ScoreRowPayload is one row of the scoring legend.
type ScoreRowPayload struct {
	PointThreshold int                `json:"pointThreshold"`
	Result         ScoreResultPayload `json:"result"`
}

func scoreResultPayload(r engine.ScoreResult) ScoreResultPayload {
	out := ScoreResultPayload{
		LandlordWon:      r.LandlordWon,
		LandlordBonus:    r.LandlordBonus,
		LandlordDelta:    r.LandlordDelta,
		NonLandlordDelta: r.NonLandlordDelta,
	}
	if r.HasNext {
		next := r.NextThreshold
		out.NextThreshold = &next
	}
	return out
}

func scoreRowPayloads(rows []engine.ScoreRow) []ScoreRowPayload {
	out := make([]ScoreRowPayload, len(rows))
	for i, r := range rows {
		out[i] = ScoreRowPayload{PointThreshold: r.PointThreshold, Result: scoreResultPayload(r.Result)}
	}
	return out
}

// SuitGroupPayload is one display group of a sorted hand.
type SuitGroupPayload struct {
	Group string   `json:"group"`
	Cards []string `json:"cards"`
}

func suitGroupPayloads(groups []engine.SuitGroup) []SuitGroupPayload {
	out := make([]SuitGroupPayload, len(groups))
	for i, g := range groups {
		out[i] = SuitGroupPayload{Group: g.Group.String(), Cards: cardIDs(g.Cards)}
	}
	return out
}
