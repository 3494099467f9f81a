package engine

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func mustFollow(t *testing.T, hand Hand, f TrickFormat, policy TrickDrawPolicy, play ...string) bool {
	t.Helper()
	ok, err := CanFollow(hand, f, mustCards(t, play...), policy)
	if err != nil {
		t.Fatalf("CanFollow(%v): %v", play, err)
	}
	return ok
}

// TestCanFollowNoFormatBasedDraw: with no hearts, any two cards follow a
// heart pair.
func TestCanFollowNoFormatBasedDraw(t *testing.T) {
	tr := StandardTrump(SuitSpades, RankTwo)
	f := mustFormat(t, tr, "9H", "9H")
	hand := mustHand(t, "3C", "7D", "AS", "2D")
	if !mustFollow(t, hand, f, NoFormatBasedDraw, "3C", "7D") {
		t.Error("two off-group cards should follow when void")
	}
	if !mustFollow(t, hand, f, NoFormatBasedDraw, "AS", "2D") {
		t.Error("trumping in should be allowed when void")
	}
	if mustFollow(t, hand, f, NoFormatBasedDraw, "3C") {
		t.Error("wrong card count accepted")
	}
}

// TestCanFollowGroupExhaustion: group cards must be played before others.
func TestCanFollowGroupExhaustion(t *testing.T) {
	tr := StandardTrump(SuitSpades, RankTwo)
	f := mustFormat(t, tr, "9H", "9H")
	hand := mustHand(t, "3H", "5C", "6C")
	for _, p := range []TrickDrawPolicy{NoProtections, LongerTuplesProtected, OnlyDrawTractorOnTractor, NoFormatBasedDraw} {
		if !mustFollow(t, hand, f, p, "3H", "5C") {
			t.Errorf("%v: last heart plus filler rejected", p)
		}
		if mustFollow(t, hand, f, p, "5C", "6C") {
			t.Errorf("%v: holding back a heart accepted", p)
		}
	}
	if _, err := CanFollow(hand, f, mustCards(t, "4H", "5C"), NoProtections); !errors.Is(err, ErrCardsNotInHand) {
		t.Errorf("err = %v, want ErrCardsNotInHand", err)
	}
}

// TestCanFollowNoProtections: only count and group exhaustion matter.
func TestCanFollowNoProtections(t *testing.T) {
	tr := StandardTrump(SuitSpades, RankTwo)
	f := mustFormat(t, tr, "9H", "9H")
	hand := mustHand(t, "3H", "3H", "5H", "6H", "6C")
	if !mustFollow(t, hand, f, NoProtections, "5H", "6H") {
		t.Error("NoProtections should not draw the pair")
	}
	if mustFollow(t, hand, f, NoProtections, "5H", "6C") {
		t.Error("off-group card accepted while hearts remain")
	}
}

// TestCanFollowManyPairsOneShort: a long run of independent trump pairs
// against a hand one pair short must settle quickly on the weakened
// requirement.
func TestCanFollowManyPairsOneShort(t *testing.T) {
	tr := StandardTrump(SuitHearts, RankTwo)
	var units []TrickUnit
	for _, id := range []string{"3H", "4H", "5H", "6H", "7H", "8H", "9H", "10H", "JH", "QH", "KH"} {
		units = append(units, TrickUnit{Kind: UnitRepeated, Width: 2, Members: []Card{mustCard(t, id)}})
	}
	f, err := NewTrickFormat(tr, units)
	if err != nil {
		t.Fatal(err)
	}

	pairs := []string{"3H", "4H", "5H", "6H", "7H", "8H", "9H", "10H", "JH", "QH"}
	var ids []string
	for _, id := range pairs {
		ids = append(ids, id, id)
	}
	hand := mustHand(t, append(ids, "KH", "AH", "LJ")...)

	start := time.Now()
	if !mustFollow(t, hand, f, LongerTuplesProtected, append(ids, "KH", "AH")...) {
		t.Error("every held pair plus two singles rejected")
	}
	nine := append(append([]string(nil), ids[:18]...), "QH", "KH", "AH", "LJ")
	if mustFollow(t, hand, f, LongerTuplesProtected, nine...) {
		t.Error("breaking a pair accepted")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("follow check took %v", elapsed)
	}
}

func TestMatcherPacksMixedWidths(t *testing.T) {
	tr := StandardTrump(SuitSpades, RankTwo)
	triplePair := []UnitShape{
		{Kind: UnitRepeated, Width: 3, Length: 1},
		{Kind: UnitRepeated, Width: 2, Length: 1},
	}
	cases := []struct {
		pool []string
		want bool
	}{
		{[]string{"7H", "7H", "7H", "7H", "7H"}, true},
		{[]string{"7H", "7H", "7H", "8H", "8H"}, true},
		{[]string{"7H", "7H", "7H", "7H", "8H"}, false},
		{[]string{"7H", "7H", "8H", "8H", "9H"}, false},
	}
	for _, c := range cases {
		units, ok := newMatcher(tr, mustCards(t, c.pool...), nil, false).match(triplePair)
		if ok != c.want {
			t.Errorf("match(%v) = %v, want %v", c.pool, ok, c.want)
			continue
		}
		if ok && len(units) != 2 {
			t.Errorf("match(%v) returned %d units", c.pool, len(units))
		}
	}

	// Protection keeps a triple from standing in for a pair.
	protected := NewHand(mustCards(t, "7H", "7H", "7H", "8H", "8H")...)
	pair := []UnitShape{{Kind: UnitRepeated, Width: 2, Length: 1}, {Kind: UnitRepeated, Width: 2, Length: 1}}
	if _, ok := newMatcher(tr, mustCards(t, "7H", "7H", "7H", "8H", "8H"), protected, true).match(pair); ok {
		t.Error("protected triple split into a pair")
	}
}

// TestCanFollowLongerTuplesProtected covers drawing and protection.
func TestCanFollowLongerTuplesProtected(t *testing.T) {
	tr := StandardTrump(SuitSpades, RankTwo)
	pair := mustFormat(t, tr, "9H", "9H")

	withPair := mustHand(t, "3H", "3H", "5H", "6H")
	if mustFollow(t, withPair, pair, LongerTuplesProtected, "5H", "6H") {
		t.Error("a held pair must be drawn")
	}
	if !mustFollow(t, withPair, pair, LongerTuplesProtected, "3H", "3H") {
		t.Error("playing the pair rejected")
	}

	withTriple := mustHand(t, "3H", "3H", "3H", "5H", "6H")
	if !mustFollow(t, withTriple, pair, LongerTuplesProtected, "5H", "6H") {
		t.Error("a triple should not be broken for a pair")
	}
	if !mustFollow(t, withTriple, pair, LongerTuplesProtected, "3H", "3H") {
		t.Error("breaking the triple voluntarily rejected")
	}

	// Tractor format, no tractor in hand: two pairs are still drawn.
	tractor, err := NewTrickFormat(tr, []TrickUnit{{Kind: UnitTractor, Width: 2, Members: mustCards(t, "3H", "4H")}})
	if err != nil {
		t.Fatalf("NewTrickFormat: %v", err)
	}
	pairs := mustHand(t, "7H", "7H", "9H", "9H", "10H", "JH")
	if !mustFollow(t, pairs, tractor, LongerTuplesProtected, "7H", "7H", "9H", "9H") {
		t.Error("two pairs on a tractor rejected")
	}
	if mustFollow(t, pairs, tractor, LongerTuplesProtected, "7H", "7H", "10H", "JH") {
		t.Error("one pair accepted while two are held")
	}
}

// TestCanFollowOnlyDrawTractorOnTractor: tractors draw tractors, pairs are
// never drawn.
func TestCanFollowOnlyDrawTractorOnTractor(t *testing.T) {
	tr := StandardTrump(SuitSpades, RankTwo)
	tractor, err := NewTrickFormat(tr, []TrickUnit{{Kind: UnitTractor, Width: 2, Members: mustCards(t, "3H", "4H")}})
	if err != nil {
		t.Fatalf("NewTrickFormat: %v", err)
	}
	hand := mustHand(t, "7H", "7H", "8H", "8H", "10H", "JH")
	if !mustFollow(t, hand, tractor, OnlyDrawTractorOnTractor, "7H", "7H", "8H", "8H") {
		t.Error("tractor on tractor rejected")
	}
	if mustFollow(t, hand, tractor, OnlyDrawTractorOnTractor, "7H", "7H", "10H", "JH") {
		t.Error("held tractor not drawn")
	}

	pair := mustFormat(t, tr, "9H", "9H")
	if !mustFollow(t, hand, pair, OnlyDrawTractorOnTractor, "10H", "JH") {
		t.Error("pairs should not be drawn by a pair")
	}

	noTractor := mustHand(t, "7H", "7H", "9H", "9H", "10H", "JH")
	if !mustFollow(t, noTractor, tractor, OnlyDrawTractorOnTractor, "7H", "10H", "JH", "9H") {
		t.Error("pairs should not be drawn when no tractor is held")
	}
}

// TestDecomposeLadder checks the hint ladder for a tractor lead.
func TestDecomposeLadder(t *testing.T) {
	tr := StandardTrump(SuitSpades, RankTwo)
	tractor, err := NewTrickFormat(tr, []TrickUnit{{Kind: UnitTractor, Width: 2, Members: mustCards(t, "3H", "4H")}})
	if err != nil {
		t.Fatalf("NewTrickFormat: %v", err)
	}
	hand := mustHand(t, "7H", "7H", "9H", "9H", "10H", "JH", "3C")
	dec, err := Decompose(tractor, hand, "p2", LongerTuplesProtected)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if dec.Player != "p2" {
		t.Errorf("player = %q", dec.Player)
	}
	if len(dec.Obligations) < 2 {
		t.Fatalf("obligations = %+v", dec.Obligations)
	}
	first := dec.Obligations[0]
	if !sameCards(first.Playable, mustCards(t, "7H", "7H", "9H", "9H")) {
		t.Errorf("first playable = %v", first.Playable)
	}
	last := dec.Obligations[len(dec.Obligations)-1]
	if last.Description != "play any 4 of hearts" {
		t.Errorf("last description = %q", last.Description)
	}
}

// TestDecomposeShortGroup: with fewer group cards than the trick, the only
// obligation is to play them all.
func TestDecomposeShortGroup(t *testing.T) {
	tr := StandardTrump(SuitSpades, RankTwo)
	f := mustFormat(t, tr, "9H", "9H")
	hand := mustHand(t, "3H", "KC", "5C")
	dec, err := Decompose(f, hand, "p3", LongerTuplesProtected)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if len(dec.Obligations) != 1 {
		t.Fatalf("obligations = %+v", dec.Obligations)
	}
	ob := dec.Obligations[0]
	if ob.Description != "play all of hearts, remainder free" {
		t.Errorf("description = %q", ob.Description)
	}
	if !sameCards(ob.Playable, mustCards(t, "3H", "5C")) {
		t.Errorf("playable = %v", ob.Playable)
	}

	if _, err := Decompose(f, mustHand(t, "3H"), "p3", NoProtections); !errors.Is(err, ErrNoLegalOption) {
		t.Errorf("err = %v, want ErrNoLegalOption", err)
	}
}

// randomDeal draws n cards from numDecks shuffled decks.
func randomDeal(rng *rand.Rand, numDecks, n int) []Card {
	var deck []Card
	for d := 0; d < numDecks; d++ {
		deck = append(deck, AllCards()...)
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck[:n]
}

// randomFormat picks a lead from one group of a random deal.
func randomFormat(rng *rand.Rand, tr Trump) (TrickFormat, bool) {
	deal := randomDeal(rng, 2, 30)
	g := tr.Group(deal[0])
	var lead []Card
	for _, c := range SortCards(deal, tr) {
		if tr.Group(c) == g && len(lead) < 1+rng.Intn(6) {
			lead = append(lead, c)
		}
	}
	groupings, err := LeadGroupings(lead, tr)
	if err != nil {
		return TrickFormat{}, false
	}
	f, err := NewTrickFormat(tr, groupings[rng.Intn(len(groupings))].Units)
	return f, err == nil
}

// TestDecomposeAgreesWithCanFollow sweeps random formats and hands: every
// suggested play must be accepted by CanFollow.
func TestDecomposeAgreesWithCanFollow(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	policies := []TrickDrawPolicy{NoProtections, LongerTuplesProtected, OnlyDrawTractorOnTractor, NoFormatBasedDraw}
	trumps := testTrumps()
	for i := 0; i < 400; i++ {
		tr := trumps[i%len(trumps)]
		f, ok := randomFormat(rng, tr)
		if !ok {
			continue
		}
		hand := NewHand(randomDeal(rng, 2, 12+rng.Intn(14))...)
		for _, p := range policies {
			dec, err := Decompose(f, hand, "p", p)
			if err != nil {
				t.Fatalf("Decompose: %v", err)
			}
			if dec.Obligations[0].Playable == nil {
				t.Errorf("%v %v: strongest obligation has no playable example", tr, p)
			}
			for _, ob := range dec.Obligations {
				if ob.Playable == nil {
					continue
				}
				ok, err := CanFollow(hand, f, ob.Playable, p)
				if err != nil || !ok {
					t.Fatalf("%v %v: CanFollow(%v) = %v, %v for %q", tr, p, ob.Playable, ok, err, ob.Description)
				}
			}
		}
	}
}
