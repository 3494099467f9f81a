package engine

import "testing"

// mustCards parses card identities or fails the test.
func mustCards(t *testing.T, ids ...string) []Card {
	t.Helper()
	cards, err := ParseCards(ids)
	if err != nil {
		t.Fatalf("ParseCards(%v): %v", ids, err)
	}
	return cards
}

// mustHand builds a hand from card identities.
func mustHand(t *testing.T, ids ...string) Hand {
	t.Helper()
	return NewHand(mustCards(t, ids...)...)
}

// mustCard parses one identity.
func mustCard(t *testing.T, id string) Card {
	t.Helper()
	c, err := ParseCard(id)
	if err != nil {
		t.Fatalf("ParseCard(%q): %v", id, err)
	}
	return c
}

// mustFormat establishes an unambiguous lead.
func mustFormat(t *testing.T, tr Trump, ids ...string) TrickFormat {
	t.Helper()
	f, err := EstablishFormat(mustCards(t, ids...), tr)
	if err != nil {
		t.Fatalf("EstablishFormat(%v): %v", ids, err)
	}
	return f
}

// sameCards compares two card lists as multisets.
func sameCards(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	ha := NewHand(a...)
	for c, k := range NewHand(b...) {
		if ha[c] != k {
			return false
		}
	}
	return true
}

// testTrumps covers every trump shape, including ace and joker-only trump.
func testTrumps() []Trump {
	return []Trump{
		StandardTrump(SuitHearts, RankTwo),
		StandardTrump(SuitSpades, RankFive),
		StandardTrump(SuitClubs, RankAce),
		StandardTrump(SuitDiamonds, RankTen),
		NoTrump(RankSeven),
		NoTrump(RankNone),
	}
}
