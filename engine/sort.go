package engine

// SuitGroup is one bucket of a sorted hand.
type SuitGroup struct {
	Group Group
	Cards []Card
}

// SortAndGroupCards buckets hand by t.Group. Buckets follow group order
// (clubs, diamonds, spades, hearts, trump) and empty ones are omitted; cards
// inside a bucket ascend by t.Compare. The buckets are exactly the groups used
// to judge following, so display and legality never disagree.
func SortAndGroupCards(hand Hand, t Trump) ([]SuitGroup, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := hand.Validate(); err != nil {
		return nil, err
	}
	out := make([]SuitGroup, 0, len(groupNames))
	for g := GroupClubs; g <= GroupTrump; g++ {
		if cards := hand.inGroup(t, g); len(cards) > 0 {
			out = append(out, SuitGroup{Group: g, Cards: cards})
		}
	}
	return out, nil
}

// SortCards returns a sorted copy of cards, ascending by t.Compare.
func SortCards(cards []Card, t Trump) []Card {
	out := append([]Card(nil), cards...)
	sortCards(t, out)
	return out
}
