package engine

import "fmt"

// TrumpKind tags the two trump declarations.
type TrumpKind uint8

const (
	TrumpStandard TrumpKind = iota // 0 — a suit and a rank
	TrumpNoTrump                   // 1 — a rank only (or RankNone)
)

// Trump is the round's trump declaration. Suit is ignored for TrumpNoTrump.
// Once fixed it never changes; every method is a pure function of the value.
type Trump struct {
	Kind TrumpKind
	Suit Suit
	Rank Rank
}

// StandardTrump declares suit and rank as trump.
func StandardTrump(suit Suit, rank Rank) Trump {
	return Trump{Kind: TrumpStandard, Suit: suit, Rank: rank}
}

// NoTrump declares only rank as trump. Pass RankNone for jokers-only trump.
func NoTrump(rank Rank) Trump {
	return Trump{Kind: TrumpNoTrump, Rank: rank}
}

// Validate rejects joker suits and out-of-range ranks.
func (t Trump) Validate() error {
	switch t.Kind {
	case TrumpStandard:
		if t.Suit > SuitHearts {
			return fmt.Errorf("%w: trump suit %v", ErrInvalidRules, t.Suit)
		}
		if t.Rank > RankAce {
			return fmt.Errorf("%w: trump rank %v", ErrInvalidRules, t.Rank)
		}
	case TrumpNoTrump:
		if t.Rank > RankAce && t.Rank != RankNone {
			return fmt.Errorf("%w: trump rank %v", ErrInvalidRules, t.Rank)
		}
	default:
		return fmt.Errorf("%w: trump kind %d", ErrInvalidRules, t.Kind)
	}
	return nil
}

func (t Trump) String() string {
	if t.Kind == TrumpStandard {
		return fmt.Sprintf("%v%v", t.Rank, t.Suit)
	}
	return fmt.Sprintf("NT(%v)", t.Rank)
}

func (t Trump) hasRank() bool { return t.Rank <= RankAce }

// IsTrump reports whether c belongs to the trump group.
func (t Trump) IsTrump(c Card) bool {
	if c.IsJoker() {
		return true
	}
	if t.hasRank() && c.Rank() == t.Rank {
		return true
	}
	return t.Kind == TrumpStandard && c.Suit() == t.Suit
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// Group is the logical suit used for following and sorting: a natural suit
// for non-trump cards, GroupTrump otherwise.
type Group uint8

const (
	GroupClubs    Group = Group(SuitClubs)
	GroupDiamonds Group = Group(SuitDiamonds)
	GroupSpades   Group = Group(SuitSpades)
	GroupHearts   Group = Group(SuitHearts)
	GroupTrump    Group = 4
)

var groupNames = [...]string{"clubs", "diamonds", "spades", "hearts", "trump"}

func (g Group) String() string {
	if int(g) < len(groupNames) {
		return groupNames[g]
	}
	return fmt.Sprintf("Group(%d)", uint8(g))
}

// MarshalText encodes the group name.
func (g Group) MarshalText() ([]byte, error) {
	if int(g) >= len(groupNames) {
		return nil, fmt.Errorf("%w: group %d", ErrInvalidArgument, uint8(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText decodes a group name.
func (g *Group) UnmarshalText(b []byte) error {
	for i, n := range groupNames {
		if n == string(b) {
			*g = Group(i)
			return nil
		}
	}
	return fmt.Errorf("%w: group %q", ErrInvalidArgument, b)
}

// Group returns the suit-group c is played and sorted in.
func (t Trump) Group(c Card) Group {
	if t.IsTrump(c) {
		return GroupTrump
	}
	return Group(c.Suit())
}

// ---------------------------------------------------------------------------
// Ordering
// ---------------------------------------------------------------------------

// Level returns c's adjacency index within its group. Consecutive levels form
// tractors: the trump rank is skipped in every suit, and all off-suit
// trump-rank cards share a single level.
//
// Trump group for Standard{S, R}, low to high:
//
//	S-suit cards except R | off-suit R | S-suit R | little joker | big joker
func (t Trump) Level(c Card) int {
	next := 0
	if t.Kind == TrumpStandard {
		next = int(RankAce) // trump-suit ranks occupy 0..11
	}
	if t.hasRank() {
		if !c.IsJoker() && c.Rank() == t.Rank {
			if t.Kind == TrumpStandard && c.Suit() == t.Suit {
				return next + 1
			}
			return next
		}
		next++
		if t.Kind == TrumpStandard {
			next++
		}
	}
	switch c {
	case LittleJoker:
		return next
	case BigJoker:
		return next + 1
	}
	return t.rankIndex(c.Rank())
}

// rankIndex is r's position in a suit with the trump rank removed.
func (t Trump) rankIndex(r Rank) int {
	i := int(r)
	if t.hasRank() && r > t.Rank {
		i--
	}
	return i
}

// Compare is the strict total order over card identities: groups ascend
// clubs < diamonds < spades < hearts < trump, then by Level, and off-suit
// trump-rank ties are broken by suit precedence. It returns -1, 0 or +1, and
// 0 only for identical cards.
func (t Trump) Compare(a, b Card) int {
	if ga, gb := t.Group(a), t.Group(b); ga != gb {
		return cmpInt(int(ga), int(gb))
	}
	if la, lb := t.Level(a), t.Level(b); la != lb {
		return cmpInt(la, lb)
	}
	return cmpInt(int(a.Suit()), int(b.Suit()))
}

// Strength compares cards for winning purposes. Trump beats non-trump,
// off-suit trump-rank cards tie, and cards of different non-trump groups are
// not comparable (ok == false).
func (t Trump) Strength(a, b Card) (cmp int, ok bool) {
	ga, gb := t.Group(a), t.Group(b)
	switch {
	case ga == gb:
		return cmpInt(t.Level(a), t.Level(b)), true
	case ga == GroupTrump:
		return 1, true
	case gb == GroupTrump:
		return -1, true
	}
	return 0, false
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
