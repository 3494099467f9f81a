package engine

import (
	"fmt"
	"strings"
)

// Suit is packed into the upper 4 bits of Card.
type Suit uint8

// Suit constants. The numeric order is the fixed suit precedence used to break
// ties between otherwise equal cards.
const (
	SuitClubs    Suit = 0
	SuitDiamonds Suit = 1
	SuitSpades   Suit = 2
	SuitHearts   Suit = 3
	SuitJoker    Suit = 4
)

// Rank is packed into the lower 4 bits of Card.
type Rank uint8

// Rank constants — natural order 2 < 3 < ... < K < A.
const (
	RankTwo         Rank = 0
	RankThree       Rank = 1
	RankFour        Rank = 2
	RankFive        Rank = 3
	RankSix         Rank = 4
	RankSeven       Rank = 5
	RankEight       Rank = 6
	RankNine        Rank = 7
	RankTen         Rank = 8
	RankJack        Rank = 9
	RankQueen       Rank = 10
	RankKing        Rank = 11
	RankAce         Rank = 12
	RankLittleJoker Rank = 13
	RankBigJoker    Rank = 14

	// RankNone marks a no-trump declaration without a trump rank.
	RankNone Rank = 0x0F
)

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// Jokers.
const (
	LittleJoker Card = Card(uint8(SuitJoker)<<4 | uint8(RankLittleJoker))
	BigJoker    Card = Card(uint8(SuitJoker)<<4 | uint8(RankBigJoker))
)

// NewCard constructs a Card from suit and rank.
func NewCard(suit Suit, rank Rank) Card {
	return Card(uint8(suit)<<4 | uint8(rank)&0x0F)
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() Suit { return Suit(uint8(c) >> 4) }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() Rank { return Rank(uint8(c) & 0x0F) }

// IsJoker reports whether c is one of the two jokers.
func (c Card) IsJoker() bool { return c == LittleJoker || c == BigJoker }

// Valid reports whether c is one of the 54 card identities.
func (c Card) Valid() bool {
	if c.IsJoker() {
		return true
	}
	return c.Suit() <= SuitHearts && c.Rank() <= RankAce
}

// Points returns the scoring value of the card: 5 → 5, 10 and K → 10.
func (c Card) Points() int {
	if !c.Valid() {
		return 0
	}
	return catalog[c.index()].Points
}

// String returns the canonical identity, e.g. "10H", "QS", "LJ".
func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Card(%#02x)", uint8(c))
	}
	return catalog[c.index()].Name
}

// MarshalText encodes the canonical identity.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %#02x", ErrInvalidCard, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a canonical identity.
func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// index is the card's position in the catalog: suit*13+rank, jokers last.
func (c Card) index() int {
	switch c {
	case LittleJoker:
		return 52
	case BigJoker:
		return 53
	}
	return int(c.Suit())*13 + int(c.Rank())
}

// ---------------------------------------------------------------------------
// Shared catalog
// ---------------------------------------------------------------------------

// NumIdentities is the number of distinct cards in one deck.
const NumIdentities = 54

// CardInfo is one catalog row.
type CardInfo struct {
	Card   Card
	Suit   Suit
	Rank   Rank
	Points int
	Name   string
}

var (
	rankNames = [...]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}
	suitNames = [...]string{"C", "D", "S", "H"}

	// catalog and cardsByName are built once and never written afterwards.
	catalog     = buildCatalog()
	cardsByName = buildNameIndex()
)

func buildCatalog() [NumIdentities]CardInfo {
	var cat [NumIdentities]CardInfo
	for s := SuitClubs; s <= SuitHearts; s++ {
		for r := RankTwo; r <= RankAce; r++ {
			c := NewCard(s, r)
			cat[c.index()] = CardInfo{
				Card:   c,
				Suit:   s,
				Rank:   r,
				Points: rankPoints(r),
				Name:   rankNames[r] + suitNames[s],
			}
		}
	}
	cat[52] = CardInfo{Card: LittleJoker, Suit: SuitJoker, Rank: RankLittleJoker, Name: "LJ"}
	cat[53] = CardInfo{Card: BigJoker, Suit: SuitJoker, Rank: RankBigJoker, Name: "BJ"}
	return cat
}

func buildNameIndex() map[string]Card {
	idx := make(map[string]Card, NumIdentities)
	for _, info := range catalog {
		idx[info.Name] = info.Card
	}
	return idx
}

func rankPoints(r Rank) int {
	switch r {
	case RankFive:
		return 5
	case RankTen, RankKing:
		return 10
	}
	return 0
}

// Catalog returns a copy of the card table in catalog order.
func Catalog() []CardInfo {
	out := make([]CardInfo, NumIdentities)
	copy(out, catalog[:])
	return out
}

// AllCards returns the 54 card identities in catalog order.
func AllCards() []Card {
	out := make([]Card, NumIdentities)
	for i, info := range catalog {
		out[i] = info.Card
	}
	return out
}

// ParseCard parses a canonical identity. "T" is accepted for ten and input is
// case-insensitive.
func ParseCard(s string) (Card, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(key, "T") && len(key) == 2 {
		key = "10" + key[1:]
	}
	if c, ok := cardsByName[key]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
}

// ParseCards parses a list of identities, stopping at the first bad one.
func ParseCards(ids []string) ([]Card, error) {
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		c, err := ParseCard(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// PointsIn sums the point value of cards.
func PointsIn(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Points()
	}
	return total
}

// ---------------------------------------------------------------------------
// Suit / Rank text
// ---------------------------------------------------------------------------

// String returns the suit letter.
func (s Suit) String() string {
	switch {
	case s <= SuitHearts:
		return suitNames[s]
	case s == SuitJoker:
		return "J"
	}
	return fmt.Sprintf("Suit(%d)", uint8(s))
}

// MarshalText encodes the suit letter.
func (s Suit) MarshalText() ([]byte, error) {
	if s > SuitHearts {
		return nil, fmt.Errorf("%w: suit %d", ErrInvalidCard, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a suit letter.
func (s *Suit) UnmarshalText(b []byte) error {
	parsed, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSuit parses "C", "D", "S" or "H".
func ParseSuit(v string) (Suit, error) {
	key := strings.ToUpper(strings.TrimSpace(v))
	for i, n := range suitNames {
		if n == key {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("%w: suit %q", ErrInvalidCard, v)
}

// String returns the rank symbol.
func (r Rank) String() string {
	switch {
	case r <= RankAce:
		return rankNames[r]
	case r == RankLittleJoker:
		return "LJ"
	case r == RankBigJoker:
		return "BJ"
	case r == RankNone:
		return "none"
	}
	return fmt.Sprintf("Rank(%d)", uint8(r))
}

// MarshalText encodes the rank symbol.
func (r Rank) MarshalText() ([]byte, error) {
	if r > RankAce && r != RankNone {
		return nil, fmt.Errorf("%w: rank %d", ErrInvalidCard, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rank symbol.
func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRank parses "2".."10", "J", "Q", "K", "A" ("T" for ten), or "none".
func ParseRank(v string) (Rank, error) {
	key := strings.ToUpper(strings.TrimSpace(v))
	switch key {
	case "T":
		key = "10"
	case "NONE":
		return RankNone, nil
	}
	for i, n := range rankNames {
		if n == key {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("%w: rank %q", ErrInvalidCard, v)
}
