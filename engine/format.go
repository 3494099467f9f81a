package engine

import (
	"fmt"
	"sort"
	"strings"
)

// UnitKind tags the two atomic play shapes.
type UnitKind uint8

const (
	UnitRepeated UnitKind = iota // 0 — Width copies of one card
	UnitTractor                  // 1 — Width copies of each of ≥2 consecutive cards
)

func (k UnitKind) String() string {
	if k == UnitTractor {
		return "tractor"
	}
	return "repeated"
}

// MarshalText encodes the kind name.
func (k UnitKind) MarshalText() ([]byte, error) {
	if k > UnitTractor {
		return nil, fmt.Errorf("%w: unit kind %d", ErrInvalidArgument, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *UnitKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "repeated":
		*k = UnitRepeated
	case "tractor":
		*k = UnitTractor
	default:
		return fmt.Errorf("%w: unit kind %q", ErrInvalidArgument, b)
	}
	return nil
}

// TrickUnit is one atomic shape. Members holds one identity for Repeated and
// the ascending run of identities for Tractor; each member appears Width times.
type TrickUnit struct {
	Kind    UnitKind
	Width   int
	Members []Card
}

// Size is the number of cards in the unit.
func (u TrickUnit) Size() int { return u.Width * len(u.Members) }

// Cards expands the unit.
func (u TrickUnit) Cards() []Card {
	out := make([]Card, 0, u.Size())
	for _, m := range u.Members {
		for i := 0; i < u.Width; i++ {
			out = append(out, m)
		}
	}
	return out
}

// Shape drops the identities.
func (u TrickUnit) Shape() UnitShape {
	return UnitShape{Kind: u.Kind, Width: u.Width, Length: len(u.Members)}
}

// Description renders the unit for players.
func (u TrickUnit) Description() string {
	if u.Kind == UnitTractor {
		return fmt.Sprintf("tractor of %d %s (%v to %v)",
			len(u.Members), tupleName(u.Width, true), u.Members[0], u.Members[len(u.Members)-1])
	}
	if u.Width == 1 {
		return fmt.Sprintf("single %v", u.Members[0])
	}
	return fmt.Sprintf("%s of %v", tupleName(u.Width, false), u.Members[0])
}

func tupleName(w int, plural bool) string {
	var n string
	switch w {
	case 1:
		n = "single"
	case 2:
		n = "pair"
	case 3:
		n = "triple"
	case 4:
		n = "quadruple"
	default:
		n = fmt.Sprintf("%d-tuple", w)
	}
	if plural {
		n += "s"
	}
	return n
}

// UnitShape is a TrickUnit without identities: what a follower must match.
type UnitShape struct {
	Kind   UnitKind
	Width  int
	Length int // members; 1 for Repeated
}

func (s UnitShape) size() int { return s.Width * s.Length }

func (s UnitShape) String() string {
	if s.Kind == UnitTractor {
		return fmt.Sprintf("tractor of %d %s", s.Length, tupleName(s.Width, true))
	}
	return tupleName(s.Width, false)
}

// TrickFormat is the shape established by a lead.
type TrickFormat struct {
	Group Group
	Trump Trump
	Units []TrickUnit
}

// Size is the number of cards every player must play.
func (f TrickFormat) Size() int {
	n := 0
	for _, u := range f.Units {
		n += u.Size()
	}
	return n
}

// Cards expands every unit.
func (f TrickFormat) Cards() []Card {
	var out []Card
	for _, u := range f.Units {
		out = append(out, u.Cards()...)
	}
	return out
}

// IsThrow reports whether the lead has more than one unit.
func (f TrickFormat) IsThrow() bool { return len(f.Units) > 1 }

func (f TrickFormat) shapes() []UnitShape {
	out := make([]UnitShape, len(f.Units))
	for i, u := range f.Units {
		out[i] = u.Shape()
	}
	sortShapes(out)
	return out
}

// Grouping is one way to read a lead.
type Grouping struct {
	Units       []TrickUnit
	Description string
}

// ---------------------------------------------------------------------------
// Establishing the format
// ---------------------------------------------------------------------------

// EstablishFormat reads lead under t. When more than one grouping is valid it
// returns *AmbiguousLeadError carrying all of them; the caller picks one and
// builds the format with NewTrickFormat.
func EstablishFormat(lead []Card, t Trump) (TrickFormat, error) {
	groupings, err := LeadGroupings(lead, t)
	if err != nil {
		return TrickFormat{}, err
	}
	if len(groupings) > 1 {
		return TrickFormat{}, &AmbiguousLeadError{Groupings: groupings}
	}
	return TrickFormat{Group: t.Group(lead[0]), Trump: t, Units: groupings[0].Units}, nil
}

// LeadGroupings returns every valid grouping of lead, fewest units first.
// Identical cards always stay together; only the split between tractors and
// independent tuples varies.
func LeadGroupings(lead []Card, t Trump) ([]Grouping, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateCards(lead); err != nil {
		return nil, err
	}
	if len(lead) == 0 {
		return nil, fmt.Errorf("%w: empty lead", ErrInvalidLead)
	}
	g := t.Group(lead[0])
	for _, c := range lead[1:] {
		if t.Group(c) != g {
			return nil, fmt.Errorf("%w: %v and %v are in different groups", ErrInvalidLead, lead[0], c)
		}
	}

	counts := NewHand(lead...)
	ids := counts.identities()
	sort.SliceStable(ids, func(i, j int) bool { return t.Compare(ids[i], ids[j]) < 0 })

	var (
		out  []Grouping
		seen = map[string]bool{}
		used = make([]bool, len(ids))
	)
	var walk func(units []TrickUnit)
	walk = func(units []TrickUnit) {
		first := -1
		for i := range ids {
			if !used[i] {
				first = i
				break
			}
		}
		if first < 0 {
			sorted := append([]TrickUnit(nil), units...)
			sortUnits(t, sorted)
			key := unitsKey(sorted)
			if !seen[key] {
				seen[key] = true
				out = append(out, Grouping{Units: sorted, Description: describeUnits(sorted)})
			}
			return
		}

		c := ids[first]
		w := counts[c]
		used[first] = true
		walk(append(units, TrickUnit{Kind: UnitRepeated, Width: w, Members: []Card{c}}))

		if w >= 2 {
			var extend func(chain []int)
			extend = func(chain []int) {
				last := ids[chain[len(chain)-1]]
				for j := range ids {
					if used[j] || counts[ids[j]] != w || t.Level(ids[j]) != t.Level(last)+1 {
						continue
					}
					used[j] = true
					next := append(append([]int(nil), chain...), j)
					members := make([]Card, len(next))
					for k, idx := range next {
						members[k] = ids[idx]
					}
					walk(append(units, TrickUnit{Kind: UnitTractor, Width: w, Members: members}))
					extend(next)
					used[j] = false
				}
			}
			extend([]int{first})
		}
		used[first] = false
	}
	walk(nil)

	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Units) != len(out[j].Units) {
			return len(out[i].Units) < len(out[j].Units)
		}
		return unitsKey(out[i].Units) < unitsKey(out[j].Units)
	})
	return out, nil
}

// NewTrickFormat validates a caller-chosen grouping and builds its format.
func NewTrickFormat(t Trump, units []TrickUnit) (TrickFormat, error) {
	if err := t.Validate(); err != nil {
		return TrickFormat{}, err
	}
	if len(units) == 0 {
		return TrickFormat{}, fmt.Errorf("%w: no units", ErrInvalidLead)
	}
	var g Group
	for i, u := range units {
		if err := validateUnit(t, u); err != nil {
			return TrickFormat{}, err
		}
		if i == 0 {
			g = t.Group(u.Members[0])
		}
		for _, m := range u.Members {
			if t.Group(m) != g {
				return TrickFormat{}, fmt.Errorf("%w: %v is not in %v", ErrInvalidLead, m, g)
			}
		}
	}
	sorted := append([]TrickUnit(nil), units...)
	sortUnits(t, sorted)
	return TrickFormat{Group: g, Trump: t, Units: sorted}, nil
}

func validateUnit(t Trump, u TrickUnit) error {
	if err := validateCards(u.Members); err != nil {
		return err
	}
	switch u.Kind {
	case UnitRepeated:
		if u.Width < 1 || len(u.Members) != 1 {
			return fmt.Errorf("%w: malformed repeated unit", ErrInvalidLead)
		}
	case UnitTractor:
		if u.Width < 2 || len(u.Members) < 2 {
			return fmt.Errorf("%w: malformed tractor", ErrInvalidLead)
		}
		for i := 1; i < len(u.Members); i++ {
			if t.Group(u.Members[i]) != t.Group(u.Members[0]) ||
				t.Level(u.Members[i]) != t.Level(u.Members[i-1])+1 {
				return fmt.Errorf("%w: tractor members %v are not consecutive", ErrInvalidLead, u.Members)
			}
		}
	default:
		return fmt.Errorf("%w: unit kind %d", ErrInvalidLead, u.Kind)
	}
	return nil
}

// sortUnits orders largest first, tractors before tuples of equal size, then
// by highest card descending.
func sortUnits(t Trump, units []TrickUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if a.Size() != b.Size() {
			return a.Size() > b.Size()
		}
		if a.Kind != b.Kind {
			return a.Kind == UnitTractor
		}
		if a.Width != b.Width {
			return a.Width > b.Width
		}
		return t.Compare(a.Members[len(a.Members)-1], b.Members[len(b.Members)-1]) > 0
	})
}

func sortShapes(shapes []UnitShape) {
	sort.SliceStable(shapes, func(i, j int) bool {
		a, b := shapes[i], shapes[j]
		if a.size() != b.size() {
			return a.size() > b.size()
		}
		if a.Kind != b.Kind {
			return a.Kind == UnitTractor
		}
		return a.Width > b.Width
	})
}

func unitsKey(units []TrickUnit) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = fmt.Sprintf("%d:%d:%v", u.Kind, u.Width, u.Members)
	}
	return strings.Join(parts, "|")
}

func describeUnits(units []TrickUnit) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.Description()
	}
	return strings.Join(parts, " + ")
}

func describeShapes(shapes []UnitShape) string {
	parts := make([]string, 0, len(shapes))
	singles := 0
	for _, s := range shapes {
		if s.Kind == UnitRepeated && s.Width == 1 {
			singles++
			continue
		}
		parts = append(parts, s.String())
	}
	if singles > 0 {
		parts = append(parts, fmt.Sprintf("%d free", singles))
	}
	return strings.Join(parts, " + ")
}
