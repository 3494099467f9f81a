package engine

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Draw chains
// ---------------------------------------------------------------------------

// A requirement is a full set of shapes whose sizes add up to the format
// size; leftover cards appear as singles. A draw chain lists requirements
// from strongest to weakest. A follower must match the first requirement in
// the chain that their hand can match.

// drawChain is indexed by TrickDrawPolicy. A nil chain means only card count
// and group exhaustion matter.
var drawChain = [numTrickDrawPolicies]func(format []UnitShape) [][]UnitShape{
	NoProtections:            func([]UnitShape) [][]UnitShape { return nil },
	LongerTuplesProtected:    weakenAll,
	OnlyDrawTractorOnTractor: weakenTractorsOnly,
	NoFormatBasedDraw:        func([]UnitShape) [][]UnitShape { return nil },
}

// drawProtected is indexed by TrickDrawPolicy: when set, a tuple in hand is
// never forced out by a requirement narrower than the tuple.
var drawProtected = [numTrickDrawPolicies]bool{
	LongerTuplesProtected: true,
}

func single() UnitShape { return UnitShape{Kind: UnitRepeated, Width: 1, Length: 1} }

func singles(n int) []UnitShape {
	out := make([]UnitShape, n)
	for i := range out {
		out[i] = single()
	}
	return out
}

func isSingle(s UnitShape) bool { return s.Kind == UnitRepeated && s.Width == 1 }

// weakenStep lowers s by one notch. ok is false for a single.
func weakenStep(s UnitShape) (out []UnitShape, ok bool) {
	switch {
	case s.Kind == UnitTractor && s.Width > 2:
		return append([]UnitShape{{Kind: UnitTractor, Width: s.Width - 1, Length: s.Length}}, singles(s.Length)...), true
	case s.Kind == UnitTractor:
		out = make([]UnitShape, s.Length)
		for i := range out {
			out[i] = UnitShape{Kind: UnitRepeated, Width: s.Width, Length: 1}
		}
		return out, true
	case s.Width > 1:
		return []UnitShape{{Kind: UnitRepeated, Width: s.Width - 1, Length: 1}, single()}, true
	}
	return nil, false
}

// weakenAll weakens the largest shape one notch at a time until only singles
// remain.
func weakenAll(format []UnitShape) [][]UnitShape {
	cur := append([]UnitShape(nil), format...)
	sortShapes(cur)
	chain := [][]UnitShape{cur}
	for {
		next, ok := weakenFirst(cur, func(UnitShape) bool { return true })
		if !ok {
			return chain
		}
		chain = append(chain, next)
		cur = next
	}
}

// weakenTractorsOnly draws nothing but tractors: tuples count as singles from
// the start and a pair tractor falls straight to singles.
func weakenTractorsOnly(format []UnitShape) [][]UnitShape {
	cur := tuplesToSingles(format)
	chain := [][]UnitShape{cur}
	for {
		next, ok := weakenFirst(cur, func(s UnitShape) bool { return s.Kind == UnitTractor })
		if !ok {
			return chain
		}
		next = tuplesToSingles(next)
		chain = append(chain, next)
		cur = next
	}
}

func tuplesToSingles(shapes []UnitShape) []UnitShape {
	var out []UnitShape
	for _, s := range shapes {
		if s.Kind == UnitTractor {
			out = append(out, s)
		} else {
			out = append(out, singles(s.size())...)
		}
	}
	sortShapes(out)
	return out
}

// weakenFirst weakens the first shape matching pick.
func weakenFirst(cur []UnitShape, pick func(UnitShape) bool) ([]UnitShape, bool) {
	for i, s := range cur {
		if !pick(s) {
			continue
		}
		repl, ok := weakenStep(s)
		if !ok {
			continue
		}
		next := make([]UnitShape, 0, len(cur)+len(repl))
		next = append(next, cur[:i]...)
		next = append(next, repl...)
		next = append(next, cur[i+1:]...)
		sortShapes(next)
		return next, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Matching
// ---------------------------------------------------------------------------

// matcher finds disjoint units in a pool of same-group cards. Tractors are
// placed by backtracking; repeated tuples are then packed onto what is left.
type matcher struct {
	trump   Trump
	avail   Hand
	ids     []Card // ascending by trump.Compare
	orig    Hand   // counts consulted for protection
	protect bool
	failed  map[string]bool // tractor search states with no completion
	packed  map[string]bool // tuple packing states with no completion
}

func newMatcher(t Trump, pool []Card, orig Hand, protect bool) *matcher {
	m := &matcher{
		trump:   t,
		avail:   NewHand(pool...),
		orig:    orig,
		protect: protect,
		failed:  map[string]bool{},
		packed:  map[string]bool{},
	}
	m.ids = m.avail.identities()
	sort.SliceStable(m.ids, func(i, j int) bool { return t.Compare(m.ids[i], m.ids[j]) < 0 })
	return m
}

func (m *matcher) usable(c Card, width int) bool {
	if m.avail[c] < width {
		return false
	}
	return !m.protect || width < 2 || m.orig[c] == width
}

// match assigns every non-single shape in req. It returns the units found,
// or ok == false.
func (m *matcher) match(req []UnitShape) ([]TrickUnit, bool) {
	var tractors []UnitShape
	var need []int // need[w] counts the repeated tuples of width w
	for _, s := range req {
		switch {
		case isSingle(s):
		case s.Kind == UnitTractor:
			tractors = append(tractors, s)
		default:
			for len(need) <= s.Width {
				need = append(need, 0)
			}
			need[s.Width]++
		}
	}
	sortShapes(tractors)
	return m.assign(tractors, 0, need, nil)
}

// assign places the tractors in req, then packs the tuples in need. Equal
// shapes sit next to each other in req and start no lower than from, so no
// permutation of identical tractors is tried twice.
func (m *matcher) assign(req []UnitShape, from int, need []int, acc []TrickUnit) ([]TrickUnit, bool) {
	if len(req) == 0 {
		clear(m.packed)
		tuples, ok := m.pack(0, need)
		if !ok {
			return nil, false
		}
		return append(append([]TrickUnit(nil), acc...), tuples...), true
	}
	key := m.stateKey(len(req), from)
	if m.failed[key] {
		return nil, false
	}
	s := req[0]
	for i := from; i < len(m.ids); i++ {
		if !m.usable(m.ids[i], s.Width) {
			continue
		}
		if units, ok := m.chain(s, i, []Card{m.ids[i]}, req[1:], need, acc); ok {
			return units, true
		}
	}
	m.failed[key] = true
	return nil, false
}

// chain grows a tractor of shape s from members, whose first card is
// ids[start], and continues with rest.
func (m *matcher) chain(s UnitShape, start int, members []Card, rest []UnitShape, need []int, acc []TrickUnit) ([]TrickUnit, bool) {
	if len(members) == s.Length {
		for _, c := range members {
			m.avail[c] -= s.Width
		}
		next := 0
		if len(rest) > 0 && rest[0] == s {
			next = start
		}
		unit := TrickUnit{Kind: UnitTractor, Width: s.Width, Members: append([]Card(nil), members...)}
		units, ok := m.assign(rest, next, need, append(acc, unit))
		for _, c := range members {
			m.avail[c] += s.Width
		}
		return units, ok
	}
	last := members[len(members)-1]
	for _, c := range m.ids {
		if m.trump.Level(c) != m.trump.Level(last)+1 || !m.usable(c, s.Width) {
			continue
		}
		if units, ok := m.chain(s, start, append(members, c), rest, need, acc); ok {
			return units, true
		}
	}
	return nil, false
}

// pack cuts the tuples in need from ids[i:], lowest identities first. The
// outcome depends only on i and need, so failures are remembered.
func (m *matcher) pack(i int, need []int) ([]TrickUnit, bool) {
	if done(need) {
		return nil, true
	}
	if i == len(m.ids) {
		return nil, false
	}
	key := fmt.Sprint(i, need)
	if m.packed[key] {
		return nil, false
	}
	c := m.ids[i]
	for _, cut := range m.cuts(c, need) {
		for w, n := range cut {
			need[w] -= n
		}
		units, ok := m.pack(i+1, need)
		for w, n := range cut {
			need[w] += n
		}
		if ok {
			var own []TrickUnit
			for w := len(cut) - 1; w >= 2; w-- {
				for n := 0; n < cut[w]; n++ {
					own = append(own, TrickUnit{Kind: UnitRepeated, Width: w, Members: []Card{c}})
				}
			}
			return append(own, units...), true
		}
	}
	m.packed[key] = true
	return nil, false
}

// cuts lists the ways to take outstanding tuples from the copies of c, the
// widest and fullest first and taking nothing last.
func (m *matcher) cuts(c Card, need []int) [][]int {
	var out [][]int
	cur := make([]int, len(need))
	var rec func(w, room int)
	rec = func(w, room int) {
		if w < 2 {
			out = append(out, append([]int(nil), cur...))
			return
		}
		most := 0
		if need[w] > 0 && m.usable(c, w) {
			most = min(need[w], room/w)
		}
		for n := most; n >= 0; n-- {
			cur[w] = n
			rec(w-1, room-n*w)
		}
		cur[w] = 0
	}
	rec(len(need)-1, m.avail[c])
	return out
}

func done(need []int) bool {
	for _, n := range need {
		if n > 0 {
			return false
		}
	}
	return true
}

// stateKey identifies a point in the tractor search by what is left to place
// and the cards still free.
func (m *matcher) stateKey(left, from int) string {
	b := make([]byte, 0, len(m.ids)+2)
	b = append(b, byte(left), byte(from))
	for _, c := range m.ids {
		b = append(b, byte(m.avail[c]))
	}
	return string(b)
}

// ---------------------------------------------------------------------------
// Following
// ---------------------------------------------------------------------------

// CanFollow reports whether candidate is a legal response to format from
// hand under policy. The candidate must have the format's size and must use
// the format's group until the hand runs out of it; shape obligations come
// from the policy's draw chain.
func CanFollow(hand Hand, format TrickFormat, candidate []Card, policy TrickDrawPolicy) (bool, error) {
	if err := validateFollowInputs(hand, format, policy); err != nil {
		return false, err
	}
	if err := validateCards(candidate); err != nil {
		return false, err
	}
	if !hand.Contains(candidate) {
		return false, fmt.Errorf("%w: %v", ErrCardsNotInHand, candidate)
	}
	return canFollow(hand, format, candidate, policy), nil
}

func canFollow(hand Hand, format TrickFormat, candidate []Card, policy TrickDrawPolicy) bool {
	size := format.Size()
	if len(candidate) != size {
		return false
	}
	t := format.Trump
	inGroup := hand.inGroup(t, format.Group)

	played := 0
	for _, c := range candidate {
		if t.Group(c) == format.Group {
			played++
		}
	}
	if len(inGroup) <= size {
		return played == len(inGroup)
	}
	if played != size {
		return false
	}

	req, ok := requiredShapes(hand, format, policy)
	if !ok {
		return true
	}
	_, ok = newMatcher(t, candidate, nil, false).match(req)
	return ok
}

// requiredShapes returns the first requirement in the draw chain the hand's
// group cards can match. ok is false when the policy has no chain.
func requiredShapes(hand Hand, format TrickFormat, policy TrickDrawPolicy) ([]UnitShape, bool) {
	idx, chain := firstMatchable(hand, format, policy)
	if idx < 0 {
		return nil, false
	}
	return chain[idx], true
}

func firstMatchable(hand Hand, format TrickFormat, policy TrickDrawPolicy) (int, [][]UnitShape) {
	chain := drawChain[policy](format.shapes())
	pool := hand.inGroup(format.Trump, format.Group)
	for i, req := range chain {
		if _, ok := newMatcher(format.Trump, pool, hand, drawProtected[policy]).match(req); ok {
			return i, chain
		}
	}
	return -1, chain
}

func validateFollowInputs(hand Hand, format TrickFormat, policy TrickDrawPolicy) error {
	if err := hand.Validate(); err != nil {
		return err
	}
	if !policy.Valid() {
		return fmt.Errorf("%w: trick draw policy %v", ErrInvalidRules, policy)
	}
	f, err := NewTrickFormat(format.Trump, format.Units)
	if err != nil {
		return err
	}
	if f.Group != format.Group {
		return fmt.Errorf("%w: format group %v does not match its units", ErrInvalidLead, format.Group)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Decomposition
// ---------------------------------------------------------------------------

// Obligation is one step of the follow hint ladder.
type Obligation struct {
	Description string
	Shape       []UnitShape
	Playable    []Card // a legal play meeting the obligation, or nil
}

// Decomposition is the hint ladder for one player.
type Decomposition struct {
	Player      PlayerID
	Obligations []Obligation
}

// Decompose lists the player's follow obligations, strongest first, ending
// with the group-exhaustion fallback. Every non-empty Playable is accepted by
// CanFollow with the same inputs.
func Decompose(format TrickFormat, hand Hand, player PlayerID, policy TrickDrawPolicy) (Decomposition, error) {
	if err := validateFollowInputs(hand, format, policy); err != nil {
		return Decomposition{}, err
	}
	if hand.Size() < format.Size() {
		return Decomposition{}, fmt.Errorf("%w: %d cards cannot follow a %d-card trick",
			ErrNoLegalOption, hand.Size(), format.Size())
	}

	t := format.Trump
	size := format.Size()
	pool := hand.inGroup(t, format.Group)
	dec := Decomposition{Player: player}

	if len(pool) > size {
		idx, chain := firstMatchable(hand, format, policy)
		if idx >= 0 {
			for i, req := range chain[idx:] {
				ob := Obligation{Description: describeShapes(req), Shape: req}
				protect := i == 0 && drawProtected[policy]
				if units, ok := newMatcher(t, pool, hand, protect).match(req); ok {
					ex := fillLowest(t, pool, units, size)
					if canFollow(hand, format, ex, policy) {
						ob.Playable = ex
					}
				}
				dec.Obligations = append(dec.Obligations, ob)
			}
		}
	}

	dec.Obligations = append(dec.Obligations, exhaustGroup(hand, format, policy, pool))
	return dec, nil
}

// fillLowest completes units with the lowest unused pool cards up to size.
func fillLowest(t Trump, pool []Card, units []TrickUnit, size int) []Card {
	rest := NewHand(pool...)
	var out []Card
	for _, u := range units {
		for _, c := range u.Cards() {
			rest[c]--
		}
		out = append(out, u.Cards()...)
	}
	for _, c := range pool {
		if len(out) == size {
			break
		}
		if rest[c] > 0 {
			rest[c]--
			out = append(out, c)
		}
	}
	sortCards(t, out)
	return out
}

func exhaustGroup(hand Hand, format TrickFormat, policy TrickDrawPolicy, pool []Card) Obligation {
	t := format.Trump
	size := format.Size()
	ob := Obligation{
		Description: fmt.Sprintf("play all of %v, remainder free", format.Group),
		Shape:       singles(size),
	}
	var ex []Card
	if len(pool) > size {
		ob.Description = fmt.Sprintf("play any %d of %v", size, format.Group)
		ex = append(ex, pool[:size]...)
	} else {
		ex = append(ex, pool...)
		var off []Card
		for _, c := range hand.Cards() {
			if t.Group(c) != format.Group {
				off = append(off, c)
			}
		}
		sortCards(t, off)
		ex = append(ex, off[:size-len(pool)]...)
	}
	sortCards(t, ex)
	if canFollow(hand, format, ex, policy) {
		ob.Playable = ex
	}
	return ob
}
