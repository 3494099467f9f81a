package engine

import (
	"fmt"
	"strings"
)

// Policy axes. Each is a closed uint8 enum; behavior lives in per-axis tables
// indexed by the enum value next to the code that uses it (bid.go, follow.go,
// throw.go, scoring.go, levels.go, kitty.go, friends.go).

// BidPolicy decides when an equal-length bid overturns the current one.
type BidPolicy uint8

const (
	JokerOrHigherSuit    BidPolicy = iota // 0 — jokers, then higher suit, win ties
	JokerOrGreaterLength                  // 1 — only jokers win ties
	GreaterLength                         // 2 — only strictly longer claims win
	numBidPolicies
)

// BidReinforcementPolicy decides who may add to an existing claim.
type BidReinforcementPolicy uint8

const (
	ReinforceWhileWinning           BidReinforcementPolicy = iota // 0
	ReinforceWhileEquivalent                                      // 1
	OverturnOrReinforceWhileWinning                               // 2
	numReinforcementPolicies
)

// JokerBidPolicy gates joker (no-trump) claims.
type JokerBidPolicy uint8

const (
	BothTwoOrMore               JokerBidPolicy = iota // 0 — at least two of one joker
	BothNumDecks                                      // 1 — every copy of one joker
	LJNumDecksHJNumDecksLessOne                       // 2 — all LJ, or BJ one short of all
	DisabledJokerBids                                 // 3
	numJokerBidPolicies
)

// TrickDrawPolicy controls which shapes a follower is forced to draw out.
type TrickDrawPolicy uint8

const (
	NoProtections            TrickDrawPolicy = iota // 0
	LongerTuplesProtected                           // 1
	OnlyDrawTractorOnTractor                        // 2
	NoFormatBasedDraw                               // 3
	numTrickDrawPolicies
)

// ThrowEvaluationPolicy selects which lead units a response must beat.
type ThrowEvaluationPolicy uint8

const (
	ThrowEvalAll             ThrowEvaluationPolicy = iota // 0
	ThrowEvalHighest                                      // 1
	ThrowEvalTrickUnitLength                              // 2
	numThrowEvaluationPolicies
)

// FriendSelectionPolicy restricts which cards may name a friend.
type FriendSelectionPolicy uint8

const (
	FriendUnrestricted          FriendSelectionPolicy = iota // 0 — any non-trump card
	FriendTrumpsIncluded                                     // 1 — trump suit allowed
	FriendHighestCardNotAllowed                              // 2
	FriendPointCardNotAllowed                                // 3
	numFriendSelectionPolicies
)

// KittyBidPolicy picks trump from the revealed kitty when nobody bid.
type KittyBidPolicy uint8

const (
	KittyFirstCard                KittyBidPolicy = iota // 0
	KittyFirstCardOfLevelOrHighest                      // 1
	numKittyBidPolicies
)

// AdvancementPolicy limits how levels advance near the top.
type AdvancementPolicy uint8

const (
	AdvanceUnrestricted      AdvancementPolicy = iota // 0 — must defend A to win
	AdvanceFullyUnrestricted                          // 1 — may win by passing A
	AdvanceDefendPoints                               // 2 — must also defend 5, 10, K
	numAdvancementPolicies
)

// BonusLevelPolicy grants the landlord an extra level for playing short-handed.
type BonusLevelPolicy uint8

const (
	NoBonusLevel                     BonusLevelPolicy = iota // 0
	BonusLevelForSmallerLandlordTeam                         // 1
	numBonusLevelPolicies
)

// KittyPenalty is the multiplier applied to kitty points won on the last trick.
type KittyPenalty uint8

const (
	KittyPenaltyTimes KittyPenalty = iota // 0 — 2 × largest unit size
	KittyPenaltyPower                     // 1 — 2 ^ largest unit size
	numKittyPenalties
)

// ThrowPenalty is charged to a leader whose throw was beaten.
type ThrowPenalty uint8

const (
	NoThrowPenalty      ThrowPenalty = iota // 0
	TenPointsPerAttempt                     // 1
	numThrowPenalties
)

// ---------------------------------------------------------------------------
// Text codecs
// ---------------------------------------------------------------------------

var (
	bidPolicyNames             = [numBidPolicies]string{"JokerOrHigherSuit", "JokerOrGreaterLength", "GreaterLength"}
	reinforcementPolicyNames   = [numReinforcementPolicies]string{"ReinforceWhileWinning", "ReinforceWhileEquivalent", "OverturnOrReinforceWhileWinning"}
	jokerBidPolicyNames        = [numJokerBidPolicies]string{"BothTwoOrMore", "BothNumDecks", "LJNumDecksHJNumDecksLessOne", "Disabled"}
	trickDrawPolicyNames       = [numTrickDrawPolicies]string{"NoProtections", "LongerTuplesProtected", "OnlyDrawTractorOnTractor", "NoFormatBasedDraw"}
	throwEvaluationPolicyNames = [numThrowEvaluationPolicies]string{"All", "Highest", "TrickUnitLength"}
	friendSelectionPolicyNames = [numFriendSelectionPolicies]string{"Unrestricted", "TrumpsIncluded", "HighestCardNotAllowed", "PointCardNotAllowed"}
	kittyBidPolicyNames        = [numKittyBidPolicies]string{"FirstCard", "FirstCardOfLevelOrHighest"}
	advancementPolicyNames     = [numAdvancementPolicies]string{"Unrestricted", "FullyUnrestricted", "DefendPoints"}
	bonusLevelPolicyNames      = [numBonusLevelPolicies]string{"NoBonusLevel", "BonusLevelForSmallerLandlordTeam"}
	kittyPenaltyNames          = [numKittyPenalties]string{"Times", "Power"}
	throwPenaltyNames          = [numThrowPenalties]string{"None", "TenPointsPerAttempt"}
)

func enumString[E ~uint8](names []string, v E, axis string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", axis, uint8(v))
}

func enumMarshal[E ~uint8](names []string, v E, axis string) ([]byte, error) {
	if int(v) >= len(names) {
		return nil, fmt.Errorf("%w: %s %d", ErrInvalidRules, axis, uint8(v))
	}
	return []byte(names[v]), nil
}

func enumParse[E ~uint8](names []string, s, axis string) (E, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return E(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown %s %q", ErrInvalidRules, axis, s)
}

func (p BidPolicy) String() string { return enumString(bidPolicyNames[:], p, "BidPolicy") }
func (p BidPolicy) Valid() bool     { return p < numBidPolicies }
func (p BidPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(bidPolicyNames[:], p, "BidPolicy")
}
func (p *BidPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[BidPolicy](bidPolicyNames[:], string(b), "BidPolicy")
	return err
}

func (p BidReinforcementPolicy) String() string {
	return enumString(reinforcementPolicyNames[:], p, "BidReinforcementPolicy")
}
func (p BidReinforcementPolicy) Valid() bool { return p < numReinforcementPolicies }
func (p BidReinforcementPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(reinforcementPolicyNames[:], p, "BidReinforcementPolicy")
}
func (p *BidReinforcementPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[BidReinforcementPolicy](reinforcementPolicyNames[:], string(b), "BidReinforcementPolicy")
	return err
}

func (p JokerBidPolicy) String() string { return enumString(jokerBidPolicyNames[:], p, "JokerBidPolicy") }
func (p JokerBidPolicy) Valid() bool     { return p < numJokerBidPolicies }
func (p JokerBidPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(jokerBidPolicyNames[:], p, "JokerBidPolicy")
}
func (p *JokerBidPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[JokerBidPolicy](jokerBidPolicyNames[:], string(b), "JokerBidPolicy")
	return err
}

func (p TrickDrawPolicy) String() string {
	return enumString(trickDrawPolicyNames[:], p, "TrickDrawPolicy")
}
func (p TrickDrawPolicy) Valid() bool { return p < numTrickDrawPolicies }
func (p TrickDrawPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(trickDrawPolicyNames[:], p, "TrickDrawPolicy")
}
func (p *TrickDrawPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[TrickDrawPolicy](trickDrawPolicyNames[:], string(b), "TrickDrawPolicy")
	return err
}

func (p ThrowEvaluationPolicy) String() string {
	return enumString(throwEvaluationPolicyNames[:], p, "ThrowEvaluationPolicy")
}
func (p ThrowEvaluationPolicy) Valid() bool { return p < numThrowEvaluationPolicies }
func (p ThrowEvaluationPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(throwEvaluationPolicyNames[:], p, "ThrowEvaluationPolicy")
}
func (p *ThrowEvaluationPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[ThrowEvaluationPolicy](throwEvaluationPolicyNames[:], string(b), "ThrowEvaluationPolicy")
	return err
}

func (p FriendSelectionPolicy) String() string {
	return enumString(friendSelectionPolicyNames[:], p, "FriendSelectionPolicy")
}
func (p FriendSelectionPolicy) Valid() bool { return p < numFriendSelectionPolicies }
func (p FriendSelectionPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(friendSelectionPolicyNames[:], p, "FriendSelectionPolicy")
}
func (p *FriendSelectionPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[FriendSelectionPolicy](friendSelectionPolicyNames[:], string(b), "FriendSelectionPolicy")
	return err
}

func (p KittyBidPolicy) String() string { return enumString(kittyBidPolicyNames[:], p, "KittyBidPolicy") }
func (p KittyBidPolicy) Valid() bool     { return p < numKittyBidPolicies }
func (p KittyBidPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(kittyBidPolicyNames[:], p, "KittyBidPolicy")
}
func (p *KittyBidPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[KittyBidPolicy](kittyBidPolicyNames[:], string(b), "KittyBidPolicy")
	return err
}

func (p AdvancementPolicy) String() string {
	return enumString(advancementPolicyNames[:], p, "AdvancementPolicy")
}
func (p AdvancementPolicy) Valid() bool { return p < numAdvancementPolicies }
func (p AdvancementPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(advancementPolicyNames[:], p, "AdvancementPolicy")
}
func (p *AdvancementPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[AdvancementPolicy](advancementPolicyNames[:], string(b), "AdvancementPolicy")
	return err
}

func (p BonusLevelPolicy) String() string {
	return enumString(bonusLevelPolicyNames[:], p, "BonusLevelPolicy")
}
func (p BonusLevelPolicy) Valid() bool { return p < numBonusLevelPolicies }
func (p BonusLevelPolicy) MarshalText() ([]byte, error) {
	return enumMarshal(bonusLevelPolicyNames[:], p, "BonusLevelPolicy")
}
func (p *BonusLevelPolicy) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[BonusLevelPolicy](bonusLevelPolicyNames[:], string(b), "BonusLevelPolicy")
	return err
}

func (p KittyPenalty) String() string { return enumString(kittyPenaltyNames[:], p, "KittyPenalty") }
func (p KittyPenalty) Valid() bool     { return p < numKittyPenalties }
func (p KittyPenalty) MarshalText() ([]byte, error) {
	return enumMarshal(kittyPenaltyNames[:], p, "KittyPenalty")
}
func (p *KittyPenalty) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[KittyPenalty](kittyPenaltyNames[:], string(b), "KittyPenalty")
	return err
}

func (p ThrowPenalty) String() string { return enumString(throwPenaltyNames[:], p, "ThrowPenalty") }
func (p ThrowPenalty) Valid() bool     { return p < numThrowPenalties }
func (p ThrowPenalty) MarshalText() ([]byte, error) {
	return enumMarshal(throwPenaltyNames[:], p, "ThrowPenalty")
}
func (p *ThrowPenalty) UnmarshalText(b []byte) (err error) {
	*p, err = enumParse[ThrowPenalty](throwPenaltyNames[:], string(b), "ThrowPenalty")
	return err
}
