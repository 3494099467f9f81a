package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Validation failures. Every engine error wraps one of these so callers can
// branch with errors.Is.
var (
	ErrInvalidCard     = errors.New("malformed card identity")
	ErrCardsNotInHand  = errors.New("hand does not contain requested cards")
	ErrInvalidLead     = errors.New("cannot establish trick format from empty or invalid lead")
	ErrInvalidRules    = errors.New("invalid trump or policy configuration")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrNoLegalOption marks a legitimate terminal state (nothing to bid or play).
// It is not a caller bug.
var ErrNoLegalOption = errors.New("no legal option")

// AmbiguousLeadError is returned when a lead admits more than one grouping.
// It is not a failure: the caller must pick one of Groupings.
type AmbiguousLeadError struct {
	Groupings []Grouping
}

func (e *AmbiguousLeadError) Error() string {
	descs := make([]string, len(e.Groupings))
	for i, g := range e.Groupings {
		descs[i] = g.Description
	}
	return fmt.Sprintf("ambiguous lead: %d groupings (%s)", len(e.Groupings), strings.Join(descs, " | "))
}

// ErrorKind classifies an engine error for presentation.
type ErrorKind uint8

const (
	KindNone          ErrorKind = iota // 0 — nil error
	KindValidation                     // 1 — caller supplied bad input
	KindAmbiguous                      // 2 — caller must choose
	KindNoLegalOption                  // 3 — terminal state, not a bug
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindAmbiguous:
		return "ambiguous"
	case KindNoLegalOption:
		return "no_legal_option"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Classify maps err onto the engine's error taxonomy. Unknown errors are
// treated as validation failures.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var amb *AmbiguousLeadError
	switch {
	case errors.As(err, &amb):
		return KindAmbiguous
	case errors.Is(err, ErrNoLegalOption):
		return KindNoLegalOption
	}
	return KindValidation
}
