// internal/game/game.go
package game

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	engine "github.com/findfriends/tractor/engine"
	"github.com/findfriends/tractor/service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Op names a rules query.
type Op string

const (
	OpValidBids              Op = "valid_bids"
	OpEstablishFormat        Op = "establish_format"
	OpCanFollow              Op = "can_follow"
	OpDecompose              Op = "decompose"
	OpEvaluateThrow          Op = "evaluate_throw"
	OpComputeScore           Op = "compute_score"
	OpExplainScoring         Op = "explain_scoring"
	OpNextThresholdReachable Op = "next_threshold_reachable"
	OpSortHand               Op = "sort_hand"
	OpTrumpFromBid           Op = "trump_from_bid"
	OpKittyTrump             Op = "kitty_trump"
	OpKittyPoints            Op = "kitty_points"
	OpValidateFriend         Op = "validate_friend"
	OpAdvanceLevel           Op = "advance_level"
)

// Status tells the client how to present a response.
type Status string

const (
	StatusOK            Status = "ok"
	StatusAmbiguous     Status = "ambiguous"       // pick one of Groupings and resend with a choice
	StatusNoLegalOption Status = "no_legal_option" // a legitimate dead end, not a failure
	StatusInvalid       Status = "invalid"
	StatusForbidden     Status = "forbidden"
	StatusUnknownOp     Status = "unknown_op"
	StatusUnavailable   Status = "unavailable" // a backing store failed
)

// Request is one rules query as it arrives on a transport.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Op      Op              `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers a Request.
type Response struct {
	ID        string            `json:"id,omitempty"`
	Op        Op                `json:"op"`
	Status    Status            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Groupings []GroupingPayload `json:"groupings,omitempty"`
	Result    any               `json:"result,omitempty"`
}

var errForbidden = errors.New("caller may not query another player's hand")

// ErrUnavailable wraps failures of a backing store, as opposed to bad input.
var ErrUnavailable = errors.New("backing store unavailable")

// PresetSource resolves a rules preset by name. Unknown names return an
// error wrapping models.ErrPresetNotFound.
type PresetSource interface {
	Preset(ctx context.Context, name string) (models.HouseRules, error)
}

// PresetChain consults each source in order until one knows the name.
type PresetChain []PresetSource

// Preset implements PresetSource.
func (c PresetChain) Preset(ctx context.Context, name string) (models.HouseRules, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		h, err := src.Preset(ctx, name)
		if errors.Is(err, models.ErrPresetNotFound) {
			continue
		}
		return h, err
	}
	return models.HouseRules{}, fmt.Errorf("%w: %q", models.ErrPresetNotFound, name)
}

// ExplainCache memoizes encoded scoring legends by key.
type ExplainCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Evaluator answers rules queries. It holds no game state; every request
// carries the hands, history and rules it needs.
type Evaluator struct {
	log     logrus.FieldLogger
	presets PresetSource
	explain ExplainCache
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option { return func(e *Evaluator) { e.log = l } }

// WithPresets enables the "preset" field of rules references.
func WithPresets(p PresetSource) Option { return func(e *Evaluator) { e.presets = p } }

// WithExplainCache memoizes explain_scoring.
func WithExplainCache(c ExplainCache) Option { return func(e *Evaluator) { e.explain = c } }

// NewEvaluator builds an Evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ops lists every supported operation.
func Ops() []Op {
	out := make([]Op, 0, len(handlers))
	for _, op := range opOrder {
		if _, ok := handlers[op]; ok {
			out = append(out, op)
		}
	}
	return out
}

// Handle dispatches req, assigning a request id when the caller sent none.
func (e *Evaluator) Handle(ctx context.Context, caller models.Caller, req Request) Response {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	resp := e.dispatch(ctx, caller, id, req.Op, req.Payload)
	resp.ID = id
	return resp
}

// Dispatch runs op against payload on behalf of caller.
func (e *Evaluator) Dispatch(ctx context.Context, caller models.Caller, op Op, payload json.RawMessage) Response {
	return e.dispatch(ctx, caller, "", op, payload)
}

func (e *Evaluator) dispatch(ctx context.Context, caller models.Caller, id string, op Op, payload json.RawMessage) Response {
	log := e.log.WithFields(logrus.Fields{"op": op, "request_id": id, "player": caller.Player, "role": caller.Role})

	h, ok := handlers[op]
	if !ok {
		log.Warn("unknown rules operation")
		return Response{Op: op, Status: StatusUnknownOp, Message: fmt.Sprintf("unknown operation %q", op)}
	}
	result, err := h(ctx, e, caller, payload)
	resp := respond(op, result, err)

	entry := log.WithField("status", resp.Status)
	switch resp.Status {
	case StatusOK, StatusAmbiguous, StatusNoLegalOption:
		entry.Debug("rules query answered")
	case StatusUnavailable:
		entry.WithError(err).Error("rules query failed")
	default:
		entry.WithError(err).Info("rules query rejected")
	}
	return resp
}

// respond maps a handler outcome onto a Response.
func respond(op Op, result any, err error) Response {
	resp := Response{Op: op, Status: StatusOK, Result: result}
	if err == nil {
		return resp
	}
	resp.Message = err.Error()
	switch {
	case errors.Is(err, errForbidden):
		resp.Status, resp.Result = StatusForbidden, nil
		return resp
	case errors.Is(err, ErrUnavailable):
		resp.Status, resp.Result = StatusUnavailable, nil
		return resp
	}

	switch engine.Classify(err) {
	case engine.KindAmbiguous:
		var amb *engine.AmbiguousLeadError
		errors.As(err, &amb)
		resp.Status, resp.Result = StatusAmbiguous, nil
		resp.Groupings = groupingPayloads(amb.Groupings)
		resp.Message = fmt.Sprintf("lead can be read %d ways; resend with a choice", len(amb.Groupings))
	case engine.KindNoLegalOption:
		resp.Status = StatusNoLegalOption
	default:
		resp.Status, resp.Result = StatusInvalid, nil
	}
	return resp
}

// handler decodes a payload and runs one operation.
type handler func(ctx context.Context, e *Evaluator, caller models.Caller, raw json.RawMessage) (any, error)

// handle adapts a typed operation to a handler. Unknown payload fields are
// rejected.
func handle[P any](fn func(ctx context.Context, e *Evaluator, caller models.Caller, p P) (any, error)) handler {
	return func(ctx context.Context, e *Evaluator, caller models.Caller, raw json.RawMessage) (any, error) {
		var p P
		if len(bytes.TrimSpace(raw)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&p); err != nil {
				return nil, fmt.Errorf("%w: payload: %v", engine.ErrInvalidArgument, err)
			}
		}
		return fn(ctx, e, caller, p)
	}
}

// authorize allows hint queries about player only from that player or the
// coordinator.
func authorize(caller models.Caller, player string) error {
	if !caller.MayActFor(player) {
		return fmt.Errorf("%w: %q asked about %q", errForbidden, caller.Player, player)
	}
	return nil
}

func coordinatorOnly(caller models.Caller) error {
	if caller.Role != models.RoleCoordinator {
		return fmt.Errorf("%w: coordinator role required", errForbidden)
	}
	return nil
}

// RulesRef selects the rules for a query: a named preset, inline overrides,
// or both (overrides layered on the preset). Neither means engine defaults.
type RulesRef struct {
	Preset string             `json:"preset,omitempty"`
	Rules  *models.HouseRules `json:"rules,omitempty"`
}

// ResolveRules turns ref into validated engine rules.
func (e *Evaluator) ResolveRules(ctx context.Context, ref RulesRef) (engine.Rules, error) {
	var base models.HouseRules
	if ref.Preset != "" {
		if e.presets == nil {
			return engine.Rules{}, fmt.Errorf("%w: %q (no preset sources configured)", models.ErrPresetNotFound, ref.Preset)
		}
		h, err := e.presets.Preset(ctx, ref.Preset)
		switch {
		case errors.Is(err, models.ErrPresetNotFound):
			return engine.Rules{}, err
		case err != nil:
			return engine.Rules{}, fmt.Errorf("%w: preset %q: %v", ErrUnavailable, ref.Preset, err)
		}
		base = h
	}
	if ref.Rules != nil {
		base = base.Merge(*ref.Rules)
	}
	return base.ToEngine()
}
