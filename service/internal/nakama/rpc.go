// Package nakama exposes the rules evaluator as Nakama runtime RPCs so an
// authoritative match handler or client can query it directly.
package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/findfriends/tractor/service/internal/game"
	"github.com/findfriends/tractor/service/internal/models"
	"github.com/heroiclabs/nakama-common/runtime"
)

// RPCPrefix is prepended to every operation name: "tractor_valid_bids".
const RPCPrefix = "tractor_"

// gRPC status codes used by runtime.NewError.
const (
	codeInvalidArgument  = 3
	codeNotFound         = 5
	codePermissionDenied = 7
	codeUnavailable      = 14
)

// RPCFunc matches runtime.Initializer.RegisterRpc.
type RPCFunc func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

// InitModule registers every rules RPC.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	eval := game.NewEvaluator(game.WithLogger(NewRuntimeLogger(logger)))
	if err := RegisterRPCs(initializer, eval); err != nil {
		return err
	}
	logger.Info("Tractor rules module loaded (%d RPCs).", len(game.Ops()))
	return nil
}

// RegisterRPCs registers one RPC per evaluator operation.
func RegisterRPCs(initializer runtime.Initializer, eval *game.Evaluator) error {
	for _, op := range game.Ops() {
		if err := initializer.RegisterRpc(RPCPrefix+string(op), NewRPC(eval, op)); err != nil {
			return err
		}
	}
	return nil
}

// NewRPC adapts one operation. Requests from a user session act as that
// player; server-to-server calls (no user id) act as the coordinator.
func NewRPC(eval *game.Evaluator, op game.Op) RPCFunc {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		caller := callerFromContext(ctx)
		resp := eval.Dispatch(ctx, caller, op, json.RawMessage(payload))

		switch resp.Status {
		case game.StatusForbidden:
			logger.Warn("%s%s [User:%s]: %s", RPCPrefix, op, caller.Player, resp.Message)
			return "", runtime.NewError(resp.Message, codePermissionDenied)
		case game.StatusUnknownOp:
			return "", runtime.NewError(resp.Message, codeNotFound)
		case game.StatusUnavailable:
			logger.Error("%s%s: %s", RPCPrefix, op, resp.Message)
			return "", runtime.NewError("rules presets unavailable", codeUnavailable)
		case game.StatusInvalid:
			return "", runtime.NewError(resp.Message, codeInvalidArgument)
		}

		// ok, ambiguous and no_legal_option are all answers the caller renders.
		b, err := json.Marshal(resp)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func callerFromContext(ctx context.Context) models.Caller {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return models.Caller{Role: models.RoleCoordinator}
	}
	return models.Caller{Player: userID, Role: models.RoleClient}
}
