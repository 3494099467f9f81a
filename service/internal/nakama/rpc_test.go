package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/findfriends/tractor/service/internal/game"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

func quietEvaluator() *game.Evaluator {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return game.NewEvaluator(game.WithLogger(log))
}

func userCtx(id string) context.Context {
	return context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, id)
}

func TestRPCAnswers(t *testing.T) {
	rpc := NewRPC(quietEvaluator(), game.OpSortHand)
	raw, err := rpc(userCtx("p1"), noopLogger{}, nil, nil,
		`{"player":"p1","hand":["2S","AH","BJ","3C"],"trump":{"kind":"standard","suit":"H","rank":"2"}}`)
	require.NoError(t, err)

	var resp struct {
		Status string
		Result struct {
			Groups []struct {
				Group string
				Cards []string
			}
		}
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Result.Groups, 2)
	assert.Equal(t, "clubs", resp.Result.Groups[0].Group)
	assert.Equal(t, []string{"AH", "2S", "BJ"}, resp.Result.Groups[1].Cards)
}

func TestRPCAmbiguityIsNotAnError(t *testing.T) {
	rpc := NewRPC(quietEvaluator(), game.OpEstablishFormat)
	raw, err := rpc(userCtx("p1"), noopLogger{}, nil, nil,
		`{"trump":{"kind":"standard","suit":"S","rank":"2"},"lead":["7H","7H","8H","8H"]}`)
	require.NoError(t, err)
	assert.Contains(t, raw, `"status":"ambiguous"`)
}

func TestRPCErrors(t *testing.T) {
	eval := quietEvaluator()

	_, err := NewRPC(eval, game.OpDecompose)(userCtx("p1"), noopLogger{}, nil, nil, `{"player":"p2"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p2")

	_, err = NewRPC(eval, game.OpComputeScore)(userCtx("p1"), noopLogger{}, nil, nil, `{"nonLandlordPoints":-5}`)
	assert.Error(t, err)

	_, err = NewRPC(eval, game.Op("reshuffle"))(userCtx("p1"), noopLogger{}, nil, nil, `{}`)
	assert.Error(t, err)
}

func TestCallerFromContext(t *testing.T) {
	c := callerFromContext(userCtx("u1"))
	assert.Equal(t, "u1", c.Player)
	assert.Equal(t, "client", string(c.Role))

	c = callerFromContext(context.Background())
	assert.Equal(t, "coordinator", string(c.Role))
}
