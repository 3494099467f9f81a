package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/findfriends/tractor/service/internal/auth"
	"github.com/findfriends/tractor/service/internal/game"
	"github.com/findfriends/tractor/service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type presetMap map[string]models.HouseRules

func (m presetMap) Preset(_ context.Context, name string) (models.HouseRules, error) {
	h, ok := m[name]
	if !ok {
		return models.HouseRules{}, models.ErrPresetNotFound
	}
	return h, nil
}

// downStore fails every lookup the way an unreachable database would.
type downStore struct{}

func (downStore) Preset(context.Context, string) (models.HouseRules, error) {
	return models.HouseRules{}, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

type fixture struct {
	ts       *httptest.Server
	verifier *auth.Verifier
	logs     *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, presetMap{"three": {NumDecks: 3}, "broken": {NumDecks: 12}})
}

func newFixtureWith(t *testing.T, presets game.PresetSource) *fixture {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	eval := game.NewEvaluator(
		game.WithLogger(log),
		game.WithPresets(presets),
	)
	v := auth.NewVerifier("test-secret", "tractor")
	ts := httptest.NewServer(New(eval, v, log).Handler())
	t.Cleanup(ts.Close)
	return &fixture{ts: ts, verifier: v, logs: hook}
}

func (f *fixture) token(t *testing.T, player string, role models.Role) string {
	t.Helper()
	tok, err := f.verifier.Issue(player, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) post(t *testing.T, path, token, body string) (int, game.Response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var resp game.Response
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &resp), string(b))
	return res.StatusCode, resp
}

func TestHealthAndOps(t *testing.T) {
	f := newFixture(t)
	res, err := http.Get(f.ts.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(f.ts.URL + "/v1/ops")
	require.NoError(t, err)
	defer res.Body.Close()
	var body struct{ Ops []string }
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Contains(t, body.Ops, "decompose")
	assert.Len(t, body.Ops, len(game.Ops()))
}

func TestRuleEndpoint(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "p1", models.RoleClient)

	code, resp := f.post(t, "/v1/rules/compute_score", tok, `{"nonLandlordPoints": 0}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, game.StatusOK, resp.Status)
	assert.NotEmpty(t, resp.ID)

	code, resp = f.post(t, "/v1/rules/establish_format", tok,
		`{"trump":{"kind":"standard","suit":"S","rank":"2"},"lead":["7H","7H","8H","8H"]}`)
	assert.Equal(t, http.StatusOK, code, "ambiguity is an answer")
	assert.Equal(t, game.StatusAmbiguous, resp.Status)
	assert.NotEmpty(t, resp.Groupings)

	code, resp = f.post(t, "/v1/rules/decompose", tok, `{"player":"p2","hand":["3H"],"format":{}}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, game.StatusForbidden, resp.Status)

	code, resp = f.post(t, "/v1/rules/shuffle", tok, `{}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, game.StatusUnknownOp, resp.Status)

	code, resp = f.post(t, "/v1/rules/compute_score", tok, `{"nonLandlordPoints":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, game.StatusInvalid, resp.Status)
}

func TestRuleEndpointRequiresToken(t *testing.T) {
	f := newFixture(t)
	res, err := http.Post(f.ts.URL+"/v1/rules/compute_score", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.NotNil(t, f.logs.LastEntry())
	assert.Equal(t, "rejected unauthenticated request", f.logs.LastEntry().Message)
}

func TestPresetEndpoint(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "coord", models.RoleCoordinator)

	req, _ := http.NewRequest(http.MethodGet, f.ts.URL+"/v1/presets/three", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var p models.Preset
	require.NoError(t, json.NewDecoder(res.Body).Decode(&p))
	assert.Equal(t, 3, p.Rules.NumDecks)
	assert.Equal(t, "JokerOrGreaterLength", p.Rules.BidPolicy, "defaults are filled in")

	req, _ = http.NewRequest(http.MethodGet, f.ts.URL+"/v1/presets/missing", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusNotFound, res2.StatusCode)
}

func TestPresetEndpointStatuses(t *testing.T) {
	get := func(f *fixture, name string) int {
		req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/v1/presets/"+name, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+f.token(t, "coord", models.RoleCoordinator))
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		return res.StatusCode
	}

	assert.Equal(t, http.StatusUnprocessableEntity, get(newFixture(t), "broken"), "stored rules fail validation")

	down := newFixtureWith(t, downStore{})
	assert.Equal(t, http.StatusServiceUnavailable, get(down, "three"))
	require.NotNil(t, down.logs.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, down.logs.LastEntry().Level)
	assert.Equal(t, "preset lookup failed", down.logs.LastEntry().Message)

	// A rules query naming the preset reports the same outage.
	code, resp := down.post(t, "/v1/rules/compute_score", down.token(t, "p1", models.RoleClient),
		`{"preset":"three","nonLandlordPoints":0}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, game.StatusUnavailable, resp.Status)
}

func TestWebsocketSession(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws?token=" + f.token(t, "p1", models.RoleClient)
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.CloseNow()

	require.NoError(t, wsjson.Write(ctx, c, game.Request{
		ID:      "r1",
		Op:      game.OpValidBids,
		Payload: json.RawMessage(`{"player":"p1","hand":["2H","2H","5C"],"level":"2"}`),
	}))
	var resp game.Response
	require.NoError(t, wsjson.Read(ctx, c, &resp))
	assert.Equal(t, "r1", resp.ID)
	assert.Equal(t, game.StatusOK, resp.Status)

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("not json")))
	require.NoError(t, wsjson.Read(ctx, c, &resp))
	assert.Equal(t, game.StatusInvalid, resp.Status, "bad messages get an answer, not a hangup")

	require.NoError(t, wsjson.Write(ctx, c, game.Request{ID: "r2", Op: game.OpExplainScoring}))
	require.NoError(t, wsjson.Read(ctx, c, &resp))
	assert.Equal(t, "r2", resp.ID)
	assert.Equal(t, game.StatusOK, resp.Status)

	require.NoError(t, c.Close(websocket.StatusNormalClosure, ""))
}

func TestWebsocketRejectsMissingToken(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, res, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(f.ts.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
