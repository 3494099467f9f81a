package game

import (
	"encoding/json"
	"testing"

	engine "github.com/findfriends/tractor/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCardsNamesField(t *testing.T) {
	_, err := parseCards("kitty", []string{"AS", "ZZ"})
	require.ErrorIs(t, err, engine.ErrInvalidCard)
	assert.Contains(t, err.Error(), "kitty[1]")

	hand, err := parseHand("hand", HandPayload{"10H": 2, "BJ": 1})
	require.NoError(t, err)
	assert.Equal(t, 3, hand.Size())

	_, err = parseHand("hand", HandPayload{"QS": 1, "1X": 2})
	require.ErrorIs(t, err, engine.ErrInvalidCard)
	assert.Contains(t, err.Error(), "hand[1X]")

	_, err = parseHand("hand", HandPayload{"QS": -1})
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

func TestHandPayloadAcceptsListOrCounts(t *testing.T) {
	var fromList, fromCounts SortHandRequest
	require.NoError(t, json.Unmarshal([]byte(`{"hand":["10H","LJ","10H"]}`), &fromList))
	require.NoError(t, json.Unmarshal([]byte(`{"hand":{"10H":2,"LJ":1}}`), &fromCounts))
	assert.Equal(t, HandPayload{"10H": 2, "LJ": 1}, fromList.Hand)
	assert.Equal(t, fromList.Hand, fromCounts.Hand)

	a, err := parseHand("hand", fromList.Hand)
	require.NoError(t, err)
	b, err := parseHand("hand", fromCounts.Hand)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var bad SortHandRequest
	assert.Error(t, json.Unmarshal([]byte(`{"hand":"10H"}`), &bad))
}

func TestCardIDsKeepsNil(t *testing.T) {
	assert.Nil(t, cardIDs(nil))
	assert.Equal(t, []string{}, cardIDs([]engine.Card{}))

	b, err := json.Marshal(ObligationPayload{Description: "x", Playable: cardIDs(nil)})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "playable")
}

func TestTrumpPayloadRoundTrip(t *testing.T) {
	for _, p := range []TrumpPayload{
		{Kind: "standard", Suit: "D", Rank: "10"},
		{Kind: "noTrump", Rank: "K"},
		{Kind: "noTrump", Rank: "none"},
	} {
		tr, err := p.toEngine()
		require.NoError(t, err, p)
		assert.Equal(t, p, trumpPayload(tr))
	}

	_, err := TrumpPayload{Kind: "standard", Rank: "2"}.toEngine()
	assert.Error(t, err, "standard trump needs a suit")
	_, err = TrumpPayload{Kind: "standard", Suit: "H", Rank: "none"}.toEngine()
	assert.ErrorIs(t, err, engine.ErrInvalidRules)
}

func TestFormatPayloadRederivesFields(t *testing.T) {
	tr := engine.StandardTrump(engine.SuitSpades, engine.RankTwo)
	lead, err := parseCards("lead", []string{"KH", "KH", "5H"})
	require.NoError(t, err)
	f, err := engine.EstablishFormat(lead, tr)
	require.NoError(t, err)

	p := formatPayload(f)
	assert.True(t, p.IsThrow)
	assert.Equal(t, 3, p.Size)

	// Derived fields are recomputed from the units on input.
	p.Group, p.Size, p.IsThrow = "clubs", 99, false
	back, err := p.toEngine()
	require.NoError(t, err)
	assert.Equal(t, f, back)

	p.Units[0].Kind = "pile"
	_, err = p.toEngine()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format.units[0].kind")
}
