package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/findfriends/tractor/service/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB keeps presets in a map and records statements.
type fakeDB struct {
	rows  map[string][2]any // name -> {description, rules}
	execs []string
	err   error
}

func newFakeDB() *fakeDB { return &fakeDB{rows: map[string][2]any{}} }

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	if strings.Contains(sql, "INSERT INTO rules_presets") {
		f.rows[args[0].(string)] = [2]any{args[1], args[2]}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	r, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{vals: []any{r[1]}}
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.err != nil {
		return nil, f.err
	}
	names := make([]string, 0, len(f.rows))
	for n := range f.rows {
		names = append(names, n)
	}
	sort.Strings(names)
	out := &fakeRows{}
	for _, n := range names {
		out.data = append(out.data, []any{n, f.rows[n][0], f.rows[n][1]})
	}
	return out, nil
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

func assign(dest, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *string:
			*d = vals[i].(string)
		case *[]byte:
			*d = vals[i].([]byte)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.data[r.pos-1]) }

func TestPresetStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	store := NewPresetStore(db)
	require.NoError(t, store.Migrate(ctx))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS rules_presets")

	preset := models.Preset{
		Name:        "three-deck",
		Description: "big table",
		Rules:       models.HouseRules{NumDecks: 3, TrickDrawPolicy: "LongerTuplesProtected"},
	}
	require.NoError(t, store.Save(ctx, preset))

	var stored models.HouseRules
	require.NoError(t, json.Unmarshal(db.rows["three-deck"][1].([]byte), &stored))
	assert.Equal(t, preset.Rules, stored)

	got, err := store.Preset(ctx, "three-deck")
	require.NoError(t, err)
	assert.Equal(t, 3, got.NumDecks)
	assert.Equal(t, "LongerTuplesProtected", got.TrickDrawPolicy)

	_, err = store.Preset(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrPresetNotFound)
}

func TestPresetStoreRejectsInvalidRules(t *testing.T) {
	store := NewPresetStore(newFakeDB())
	err := store.Save(context.Background(), models.Preset{Name: "bad", Rules: models.HouseRules{BidPolicy: "Loudest"}})
	assert.Error(t, err)

	err = store.Save(context.Background(), models.Preset{Rules: models.HouseRules{}})
	assert.ErrorContains(t, err, "name is required")
}

func TestPresetStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewPresetStore(newFakeDB())
	require.NoError(t, store.Save(ctx, models.Preset{Name: "b", Rules: models.HouseRules{NumDecks: 3}}))
	require.NoError(t, store.Save(ctx, models.Preset{Name: "a", Description: "first", Rules: models.HouseRules{NumDecks: 2}}))

	presets, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "a", presets[0].Name)
	assert.Equal(t, "first", presets[0].Description)
	assert.Equal(t, 3, presets[1].Rules.NumDecks)
}

func TestPresetStoreBackendFailure(t *testing.T) {
	db := newFakeDB()
	db.err = errors.New("connection reset")
	store := NewPresetStore(db)

	_, err := store.Preset(context.Background(), "any")
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, models.ErrPresetNotFound)
	assert.Error(t, store.Migrate(context.Background()))
	_, err = store.List(context.Background())
	assert.Error(t, err)
}
