// Package database persists rules presets in Postgres.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/findfriends/tractor/service/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS rules_presets (
	name        TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	rules       JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// querier is the subset of *pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PresetStore reads and writes named HouseRules.
type PresetStore struct {
	db querier
}

// NewPresetStore wraps db.
func NewPresetStore(db querier) *PresetStore {
	return &PresetStore{db: db}
}

// Connect opens a pool for url and checks the server answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate creates the presets table if needed.
func (s *PresetStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate rules_presets: %w", err)
	}
	return nil
}

// Preset implements game.PresetSource.
func (s *PresetStore) Preset(ctx context.Context, name string) (models.HouseRules, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT rules FROM rules_presets WHERE name = $1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.HouseRules{}, fmt.Errorf("%w: %q", models.ErrPresetNotFound, name)
	}
	if err != nil {
		return models.HouseRules{}, fmt.Errorf("load preset %q: %w", name, err)
	}
	var h models.HouseRules
	if err := json.Unmarshal(raw, &h); err != nil {
		return models.HouseRules{}, fmt.Errorf("decode preset %q: %w", name, err)
	}
	return h, nil
}

// Save validates p and upserts it.
func (s *PresetStore) Save(ctx context.Context, p models.Preset) error {
	if p.Name == "" {
		return errors.New("preset name is required")
	}
	if _, err := p.Rules.ToEngine(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	raw, err := json.Marshal(p.Rules)
	if err != nil {
		return fmt.Errorf("encode preset %q: %w", p.Name, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO rules_presets (name, description, rules, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description, rules = EXCLUDED.rules, updated_at = now()`,
		p.Name, p.Description, raw)
	if err != nil {
		return fmt.Errorf("save preset %q: %w", p.Name, err)
	}
	return nil
}

// List returns every stored preset ordered by name.
func (s *PresetStore) List(ctx context.Context) ([]models.Preset, error) {
	rows, err := s.db.Query(ctx, `SELECT name, description, rules FROM rules_presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var out []models.Preset
	for rows.Next() {
		var (
			p   models.Preset
			raw []byte
		)
		if err := rows.Scan(&p.Name, &p.Description, &raw); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		if err := json.Unmarshal(raw, &p.Rules); err != nil {
			return nil, fmt.Errorf("decode preset %q: %w", p.Name, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
