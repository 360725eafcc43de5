package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultProfileKey is the row PostgresStore uses when no key is configured.
const DefaultProfileKey = "default"

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS thesis_profiles (
	profile_key  TEXT PRIMARY KEY,
	project_name TEXT NOT NULL DEFAULT '',
	major        TEXT NOT NULL DEFAULT '',
	education    TEXT NOT NULL DEFAULT '',
	topic        TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresConfig holds connection settings for PostgresStore.
type PostgresConfig struct {
	DSN             string
	Key             string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

func (c *PostgresConfig) defaults() {
	if c.Key == "" {
		c.Key = DefaultProfileKey
	}
	if c.MaxConns == 0 {
		c.MaxConns = 4
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 5 * time.Minute
	}
}

// PostgresStore keeps the profile in one row of the thesis_profiles table.
// The table is created on first connect.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to cfg.DSN and ensures the schema exists.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := pool.Exec(ctx, createProfilesTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating profile table: %w", err)
	}

	return &PostgresStore{pool: pool, key: cfg.Key}, nil
}

// Load reads the stored profile. A missing row loads as the zero profile.
func (s *PostgresStore) Load(ctx context.Context) (Profile, error) {
	var (
		p         Profile
		education string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT project_name, major, education, topic
		FROM thesis_profiles
		WHERE profile_key = $1
	`, s.key).Scan(&p.ProjectName, &p.Major, &education, &p.Topic)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile %q: %w", s.key, err)
	}
	p.Education = Education(education)
	return p, nil
}

// Save upserts the profile row.
func (s *PostgresStore) Save(ctx context.Context, p Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO thesis_profiles (profile_key, project_name, major, education, topic, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (profile_key) DO UPDATE SET
			project_name = EXCLUDED.project_name,
			major        = EXCLUDED.major,
			education    = EXCLUDED.education,
			topic        = EXCLUDED.topic,
			updated_at   = EXCLUDED.updated_at
	`, s.key, p.ProjectName, p.Major, string(p.Education), p.Topic)
	if err != nil {
		return fmt.Errorf("saving profile %q: %w", s.key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
