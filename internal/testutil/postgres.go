// Package testutil provides test helpers, including PostgreSQL container
// management for repository tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emberfall-rpg/emberfall/internal/config"
	"github.com/emberfall-rpg/emberfall/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available; the test is skipped when
// EMBERFALL_SKIP_DB_TESTS is set.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	if os.Getenv("EMBERFALL_SKIP_DB_TESTS") != "" {
		t.Skip("EMBERFALL_SKIP_DB_TESTS is set")
	}
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplyMigrations runs the schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment.
//
// Precondition: Pool must be connected.
// Postcondition: The roster tables exist in the test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS parties (
			id         UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
			name       VARCHAR(64) NOT NULL UNIQUE,
			gold       INTEGER     NOT NULL DEFAULT 0 CHECK (gold >= 0),
			gems       INTEGER     NOT NULL DEFAULT 0 CHECK (gems >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS characters (
			id               UUID        PRIMARY KEY,
			party_id         UUID        NOT NULL REFERENCES parties(id) ON DELETE CASCADE,
			name             VARCHAR(64) NOT NULL,
			class            VARCHAR(16) NOT NULL,
			level            INTEGER     NOT NULL CHECK (level >= 1),
			experience       INTEGER     NOT NULL DEFAULT 0 CHECK (experience >= 0),
			max_hp           INTEGER     NOT NULL CHECK (max_hp >= 1),
			hp               INTEGER     NOT NULL CHECK (hp >= 0),
			max_sp           INTEGER     NOT NULL DEFAULT 0 CHECK (max_sp >= 0),
			sp               INTEGER     NOT NULL DEFAULT 0 CHECK (sp >= 0),
			armor_class      INTEGER     NOT NULL,
			speed            INTEGER     NOT NULL CHECK (speed >= 1),
			accuracy         INTEGER     NOT NULL DEFAULT 0,
			damage_bonus     INTEGER     NOT NULL DEFAULT 0,
			attack_name      VARCHAR(64) NOT NULL,
			attack_damage    VARCHAR(16) NOT NULL,
			attacks_per_turn INTEGER     NOT NULL DEFAULT 1 CHECK (attacks_per_turn >= 1),
			known_spells     TEXT[]      NOT NULL DEFAULT '{}',
			position         INTEGER     NOT NULL CHECK (position >= 0),
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (party_id, position) DEFERRABLE INITIALLY DEFERRED
		);
		CREATE INDEX IF NOT EXISTS idx_characters_party ON characters (party_id);
		CREATE TABLE IF NOT EXISTS character_items (
			character_id UUID        NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
			slot         INTEGER     NOT NULL CHECK (slot >= 0),
			item_id      VARCHAR(64) NOT NULL,
			charges_left INTEGER     NOT NULL CHECK (charges_left >= 0),
			PRIMARY KEY (character_id, slot)
		);
		CREATE TABLE IF NOT EXISTS character_conditions (
			character_id UUID        NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
			condition_id VARCHAR(64) NOT NULL,
			magnitude    INTEGER     NOT NULL,
			remaining    INTEGER     NOT NULL CHECK (remaining >= 1),
			PRIMARY KEY (character_id, condition_id)
		);`

	if _, err := pc.RawPool.Exec(ctx, schema); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	t.Logf("schema applied [%s]", time.Since(start))
}
