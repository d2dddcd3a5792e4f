package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/florianilch/postbot/internal/credentials"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS postbot_credentials (
		id            SMALLINT PRIMARY KEY,
		access_token  TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore keeps the token set in a single-row PostgreSQL table.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check to ensure PostgresStore implements credentials.Persister
var _ credentials.Persister = (*PostgresStore)(nil)

// NewPostgresStore connects to the database at url and creates the table if needed.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	if url == "" {
		return nil, fmt.Errorf("database url cannot be empty")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create credentials table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Load returns the stored token set.
func (p *PostgresStore) Load(ctx context.Context) (credentials.TokenSet, error) {
	query := `SELECT access_token, refresh_token, expires_at FROM postbot_credentials WHERE id = $1`

	var ts credentials.TokenSet
	err := p.db.QueryRowContext(ctx, query, credentialRowID).Scan(&ts.AccessToken, &ts.RefreshToken, &ts.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return credentials.TokenSet{}, credentials.ErrNoTokenSet
	}
	if err != nil {
		return credentials.TokenSet{}, fmt.Errorf("select credentials: %w", err)
	}
	return ts, nil
}

// Save upserts the token set row.
func (p *PostgresStore) Save(ctx context.Context, ts credentials.TokenSet) error {
	query := `
		INSERT INTO postbot_credentials (id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`

	if _, err := p.db.ExecContext(ctx, query, credentialRowID, ts.AccessToken, ts.RefreshToken, ts.ExpiresAt); err != nil {
		return fmt.Errorf("upsert credentials: %w", err)
	}
	return nil
}

// Delete removes the token set row.
func (p *PostgresStore) Delete(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM postbot_credentials WHERE id = $1`, credentialRowID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
