package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

var ErrNotFound = sql.ErrNoRows

// PolicyText is the extracted text of one insurer policy document.
// Key: (FileHash, Engine, Model).
type PolicyText struct {
	FileHash  string
	Engine    string
	Model     string
	Filename  string
	Text      string
	CreatedAt time.Time
}

// PolicyTextCache stores extracted insurer policy texts. Bills and audit
// results are never stored.
type PolicyTextCache interface {
	// Find returns ErrNotFound when there is no entry or it is older than maxAge (maxAge > 0).
	Find(ctx context.Context, fileHash, engine, model string, maxAge time.Duration) (PolicyText, error)
	Upsert(ctx context.Context, pt PolicyText) error
}

// Open connects to Postgres through the pgx stdlib driver and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenCache returns the Postgres-backed cache when dsn is set (migrating the
// table first), otherwise an in-memory LRU. db is nil for the memory cache.
func OpenCache(ctx context.Context, dsn string, memSize int) (cache PolicyTextCache, db *sql.DB, err error) {
	if dsn == "" {
		mc, err := NewMemoryCache(memSize)
		return mc, nil, err
	}
	db, err = Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	repo := NewPolicyRepo(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return repo, db, nil
}
