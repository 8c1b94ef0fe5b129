package zipstock

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is the inventory data layer over a single embedded SQLite file.
// All operations run synchronously on the caller's goroutine; the only
// multi-statement operation is the write-off transition, which runs in a
// transaction.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if necessary) the database at cfg.Database.Path,
// applies pending schema migrations and optionally seeds the default
// catalog. A nil logger disables logging.
func Open(cfg Config, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	path := cfg.Database.Path
	if path == "" {
		path = DefaultConfig().Database.Path
	}
	busy := cfg.Database.BusyTimeoutMS
	if busy <= 0 {
		busy = DefaultConfig().Database.BusyTimeoutMS
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("%s%s_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=1", path, sep, busy))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single logical connection: one desktop process, no concurrent writers.
	db.SetMaxOpenConns(1)

	// Explicitly set WAL mode (some drivers don't parse connection string params correctly)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busy)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.SeedDefaults {
		s.seedDefaults()
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
