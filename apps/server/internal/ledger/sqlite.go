package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "blackjack_local.db"

func ledgerLocalDatabasePathFromEnv() (string, error) {
	if raw := strings.TrimSpace(os.Getenv("LEDGER_SQLITE_PATH")); raw != "" {
		return raw, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, defaultLocalDBName), nil
}

func NewSQLiteServiceFromEnv() (Service, error) {
	dbPath, err := ledgerLocalDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteService(dbPath)
}

func NewSQLiteService(dbPath string) (Service, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlService{db: db, limit: defaultRecentLimit}, nil
}

func ensureSQLiteLedgerSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS bj_rounds (
    round_id      TEXT PRIMARY KEY,
    account_id    INTEGER NOT NULL,
    played_at_ms  INTEGER NOT NULL,
    outcome       TEXT NOT NULL,
    reward        REAL NOT NULL,
    player_cards  TEXT NOT NULL,
    dealer_cards  TEXT NOT NULL,
    player_sum    INTEGER NOT NULL,
    dealer_sum    INTEGER NOT NULL,
    running_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bj_rounds_account ON bj_rounds(account_id, played_at_ms);
`)
	return err
}
