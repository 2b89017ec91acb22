package policystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"blackjack-lite/agent"
)

type sqliteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (Service, error) {
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
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS bj_policies (
    name          TEXT PRIMARY KEY,
    blob          TEXT NOT NULL,
    decisions     INTEGER NOT NULL,
    updated_at_ms INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Save(ctx context.Context, name string, policy *agent.TablePolicy) error {
	name = strings.TrimSpace(name)
	if name == "" || policy == nil {
		return fmt.Errorf("empty policy name or nil policy")
	}
	blob, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
INSERT INTO bj_policies (name, blob, decisions, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
    blob = excluded.blob,
    decisions = excluded.decisions,
    updated_at_ms = excluded.updated_at_ms
`, name, string(blob), policy.Len(), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, name string) (*agent.TablePolicy, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM bj_policies WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	var policy agent.TablePolicy
	if err := json.Unmarshal([]byte(blob), &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (s *sqliteStore) List(ctx context.Context) ([]PolicyInfo, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT name, decisions, updated_at_ms FROM bj_policies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []PolicyInfo
	for rows.Next() {
		var (
			info        PolicyInfo
			updatedAtMs int64
		)
		if err := rows.Scan(&info.Name, &info.Decisions, &updatedAtMs); err != nil {
			return nil, err
		}
		info.UpdatedAt = time.UnixMilli(updatedAtMs).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}
