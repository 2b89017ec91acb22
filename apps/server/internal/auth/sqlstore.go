package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SQLStore is the database-backed Service. The sqlite and postgres
// constructors differ only in how they open the pool and create the schema;
// queries are shared and rewritten per placeholder style.
type SQLStore struct {
	db         *sql.DB
	postgres   bool
	sessionTTL time.Duration
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders to $N for postgres.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Register(username, password string) (uint64, string, error) {
	if err := validateUsername(username); err != nil {
		return 0, "", err
	}
	if err := validatePassword(password); err != nil {
		return 0, "", err
	}

	normalized := normalizeUsername(username)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", err
	}

	ctx, cancel := opCtx()
	defer cancel()

	nowMs := time.Now().UnixMilli()
	var accountID uint64
	if s.postgres {
		err = s.db.QueryRowContext(ctx, s.rebind(`
INSERT INTO bj_accounts (username, password_hash, created_at_ms, last_login_ms)
VALUES (?, ?, ?, ?)
RETURNING id`), normalized, passwordHash, nowMs, nowMs).Scan(&accountID)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, `
INSERT INTO bj_accounts (username, password_hash, created_at_ms, last_login_ms)
VALUES (?, ?, ?, ?)`, normalized, passwordHash, nowMs, nowMs)
		if err == nil {
			var id int64
			id, err = res.LastInsertId()
			accountID = uint64(id)
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return 0, "", ErrUsernameTaken
		}
		return 0, "", fmt.Errorf("insert account: %w", err)
	}

	token, err := s.issueSession(ctx, accountID)
	if err != nil {
		return 0, "", err
	}
	return accountID, token, nil
}

func (s *SQLStore) Login(username, password string) (uint64, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return 0, "", ErrInvalidCredentials
	}

	ctx, cancel := opCtx()
	defer cancel()

	var (
		accountID    uint64
		passwordHash []byte
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
SELECT id, password_hash FROM bj_accounts WHERE username = ?`), normalized).
		Scan(&accountID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrInvalidCredentials
	}
	if err != nil {
		return 0, "", fmt.Errorf("lookup account: %w", err)
	}
	if bcrypt.CompareHashAndPassword(passwordHash, []byte(password)) != nil {
		return 0, "", ErrInvalidCredentials
	}

	nowMs := time.Now().UnixMilli()
	if _, err := s.db.ExecContext(ctx, s.rebind(`
UPDATE bj_accounts SET last_login_ms = ? WHERE id = ?`), nowMs, accountID); err != nil {
		return 0, "", fmt.Errorf("touch account: %w", err)
	}

	token, err := s.issueSession(ctx, accountID)
	if err != nil {
		return 0, "", err
	}
	return accountID, token, nil
}

func (s *SQLStore) ResolveSession(token string) (uint64, string, bool) {
	if token == "" {
		return 0, "", false
	}

	ctx, cancel := opCtx()
	defer cancel()

	var (
		accountID   uint64
		username    string
		expiresAtMs int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
SELECT s.account_id, a.username, s.expires_at_ms
FROM bj_sessions s
JOIN bj_accounts a ON a.id = s.account_id
WHERE s.token = ?`), token).Scan(&accountID, &username, &expiresAtMs)
	if err != nil {
		return 0, "", false
	}

	now := time.Now()
	if now.UnixMilli() >= expiresAtMs {
		_, _ = s.db.ExecContext(ctx, s.rebind(`DELETE FROM bj_sessions WHERE token = ?`), token)
		return 0, "", false
	}

	newExpiry := now.Add(s.sessionTTL).UnixMilli()
	_, _ = s.db.ExecContext(ctx, s.rebind(`
UPDATE bj_sessions SET expires_at_ms = ? WHERE token = ?`), newExpiry, token)
	return accountID, username, true
}

func (s *SQLStore) Logout(token string) {
	if token == "" {
		return
	}
	ctx, cancel := opCtx()
	defer cancel()
	_, _ = s.db.ExecContext(ctx, s.rebind(`DELETE FROM bj_sessions WHERE token = ?`), token)
}

func (s *SQLStore) issueSession(ctx context.Context, accountID uint64) (string, error) {
	token := mustToken()
	expiresAtMs := time.Now().Add(s.sessionTTL).UnixMilli()
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO bj_sessions (token, account_id, expires_at_ms)
VALUES (?, ?, ?)`), token, accountID, expiresAtMs)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return token, nil
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
