package auth

import "testing"

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteRegisterLoginResolve(t *testing.T) {
	store := newTestStore(t)

	accountID, token, err := store.Register("db_player", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if accountID == 0 || token == "" {
		t.Fatalf("empty identity: id=%d token=%q", accountID, token)
	}

	gotID, username, ok := store.ResolveSession(token)
	if !ok || gotID != accountID || username != "db_player" {
		t.Fatalf("ResolveSession = (%d, %q, %v)", gotID, username, ok)
	}

	loginID, loginToken, err := store.Login("db_player", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loginID != accountID || loginToken == token {
		t.Fatalf("login = (%d, %q)", loginID, loginToken)
	}
}

func TestSQLiteDuplicateUsername(t *testing.T) {
	store := newTestStore(t)

	if _, _, err := store.Register("db_taken", "secret123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := store.Register("db_taken", "another123"); err != ErrUsernameTaken {
		t.Fatalf("duplicate register: %v", err)
	}
}

func TestSQLiteLogout(t *testing.T) {
	store := newTestStore(t)

	_, token, err := store.Register("db_logout", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.Logout(token)
	if _, _, ok := store.ResolveSession(token); ok {
		t.Fatal("session survived logout")
	}
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	s := &SQLStore{postgres: true}
	got := s.rebind(`SELECT a FROM t WHERE b = ? AND c = ?`)
	want := `SELECT a FROM t WHERE b = $1 AND c = $2`
	if got != want {
		t.Fatalf("rebind = %q, want %q", got, want)
	}

	s.postgres = false
	if got := s.rebind(`? ?`); got != `? ?` {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}
