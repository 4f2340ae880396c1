package db

import (
	"database/sql/driver"
	"testing"
)

func TestUpdateUserPasswordBurnsToken(t *testing.T) {
	script := &dbScript{
		responses: []*scriptResponse{
			{rowsAffected: 1},
			{rowsAffected: 1},
		},
	}
	db := newScriptedDB(script)

	if err := db.UpdateUserPassword(5, "tok-1", "hashed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if script.findExecuted("password = ?") == nil {
		t.Fatal("expected the password update to run")
	}
	used := script.findExecuted("used = true")
	if used == nil {
		t.Fatal("expected the remember token to be marked used in the same transaction")
	}
	if script.commits != 1 {
		t.Fatalf("expected 1 commit, got %d", script.commits)
	}
	if script.rollbacks != 0 {
		t.Fatalf("expected no rollback, got %d", script.rollbacks)
	}
}

func TestGetUserIDByRememberTokenUsedToken(t *testing.T) {
	script := &dbScript{
		responses: []*scriptResponse{
			{cols: []string{"id"}, rows: [][]driver.Value{}},
		},
	}
	db := newScriptedDB(script)

	userID, err := db.GetUserIDByRememberToken("buyer@example.com", "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != 0 {
		t.Fatalf("expected no user for a burnt token, got %d", userID)
	}
}
