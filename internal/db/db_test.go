package db_test

import (
	"testing"

	"github.com/vrsandeep/readalong/internal/testutil"
)

func TestForeignKeyCascadeDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var foreignKeysEnabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeysEnabled)
	if err != nil {
		t.Fatalf("Failed to check foreign keys status: %v", err)
	}
	if foreignKeysEnabled != 1 {
		t.Errorf("Foreign keys should be enabled, got: %d", foreignKeysEnabled)
	}

	mustExec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("Failed to run %q: %v", query, err)
		}
	}
	mustExec("INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)", "creator", "hash", "user")
	mustExec("INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)", "reader", "hash", "user")
	mustExec("INSERT INTO books (title, author, total_pages, total_chapters) VALUES (?, ?, ?, ?)", "Dune", "Herbert", 100, 2)
	mustExec("INSERT INTO chapters (book_id, chapter_number, title) VALUES (1, 1, 'Chapter 1')")
	mustExec("INSERT INTO reading_groups (name, book_id, creator_id, start_date, end_date) VALUES ('Club', 1, 1, '2024-01-01', '2024-01-11')")
	mustExec("INSERT INTO group_memberships (user_id, group_id) VALUES (2, 1)")
	mustExec("INSERT INTO reading_progress (user_id, group_id) VALUES (2, 1)")
	mustExec("INSERT INTO chapter_schedules (user_id, group_id, chapter_id, target_completion_date) VALUES (2, 1, 1, '2024-01-05')")

	count := func(table string) int {
		t.Helper()
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		return n
	}

	// Deleting the reader removes their membership, progress and schedules.
	mustExec("DELETE FROM users WHERE id = 2")
	for _, table := range []string{"group_memberships", "reading_progress", "chapter_schedules"} {
		if n := count(table); n != 0 {
			t.Errorf("Expected 0 rows in %s after user deletion, got %d", table, n)
		}
	}

	// Deleting the book removes its chapters and groups.
	mustExec("DELETE FROM books WHERE id = 1")
	for _, table := range []string{"chapters", "reading_groups"} {
		if n := count(table); n != 0 {
			t.Errorf("Expected 0 rows in %s after book deletion, got %d", table, n)
		}
	}
}
