package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/auth"
	"github.com/vrsandeep/readalong/internal/store"
	"github.com/vrsandeep/readalong/internal/testutil"
)

func TestUserStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	passwordHash, _ := auth.HashPassword("Password123")

	t.Run("Create User Success", func(t *testing.T) {
		user, err := s.CreateUser("testuser", passwordHash, "user", testutil.Start)
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.Username != "testuser" {
			t.Errorf("Expected username 'testuser', got '%s'", user.Username)
		}
		if !user.CreatedAt.Equal(testutil.Start) {
			t.Errorf("Expected created_at %v, got %v", testutil.Start, user.CreatedAt)
		}
	})

	t.Run("Create User with Duplicate Username", func(t *testing.T) {
		_, err := s.CreateUser("TestUser", passwordHash, "user", testutil.Start)
		if !errors.Is(err, apperrors.ErrConflict) {
			t.Fatalf("Expected a conflict for a duplicate username, got %v", err)
		}
	})

	t.Run("Get User By Username", func(t *testing.T) {
		user, err := s.GetUserByUsername("testuser")
		if err != nil {
			t.Fatalf("GetUserByUsername failed: %v", err)
		}
		if !auth.CheckPasswordHash("Password123", user.PasswordHash) {
			t.Error("Password hash does not match")
		}
	})

	t.Run("Get Non-existent User", func(t *testing.T) {
		_, err := s.GetUserByUsername("nonexistent")
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("Expected NotFound for a missing user, got %v", err)
		}
	})

	t.Run("Username Exists", func(t *testing.T) {
		exists, err := s.UsernameExists("TESTUSER")
		if err != nil || !exists {
			t.Errorf("Expected username to exist, got %v (%v)", exists, err)
		}
		exists, _ = s.UsernameExists("someone-else")
		if exists {
			t.Error("Expected unknown username to be available")
		}
	})
}

func TestUserStore_Sessions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	user := testutil.CreateUser(t, s, "reader")
	now := testutil.Start

	token, err := s.CreateSession(user.ID, now)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := s.GetUserFromSession(token, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetUserFromSession failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, got.ID)
	}

	if _, err := s.GetUserFromSession("bogus", now); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("Expected Unauthorized for an unknown token, got %v", err)
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := s.GetUserFromSession(token, now); err == nil {
		t.Error("Expected error after logout, got nil")
	}
}

func TestUserStore_SessionExpiresByGivenTime(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	user := testutil.CreateUser(t, s, "reader")

	token, err := s.CreateSession(user.ID, testutil.Start)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Validity is measured from the time the session was created with, not
	// from the wall clock.
	if _, err := s.GetUserFromSession(token, testutil.Start.Add(store.SessionDuration-time.Minute)); err != nil {
		t.Fatalf("Expected session to be valid just before expiry, got %v", err)
	}
	_, err = s.GetUserFromSession(token, testutil.Start.Add(store.SessionDuration+time.Minute))
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("Expected Unauthorized after expiry, got %v", err)
	}
}

func TestUserStore_DeleteExpiredSessions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	user := testutil.CreateUser(t, s, "reader")

	if _, err := s.CreateSession(user.ID, testutil.Start); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	_, err := db.Exec("INSERT INTO sessions (token, user_id, expiry) VALUES (?, ?, ?)", "old", user.ID, testutil.Start.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to insert expired session: %v", err)
	}

	removed, err := s.DeleteExpiredSessions(testutil.Start)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 expired session removed, got %d", removed)
	}
	count, _ := s.CountUsers()
	if count != 1 {
		t.Errorf("Expected users to be untouched, got %d", count)
	}
}
