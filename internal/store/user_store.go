package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/models"
)

// SessionDuration is how long a login stays valid.
const SessionDuration = 7 * 24 * time.Hour

// ListUsers retrieves all users from the database, ordered by username.
func (s *Store) ListUsers() ([]*models.User, error) {
	rows, err := s.db.Query("SELECT id, username, role, created_at FROM users ORDER BY username ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Role, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// CreateUser adds a new user to the database. A taken username is a
// conflict.
func (s *Store) CreateUser(username, passwordHash, role string, now time.Time) (*models.User, error) {
	exists, err := s.UsernameExists(username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("Username already taken")
	}

	now = now.UTC()
	query := "INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)"
	res, err := s.db.Exec(query, username, passwordHash, role, now)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &models.User{
		ID:        id,
		Username:  username,
		Role:      role,
		CreatedAt: now,
	}, nil
}

// UsernameExists reports whether the username is taken, ignoring case.
func (s *Store) UsernameExists(username string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE", username).Scan(&count)
	return count > 0, err
}

// DeleteUser removes a user from the database. Cascading deletes will handle
// their sessions, memberships and progress.
func (s *Store) DeleteUser(id int64) error {
	_, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// GetUserByUsername retrieves a user by their unique username.
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := "SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?"
	err := s.db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by their primary key.
func (s *Store) GetUserByID(id int64) (*models.User, error) {
	var user models.User
	query := "SELECT id, username, password_hash, role, created_at FROM users WHERE id = ?"
	err := s.db.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, noRows(err, "user", id)
	}
	return &user, nil
}

// GetUserFromSession retrieves a user based on a session token that has
// not expired as of now.
func (s *Store) GetUserFromSession(token string, now time.Time) (*models.User, error) {
	var userID int64
	var expiry time.Time
	query := "SELECT user_id, expiry FROM sessions WHERE token = ?"
	err := s.db.QueryRow(query, token).Scan(&userID, &expiry)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid session token: %w", apperrors.ErrUnauthorized)
		}
		return nil, err
	}

	if now.After(expiry) {
		s.DeleteSession(token) // Clean up expired session
		return nil, fmt.Errorf("session expired: %w", apperrors.ErrUnauthorized)
	}

	return s.GetUserByID(userID)
}

// CountUsers returns the total number of users in the database.
func (s *Store) CountUsers() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateSession creates a new session for a user, valid for SessionDuration
// from now, and returns the session token.
func (s *Store) CreateSession(userID int64, now time.Time) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)
	expiry := now.UTC().Add(SessionDuration)
	_, err := s.db.Exec("INSERT INTO sessions (token, user_id, expiry) VALUES (?, ?, ?)", token, userID, expiry)
	return token, err
}

// DeleteSession removes a session from the database (used for logout).
func (s *Store) DeleteSession(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpiredSessions removes every login that expired before now and
// returns how many were removed.
func (s *Store) DeleteExpiredSessions(now time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE expiry < ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
