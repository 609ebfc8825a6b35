// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/models"
)

// Store provides all functions to interact with the database.
type Store struct {
	db         *sql.DB
	maxMembers int
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db, maxMembers: models.DefaultMaxMembers}
}

// SetMaxMembers changes the member cap used when joining groups.
func (s *Store) SetMaxMembers(n int) {
	if n > 0 {
		s.maxMembers = n
	}
}

// MaxMembers returns the member cap of a group.
func (s *Store) MaxMembers() int {
	return s.maxMembers
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, apperrors.ErrNotFound)
}

// noRows maps sql.ErrNoRows to a NotFound error and passes anything else
// through.
func noRows(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(what, id)
	}
	return err
}

// nullTime converts a nullable column into a pointer.
func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

type scanner interface {
	Scan(dest ...interface{}) error
}
