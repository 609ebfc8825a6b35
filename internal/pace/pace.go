// Package pace enforces the per-page dwell time a member commits to when
// choosing a reading pace.
//
// A Session tracks one member in one group. Pages at or below the
// high-water mark can be revisited freely. Reaching a new page requires the
// chosen number of minutes to have passed since the last new page, and is
// only adopted once the gateway has stored it. Timer-affecting fields
// (LastReadAt, ReadingSpeedMinutes) are never taken from anything but a
// gateway response, so reopening a session always recovers the same state.
package pace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/models"
)

// State is where a session stands with respect to its dwell timer.
type State string

const (
	// Unset means no pace has been chosen yet.
	Unset State = "unset"
	// Locked means the dwell time for the current new page is still running.
	Locked State = "locked"
	// Unlocked means the next new page may be reached.
	Unlocked State = "unlocked"
)

var (
	ErrDwellPending         = apperrors.Conflict("Keep reading, the next page unlocks when your reading time is up")
	ErrNavigationInProgress = apperrors.Conflict("A page change is already in progress")
	ErrClosed               = apperrors.Conflict("Reading session is closed")
)

// SyncError is returned when the gateway could not store a change. Local
// state is left untouched and nothing is retried.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is makes every SyncError match apperrors.ErrTransientSync.
func (e *SyncError) Is(target error) bool {
	return target == apperrors.ErrTransientSync
}

// Gateway is the part of the progress gateway a session needs.
type Gateway interface {
	GetProgress(ctx context.Context, groupID int64) (*models.ReadingProgress, error)
	SetReadingSpeed(ctx context.Context, groupID int64, minutes int) (*models.ReadingProgress, error)
	SetCurrentPage(ctx context.Context, groupID int64, page int) (*models.ReadingProgress, error)
}

// CanAdvance reports whether a new page may be reached at now.
func CanAdvance(now time.Time, lastReadAt *time.Time, speedMinutes int) bool {
	return Remaining(now, lastReadAt, speedMinutes) == 0
}

// Remaining is how much dwell time is left at now. It is zero when no page
// has been reached yet or the wait is over.
func Remaining(now time.Time, lastReadAt *time.Time, speedMinutes int) time.Duration {
	if lastReadAt == nil {
		return 0
	}
	left := lastReadAt.Add(time.Duration(speedMinutes) * time.Minute).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// StateOf derives the state of p at now.
func StateOf(now time.Time, p *models.ReadingProgress) State {
	if p == nil || !p.SpeedSet() {
		return Unset
	}
	if CanAdvance(now, p.LastReadAt, p.ReadingSpeedMinutes) {
		return Unlocked
	}
	return Locked
}

// classify keeps domain rejections from the gateway as they are and turns
// everything else into a SyncError.
func classify(op string, err error) error {
	for _, known := range []error{
		apperrors.ErrNotAMember,
		apperrors.ErrNotFound,
		apperrors.ErrValidation,
		apperrors.ErrConflict,
		apperrors.ErrUnauthorized,
	} {
		if errors.Is(err, known) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return &SyncError{Op: op, Err: err}
}
