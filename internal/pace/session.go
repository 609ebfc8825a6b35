package pace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/schedule"
)

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	SessionID           string     `json:"session_id"`
	GroupID             int64      `json:"group_id"`
	CurrentPage         int        `json:"current_page"`
	MaxPageReached      int        `json:"max_page_reached"`
	TotalPages          int        `json:"total_pages"`
	ReadingSpeedMinutes int        `json:"reading_speed_minutes"`
	LastReadAt          *time.Time `json:"last_read_at"`
	State               State      `json:"state"`
	RemainingSeconds    int        `json:"remaining_seconds"`
	ProgressPercent     int        `json:"progress_percent"`
	InFlight            bool       `json:"in_flight"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithOnUnlock registers a callback run when the dwell timer runs out. It is
// a wake-up hint only; the unlock decision is made again on every move.
func WithOnUnlock(f func(Snapshot)) Option {
	return func(s *Session) { s.onUnlock = f }
}

// Session is one member reading one group's book.
type Session struct {
	id       string
	groupID  int64
	gw       Gateway
	clock    clockwork.Clock
	onUnlock func(Snapshot)

	mu         sync.Mutex
	confirmed  models.ReadingProgress
	current    int
	inFlight   bool
	closed     bool
	timer      clockwork.Timer
	generation uint64
	lastActive time.Time
}

// Open loads the member's progress through gw and recovers the dwell state
// from the stored LastReadAt. The session starts on the high-water mark.
func Open(ctx context.Context, gw Gateway, groupID int64, opts ...Option) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		groupID: groupID,
		gw:      gw,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}

	p, err := gw.GetProgress(ctx, groupID)
	if err != nil {
		return nil, classify("load progress", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.adopt(p)
	s.current = s.confirmed.MaxPageReached
	s.clampCurrent()
	s.lastActive = s.clock.Now()
	s.arm()
	return s, nil
}

// ID identifies the session.
func (s *Session) ID() string {
	return s.id
}

// GroupID is the group being read.
func (s *Session) GroupID() int64 {
	return s.groupID
}

// LastActive is the last time the member touched the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.clock.Now())
}

// Next moves one page forward.
func (s *Session) Next(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	page := s.current + 1
	s.mu.Unlock()
	return s.GoTo(ctx, page)
}

// Prev moves one page back.
func (s *Session) Prev(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	page := s.current - 1
	s.mu.Unlock()
	return s.GoTo(ctx, page)
}

// GoTo moves to page. Pages up to the high-water mark are local moves. The
// page right after it is stored through the gateway once the dwell time has
// passed. Anything further is rejected.
func (s *Session) GoTo(ctx context.Context, page int) (Snapshot, error) {
	s.mu.Lock()
	now := s.clock.Now()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.lastActive = now

	total := s.confirmed.TotalPages
	high := s.confirmed.MaxPageReached
	switch {
	case page < 1 || page > total:
		s.mu.Unlock()
		return Snapshot{}, apperrors.Validation("Page %d is outside 1-%d", page, total)
	case page <= high:
		s.current = page
		snap := s.snapshot(now)
		s.mu.Unlock()
		return snap, nil
	case page > high+1:
		s.mu.Unlock()
		return Snapshot{}, apperrors.Validation("Page %d has not been unlocked, the next new page is %d", page, high+1)
	case !s.confirmed.SpeedSet():
		s.mu.Unlock()
		return Snapshot{}, apperrors.Validation("Choose a reading pace before moving to a new page")
	case !CanAdvance(now, s.confirmed.LastReadAt, s.confirmed.ReadingSpeedMinutes):
		s.mu.Unlock()
		return Snapshot{}, ErrDwellPending
	}

	s.inFlight = true
	s.mu.Unlock()

	p, err := s.gw.SetCurrentPage(ctx, s.groupID, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return s.snapshot(s.clock.Now()), classify("save page", err)
	}
	s.adopt(p)
	s.current = page
	s.clampCurrent()
	s.arm()
	return s.snapshot(s.clock.Now()), nil
}

// SetPace records the member's reading pace. The dwell window starts when
// the gateway confirms it.
func (s *Session) SetPace(ctx context.Context, minutes int) (Snapshot, error) {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.lastActive = s.clock.Now()
	if !models.IsValidReadingSpeed(minutes) {
		s.mu.Unlock()
		return Snapshot{}, apperrors.Validation("Reading speed must be between 1 and 5 minutes per page")
	}
	if s.confirmed.SpeedSet() {
		s.mu.Unlock()
		return Snapshot{}, apperrors.Conflict("Reading pace is already set")
	}
	s.inFlight = true
	s.mu.Unlock()

	p, err := s.gw.SetReadingSpeed(ctx, s.groupID, minutes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return s.snapshot(s.clock.Now()), classify("save reading speed", err)
	}
	s.adopt(p)
	s.arm()
	return s.snapshot(s.clock.Now()), nil
}

// Refresh reloads the stored progress, picking up changes made by another
// session of the same member.
func (s *Session) Refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.inFlight = true
	s.mu.Unlock()

	p, err := s.gw.GetProgress(ctx, s.groupID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return s.snapshot(s.clock.Now()), classify("load progress", err)
	}
	s.adopt(p)
	s.clampCurrent()
	s.arm()
	return s.snapshot(s.clock.Now()), nil
}

// Close stores the high-water mark and ends the session. The current page
// is not written, so browsing backwards never regresses stored progress.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrNavigationInProgress
	}
	s.closed = true
	s.cancelTimer()
	high := s.confirmed.MaxPageReached
	s.mu.Unlock()

	if high < 1 {
		return nil
	}
	if _, err := s.gw.SetCurrentPage(ctx, s.groupID, high); err != nil {
		return classify("save page on close", err)
	}
	return nil
}

// Stop ends the session without writing anything.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelTimer()
}

// Closed reports whether Close or Stop has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) ready() error {
	if s.closed {
		return ErrClosed
	}
	if s.inFlight {
		return ErrNavigationInProgress
	}
	return nil
}

func (s *Session) adopt(p *models.ReadingProgress) {
	if p == nil {
		return
	}
	s.confirmed = *p
}

// clampCurrent keeps the displayed page at or below the high-water mark.
func (s *Session) clampCurrent() {
	if s.current > s.confirmed.MaxPageReached {
		s.current = s.confirmed.MaxPageReached
	}
	if s.current < 1 {
		s.current = 1
	}
}

// arm replaces the wake-up timer with one for the remaining dwell time.
// Must be called with mu held.
func (s *Session) arm() {
	s.cancelTimer()
	if s.closed || !s.confirmed.SpeedSet() {
		return
	}
	left := Remaining(s.clock.Now(), s.confirmed.LastReadAt, s.confirmed.ReadingSpeedMinutes)
	if left <= 0 {
		return
	}
	gen := s.generation
	s.timer = s.clock.AfterFunc(left, func() { s.fire(gen) })
}

func (s *Session) cancelTimer() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	snap := s.snapshot(s.clock.Now())
	cb := s.onUnlock
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

func (s *Session) snapshot(now time.Time) Snapshot {
	p := s.confirmed
	return Snapshot{
		SessionID:           s.id,
		GroupID:             s.groupID,
		CurrentPage:         s.current,
		MaxPageReached:      p.MaxPageReached,
		TotalPages:          p.TotalPages,
		ReadingSpeedMinutes: p.ReadingSpeedMinutes,
		LastReadAt:          p.LastReadAt,
		State:               StateOf(now, &p),
		RemainingSeconds:    int((Remaining(now, p.LastReadAt, p.ReadingSpeedMinutes) + time.Second - 1) / time.Second),
		ProgressPercent:     schedule.ActualPercent(p.MaxPageReached, p.TotalPages),
		InFlight:            s.inFlight,
	}
}
