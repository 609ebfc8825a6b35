package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/chapterstatus"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/pace"
	"github.com/vrsandeep/readalong/internal/reminder"
	"github.com/vrsandeep/readalong/internal/store"
)

// Service builds per-member gateways over one store.
type Service struct {
	store *store.Store
	clock clockwork.Clock
	loc   *time.Location
}

// NewService creates a Service. Calendar days are taken in loc.
func NewService(st *store.Store, c clockwork.Clock, loc *time.Location) *Service {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: st, clock: c, loc: loc}
}

// ForUser returns the gateway acting as userID.
func (s *Service) ForUser(userID int64) *Local {
	return &Local{Service: s, userID: userID}
}

// Now is the current time in the configured location.
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Local serves one member from the database. It enforces the same dwell
// and high-water mark rules as the reading engine, so a stale or hostile
// client cannot skip ahead.
type Local struct {
	*Service
	userID int64
}

var _ ProgressSync = (*Local)(nil)
var _ pace.Gateway = (*Local)(nil)

// GetProgress returns the member's progress, creating it on first access.
func (l *Local) GetProgress(ctx context.Context, groupID int64) (*models.ReadingProgress, error) {
	if _, err := l.store.RequireMember(l.userID, groupID); err != nil {
		return nil, err
	}
	return l.store.GetOrCreateProgress(l.userID, groupID, l.clock.Now())
}

// SetReadingSpeed records the member's pace and starts the dwell window.
func (l *Local) SetReadingSpeed(ctx context.Context, groupID int64, minutes int) (*models.ReadingProgress, error) {
	if !models.IsValidReadingSpeed(minutes) {
		return nil, apperrors.Validation("Reading speed must be between 1 and 5 minutes per page")
	}
	if _, err := l.GetProgress(ctx, groupID); err != nil {
		return nil, err
	}
	ok, err := l.store.SetReadingSpeed(l.userID, groupID, minutes, l.clock.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Conflict("Reading pace is already set")
	}
	return l.store.GetProgress(l.userID, groupID)
}

// SetCurrentPage stores the page on screen. A page past the high-water mark
// must be the next one, and only once the dwell time has passed.
func (l *Local) SetCurrentPage(ctx context.Context, groupID int64, page int) (*models.ReadingProgress, error) {
	p, err := l.GetProgress(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if page < 1 || page > p.TotalPages {
		return nil, apperrors.Validation("Page must be between 1 and %d", p.TotalPages)
	}

	now := l.clock.Now()
	if page <= p.MaxPageReached {
		if err := l.store.SetCurrentPage(l.userID, groupID, page, now); err != nil {
			return nil, err
		}
		return l.store.GetProgress(l.userID, groupID)
	}

	switch {
	case page > p.MaxPageReached+1:
		return nil, apperrors.Validation("Page %d has not been unlocked yet", page)
	case !p.SpeedSet():
		return nil, apperrors.Validation("Choose a reading pace before moving to a new page")
	case !pace.CanAdvance(now, p.LastReadAt, p.ReadingSpeedMinutes):
		return nil, pace.ErrDwellPending
	}

	ok, err := l.store.AdvancePage(l.userID, groupID, page, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Conflict("Progress changed while saving, reload and try again")
	}
	return l.store.GetProgress(l.userID, groupID)
}

// Chapters returns the outline of the group's book.
func (l *Local) Chapters(ctx context.Context, groupID int64) (*GroupChapters, error) {
	g, err := l.store.RequireMember(l.userID, groupID)
	if err != nil {
		return nil, err
	}
	book, err := l.store.GetBook(g.BookID)
	if err != nil {
		return nil, err
	}
	return &GroupChapters{
		BookID:         book.ID,
		BookTitle:      book.Title,
		TotalChapters:  book.TotalChapters,
		GroupStartDate: g.StartDate,
		GroupEndDate:   g.EndDate,
		Chapters:       book.Chapters,
	}, nil
}

// ListChapterSchedules returns the member's schedules with their status.
func (l *Local) ListChapterSchedules(ctx context.Context, groupID int64) ([]*models.ChapterSchedule, error) {
	if _, err := l.store.RequireMember(l.userID, groupID); err != nil {
		return nil, err
	}
	list, err := l.store.ListChapterSchedules(l.userID, groupID)
	if err != nil {
		return nil, err
	}
	chapterstatus.Annotate(l.Now(), list)
	return list, nil
}

// UpsertChapterSchedules saves every valid item and reports every invalid
// one in Errors. Saved items stay saved even when others are rejected.
func (l *Local) UpsertChapterSchedules(ctx context.Context, groupID int64, items []models.ChapterScheduleInput) (*models.UpsertResult, error) {
	g, err := l.store.RequireMember(l.userID, groupID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.Validation("No schedules provided")
	}

	result := &models.UpsertResult{Schedules: []*models.ChapterSchedule{}, Errors: []string{}}
	var accepted []store.ChapterTarget
	for _, item := range items {
		target, reason := l.checkScheduleItem(g, item)
		if reason != "" {
			result.Errors = append(result.Errors, reason)
			continue
		}
		accepted = append(accepted, store.ChapterTarget{ChapterID: item.ChapterID, Target: target})
	}

	saved, err := l.store.UpsertChapterSchedules(l.userID, groupID, accepted, l.clock.Now())
	if err != nil {
		return nil, err
	}
	chapterstatus.Annotate(l.Now(), saved)
	result.Schedules = saved
	result.Created = len(saved)
	return result, nil
}

func (l *Local) checkScheduleItem(g *models.Group, item models.ChapterScheduleInput) (models.Date, string) {
	raw := strings.TrimSpace(item.TargetCompletionDate)
	if item.ChapterID == 0 || raw == "" {
		return models.Date{}, "Missing chapter or date in schedule"
	}
	chapter, err := l.store.GetChapter(g.BookID, item.ChapterID)
	if err != nil {
		return models.Date{}, fmt.Sprintf("Chapter %d not found", item.ChapterID)
	}
	target, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, fmt.Sprintf("Chapter %d: Invalid date %q", chapter.ChapterNumber, raw)
	}
	if reason := dateOutsideGroup(g, target); reason != "" {
		return models.Date{}, fmt.Sprintf("Chapter %d: %s", chapter.ChapterNumber, reason)
	}
	return target, ""
}

func dateOutsideGroup(g *models.Group, d models.Date) string {
	if d.Before(g.StartDate.Time) || d.After(g.EndDate.Time) {
		return fmt.Sprintf("Date must be between %s and %s", g.StartDate, g.EndDate)
	}
	return ""
}

// ToggleChapterCompletion marks a schedule done or not done.
func (l *Local) ToggleChapterCompletion(ctx context.Context, groupID, scheduleID int64, completed bool) (*models.ChapterSchedule, error) {
	return l.UpdateChapterSchedule(ctx, groupID, scheduleID, ScheduleUpdate{Completed: &completed})
}

// UpdateChapterSchedule moves a schedule's target date and/or changes its
// completion. CompletedAt is stamped only when it becomes completed.
func (l *Local) UpdateChapterSchedule(ctx context.Context, groupID, scheduleID int64, upd ScheduleUpdate) (*models.ChapterSchedule, error) {
	g, err := l.store.RequireMember(l.userID, groupID)
	if err != nil {
		return nil, err
	}
	cs, err := l.store.GetChapterSchedule(l.userID, groupID, scheduleID)
	if err != nil {
		return nil, err
	}

	if upd.TargetCompletionDate != nil && strings.TrimSpace(*upd.TargetCompletionDate) != "" {
		target, err := models.ParseDate(strings.TrimSpace(*upd.TargetCompletionDate))
		if err != nil {
			return nil, apperrors.Validation("Invalid date %q", *upd.TargetCompletionDate)
		}
		if reason := dateOutsideGroup(g, target); reason != "" {
			return nil, apperrors.Validation("%s", reason)
		}
		cs.TargetCompletionDate = &target
	}

	now := l.clock.Now()
	if upd.Completed != nil {
		switch {
		case *upd.Completed && !cs.Completed:
			stamp := now.UTC()
			cs.CompletedAt = &stamp
		case !*upd.Completed:
			cs.CompletedAt = nil
		}
		cs.Completed = *upd.Completed
	}

	if err := l.store.UpdateChapterSchedule(cs, now); err != nil {
		return nil, err
	}
	status := chapterstatus.Resolve(l.Now(), cs)
	cs.Status = &status
	return cs, nil
}

// DeleteChapterSchedule removes one of the member's schedules.
func (l *Local) DeleteChapterSchedule(ctx context.Context, groupID, scheduleID int64) error {
	if _, err := l.store.RequireMember(l.userID, groupID); err != nil {
		return err
	}
	return l.store.DeleteChapterSchedule(l.userID, groupID, scheduleID)
}

// ListGroupsForMember returns the groups the member belongs to.
func (l *Local) ListGroupsForMember(ctx context.Context) ([]*models.Group, error) {
	return l.store.ListGroupsForUser(l.userID)
}

// ListProgress returns the member's progress in every group.
func (l *Local) ListProgress(ctx context.Context) ([]*models.ReadingProgress, error) {
	return l.store.ListProgressForUser(l.userID)
}

// GetProgressStats classifies every member of the group.
func (l *Local) GetProgressStats(ctx context.Context, groupID int64) (*models.ProgressStats, error) {
	g, err := l.store.RequireMember(l.userID, groupID)
	if err != nil {
		return nil, err
	}
	standings, err := l.store.ListMemberStandings(groupID)
	if err != nil {
		return nil, err
	}
	return BuildStats(l.Now(), g, standings), nil
}

// Reminders evaluates every group the member belongs to.
func (l *Local) Reminders(ctx context.Context) ([]*models.ReminderEvent, error) {
	groups, err := l.store.ListGroupsForUser(l.userID)
	if err != nil {
		return nil, err
	}
	progress, err := l.store.ListProgressForUser(l.userID)
	if err != nil {
		return nil, err
	}
	return Evaluate(l.Now(), groups, progress), nil
}

// Evaluate pairs each group with the member's progress in it and runs the
// reminder rules over all of them.
func Evaluate(now time.Time, groups []*models.Group, progress []*models.ReadingProgress) []*models.ReminderEvent {
	byGroup := make(map[int64]*models.ReadingProgress, len(progress))
	for _, p := range progress {
		byGroup[p.GroupID] = p
	}
	inputs := make([]reminder.Input, 0, len(groups))
	for _, g := range groups {
		inputs = append(inputs, reminder.NewInput(g, byGroup[g.ID]))
	}
	return reminder.EvaluateAll(now, inputs)
}
