// Package gateway is the boundary through which reading progress, pace and
// chapter schedules are read and written. Local serves a member straight
// from the database; Client does the same over the REST API.
package gateway

import (
	"context"

	"github.com/vrsandeep/readalong/internal/models"
)

// ProgressSync is everything the reading engine and its callers need from
// the server, always on behalf of one member.
type ProgressSync interface {
	GetProgress(ctx context.Context, groupID int64) (*models.ReadingProgress, error)
	SetReadingSpeed(ctx context.Context, groupID int64, minutes int) (*models.ReadingProgress, error)
	SetCurrentPage(ctx context.Context, groupID int64, page int) (*models.ReadingProgress, error)
	ListChapterSchedules(ctx context.Context, groupID int64) ([]*models.ChapterSchedule, error)
	UpsertChapterSchedules(ctx context.Context, groupID int64, items []models.ChapterScheduleInput) (*models.UpsertResult, error)
	ToggleChapterCompletion(ctx context.Context, groupID, scheduleID int64, completed bool) (*models.ChapterSchedule, error)
	ListGroupsForMember(ctx context.Context) ([]*models.Group, error)
	GetProgressStats(ctx context.Context, groupID int64) (*models.ProgressStats, error)
	ListProgress(ctx context.Context) ([]*models.ReadingProgress, error)
	Reminders(ctx context.Context) ([]*models.ReminderEvent, error)
}

// ScheduleUpdate is a partial edit of a chapter schedule. Nil fields are
// left alone.
type ScheduleUpdate struct {
	TargetCompletionDate *string `json:"target_completion_date,omitempty"`
	Completed            *bool   `json:"completed,omitempty"`
}

// GroupChapters is a group's book outline with the group's dates.
type GroupChapters struct {
	BookID         int64             `json:"book_id"`
	BookTitle      string            `json:"book_title"`
	TotalChapters  int               `json:"total_chapters"`
	GroupStartDate models.Date       `json:"group_start_date"`
	GroupEndDate   models.Date       `json:"group_end_date"`
	Chapters       []*models.Chapter `json:"chapters"`
}
