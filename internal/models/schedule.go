package models

import "time"

// ChapterSchedule is a member's personal target date for one chapter.
type ChapterSchedule struct {
	ID                   int64          `json:"id"`
	UserID               int64          `json:"user"`
	GroupID              int64          `json:"group"`
	ChapterID            int64          `json:"chapter"`
	ChapterNumber        int            `json:"chapter_number"`
	ChapterTitle         string         `json:"chapter_title"`
	TargetCompletionDate *Date          `json:"target_completion_date"`
	Completed            bool           `json:"completed"`
	CompletedAt          *time.Time     `json:"completed_at"`
	Status               *ChapterStatus `json:"status,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// ChapterScheduleInput is one item of a bulk schedule upsert.
type ChapterScheduleInput struct {
	ChapterID            int64  `json:"chapter"`
	TargetCompletionDate string `json:"target_completion_date"`
}

// UpsertResult reports a bulk upsert. Rejected items are listed in Errors
// while accepted ones stay committed.
type UpsertResult struct {
	Created   int                `json:"created"`
	Schedules []*ChapterSchedule `json:"schedules"`
	Errors    []string           `json:"errors"`
}

// StatusBucket is the urgency class of a chapter deadline.
type StatusBucket string

const (
	BucketDefault StatusBucket = "default"
	BucketSuccess StatusBucket = "success"
	BucketError   StatusBucket = "error"
	BucketWarning StatusBucket = "warning"
	BucketInfo    StatusBucket = "info"
)

// ChapterStatus is the resolved, human-facing deadline status.
type ChapterStatus struct {
	Label  string       `json:"label"`
	Bucket StatusBucket `json:"bucket"`
}
