// Package chapterstatus turns a chapter schedule into a deadline label and
// an urgency bucket.
package chapterstatus

import (
	"fmt"
	"time"

	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/schedule"
)

// DueSoonDays is the window, in days, in which a deadline counts as close.
const DueSoonDays = 3

// Resolve returns the status of sched as of now.
func Resolve(now time.Time, sched *models.ChapterSchedule) models.ChapterStatus {
	if sched == nil || sched.TargetCompletionDate == nil || sched.TargetCompletionDate.IsZero() {
		return models.ChapterStatus{Label: "No deadline set", Bucket: models.BucketDefault}
	}
	if sched.Completed {
		return models.ChapterStatus{Label: "Completed", Bucket: models.BucketSuccess}
	}

	left := schedule.DaysRemaining(now, *sched.TargetCompletionDate)
	switch {
	case left < 0:
		return models.ChapterStatus{Label: fmt.Sprintf("Overdue by %d day(s)", -left), Bucket: models.BucketError}
	case left == 0:
		return models.ChapterStatus{Label: "Due today", Bucket: models.BucketWarning}
	case left <= DueSoonDays:
		return models.ChapterStatus{Label: fmt.Sprintf("%d day(s) left", left), Bucket: models.BucketWarning}
	default:
		return models.ChapterStatus{Label: fmt.Sprintf("%d day(s) remaining", left), Bucket: models.BucketInfo}
	}
}

// Annotate sets Status on every schedule in place.
func Annotate(now time.Time, schedules []*models.ChapterSchedule) {
	for _, s := range schedules {
		st := Resolve(now, s)
		s.Status = &st
	}
}
