// Package schedule computes where a reader should be in a group's book given
// the calendar. All comparisons are made on whole days: the time of day is
// dropped before any subtraction so partial days never cause off-by-one
// results.
package schedule

import (
	"math"
	"time"

	"github.com/vrsandeep/readalong/internal/models"
)

// Day returns the calendar day of t in t's location.
func Day(t time.Time) models.Date {
	return models.DateOf(t)
}

// DaysBetween returns the number of whole days from a to b, negative when b
// falls before a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a).Time).Hours() / 24)
}

// DaysElapsed is the number of days since start, as of now.
func DaysElapsed(now time.Time, start models.Date) int {
	return DaysBetween(start.Time, now)
}

// DaysRemaining is the number of days left until deadline, as of now.
// It goes negative once the deadline has passed.
func DaysRemaining(now time.Time, deadline models.Date) int {
	return DaysBetween(now, deadline.Time)
}

// ExpectedPercent is the share of the schedule that should be read by now.
// Before start it is 0, after the deadline it is 100. A same-day schedule
// counts as one day long.
func ExpectedPercent(now time.Time, start, deadline models.Date) int {
	elapsed := DaysElapsed(now, start)
	if elapsed < 0 {
		return 0
	}
	if DaysRemaining(now, deadline) < 0 {
		return 100
	}
	total := DaysBetween(start.Time, deadline.Time)
	if total < 1 {
		total = 1
	}
	return clamp(int(math.Round(100 * float64(elapsed) / float64(total))))
}

// ActualPercent converts a page position into a percentage of the book.
func ActualPercent(page, totalPages int) int {
	if totalPages <= 0 || page <= 0 {
		return 0
	}
	return clamp(int(math.Round(100 * float64(page) / float64(totalPages))))
}

// PagesToReach returns how many pages past page a reader must go to reach
// percent of the book. It never goes negative.
func PagesToReach(percent, page, totalPages int) int {
	target := int(math.Ceil(float64(totalPages) * float64(percent) / 100))
	if target <= page {
		return 0
	}
	return target - page
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
