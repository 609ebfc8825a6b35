// Package reminder classifies a member's progress in a group into at most
// one reminder, comparing it to where the calendar says they should be.
package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/schedule"
)

const (
	// UrgentDays is the deadline window in which an unfinished book is urgent.
	UrgentDays = 3
	// BehindMargin is how many points below expected counts as behind.
	BehindMargin = 15
	// WarningMargin is the smaller gap that triggers a warning near the end.
	WarningMargin = 5
	// WarningDays is the deadline window for the warning tier.
	WarningDays = 7
)

// Input is one member's standing in one group.
type Input struct {
	Group         *models.Group
	CurrentPage   int
	TotalPages    int
	ActualPercent int
}

// NewInput builds an Input from a progress record, using the high-water mark
// as the member's actual position.
func NewInput(g *models.Group, p *models.ReadingProgress) Input {
	in := Input{Group: g, TotalPages: g.TotalPages}
	if p != nil {
		in.CurrentPage = p.MaxPageReached
		if p.TotalPages > 0 {
			in.TotalPages = p.TotalPages
		}
	}
	in.ActualPercent = schedule.ActualPercent(in.CurrentPage, in.TotalPages)
	return in
}

type rule struct {
	kind     models.ReminderKind
	severity models.Severity
	match    func(f facts) bool
	message  func(f facts) string
}

type facts struct {
	in        Input
	elapsed   int
	remaining int
	expected  int
	actual    int
}

// Rules are tried in order; the first match wins.
var rules = []rule{
	{
		kind:     models.ReminderUrgent,
		severity: models.SeverityError,
		match: func(f facts) bool {
			return f.remaining > 0 && f.remaining <= UrgentDays && f.actual < 100
		},
		message: func(f facts) string {
			return fmt.Sprintf("Urgent: deadline for %q is in %d day(s)! You're at %d%% on %q. Time to finish up!",
				f.in.Group.Name, f.remaining, f.actual, f.in.Group.BookTitle)
		},
	},
	{
		kind:     models.ReminderOverdue,
		severity: models.SeverityError,
		match: func(f facts) bool {
			return f.remaining < 0 && f.actual < 100
		},
		message: func(f facts) string {
			return fmt.Sprintf("%q deadline has passed! You're at %d%% of %q. Catch up when you can!",
				f.in.Group.Name, f.actual, f.in.Group.BookTitle)
		},
	},
	{
		kind:     models.ReminderBehind,
		severity: models.SeverityWarning,
		match: func(f facts) bool {
			return f.elapsed > 0 && f.expected > f.actual+BehindMargin
		},
		message: func(f facts) string {
			pages := schedule.PagesToReach(f.expected, f.in.CurrentPage, f.in.TotalPages)
			return fmt.Sprintf("You're falling behind in %q! You're at %d%% but should be at %d%%. Try to read %d more pages to catch up on %q.",
				f.in.Group.Name, f.actual, f.expected, pages, f.in.Group.BookTitle)
		},
	},
	{
		kind:     models.ReminderWarning,
		severity: models.SeverityInfo,
		match: func(f facts) bool {
			return f.elapsed > 0 && f.expected > f.actual+WarningMargin && f.remaining <= WarningDays
		},
		message: func(f facts) string {
			return fmt.Sprintf("%q: you're at %d%% of %q with %d days left. A little push will keep you on track!",
				f.in.Group.Name, f.actual, f.in.Group.BookTitle, f.remaining)
		},
	},
	{
		kind:     models.ReminderSuccess,
		severity: models.SeveritySuccess,
		match: func(f facts) bool {
			return f.elapsed > 0 && f.actual >= f.expected && f.actual > 0 && f.actual < 100 && f.remaining > UrgentDays
		},
		message: func(f facts) string {
			return fmt.Sprintf("Great job! You're %d%% through %q in %q and right on schedule. Keep it up!",
				f.actual, f.in.Group.BookTitle, f.in.Group.Name)
		},
	},
}

// Evaluate returns the reminder for in as of now, or nil when no rule
// applies. Day counts are taken in now's location.
func Evaluate(now time.Time, in Input) *models.ReminderEvent {
	if in.Group == nil {
		return nil
	}
	deadline := in.Group.ScheduleEnd()
	f := facts{
		in:        in,
		elapsed:   schedule.DaysElapsed(now, in.Group.StartDate),
		remaining: schedule.DaysRemaining(now, deadline),
		expected:  schedule.ExpectedPercent(now, in.Group.StartDate, deadline),
		actual:    in.ActualPercent,
	}
	for _, r := range rules {
		if r.match(f) {
			return &models.ReminderEvent{
				GroupID:  in.Group.ID,
				Kind:     r.kind,
				Severity: r.severity,
				Message:  r.message(f),
			}
		}
	}
	return nil
}

// EvaluateAll evaluates every input independently and returns the events
// that fired, in input order.
func EvaluateAll(now time.Time, inputs []Input) []*models.ReminderEvent {
	results := make([]*models.ReminderEvent, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Evaluate(now, inputs[i])
		}(i)
	}
	wg.Wait()

	events := make([]*models.ReminderEvent, 0, len(inputs))
	for _, ev := range results {
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events
}
