package gateway

import (
	"time"

	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/reminder"
	"github.com/vrsandeep/readalong/internal/schedule"
	"github.com/vrsandeep/readalong/internal/store"
)

// BuildStats sorts the members of g into completed, on track, behind and
// not started. Behind uses the same margin as the behind reminder.
func BuildStats(now time.Time, g *models.Group, standings []*store.MemberStanding) *models.ProgressStats {
	expected := schedule.ExpectedPercent(now, g.StartDate, g.ScheduleEnd())
	stats := &models.ProgressStats{
		TotalMembers:     len(standings),
		ExpectedProgress: expected,
		Completed:        models.ProgressBucket{Members: []*models.MemberProgress{}},
		OnTrack:          models.ProgressBucket{Members: []*models.MemberProgress{}},
		Behind:           models.ProgressBucket{Members: []*models.MemberProgress{}},
		NotStarted:       models.ProgressBucket{Members: []*models.MemberProgress{}},
	}

	for _, ms := range standings {
		if ms.Progress == nil {
			add(&stats.NotStarted, &models.MemberProgress{Username: ms.Username})
			continue
		}
		p := ms.Progress
		actual := schedule.ActualPercent(p.MaxPageReached, g.TotalPages)
		mp := &models.MemberProgress{
			Username:        ms.Username,
			CurrentPage:     p.CurrentPage,
			ProgressPercent: actual,
			LastRead:        p.LastReadAt,
		}
		switch {
		case g.TotalPages > 0 && p.MaxPageReached >= g.TotalPages:
			add(&stats.Completed, mp)
		case expected > actual+reminder.BehindMargin:
			add(&stats.Behind, mp)
		default:
			add(&stats.OnTrack, mp)
		}
	}
	return stats
}

func add(b *models.ProgressBucket, mp *models.MemberProgress) {
	b.Members = append(b.Members, mp)
	b.Count++
}
