package models

import "time"

// ReadingSpeeds are the paces a member may choose, in minutes per page.
var ReadingSpeeds = []int{1, 2, 3, 4, 5}

// IsValidReadingSpeed reports whether minutes is one of ReadingSpeeds.
func IsValidReadingSpeed(minutes int) bool {
	for _, s := range ReadingSpeeds {
		if s == minutes {
			return true
		}
	}
	return false
}

// ReadingProgress is one member's position in one group's book.
//
// MaxPageReached is the high-water mark and the only value treated as real
// progress. ReadingSpeedMinutes is 0 until the member picks a pace.
// LastReadAt is when a new page was last reached (or the pace was set) and
// is the authority for recovering the dwell timer.
type ReadingProgress struct {
	ID                  int64      `json:"id"`
	UserID              int64      `json:"user"`
	GroupID             int64      `json:"group"`
	BookID              int64      `json:"book"`
	BookTitle           string     `json:"book_title"`
	CurrentPage         int        `json:"current_page"`
	MaxPageReached      int        `json:"max_page_reached"`
	ReadingSpeedMinutes int        `json:"reading_speed_minutes"`
	LastReadAt          *time.Time `json:"last_read_at"`
	TotalPages          int        `json:"total_pages"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// SpeedSet reports whether the member has chosen a pace.
func (p *ReadingProgress) SpeedSet() bool {
	return p.ReadingSpeedMinutes > 0
}

// MemberProgress is a single member's line in the group statistics.
type MemberProgress struct {
	Username        string     `json:"username"`
	CurrentPage     int        `json:"current_page"`
	ProgressPercent int        `json:"progress_percent"`
	LastRead        *time.Time `json:"last_read"`
}

// ProgressBucket groups members that share a progress classification.
type ProgressBucket struct {
	Count   int               `json:"count"`
	Members []*MemberProgress `json:"members"`
}

// ProgressStats is the cohort-wide progress breakdown of a group.
type ProgressStats struct {
	TotalMembers     int            `json:"total_members"`
	ExpectedProgress int            `json:"expected_progress"`
	Completed        ProgressBucket `json:"completed"`
	OnTrack          ProgressBucket `json:"on_track"`
	Behind           ProgressBucket `json:"behind"`
	NotStarted       ProgressBucket `json:"not_started"`
}
