package models

import "time"

// DefaultMaxMembers is the member cap of a reading group.
const DefaultMaxMembers = 10

// Group is a time-boxed reading group for a single book. StartDate and
// EndDate bound the schedule; Deadline, when set, replaces EndDate as the
// day progress is measured against.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	BookID      int64     `json:"book"`
	BookTitle   string    `json:"book_title"`
	TotalPages  int       `json:"total_pages"`
	CreatorID   int64     `json:"creator"`
	CreatorName string    `json:"creator_name"`
	StartDate   Date      `json:"start_date"`
	EndDate     Date      `json:"end_date"`
	Deadline    *Date     `json:"deadline,omitempty"`
	MemberCount int       `json:"member_count"`
	IsFull      bool      `json:"is_full"`
	Members     []*Member `json:"members,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScheduleEnd returns the day the group's reading is due.
func (g *Group) ScheduleEnd() Date {
	if g.Deadline != nil && !g.Deadline.IsZero() {
		return *g.Deadline
	}
	return g.EndDate
}

// Member is a user's membership in a group.
type Member struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}
