package store

import (
	"database/sql"
	"time"

	"github.com/vrsandeep/readalong/internal/models"
)

const progressSelect = `
	SELECT p.id, p.user_id, p.group_id, g.book_id, b.title, b.total_pages,
	       p.current_page, p.max_page_reached, p.reading_speed_minutes, p.last_read_at,
	       p.created_at, p.updated_at
	FROM reading_progress p
	JOIN reading_groups g ON g.id = p.group_id
	JOIN books b ON b.id = g.book_id
`

func scanProgress(row scanner) (*models.ReadingProgress, error) {
	var p models.ReadingProgress
	var lastRead sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.GroupID, &p.BookID, &p.BookTitle, &p.TotalPages,
		&p.CurrentPage, &p.MaxPageReached, &p.ReadingSpeedMinutes, &lastRead,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.LastReadAt = nullTime(lastRead)
	return &p, nil
}

// GetProgress fetches a member's progress in a group.
func (s *Store) GetProgress(userID, groupID int64) (*models.ReadingProgress, error) {
	p, err := scanProgress(s.db.QueryRow(progressSelect+" WHERE p.user_id = ? AND p.group_id = ?", userID, groupID))
	if err != nil {
		return nil, noRows(err, "progress for group", groupID)
	}
	return p, nil
}

// GetOrCreateProgress fetches a member's progress, creating a record on
// page 1 with no pace chosen when there is none yet.
func (s *Store) GetOrCreateProgress(userID, groupID int64, now time.Time) (*models.ReadingProgress, error) {
	now = now.UTC()
	_, err := s.db.Exec(`INSERT OR IGNORE INTO reading_progress
		(user_id, group_id, current_page, max_page_reached, reading_speed_minutes, created_at, updated_at)
		VALUES (?, ?, 1, 1, 0, ?, ?)`, userID, groupID, now, now)
	if err != nil {
		return nil, err
	}
	return s.GetProgress(userID, groupID)
}

// ListProgressForUser returns a member's progress across all groups.
func (s *Store) ListProgressForUser(userID int64) ([]*models.ReadingProgress, error) {
	return s.queryProgress(progressSelect+" WHERE p.user_id = ? ORDER BY p.updated_at DESC, p.id DESC", userID)
}

func (s *Store) queryProgress(query string, args ...interface{}) ([]*models.ReadingProgress, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*models.ReadingProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// SetReadingSpeed records the pace and starts the dwell window at now. It
// only applies while no pace is set and reports whether it did.
func (s *Store) SetReadingSpeed(userID, groupID int64, minutes int, now time.Time) (bool, error) {
	res, err := s.db.Exec(`UPDATE reading_progress
		SET reading_speed_minutes = ?, last_read_at = ?, updated_at = ?
		WHERE user_id = ? AND group_id = ? AND reading_speed_minutes = 0`,
		minutes, now.UTC(), now.UTC(), userID, groupID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// AdvancePage moves the high-water mark to page and restarts the dwell
// window. It only applies when page directly follows the stored mark, so a
// repeated request cannot advance twice, and reports whether it did.
func (s *Store) AdvancePage(userID, groupID int64, page int, now time.Time) (bool, error) {
	res, err := s.db.Exec(`UPDATE reading_progress
		SET current_page = ?, max_page_reached = ?, last_read_at = ?, updated_at = ?
		WHERE user_id = ? AND group_id = ? AND max_page_reached = ?`,
		page, page, now.UTC(), now.UTC(), userID, groupID, page-1)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// SetCurrentPage stores the page on screen without touching the mark or
// the dwell window.
func (s *Store) SetCurrentPage(userID, groupID int64, page int, now time.Time) error {
	res, err := s.db.Exec(`UPDATE reading_progress SET current_page = ?, updated_at = ?
		WHERE user_id = ? AND group_id = ?`, page, now.UTC(), userID, groupID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("progress for group", groupID)
	}
	return nil
}

// MemberStanding is one member's row in a group's statistics. Progress is
// nil for members that have never opened the book.
type MemberStanding struct {
	UserID   int64
	Username string
	Progress *models.ReadingProgress
}

// ListMemberStandings returns every member of a group with their progress.
func (s *Store) ListMemberStandings(groupID int64) ([]*MemberStanding, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.username, p.id, p.current_page, p.max_page_reached, p.reading_speed_minutes, p.last_read_at
		FROM group_memberships m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN reading_progress p ON p.user_id = m.user_id AND p.group_id = m.group_id
		WHERE m.group_id = ?
		ORDER BY u.username ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MemberStanding
	for rows.Next() {
		var ms MemberStanding
		var progressID sql.NullInt64
		var current, high, speed sql.NullInt64
		var lastRead sql.NullTime
		if err := rows.Scan(&ms.UserID, &ms.Username, &progressID, &current, &high, &speed, &lastRead); err != nil {
			return nil, err
		}
		if progressID.Valid {
			ms.Progress = &models.ReadingProgress{
				ID:                  progressID.Int64,
				UserID:              ms.UserID,
				GroupID:             groupID,
				CurrentPage:         int(current.Int64),
				MaxPageReached:      int(high.Int64),
				ReadingSpeedMinutes: int(speed.Int64),
				LastReadAt:          nullTime(lastRead),
			}
		}
		out = append(out, &ms)
	}
	return out, rows.Err()
}
