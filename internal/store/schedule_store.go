package store

import (
	"database/sql"
	"time"

	"github.com/vrsandeep/readalong/internal/models"
)

const scheduleSelect = `
	SELECT cs.id, cs.user_id, cs.group_id, cs.chapter_id, c.chapter_number, c.title,
	       cs.target_completion_date, cs.completed, cs.completed_at, cs.created_at, cs.updated_at
	FROM chapter_schedules cs
	JOIN chapters c ON c.id = cs.chapter_id
`

func scanSchedule(row scanner) (*models.ChapterSchedule, error) {
	var cs models.ChapterSchedule
	var target models.Date
	var completedAt sql.NullTime
	err := row.Scan(&cs.ID, &cs.UserID, &cs.GroupID, &cs.ChapterID, &cs.ChapterNumber, &cs.ChapterTitle,
		&target, &cs.Completed, &completedAt, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if !target.IsZero() {
		cs.TargetCompletionDate = &target
	}
	cs.CompletedAt = nullTime(completedAt)
	return &cs, nil
}

// ListChapterSchedules returns a member's schedules in a group in chapter
// order.
func (s *Store) ListChapterSchedules(userID, groupID int64) ([]*models.ChapterSchedule, error) {
	rows, err := s.db.Query(scheduleSelect+" WHERE cs.user_id = ? AND cs.group_id = ? ORDER BY c.chapter_number ASC", userID, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*models.ChapterSchedule{}
	for rows.Next() {
		cs, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, cs)
	}
	return list, rows.Err()
}

// GetChapterSchedule fetches one of a member's schedules in a group.
func (s *Store) GetChapterSchedule(userID, groupID, scheduleID int64) (*models.ChapterSchedule, error) {
	cs, err := scanSchedule(s.db.QueryRow(scheduleSelect+" WHERE cs.id = ? AND cs.user_id = ? AND cs.group_id = ?", scheduleID, userID, groupID))
	if err != nil {
		return nil, noRows(err, "schedule", scheduleID)
	}
	return cs, nil
}

// ChapterTarget is an accepted item of a bulk schedule upsert.
type ChapterTarget struct {
	ChapterID int64
	Target    models.Date
}

// UpsertChapterSchedules creates or moves the target date of each chapter
// in one transaction and returns the stored schedules.
func (s *Store) UpsertChapterSchedules(userID, groupID int64, targets []ChapterTarget, now time.Time) ([]*models.ChapterSchedule, error) {
	if len(targets) == 0 {
		return []*models.ChapterSchedule{}, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO chapter_schedules (user_id, group_id, chapter_id, target_completion_date, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(user_id, group_id, chapter_id) DO UPDATE SET
			target_completion_date = excluded.target_completion_date,
			updated_at = excluded.updated_at`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, t := range targets {
		if _, err := stmt.Exec(userID, groupID, t.ChapterID, t.Target, now.UTC(), now.UTC()); err != nil {
			return nil, err
		}
	}

	out := make([]*models.ChapterSchedule, 0, len(targets))
	for _, t := range targets {
		cs, err := scanSchedule(tx.QueryRow(scheduleSelect+" WHERE cs.user_id = ? AND cs.group_id = ? AND cs.chapter_id = ?", userID, groupID, t.ChapterID))
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateChapterSchedule writes the target date and completion fields of cs.
func (s *Store) UpdateChapterSchedule(cs *models.ChapterSchedule, now time.Time) error {
	var target, completedAt interface{}
	if cs.TargetCompletionDate != nil {
		target = *cs.TargetCompletionDate
	}
	if cs.CompletedAt != nil {
		completedAt = cs.CompletedAt.UTC()
	}
	res, err := s.db.Exec(`UPDATE chapter_schedules
		SET target_completion_date = ?, completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND group_id = ?`,
		target, cs.Completed, completedAt, now.UTC(), cs.ID, cs.UserID, cs.GroupID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("schedule", cs.ID)
	}
	cs.UpdatedAt = now.UTC()
	return nil
}

// DeleteChapterSchedule removes one of a member's schedules.
func (s *Store) DeleteChapterSchedule(userID, groupID, scheduleID int64) error {
	res, err := s.db.Exec("DELETE FROM chapter_schedules WHERE id = ? AND user_id = ? AND group_id = ?", scheduleID, userID, groupID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("schedule", scheduleID)
	}
	return nil
}
