package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/models"
)

const groupSelect = `
	SELECT g.id, g.name, g.book_id, b.title, b.total_pages, g.creator_id, u.username,
	       g.start_date, g.end_date, g.deadline, g.created_at,
	       (SELECT COUNT(*) FROM group_memberships m WHERE m.group_id = g.id) AS member_count
	FROM reading_groups g
	JOIN books b ON b.id = g.book_id
	JOIN users u ON u.id = g.creator_id
`

func (s *Store) scanGroup(row scanner) (*models.Group, error) {
	var g models.Group
	var deadline models.Date
	err := row.Scan(&g.ID, &g.Name, &g.BookID, &g.BookTitle, &g.TotalPages, &g.CreatorID, &g.CreatorName,
		&g.StartDate, &g.EndDate, &deadline, &g.CreatedAt, &g.MemberCount)
	if err != nil {
		return nil, err
	}
	if !deadline.IsZero() {
		g.Deadline = &deadline
	}
	g.IsFull = g.MemberCount >= s.maxMembers
	return &g, nil
}

func (s *Store) queryGroups(query string, args ...interface{}) ([]*models.Group, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*models.Group{}
	for rows.Next() {
		g, err := s.scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CreateGroup stores a new group and makes its creator the first member,
// stamping both with now.
func (s *Store) CreateGroup(g *models.Group, now time.Time) (*models.Group, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return nil, apperrors.Validation("Group name is required")
	}
	if g.StartDate.IsZero() || g.EndDate.IsZero() {
		return nil, apperrors.Validation("Start and end dates are required")
	}
	if !g.EndDate.After(g.StartDate.Time) {
		return nil, apperrors.Validation("End date must be after start date")
	}
	if g.Deadline != nil && !g.Deadline.IsZero() && g.Deadline.Before(g.StartDate.Time) {
		return nil, apperrors.Validation("Deadline cannot be before start date")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM books WHERE id = ?", g.BookID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, notFound("book", g.BookID)
	}

	var deadline interface{}
	if g.Deadline != nil && !g.Deadline.IsZero() {
		deadline = *g.Deadline
	}
	now = now.UTC()
	res, err := tx.Exec(`INSERT INTO reading_groups (name, book_id, creator_id, start_date, end_date, deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, g.Name, g.BookID, g.CreatorID, g.StartDate, g.EndDate, deadline, now)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()

	if _, err := tx.Exec("INSERT INTO group_memberships (user_id, group_id, joined_at) VALUES (?, ?, ?)", g.CreatorID, id, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetGroup(id)
}

// GetGroup fetches a group without its member list.
func (s *Store) GetGroup(id int64) (*models.Group, error) {
	g, err := s.scanGroup(s.db.QueryRow(groupSelect+" WHERE g.id = ?", id))
	if err != nil {
		return nil, noRows(err, "group", id)
	}
	return g, nil
}

// GetGroupWithMembers fetches a group and its members.
func (s *Store) GetGroupWithMembers(id int64) (*models.Group, error) {
	g, err := s.GetGroup(id)
	if err != nil {
		return nil, err
	}
	g.Members, err = s.ListGroupMembers(id)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListGroupsForUser returns the groups userID belongs to, newest first.
func (s *Store) ListGroupsForUser(userID int64) ([]*models.Group, error) {
	return s.queryGroups(groupSelect+`
		WHERE g.id IN (SELECT group_id FROM group_memberships WHERE user_id = ?)
		ORDER BY g.start_date DESC, g.id DESC`, userID)
}

// ListOpenGroupsForBook returns the groups reading bookID that still have
// room for another member.
func (s *Store) ListOpenGroupsForBook(bookID int64) ([]*models.Group, error) {
	groups, err := s.queryGroups(groupSelect+" WHERE g.book_id = ? ORDER BY g.start_date ASC, g.id ASC", bookID)
	if err != nil {
		return nil, err
	}
	open := groups[:0]
	for _, g := range groups {
		if !g.IsFull {
			open = append(open, g)
		}
	}
	return open, nil
}

// ListGroupMembers returns the members of a group in joining order.
func (s *Store) ListGroupMembers(groupID int64) ([]*models.Member, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.username, m.joined_at
		FROM group_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = ?
		ORDER BY m.joined_at ASC, m.id ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Username, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// IsMember reports whether userID belongs to groupID.
func (s *Store) IsMember(userID, groupID int64) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM group_memberships WHERE user_id = ? AND group_id = ?", userID, groupID).Scan(&count)
	return count > 0, err
}

// RequireMember returns the group if userID belongs to it, NotFound if the
// group does not exist and NotAMember otherwise.
func (s *Store) RequireMember(userID, groupID int64) (*models.Group, error) {
	g, err := s.GetGroup(groupID)
	if err != nil {
		return nil, err
	}
	ok, err := s.IsMember(userID, groupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("group %d: %w", groupID, apperrors.ErrNotAMember)
	}
	return g, nil
}

// JoinGroup adds userID to groupID unless the group is full or the user is
// already in it.
func (s *Store) JoinGroup(userID, groupID int64, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var members int
	err = tx.QueryRow(`SELECT (SELECT COUNT(*) FROM group_memberships WHERE group_id = g.id)
		FROM reading_groups g WHERE g.id = ?`, groupID).Scan(&members)
	if err != nil {
		return noRows(err, "group", groupID)
	}

	var already int
	if err := tx.QueryRow("SELECT COUNT(*) FROM group_memberships WHERE user_id = ? AND group_id = ?", userID, groupID).Scan(&already); err != nil {
		return err
	}
	if already > 0 {
		return apperrors.Conflict("Already a member")
	}
	if members >= s.maxMembers {
		return apperrors.Conflict("Group is full")
	}

	if _, err := tx.Exec("INSERT INTO group_memberships (user_id, group_id, joined_at) VALUES (?, ?, ?)", userID, groupID, now.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// LeaveGroup removes userID from groupID along with their progress and
// chapter schedules. The creator may only leave once everyone else has.
func (s *Store) LeaveGroup(userID, groupID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var creatorID int64
	var members int
	err = tx.QueryRow(`SELECT creator_id, (SELECT COUNT(*) FROM group_memberships WHERE group_id = g.id)
		FROM reading_groups g WHERE g.id = ?`, groupID).Scan(&creatorID, &members)
	if err != nil {
		return noRows(err, "group", groupID)
	}

	res, err := tx.Exec("DELETE FROM group_memberships WHERE user_id = ? AND group_id = ?", userID, groupID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %d: %w", groupID, apperrors.ErrNotAMember)
	}
	if creatorID == userID && members > 1 {
		return apperrors.Conflict("As the group creator, you cannot leave while other members are present")
	}

	for _, q := range []string{
		"DELETE FROM reading_progress WHERE user_id = ? AND group_id = ?",
		"DELETE FROM chapter_schedules WHERE user_id = ? AND group_id = ?",
	} {
		if _, err := tx.Exec(q, userID, groupID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
