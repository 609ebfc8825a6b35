package store

import (
	"github.com/vrsandeep/readalong/internal/models"
)

// ListChapters returns the chapters of a book in reading order.
func (s *Store) ListChapters(bookID int64) ([]*models.Chapter, error) {
	rows, err := s.db.Query("SELECT id, book_id, chapter_number, title FROM chapters WHERE book_id = ? ORDER BY chapter_number ASC", bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := []*models.Chapter{}
	for rows.Next() {
		var c models.Chapter
		if err := rows.Scan(&c.ID, &c.BookID, &c.ChapterNumber, &c.Title); err != nil {
			return nil, err
		}
		chapters = append(chapters, &c)
	}
	return chapters, rows.Err()
}

// GetChapter fetches a chapter, requiring it to belong to bookID.
func (s *Store) GetChapter(bookID, chapterID int64) (*models.Chapter, error) {
	var c models.Chapter
	err := s.db.QueryRow("SELECT id, book_id, chapter_number, title FROM chapters WHERE id = ? AND book_id = ?", chapterID, bookID).
		Scan(&c.ID, &c.BookID, &c.ChapterNumber, &c.Title)
	if err != nil {
		return nil, noRows(err, "chapter", chapterID)
	}
	return &c, nil
}
