package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/models"
)

// BookFilter narrows ListBooks. Empty fields match everything.
type BookFilter struct {
	Search string
	Genre  string
}

const bookColumns = "id, title, author, genre, description, total_pages, total_chapters, cover_image"

func scanBook(row scanner) (*models.Book, error) {
	var b models.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Description, &b.TotalPages, &b.TotalChapters, &b.CoverImage)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBooks returns the catalogue ordered by title. Search matches title or
// author, genre matches exactly, both without regard to case.
func (s *Store) ListBooks(filter BookFilter) ([]*models.Book, error) {
	query := "SELECT " + bookColumns + " FROM books"
	var where []string
	var args []interface{}
	if q := strings.TrimSpace(filter.Search); q != "" {
		where = append(where, "(title LIKE ? OR author LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if g := strings.TrimSpace(filter.Genre); g != "" {
		where = append(where, "genre = ? COLLATE NOCASE")
		args = append(args, g)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY title ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// GetBook fetches a book with its chapters.
func (s *Store) GetBook(id int64) (*models.Book, error) {
	b, err := scanBook(s.db.QueryRow("SELECT "+bookColumns+" FROM books WHERE id = ?", id))
	if err != nil {
		return nil, noRows(err, "book", id)
	}
	b.Chapters, err = s.ListChapters(id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBook stores a book and its chapters. Chapters without a title are
// named "Chapter N".
func (s *Store) CreateBook(b *models.Book, chapterTitles []string, now time.Time) (*models.Book, error) {
	if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Author) == "" {
		return nil, apperrors.Validation("Title and author are required")
	}
	if b.TotalPages <= 0 {
		return nil, apperrors.Validation("Total pages must be positive")
	}
	if b.TotalChapters <= 0 {
		b.TotalChapters = len(chapterTitles)
	}
	if b.TotalChapters <= 0 {
		b.TotalChapters = 1
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO books (title, author, genre, description, total_pages, total_chapters, cover_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.Author, b.Genre, b.Description, b.TotalPages, b.TotalChapters, b.CoverImage, now.UTC())
	if err != nil {
		return nil, err
	}
	b.ID, _ = res.LastInsertId()

	stmt, err := tx.Prepare("INSERT INTO chapters (book_id, chapter_number, title) VALUES (?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	b.Chapters = make([]*models.Chapter, 0, b.TotalChapters)
	for n := 1; n <= b.TotalChapters; n++ {
		title := fmt.Sprintf("Chapter %d", n)
		if n <= len(chapterTitles) && strings.TrimSpace(chapterTitles[n-1]) != "" {
			title = strings.TrimSpace(chapterTitles[n-1])
		}
		res, err := stmt.Exec(b.ID, n, title)
		if err != nil {
			return nil, err
		}
		id, _ := res.LastInsertId()
		b.Chapters = append(b.Chapters, &models.Chapter{ID: id, BookID: b.ID, ChapterNumber: n, Title: title})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}
