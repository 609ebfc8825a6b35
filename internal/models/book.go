// This file defines the catalogue records: books and their chapters.

package models

// Book is a title that reading groups can be formed around.
type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Genre           string     `json:"genre"`
	Description     string     `json:"description"`
	TotalPages      int        `json:"total_pages"`
	TotalChapters   int        `json:"total_chapters"`
	CoverImage      string     `json:"cover_image,omitempty"`
	Chapters        []*Chapter `json:"chapters,omitempty"`         // omitempty hides it when not loaded
	AvailableGroups []*Group   `json:"available_groups,omitempty"` // only on the detail endpoint
}

// Chapter is a numbered chapter of a book.
type Chapter struct {
	ID            int64  `json:"id"`
	BookID        int64  `json:"book"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
}
