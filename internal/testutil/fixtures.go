// Shared fixtures for tests that need users, books and groups in the database.

package testutil

import (
	"testing"

	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/store"
)

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, st *store.Store, username string) *models.User {
	t.Helper()
	user, err := st.CreateUser(username, "not-a-real-hash", "user", Start)
	if err != nil {
		t.Fatalf("Failed to create user '%s': %v", username, err)
	}
	return user
}

// CreateBook inserts a book with the given number of pages and chapters.
func CreateBook(t *testing.T, st *store.Store, title string, pages, chapters int) *models.Book {
	t.Helper()
	book, err := st.CreateBook(&models.Book{Title: title, Author: "Test Author", Genre: "Fiction", TotalPages: pages, TotalChapters: chapters}, nil, Start)
	if err != nil {
		t.Fatalf("Failed to create book '%s': %v", title, err)
	}
	return book
}

// CreateGroup inserts a group for book created by creator, running from
// start to end.
func CreateGroup(t *testing.T, st *store.Store, creator *models.User, book *models.Book, start, end models.Date) *models.Group {
	t.Helper()
	group, err := st.CreateGroup(&models.Group{
		Name:      book.Title + " Club",
		BookID:    book.ID,
		CreatorID: creator.ID,
		StartDate: start,
		EndDate:   end,
	}, Start)
	if err != nil {
		t.Fatalf("Failed to create group for '%s': %v", book.Title, err)
	}
	return group
}

// JoinGroup adds user to group.
func JoinGroup(t *testing.T, st *store.Store, user *models.User, group *models.Group) {
	t.Helper()
	if err := st.JoinGroup(user.ID, group.ID, Start); err != nil {
		t.Fatalf("User '%s' failed to join group %d: %v", user.Username, group.ID, err)
	}
}
