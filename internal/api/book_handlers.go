package api

import (
	"net/http"

	"github.com/vrsandeep/readalong/internal/store"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	filter := store.BookFilter{
		Search: r.URL.Query().Get("search"),
		Genre:  r.URL.Query().Get("genre"),
	}
	books, err := s.store.ListBooks(filter)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, books)
}

// handleGetBook returns a book with its chapters and the groups that still
// have room.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := idParam(w, r, "bookID", "book ID")
	if !ok {
		return
	}
	book, err := s.store.GetBook(bookID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	groups, err := s.store.ListOpenGroupsForBook(bookID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	book.AvailableGroups = groups
	RespondWithJSON(w, http.StatusOK, book)
}
