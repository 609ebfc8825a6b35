package api

import (
	"encoding/json"
	"net/http"

	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/websocket"
)

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}

// handleAdminCreateBook adds a book to the catalog and tells every connected
// member about it. Chapter titles are optional; missing ones are numbered.
func (s *Server) handleAdminCreateBook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		models.Book
		ChapterTitles []string `json:"chapter_titles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	book := payload.Book
	book.ID = 0
	created, err := s.store.CreateBook(&book, payload.ChapterTitles, s.now())
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	s.app.WsHub().BroadcastJSON(websocket.Event{Type: websocket.EventBookAdded, Data: created})
	RespondWithJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRunAdminJob(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		JobName string `json:"job_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := s.app.JobManager().RunJob(payload.JobName, s.app)
	if err != nil {
		RespondWithError(w, http.StatusConflict, err.Error()) // 409 Conflict if a job is already running
		return
	}

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "Job '" + payload.JobName + "' started successfully.",
	})
}

func (s *Server) handleGetAdminJobsStatus(w http.ResponseWriter, r *http.Request) {
	statuses := s.app.JobManager().GetStatus()
	RespondWithJSON(w, http.StatusOK, statuses)
}
