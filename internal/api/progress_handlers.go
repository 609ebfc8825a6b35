package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
)

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	p, err := s.gateway.ForUser(user.ID).GetProgress(r.Context(), groupID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetReadingSpeed(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	var payload struct {
		ReadingSpeedMinutes int `json:"reading_speed_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	p, err := s.gateway.ForUser(user.ID).SetReadingSpeed(r.Context(), groupID, payload.ReadingSpeedMinutes)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	s.refreshSession(r.Context(), user.ID, groupID)
	RespondWithJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetCurrentPage(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	var payload struct {
		CurrentPage int `json:"current_page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	p, err := s.gateway.ForUser(user.ID).SetCurrentPage(r.Context(), groupID, payload.CurrentPage)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	s.refreshSession(r.Context(), user.ID, groupID)
	RespondWithJSON(w, http.StatusOK, p)
}

// refreshSession brings an open server-side session up to date after the
// member wrote progress directly.
func (s *Server) refreshSession(ctx context.Context, userID, groupID int64) {
	sess, ok := s.app.Sessions().Get(userID, groupID)
	if !ok {
		return
	}
	if _, err := sess.Refresh(ctx); err != nil {
		log.Printf("Could not refresh reading session for user %d in group %d: %v", userID, groupID, err)
	}
}

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	list, err := s.gateway.ForUser(user.ID).ListProgress(r.Context())
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetProgressStats(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	stats, err := s.gateway.ForUser(user.ID).GetProgressStats(r.Context(), groupID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	events, err := s.gateway.ForUser(user.ID).Reminders(r.Context())
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, events)
}
