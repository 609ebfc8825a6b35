package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/gateway"
	"github.com/vrsandeep/readalong/internal/models"
)

func (s *Server) handleGetGroupChapters(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	gc, err := s.gateway.ForUser(user.ID).Chapters(r.Context(), groupID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, gc)
}

// handleGetPage serves the text of a page the member has already reached.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	p, err := s.gateway.ForUser(user.ID).GetProgress(r.Context(), groupID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	if number > p.MaxPageReached && number <= p.TotalPages {
		RespondWithAppError(w, apperrors.Conflict("Page %d has not been unlocked yet", number))
		return
	}
	page, err := s.app.Pages().Page(p.BookID, number, p.TotalPages)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, page)
}

func (s *Server) handleListChapterSchedules(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	list, err := s.gateway.ForUser(user.ID).ListChapterSchedules(r.Context(), groupID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, list)
}

// handleUpsertChapterSchedules answers 201 when at least one schedule was
// saved and 400 when every item was rejected. Both carry the full result.
func (s *Server) handleUpsertChapterSchedules(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	var payload struct {
		Schedules []models.ChapterScheduleInput `json:"schedules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	result, err := s.gateway.ForUser(user.ID).UpsertChapterSchedules(r.Context(), groupID, payload.Schedules)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	if result.Created == 0 && len(result.Errors) > 0 {
		RespondWithJSON(w, http.StatusBadRequest, result)
		return
	}
	RespondWithJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUpdateChapterSchedule(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	scheduleID, ok := idParam(w, r, "scheduleID", "schedule ID")
	if !ok {
		return
	}
	var upd gateway.ScheduleUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	cs, err := s.gateway.ForUser(user.ID).UpdateChapterSchedule(r.Context(), groupID, scheduleID, upd)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, cs)
}

func (s *Server) handleDeleteChapterSchedule(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	scheduleID, ok := idParam(w, r, "scheduleID", "schedule ID")
	if !ok {
		return
	}
	if err := s.gateway.ForUser(user.ID).DeleteChapterSchedule(r.Context(), groupID, scheduleID); err != nil {
		RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
