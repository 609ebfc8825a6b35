package api

import (
	"encoding/json"
	"net/http"

	"github.com/vrsandeep/readalong/internal/models"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	groups, err := s.gateway.ForUser(user.ID).ListGroupsForMember(r.Context())
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, groups)
}

// handleCreateGroup creates a group; the creator joins it right away.
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	var payload struct {
		Name      string       `json:"name"`
		BookID    int64        `json:"book"`
		StartDate models.Date  `json:"start_date"`
		EndDate   models.Date  `json:"end_date"`
		Deadline  *models.Date `json:"deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Deadline != nil && payload.Deadline.IsZero() {
		payload.Deadline = nil
	}

	group, err := s.store.CreateGroup(&models.Group{
		Name:      payload.Name,
		BookID:    payload.BookID,
		CreatorID: user.ID,
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
		Deadline:  payload.Deadline,
	}, s.now())
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, group)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	_, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	group, err := s.store.GetGroupWithMembers(groupID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, group)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	if err := s.store.JoinGroup(user.ID, groupID, s.now()); err != nil {
		RespondWithAppError(w, err)
		return
	}
	group, err := s.store.GetGroup(groupID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, group)
}

// handleLeaveGroup removes the caller along with their progress and
// schedules. An open reading session is dropped without saving.
func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	if err := s.store.LeaveGroup(user.ID, groupID); err != nil {
		RespondWithAppError(w, err)
		return
	}
	s.app.Sessions().Drop(user.ID, groupID)
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Left the group"})
}
