package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vrsandeep/readalong/internal/pace"
)

// session looks up the member's open reading session for the group in the URL.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*pace.Session, bool) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return nil, false
	}
	sess, ok := s.app.Sessions().Get(user.ID, groupID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "No open reading session")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleOpenReading(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	sess, err := s.app.Sessions().Open(r.Context(), user.ID, s.gateway.ForUser(user.ID), groupID)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleGetReading(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, sess.Snapshot())
}

// move runs one navigation step against the open session.
func (s *Server) move(w http.ResponseWriter, r *http.Request, step func(context.Context, *pace.Session) (pace.Snapshot, error)) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap, err := step(r.Context(), sess)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReadingNext(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, func(ctx context.Context, sess *pace.Session) (pace.Snapshot, error) {
		return sess.Next(ctx)
	})
}

func (s *Server) handleReadingPrev(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, func(ctx context.Context, sess *pace.Session) (pace.Snapshot, error) {
		return sess.Prev(ctx)
	})
}

func (s *Server) handleReadingGoTo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	s.move(w, r, func(ctx context.Context, sess *pace.Session) (pace.Snapshot, error) {
		return sess.GoTo(ctx, payload.Page)
	})
}

func (s *Server) handleReadingPace(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ReadingSpeedMinutes int `json:"reading_speed_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	s.move(w, r, func(ctx context.Context, sess *pace.Session) (pace.Snapshot, error) {
		return sess.SetPace(ctx, payload.ReadingSpeedMinutes)
	})
}

func (s *Server) handleCloseReading(w http.ResponseWriter, r *http.Request) {
	user, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}
	if err := s.app.Sessions().Close(r.Context(), user.ID, groupID); err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Reading session closed"})
}
