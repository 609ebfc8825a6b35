package api

import (
	"encoding/json"
	"net/http"

	"github.com/vrsandeep/readalong/internal/auth"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	RespondWithJSON(w, http.StatusOK, users)
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Username == "" || payload.Password == "" || (payload.Role != "admin" && payload.Role != "user") {
		RespondWithError(w, http.StatusBadRequest, "Username, password, and a valid role are required")
		return
	}
	if reason := auth.ValidateUsername(payload.Username); reason != "" {
		RespondWithError(w, http.StatusBadRequest, reason)
		return
	}

	passwordHash, err := auth.HashPassword(payload.Password)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user, err := s.store.CreateUser(payload.Username, passwordHash, payload.Role, s.now())
	if err != nil {
		// Most likely the unique constraint on username.
		RespondWithError(w, http.StatusConflict, "Username already exists")
		return
	}
	RespondWithJSON(w, http.StatusCreated, user)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userID", "user ID")
	if !ok {
		return
	}

	currentUser := getUserFromContext(r)
	if currentUser.ID == userID {
		RespondWithError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := s.store.DeleteUser(userID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
