package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vrsandeep/readalong/internal/auth"
	"github.com/vrsandeep/readalong/internal/store"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := s.store.GetUserByUsername(payload.Username)
	if err != nil {
		RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if !auth.CheckPasswordHash(payload.Password, user.PasswordHash) {
		RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := s.store.CreateSession(user.ID, s.now())
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		MaxAge:   int(store.SessionDuration / time.Second),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	RespondWithJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_token")
	if err == nil {
		s.store.DeleteSession(cookie.Value)
	}

	// Expire the cookie on the client side
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	RespondWithJSON(w, http.StatusOK, user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		RespondWithError(w, http.StatusBadRequest, "Username and password required")
		return
	}
	if reason := auth.ValidateUsername(payload.Username); reason != "" {
		RespondWithError(w, http.StatusBadRequest, reason)
		return
	}
	if problems := auth.PasswordProblems(payload.Password); len(problems) > 0 {
		RespondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    problems[0],
			"password": problems,
		})
		return
	}

	passwordHash, err := auth.HashPassword(payload.Password)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if _, err := s.store.CreateUser(payload.Username, passwordHash, "user", s.now()); err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully. Please log in."})
}

func (s *Server) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		RespondWithError(w, http.StatusBadRequest, "Username required")
		return
	}
	exists, err := s.store.UsernameExists(username)
	if err != nil {
		RespondWithAppError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"username":  username,
		"available": !exists,
	})
}
