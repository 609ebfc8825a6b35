package api

// This file contains the middleware for handling authentication and role-based authorization.

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/readalong/internal/models"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey string

const userContextKey = contextKey("user")

// AuthMiddleware verifies the session cookie and puts the user in the
// request context.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session_token")
		if err != nil {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: No session token")
			return
		}

		user, err := s.store.GetUserFromSession(cookie.Value, s.now())
		if err != nil {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: Invalid session")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnlyMiddleware is a middleware that ensures only users with the 'admin' role can access a route.
// It must be chained *after* the AuthMiddleware.
func (s *Server) AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getUserFromContext(r)
		if user == nil {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if user.Role != "admin" {
			RespondWithError(w, http.StatusForbidden, "Forbidden: Administrator access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getUserFromContext is a helper function to safely retrieve the user object from the request context.
// It returns nil if the user is not found in the context.
func getUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// idParam parses a positive integer URL parameter, writing a 400 if it is
// malformed.
func idParam(w http.ResponseWriter, r *http.Request, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		RespondWithError(w, http.StatusBadRequest, "Invalid "+label)
		return 0, false
	}
	return id, true
}

// groupRequest returns the caller and the group in the URL.
func groupRequest(w http.ResponseWriter, r *http.Request) (*models.User, int64, bool) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, 0, false
	}
	groupID, ok := idParam(w, r, "groupID", "group ID")
	if !ok {
		return nil, 0, false
	}
	return user, groupID, true
}
