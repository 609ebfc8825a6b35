package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vrsandeep/readalong/internal/api"
	"github.com/vrsandeep/readalong/internal/auth"
	"github.com/vrsandeep/readalong/internal/models"
)

// GetAuthCookie creates a user, logs them in, and returns a valid session cookie.
func GetAuthCookie(t *testing.T, s *api.Server, username, password, role string) *http.Cookie {
	t.Helper()

	// Step 1: hash the password; CreateUser stores what it is given.
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password for test user: %v", err)
	}
	_, err = s.Store().CreateUser(username, passwordHash, role, Start)
	if err != nil {
		t.Fatalf("Failed to create test user '%s': %v", username, err)
	}

	// Step 2: Log in as the newly created user to get a session.
	loginPayload := map[string]string{"username": username, "password": password}
	payloadBytes, _ := json.Marshal(loginPayload)
	req, _ := http.NewRequest("POST", "/api/users/login", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	// Assert that the login was successful.
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("Login failed within test helper for user '%s': got status %d, want 200", username, status)
	}

	// Step 3: Extract the session cookie from the response.
	cookies := rr.Result().Cookies()
	for _, cookie := range cookies {
		if cookie.Name == "session_token" {
			return cookie
		}
	}

	t.Fatal("Failed to get session cookie after successful login for test user")
	return nil
}

// CookieForUser is GetAuthCookie plus removal of the user when the test ends.
func CookieForUser(t *testing.T, server *api.Server, username, password, role string) *http.Cookie {
	t.Helper()
	cookie := GetAuthCookie(t, server, username, password, role)
	if cookie == nil {
		t.Fatal("Failed to get session cookie after successful login for test user")
	}
	// on cleanup, delete the user
	t.Cleanup(func() {
		user, err := server.Store().GetUserByUsername(username)
		if err == nil {
			server.Store().DeleteUser(user.ID)
		}
	})
	return cookie
}

// UserFor returns the stored user behind username.
func UserFor(t *testing.T, server *api.Server, username string) *models.User {
	t.Helper()
	user, err := server.Store().GetUserByUsername(username)
	if err != nil {
		t.Fatalf("Failed to load user '%s': %v", username, err)
	}
	return user
}
