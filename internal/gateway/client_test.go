package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/models"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func TestClient_LoginKeepsCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "Secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session_token", Value: "tok", Path: "/"})
		writeJSON(w, http.StatusOK, models.User{ID: 4, Username: body["username"]})
	})
	mux.HandleFunc("/api/groups/9/progress", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session_token"); err != nil || c.Value != "tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, models.ReadingProgress{GroupID: 9, CurrentPage: 3, MaxPageReached: 5, TotalPages: 50})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.GetProgress(ctx, 9)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = c.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	user, err := c.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	p, err := c.GetProgress(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 5, p.MaxPageReached)
}

func TestClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusBadRequest, apperrors.ErrValidation},
		{http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{http.StatusForbidden, apperrors.ErrNotAMember},
		{http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusConflict, apperrors.ErrConflict},
		{http.StatusInternalServerError, apperrors.ErrTransientSync},
		{http.StatusBadGateway, apperrors.ErrTransientSync},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.code), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/groups/1/progress", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.code, map[string]string{"error": "nope"})
			})
			c := newTestClient(t, mux)
			_, err := c.SetCurrentPage(context.Background(), 1, 2)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "nope", se.Message)
		})
	}
}

func TestClient_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.GetProgress(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrTransientSync)
}

func TestClient_SendsPageAndPace(t *testing.T) {
	var got map[string]int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/groups/2/progress", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		p := models.ReadingProgress{GroupID: 2}
		switch r.Method {
		case http.MethodPost:
			p.ReadingSpeedMinutes = got["reading_speed_minutes"]
		case http.MethodPut:
			p.CurrentPage = got["current_page"]
		}
		writeJSON(w, http.StatusOK, p)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	p, err := c.SetReadingSpeed(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.ReadingSpeedMinutes)

	p, err = c.SetCurrentPage(ctx, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, p.CurrentPage)
}

func TestClient_UpsertPartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/groups/3/chapter-schedules", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Schedules []models.ChapterScheduleInput `json:"schedules"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Schedules) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No schedules provided"})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.UpsertResult{
			Schedules: []*models.ChapterSchedule{},
			Errors:    []string{"Chapter 1: Date must be between 2024-01-01 and 2024-01-11"},
		})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	result, err := c.UpsertChapterSchedules(ctx, 3, []models.ChapterScheduleInput{{ChapterID: 1, TargetCompletionDate: "2030-01-01"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Len(t, result.Errors, 1)

	_, err = c.UpsertChapterSchedules(ctx, 3, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCompatibleVersions(t *testing.T) {
	assert.NoError(t, CompatibleVersions("1.2.0", "v1.5.3"))
	assert.Error(t, CompatibleVersions("1.2.0", "2.0.0"))
	assert.NoError(t, CompatibleVersions("development", "1.0.0"))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": "2.1.0"})
	})
	c := newTestClient(t, mux)
	assert.Error(t, c.CheckServerVersion(context.Background(), "1.0.0"))
	assert.NoError(t, c.CheckServerVersion(context.Background(), "2.0.1"))
}
