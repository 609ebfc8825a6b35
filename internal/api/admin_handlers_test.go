package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/readalong/internal/jobs"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/testutil"
	"github.com/vrsandeep/readalong/internal/websocket"
)

func TestAdminHandlers(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)
	router := server.Router()

	adminCookie := testutil.GetAuthCookie(t, server, "testadmin", "password", "admin")
	userCookie := testutil.GetAuthCookie(t, server, "testuser", "password", "user")

	testCases := []struct {
		name     string
		endpoint string
		method   string
	}{
		{"Jobs Status", "/api/admin/jobs/status", "GET"},
		{"Run Job", "/api/admin/jobs/run", "POST"},
		{"Create Book", "/api/admin/books", "POST"},
		{"List Users", "/api/admin/users", "GET"},
	}

	for _, tc := range testCases {
		t.Run("Forbidden for users: "+tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, tc.endpoint, nil)
			req.AddCookie(userCookie) // Use a regular user cookie
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if status := rr.Code; status != http.StatusForbidden {
				t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusForbidden)
			}
		})
	}

	t.Run("Get Version", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/version", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v %s", status, http.StatusOK, rr.Body.String())
		}
		var body map[string]string
		decode(t, rr, &body)
		assert.Equal(t, "test", body["version"])
	})

	t.Run("Health", func(t *testing.T) {
		rr := do(t, router, "GET", "/api/health", nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Create a book with chapter titles", func(t *testing.T) {
		rr := do(t, router, "POST", "/api/admin/books", map[string]interface{}{
			"title":          "Middlemarch",
			"author":         "George Eliot",
			"genre":          "Classic",
			"total_pages":    880,
			"total_chapters": 3,
			"chapter_titles": []string{"Miss Brooke", "", "Waiting for Death"},
		}, adminCookie)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var book models.Book
		decode(t, rr, &book)
		assert.NotZero(t, book.ID)
		require.Len(t, book.Chapters, 3)
		assert.Equal(t, "Miss Brooke", book.Chapters[0].Title)
		assert.Equal(t, "Chapter 2", book.Chapters[1].Title)

		rr = do(t, router, "GET", "/api/books?search=middle", nil, userCookie)
		require.Equal(t, http.StatusOK, rr.Code)
		var books []models.Book
		decode(t, rr, &books)
		assert.Len(t, books, 1)
	})

	t.Run("Book without pages", func(t *testing.T) {
		rr := do(t, router, "POST", "/api/admin/books", map[string]interface{}{
			"title":  "Empty",
			"author": "Nobody",
		}, adminCookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Total pages must be positive", errorMessage(t, rr))
	})

	t.Run("Jobs status lists the registered jobs", func(t *testing.T) {
		rr := do(t, router, "GET", "/api/admin/jobs/status", nil, adminCookie)
		require.Equal(t, http.StatusOK, rr.Code)
		var statuses []jobs.JobStatus
		decode(t, rr, &statuses)
		ids := make([]string, 0, len(statuses))
		for _, s := range statuses {
			ids = append(ids, s.ID)
		}
		assert.ElementsMatch(t, []string{jobs.LoginPruneJob, jobs.ReminderRefreshJob, jobs.SessionReaperJob}, ids)
	})

	t.Run("Run a job", func(t *testing.T) {
		rr := do(t, router, "POST", "/api/admin/jobs/run", map[string]string{"job_name": jobs.LoginPruneJob}, adminCookie)
		require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

		assert.Eventually(t, func() bool {
			for _, s := range server.App().JobManager().GetStatus() {
				if s.ID == jobs.LoginPruneJob {
					return s.Status == "success"
				}
			}
			return false
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("Run an unknown job", func(t *testing.T) {
		rr := do(t, router, "POST", "/api/admin/jobs/run", map[string]string{"job_name": "nope"}, adminCookie)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestNewBookIsPushedToConnectedMembers(t *testing.T) {
	server, _, _ := testutil.SetupTestServer(t)
	router := server.Router()
	srv := httptest.NewServer(router)
	defer srv.Close()

	adminCookie := testutil.GetAuthCookie(t, server, "testadmin", "password", "admin")
	userCookie := testutil.GetAuthCookie(t, server, "reader", "password", "user")

	header := http.Header{}
	header.Add("Cookie", userCookie.String())
	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return server.App().WsHub().Count() == 1 }, 2*time.Second, 5*time.Millisecond)

	rr := do(t, router, "POST", "/api/admin/books", map[string]interface{}{
		"title": "Emma", "author": "Jane Austen", "total_pages": 300, "total_chapters": 2,
	}, adminCookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Type string      `json:"type"`
		Data models.Book `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, websocket.EventBookAdded, event.Type)
	assert.Equal(t, "Emma", event.Data.Title)
	assert.Len(t, event.Data.Chapters, 2)
}
