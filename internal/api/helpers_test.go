package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/readalong/internal/api"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/testutil"
)

// do sends body, marshalled to JSON unless it is already a string, and
// returns the recorded response.
func do(t *testing.T, router http.Handler, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	decode(t, rr, &body)
	msg, _ := body["error"].(string)
	return msg
}

// readingClub creates a 100 page, 3 chapter book and a group reading it
// from 2024-01-01 to 2024-01-11, created by the returned member.
type readingClub struct {
	server *api.Server
	router http.Handler
	owner  *models.User
	cookie *http.Cookie
	book   *models.Book
	group  *models.Group
}

func newReadingClub(t *testing.T, server *api.Server) *readingClub {
	t.Helper()
	cookie := testutil.CookieForUser(t, server, "alice", "Password1", "user")
	owner := testutil.UserFor(t, server, "alice")
	book := testutil.CreateBook(t, server.Store(), "Dune", 100, 3)
	group := testutil.CreateGroup(t, server.Store(), owner, book, models.NewDate(2024, 1, 1), models.NewDate(2024, 1, 11))
	return &readingClub{
		server: server,
		router: server.Router(),
		owner:  owner,
		cookie: cookie,
		book:   book,
		group:  group,
	}
}

// member signs up another user and adds them to the group.
func (c *readingClub) member(t *testing.T, username string) *http.Cookie {
	t.Helper()
	cookie := testutil.CookieForUser(t, c.server, username, "Password1", "user")
	testutil.JoinGroup(t, c.server.Store(), testutil.UserFor(t, c.server, username), c.group)
	return cookie
}

func (c *readingClub) path(suffix string) string {
	return fmt.Sprintf("/api/groups/%d%s", c.group.ID, suffix)
}
