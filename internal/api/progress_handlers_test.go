package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/testutil"
)

func TestProgressHandlers(t *testing.T) {
	server, _, clk := testutil.SetupTestServer(t)
	club := newReadingClub(t, server)
	router := club.router

	t.Run("Get creates progress on page one", func(t *testing.T) {
		rr := do(t, router, "GET", club.path("/progress"), nil, club.cookie)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var p models.ReadingProgress
		decode(t, rr, &p)
		assert.Equal(t, 1, p.CurrentPage)
		assert.Equal(t, 1, p.MaxPageReached)
		assert.Equal(t, 0, p.ReadingSpeedMinutes)
		assert.Equal(t, 100, p.TotalPages)
		assert.Equal(t, "Dune", p.BookTitle)
	})

	t.Run("Cannot advance before choosing a pace", func(t *testing.T) {
		rr := do(t, router, "PUT", club.path("/progress"), map[string]int{"current_page": 2}, club.cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Choose a reading pace before moving to a new page", errorMessage(t, rr))
	})

	t.Run("Invalid pace is rejected", func(t *testing.T) {
		rr := do(t, router, "POST", club.path("/progress"), map[string]int{"reading_speed_minutes": 9}, club.cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Reading speed must be between 1 and 5 minutes per page", errorMessage(t, rr))
	})

	t.Run("Set pace once", func(t *testing.T) {
		rr := do(t, router, "POST", club.path("/progress"), map[string]int{"reading_speed_minutes": 2}, club.cookie)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var p models.ReadingProgress
		decode(t, rr, &p)
		assert.Equal(t, 2, p.ReadingSpeedMinutes)
		require.NotNil(t, p.LastReadAt)
		assert.True(t, p.LastReadAt.Equal(testutil.Start))

		rr = do(t, router, "POST", club.path("/progress"), map[string]int{"reading_speed_minutes": 3}, club.cookie)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Next page stays locked during the dwell time", func(t *testing.T) {
		clk.Advance(90 * time.Second)
		rr := do(t, router, "PUT", club.path("/progress"), map[string]int{"current_page": 2}, club.cookie)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Next page unlocks after the dwell time", func(t *testing.T) {
		clk.Advance(30 * time.Second)
		rr := do(t, router, "PUT", club.path("/progress"), map[string]int{"current_page": 2}, club.cookie)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var p models.ReadingProgress
		decode(t, rr, &p)
		assert.Equal(t, 2, p.CurrentPage)
		assert.Equal(t, 2, p.MaxPageReached)
	})

	t.Run("Pages cannot be skipped", func(t *testing.T) {
		clk.Advance(10 * time.Minute)
		rr := do(t, router, "PUT", club.path("/progress"), map[string]int{"current_page": 4}, club.cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Page 4 has not been unlocked yet", errorMessage(t, rr))
	})

	t.Run("Going back keeps the high-water mark", func(t *testing.T) {
		rr := do(t, router, "PUT", club.path("/progress"), map[string]int{"current_page": 1}, club.cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		var p models.ReadingProgress
		decode(t, rr, &p)
		assert.Equal(t, 1, p.CurrentPage)
		assert.Equal(t, 2, p.MaxPageReached)
	})

	t.Run("Page out of range", func(t *testing.T) {
		rr := do(t, router, "PUT", club.path("/progress"), map[string]int{"current_page": 101}, club.cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Page must be between 1 and 100", errorMessage(t, rr))
	})

	t.Run("Non-member is forbidden", func(t *testing.T) {
		outsider := testutil.CookieForUser(t, server, "mallory", "Password1", "user")
		rr := do(t, router, "GET", club.path("/progress"), nil, outsider)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Unknown group", func(t *testing.T) {
		rr := do(t, router, "GET", "/api/groups/999/progress", nil, club.cookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Malformed payload", func(t *testing.T) {
		rr := do(t, router, "PUT", club.path("/progress"), "{", club.cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("List progress across groups", func(t *testing.T) {
		rr := do(t, router, "GET", "/api/progress", nil, club.cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		var list []models.ReadingProgress
		decode(t, rr, &list)
		require.Len(t, list, 1)
		assert.Equal(t, club.group.ID, list[0].GroupID)
	})

	t.Run("Requires login", func(t *testing.T) {
		rr := do(t, router, "GET", club.path("/progress"), nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestProgressStatsAndReminders(t *testing.T) {
	server, db, _ := testutil.SetupTestServer(t)
	club := newReadingClub(t, server)
	router := club.router

	bob := club.member(t, "bob")
	club.member(t, "carol")

	setPage := func(username string, page int) {
		user := testutil.UserFor(t, server, username)
		_, err := server.Store().GetOrCreateProgress(user.ID, club.group.ID, testutil.Start)
		require.NoError(t, err)
		_, err = db.Exec(`UPDATE reading_progress SET max_page_reached = ?, current_page = ? WHERE user_id = ? AND group_id = ?`,
			page, page, user.ID, club.group.ID)
		require.NoError(t, err)
	}
	setPage("alice", 100)
	setPage("bob", 30)

	t.Run("Stats group members by standing", func(t *testing.T) {
		rr := do(t, router, "GET", club.path("/progress-stats"), nil, bob)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var stats models.ProgressStats
		decode(t, rr, &stats)
		assert.Equal(t, 3, stats.TotalMembers)
		assert.Equal(t, 50, stats.ExpectedProgress)
		assert.Equal(t, 1, stats.Completed.Count)
		assert.Equal(t, 1, stats.Behind.Count)
		assert.Equal(t, 0, stats.OnTrack.Count)
		assert.Equal(t, 1, stats.NotStarted.Count)
		require.Len(t, stats.Behind.Members, 1)
		assert.Equal(t, "bob", stats.Behind.Members[0].Username)
		assert.Equal(t, 30, stats.Behind.Members[0].ProgressPercent)
	})

	t.Run("Behind member is reminded", func(t *testing.T) {
		rr := do(t, router, "GET", "/api/reminders", nil, bob)
		require.Equal(t, http.StatusOK, rr.Code)

		var events []models.ReminderEvent
		decode(t, rr, &events)
		require.Len(t, events, 1)
		assert.Equal(t, models.ReminderBehind, events[0].Kind)
		assert.Equal(t, club.group.ID, events[0].GroupID)
		assert.Contains(t, events[0].Message, "should be at 50%")
		assert.Contains(t, events[0].Message, "read 20 more pages")
	})

	t.Run("Finished member gets no reminder", func(t *testing.T) {
		rr := do(t, router, "GET", "/api/reminders", nil, club.cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		var events []models.ReminderEvent
		decode(t, rr, &events)
		assert.Empty(t, events)
	})
}
