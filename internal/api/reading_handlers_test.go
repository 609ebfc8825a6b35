package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/pace"
	"github.com/vrsandeep/readalong/internal/testutil"
)

func TestReadingSessionHandlers(t *testing.T) {
	server, _, clk := testutil.SetupTestServer(t)
	club := newReadingClub(t, server)
	router := club.router

	snapshot := func(t *testing.T, method, suffix string, body interface{}, want int) pace.Snapshot {
		t.Helper()
		rr := do(t, router, method, club.path(suffix), body, club.cookie)
		require.Equal(t, want, rr.Code, rr.Body.String())
		var snap pace.Snapshot
		if want == http.StatusOK {
			decode(t, rr, &snap)
		}
		return snap
	}

	t.Run("No session yet", func(t *testing.T) {
		rr := do(t, router, "GET", club.path("/reading"), nil, club.cookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "No open reading session", errorMessage(t, rr))
	})

	t.Run("Open starts on the high-water mark", func(t *testing.T) {
		snap := snapshot(t, "POST", "/reading/open", nil, http.StatusOK)
		assert.NotEmpty(t, snap.SessionID)
		assert.Equal(t, 1, snap.CurrentPage)
		assert.Equal(t, pace.Unset, snap.State)
		assert.Equal(t, 1, server.App().Sessions().Len())
	})

	t.Run("Next without a pace", func(t *testing.T) {
		rr := do(t, router, "POST", club.path("/reading/next"), nil, club.cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Choosing a pace locks the next page", func(t *testing.T) {
		snap := snapshot(t, "POST", "/reading/pace", map[string]int{"reading_speed_minutes": 2}, http.StatusOK)
		assert.Equal(t, pace.Locked, snap.State)
		assert.Equal(t, 120, snap.RemainingSeconds)
		assert.Equal(t, 2, snap.ReadingSpeedMinutes)

		snapshot(t, "POST", "/reading/next", nil, http.StatusConflict)
	})

	t.Run("Next page after the dwell time", func(t *testing.T) {
		clk.Advance(2 * time.Minute)
		snap := snapshot(t, "GET", "/reading", nil, http.StatusOK)
		assert.Equal(t, pace.Unlocked, snap.State)

		snap = snapshot(t, "POST", "/reading/next", nil, http.StatusOK)
		assert.Equal(t, 2, snap.CurrentPage)
		assert.Equal(t, 2, snap.MaxPageReached)
		assert.Equal(t, pace.Locked, snap.State)
	})

	t.Run("Browse back and forward", func(t *testing.T) {
		snap := snapshot(t, "POST", "/reading/prev", nil, http.StatusOK)
		assert.Equal(t, 1, snap.CurrentPage)
		assert.Equal(t, 2, snap.MaxPageReached)

		snap = snapshot(t, "POST", "/reading/goto", map[string]int{"page": 2}, http.StatusOK)
		assert.Equal(t, 2, snap.CurrentPage)

		snapshot(t, "POST", "/reading/goto", map[string]int{"page": 5}, http.StatusBadRequest)
		snapshot(t, "POST", "/reading/goto", map[string]int{"page": 0}, http.StatusBadRequest)
	})

	t.Run("Pace cannot change", func(t *testing.T) {
		snapshot(t, "POST", "/reading/pace", map[string]int{"reading_speed_minutes": 4}, http.StatusConflict)
	})

	t.Run("Close stores the high-water mark", func(t *testing.T) {
		snapshot(t, "POST", "/reading/prev", nil, http.StatusOK)
		rr := do(t, router, "POST", club.path("/reading/close"), nil, club.cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 0, server.App().Sessions().Len())

		rr = do(t, router, "GET", club.path("/progress"), nil, club.cookie)
		var p models.ReadingProgress
		decode(t, rr, &p)
		assert.Equal(t, 2, p.CurrentPage)
		assert.Equal(t, 2, p.MaxPageReached)

		rr = do(t, router, "GET", club.path("/reading"), nil, club.cookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Outsider cannot open a session", func(t *testing.T) {
		outsider := testutil.CookieForUser(t, server, "mallory", "Password1", "user")
		rr := do(t, router, "POST", club.path("/reading/open"), nil, outsider)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestProgressWriteRefreshesOpenSession(t *testing.T) {
	server, _, clk := testutil.SetupTestServer(t)
	club := newReadingClub(t, server)
	router := club.router

	rr := do(t, router, "POST", club.path("/reading/open"), nil, club.cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, "POST", club.path("/progress"), map[string]int{"reading_speed_minutes": 1}, club.cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, "GET", club.path("/reading"), nil, club.cookie)
	var snap pace.Snapshot
	decode(t, rr, &snap)
	assert.Equal(t, 1, snap.ReadingSpeedMinutes)
	assert.Equal(t, pace.Locked, snap.State)

	clk.Advance(time.Minute)
	rr = do(t, router, "PUT", club.path("/progress"), map[string]int{"current_page": 2}, club.cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, "GET", club.path("/reading"), nil, club.cookie)
	decode(t, rr, &snap)
	assert.Equal(t, 2, snap.MaxPageReached)
}
