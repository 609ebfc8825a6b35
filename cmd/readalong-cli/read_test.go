package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/readalong/internal/gateway"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/pace"
	"github.com/vrsandeep/readalong/internal/pages"
	"github.com/vrsandeep/readalong/internal/testutil"
)

// send feeds msg to the model and runs every command it produces until the
// model settles. It reports whether the model asked to quit.
func send(t *testing.T, m readerModel, msg tea.Msg) (readerModel, bool) {
	t.Helper()
	quit := false
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, ok := next.(tea.QuitMsg); ok {
			quit = true
			continue
		}
		updated, cmd := m.Update(next)
		m = updated.(readerModel)
		queue = append(queue, runCmd(cmd)...)
	}
	return m, quit
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReaderOverHTTP(t *testing.T) {
	server, _, clk := testutil.SetupTestServer(t)
	srv := httptest.NewServer(server.Router())
	defer srv.Close()

	testutil.CookieForUser(t, server, "alice", "Password1", "user")
	alice := testutil.UserFor(t, server, "alice")
	book := testutil.CreateBook(t, server.Store(), "Dune", 100, 3)
	group := testutil.CreateGroup(t, server.Store(), alice, book, models.NewDate(2024, 1, 1), models.NewDate(2024, 1, 11))

	ctx := context.Background()
	client, err := gateway.NewClient(srv.URL)
	require.NoError(t, err)
	_, err = client.Login(ctx, "alice", "Password1")
	require.NoError(t, err)

	unlocks := make(chan pace.Snapshot, 1)
	sess, err := pace.Open(ctx, client, group.ID, pace.WithClock(clk), pace.WithOnUnlock(forwardUnlock(unlocks)))
	require.NoError(t, err)

	// The timer channel is drained by the test, not by a command.
	m := newReaderModel(ctx, sess, func(ctx context.Context, n int) (*pages.Page, error) {
		return client.Page(ctx, group.ID, n)
	}, nil)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	for _, msg := range runCmd(m.Init()) {
		m, _ = send(t, m, msg)
	}
	assert.Equal(t, 1, m.shown)
	assert.Contains(t, m.View(), "Chapter 1 - Section 1")
	assert.Contains(t, m.View(), "choose a pace with 1-5")

	m, _ = send(t, m, runes("n"))
	assert.True(t, m.failed)
	assert.Equal(t, "Choose a reading pace before moving to a new page", m.notice)

	m, _ = send(t, m, runes("1"))
	assert.False(t, m.failed)
	assert.Equal(t, "Pace set to 1 min/page", m.notice)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "Keep reading, page 2 unlocks in 1m0s", m.notice)
	assert.Contains(t, m.View(), "Keep reading, page 2 unlocks in 1m0s")

	clk.Advance(time.Minute)
	select {
	case snap := <-unlocks:
		m, _ = send(t, m, unlockedMsg{snap: snap})
	case <-time.After(2 * time.Second):
		t.Fatal("no unlock notice after the dwell time")
	}
	assert.Equal(t, "Page 2 is unlocked", m.notice)
	assert.Contains(t, m.View(), "next page unlocked")

	m, _ = send(t, m, runes("n"))
	assert.Equal(t, 2, m.shown)
	assert.Contains(t, m.View(), "Chapter 1 - Section 2")
	assert.Contains(t, m.View(), "page 2/100, furthest 2 (2%), next page in 1m0s")

	t.Run("jump past the furthest page", func(t *testing.T) {
		j, _ := send(t, m, runes("g"))
		require.True(t, j.jumping)
		j, _ = send(t, j, runes("5"))
		j, _ = send(t, j, tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, j.jumping)
		assert.Equal(t, "Page 5 has not been unlocked, the next new page is 3", j.notice)
	})

	t.Run("jump to something that is not a page", func(t *testing.T) {
		j, _ := send(t, m, runes("g"))
		j, _ = send(t, j, runes("x"))
		j, _ = send(t, j, tea.KeyMsg{Type: tea.KeyEnter})
		assert.Equal(t, `"x" is not a page number`, j.notice)
	})

	t.Run("escape leaves the jump prompt", func(t *testing.T) {
		j, _ := send(t, m, runes("g"))
		j, _ = send(t, j, tea.KeyMsg{Type: tea.KeyEsc})
		assert.False(t, j.jumping)
		assert.Equal(t, 2, j.snap.CurrentPage)
	})

	// Going back and quitting still stores the furthest page.
	m, _ = send(t, m, runes("p"))
	assert.Equal(t, 1, m.shown)
	m, quit := send(t, m, runes("q"))
	assert.True(t, quit)
	require.NoError(t, m.err)
	assert.True(t, sess.Closed())

	p, err := server.Store().GetProgress(alice.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 2, p.MaxPageReached)
	assert.Equal(t, 1, p.ReadingSpeedMinutes)
}

func TestForwardUnlockKeepsOnePendingNotice(t *testing.T) {
	ch := make(chan pace.Snapshot, 1)
	notify := forwardUnlock(ch)
	notify(pace.Snapshot{MaxPageReached: 3})
	notify(pace.Snapshot{MaxPageReached: 4})

	assert.Equal(t, 3, (<-ch).MaxPageReached)
	select {
	case <-ch:
		t.Fatal("second notice should have been dropped")
	default:
	}
}

func TestGroupArg(t *testing.T) {
	id, err := groupArg("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := groupArg(bad)
		assert.Error(t, err, bad)
	}
}
