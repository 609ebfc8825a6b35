// Shared test server setup, which keeps the API tests short.

package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vrsandeep/readalong/internal/api"
	"github.com/vrsandeep/readalong/internal/auth"
	"github.com/vrsandeep/readalong/internal/config"
	"github.com/vrsandeep/readalong/internal/core"
	"golang.org/x/crypto/bcrypt"
)

// Start is where the fake clock of a test app begins: mid-morning on the
// sixth day of a group that runs 2024-01-01 to 2024-01-11.
var Start = time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)

func init() {
	// Full-cost hashing makes every login in a test take a second.
	auth.Cost = bcrypt.MinCost
}

// SetupTestApp assembles a core.App over an in-memory database, driven by a
// fake clock.
func SetupTestApp(t *testing.T) (*core.App, *clockwork.FakeClock) {
	t.Helper()
	db := SetupTestDB(t)

	c := clockwork.NewFakeClockAt(Start)
	app, err := core.Assemble(&config.Config{}, db, c)
	if err != nil {
		t.Fatalf("Failed to assemble app: %v", err)
	}
	app.Version = "test"
	t.Cleanup(func() {
		app.Sessions().CloseAll(context.Background())
	})
	return app, c
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *sql.DB, *clockwork.FakeClock) {
	t.Helper()
	app, c := SetupTestApp(t)
	return api.NewServer(app), app.DB(), c
}
