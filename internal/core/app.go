package core

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vrsandeep/readalong/internal/assets"
	"github.com/vrsandeep/readalong/internal/config"
	"github.com/vrsandeep/readalong/internal/db"
	"github.com/vrsandeep/readalong/internal/gateway"
	"github.com/vrsandeep/readalong/internal/jobs"
	"github.com/vrsandeep/readalong/internal/pace"
	"github.com/vrsandeep/readalong/internal/pages"
	"github.com/vrsandeep/readalong/internal/store"
	"github.com/vrsandeep/readalong/internal/websocket"
)

// App holds the core components of the application that are shared
// between the server, the background jobs and the CLI.
type App struct {
	config   *config.Config
	db       *sql.DB
	store    *store.Store
	wsHub    *websocket.Hub
	jobs     *jobs.JobManager
	sessions *pace.Manager
	gateway  *gateway.Service
	pages    *pages.Source
	clock    clockwork.Clock
	location *time.Location

	Version string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// Nothing works without a valid schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app, err := Assemble(cfg, database, clockwork.NewRealClock())
	if err != nil {
		database.Close()
		return nil, err
	}
	log.Println("Core application setup complete.")
	return app, nil
}

// Assemble wires an App around an open, migrated database. Tests use it
// with an in-memory database and a fake clock.
func Assemble(cfg *config.Config, database *sql.DB, c clockwork.Clock) (*App, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if c == nil {
		c = clockwork.NewRealClock()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub()
	go hub.Run()

	st := store.New(database)
	st.SetMaxMembers(cfg.MaxMembers())

	app := &App{
		config:   cfg,
		db:       database,
		store:    st,
		wsHub:    hub,
		gateway:  gateway.NewService(st, c, loc),
		pages:    pages.NewSource(cfg.Pages.Path),
		clock:    c,
		location: loc,
		Version:  "development",
	}
	app.sessions = pace.NewManager(c, app.pushUnlock)
	app.jobs = jobs.NewManager(app)
	jobs.RegisterAll(app.jobs)
	return app, nil
}

func (a *App) pushUnlock(userID int64, snap pace.Snapshot) {
	a.wsHub.SendJSON(userID, websocket.Event{
		Type:    websocket.EventPageUnlocked,
		GroupID: snap.GroupID,
		Data:    snap,
	})
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) DB() *sql.DB {
	return a.db
}

func (a *App) Store() *store.Store {
	return a.store
}

func (a *App) WsHub() *websocket.Hub {
	return a.wsHub
}

func (a *App) JobManager() *jobs.JobManager {
	return a.jobs
}

// Sessions holds the server-side reading sessions.
func (a *App) Sessions() *pace.Manager {
	return a.sessions
}

func (a *App) Gateway() *gateway.Service {
	return a.gateway
}

func (a *App) Pages() *pages.Source {
	return a.pages
}

func (a *App) Clock() clockwork.Clock {
	return a.clock
}

// Location is the timezone calendar days are counted in.
func (a *App) Location() *time.Location {
	return a.location
}

// Close releases the page watcher and the database. Reading sessions
// should be closed before this so their progress is saved.
func (a *App) Close() {
	if a.pages != nil {
		if err := a.pages.Close(); err != nil {
			log.Printf("Error stopping page watcher: %v", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
