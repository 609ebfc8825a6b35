// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/readalong/internal/core"
	"github.com/vrsandeep/readalong/internal/gateway"
	"github.com/vrsandeep/readalong/internal/store"
)

// Server holds the dependencies for our API.
type Server struct {
	app       *core.App
	db        *sql.DB
	store     *store.Store
	gateway   *gateway.Service
	homeStore HomeStore
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// App returns the application the server runs in.
func (s *Server) App() *core.App {
	return s.app
}

// now reads the application clock, which stamps everything the API stores.
func (s *Server) now() time.Time {
	return s.app.Clock().Now()
}

// SetHomeStore sets the home store for testing purposes
func (s *Server) SetHomeStore(homeStore HomeStore) {
	s.homeStore = homeStore
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:       app,
		db:        app.DB(),
		store:     app.Store(),
		gateway:   app.Gateway(),
		homeStore: app.Store(),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/api/users/register", s.handleRegister)
	r.Post("/api/users/login", s.handleLogin)
	r.Get("/api/users/check-username", s.handleCheckUsername)
	r.Get("/api/version", s.handleGetVersion)

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Post("/api/users/logout", s.handleLogout)
		r.Get("/api/users/me", s.handleGetMe)

		r.Route("/api", func(r chi.Router) {
			r.Get("/home", s.handleGetHomePageData)
			r.Get("/reminders", s.handleListReminders)
			r.Get("/progress", s.handleListProgress)

			r.Get("/books", s.handleListBooks)
			r.Get("/books/{bookID}", s.handleGetBook)

			r.Get("/groups", s.handleListGroups)
			r.Post("/groups", s.handleCreateGroup)
			r.Route("/groups/{groupID}", func(r chi.Router) {
				r.Get("/", s.handleGetGroup)
				r.Post("/join", s.handleJoinGroup)
				r.Post("/leave", s.handleLeaveGroup)

				r.Get("/progress", s.handleGetProgress)
				r.Post("/progress", s.handleSetReadingSpeed)
				r.Put("/progress", s.handleSetCurrentPage)
				r.Get("/progress-stats", s.handleGetProgressStats)

				r.Get("/chapters", s.handleGetGroupChapters)
				r.Get("/pages/{page}", s.handleGetPage)

				r.Get("/chapter-schedules", s.handleListChapterSchedules)
				r.Post("/chapter-schedules", s.handleUpsertChapterSchedules)
				r.Put("/chapter-schedules/{scheduleID}", s.handleUpdateChapterSchedule)
				r.Delete("/chapter-schedules/{scheduleID}", s.handleDeleteChapterSchedule)

				// Server-held reading sessions
				r.Get("/reading", s.handleGetReading)
				r.Post("/reading/open", s.handleOpenReading)
				r.Post("/reading/pace", s.handleReadingPace)
				r.Post("/reading/next", s.handleReadingNext)
				r.Post("/reading/prev", s.handleReadingPrev)
				r.Post("/reading/goto", s.handleReadingGoTo)
				r.Post("/reading/close", s.handleCloseReading)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.AdminOnlyMiddleware)

				r.Post("/books", s.handleAdminCreateBook)

				r.Get("/jobs/status", s.handleGetAdminJobsStatus)
				r.Post("/jobs/run", s.handleRunAdminJob)

				r.Get("/users", s.handleAdminListUsers)
				r.Post("/users", s.handleAdminCreateUser)
				r.Delete("/users/{userID}", s.handleAdminDeleteUser)
			})
		})

		r.Get("/ws", s.handleWebsocket)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.app.WsHub().ServeWs(w, r, user.ID)
}
