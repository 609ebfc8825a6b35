package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/vrsandeep/readalong/internal/gateway"
	"github.com/vrsandeep/readalong/internal/models"
)

// handleGetHomePageData returns the member's dashboard: their groups, their
// progress in each, and the reminders that apply right now.
func (s *Server) handleGetHomePageData(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var wg sync.WaitGroup
	var home models.DashboardData

	var mu sync.Mutex
	var errors []error

	wg.Add(2)

	go func() {
		defer wg.Done()
		data, err := s.homeStore.ListGroupsForUser(user.ID)
		if err != nil {
			mu.Lock()
			errors = append(errors, err)
			mu.Unlock()
		}
		home.Groups = data
	}()

	go func() {
		defer wg.Done()
		data, err := s.homeStore.ListProgressForUser(user.ID)
		if err != nil {
			mu.Lock()
			errors = append(errors, err)
			mu.Unlock()
		}
		home.Progress = data
	}()

	wg.Wait()

	if len(errors) > 0 {
		for _, e := range errors {
			log.Printf("Error fetching home page data: %v", e)
		}
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve home page data")
		return
	}

	if home.Groups == nil {
		home.Groups = []*models.Group{}
	}
	if home.Progress == nil {
		home.Progress = []*models.ReadingProgress{}
	}
	home.Reminders = gateway.Evaluate(s.gateway.Now(), home.Groups, home.Progress)
	if home.Reminders == nil {
		home.Reminders = []*models.ReminderEvent{}
	}

	RespondWithJSON(w, http.StatusOK, home)
}
