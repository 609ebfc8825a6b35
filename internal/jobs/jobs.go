package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vrsandeep/readalong/internal/store"
	"github.com/vrsandeep/readalong/internal/websocket"
)

const (
	ReminderRefreshJob = "reminder-refresh"
	SessionReaperJob   = "session-reaper"
	LoginPruneJob      = "login-prune"
)

// RegisterAll adds every background job to jm.
func RegisterAll(jm *JobManager) {
	jm.Register(ReminderRefreshJob, "Push reminders", RunReminderRefresh)
	jm.Register(SessionReaperJob, "Close idle reading sessions", RunSessionReaper)
	jm.Register(LoginPruneJob, "Prune expired logins", RunLoginPrune)
}

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	cfg := app.Config().Jobs
	scheduleJob(s, app, ReminderRefreshJob, cfg.ReminderInterval)
	scheduleJob(s, app, SessionReaperJob, cfg.SessionReaperInterval)
	scheduleJob(s, app, LoginPruneJob, cfg.LoginPruneInterval)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func scheduleJob(s *gocron.Scheduler, app JobContext, jobID string, interval int) {
	if interval <= 0 {
		log.Printf("Interval for '%s' is 0, scheduled runs are disabled.", jobID)
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", jobID, interval)
	_, err := s.Every(interval).Minutes().WaitForSchedule().Do(func() {
		log.Println("Scheduler is triggering job:", jobID)
		// Going through the manager keeps scheduled and manual runs from overlapping.
		if err := app.JobManager().RunJob(jobID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", jobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", jobID, err)
	}
}

// RunReminderRefresh pushes fresh reminders to every connected member.
func RunReminderRefresh(ctx JobContext) (string, error) {
	hub := ctx.WsHub()
	users := hub.ConnectedUsers()
	sent := 0
	for _, userID := range users {
		events, err := ctx.Gateway().ForUser(userID).Reminders(context.Background())
		if err != nil {
			log.Printf("Reminder refresh for user %d failed: %v", userID, err)
			continue
		}
		hub.SendJSON(userID, websocket.Event{Type: websocket.EventReminders, Data: events})
		sent++
	}
	return fmt.Sprintf("Sent reminders to %d of %d connected member(s).", sent, len(users)), nil
}

// RunSessionReaper closes reading sessions that have been idle too long,
// saving each member's progress.
func RunSessionReaper(ctx JobContext) (string, error) {
	idle := time.Duration(ctx.Config().Jobs.SessionIdleTimeout) * time.Minute
	if idle <= 0 {
		return "Idle timeout is 0, nothing reaped.", nil
	}
	n := ctx.Sessions().ReapIdle(context.Background(), idle)
	return fmt.Sprintf("Closed %d idle reading session(s).", n), nil
}

// RunLoginPrune deletes expired login sessions.
func RunLoginPrune(ctx JobContext) (string, error) {
	n, err := store.New(ctx.DB()).DeleteExpiredSessions(ctx.Clock().Now())
	if err != nil {
		return "", fmt.Errorf("pruning logins: %w", err)
	}
	return fmt.Sprintf("Removed %d expired login(s).", n), nil
}
