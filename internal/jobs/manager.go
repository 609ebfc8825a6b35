package jobs

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/vrsandeep/readalong/internal/config"
	"github.com/vrsandeep/readalong/internal/gateway"
	"github.com/vrsandeep/readalong/internal/pace"
	"github.com/vrsandeep/readalong/internal/websocket"
)

// JobContext is an interface that provides the necessary dependencies for a job to run.
// The core.App struct will implement this interface.
type JobContext interface {
	DB() *sql.DB
	Config() *config.Config
	WsHub() *websocket.Hub
	JobManager() *JobManager
	Sessions() *pace.Manager
	Gateway() *gateway.Service
	Clock() clockwork.Clock
}

// A task reports a one-line summary of what it did.
type jobTask func(ctx JobContext) (string, error)

type JobStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RunID     string    `json:"run_id,omitempty"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

type JobManager struct {
	mu      sync.Mutex
	jobs    map[string]jobTask
	status  map[string]*JobStatus
	running map[string]bool
	appCtx  JobContext // used by scheduled runs
}

func NewManager(appCtx JobContext) *JobManager {
	return &JobManager{
		jobs:    make(map[string]jobTask),
		status:  make(map[string]*JobStatus),
		running: make(map[string]bool),
		appCtx:  appCtx,
	}
}

func (jm *JobManager) Register(id, name string, task jobTask) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.jobs[id] = task
	jm.status[id] = &JobStatus{ID: id, Name: name, Status: "idle"}
}

// RunJob starts a job in the background. A job that is still running is
// not started a second time; different jobs may run side by side.
func (jm *JobManager) RunJob(id string, ctx JobContext) error {
	jm.mu.Lock()
	task, ok := jm.jobs[id]
	if !ok {
		jm.mu.Unlock()
		return fmt.Errorf("job '%s' not found", id)
	}
	if jm.running[id] {
		jm.mu.Unlock()
		return fmt.Errorf("job '%s' is already running", id)
	}
	if ctx == nil {
		ctx = jm.appCtx
	}

	jm.running[id] = true
	status := jm.status[id]
	status.RunID = uuid.NewString()
	status.Status = "running"
	status.StartTime = time.Now()
	status.EndTime = time.Time{}
	status.Message = "Job started..."
	jm.mu.Unlock()

	log.Printf("Starting job: %s", id)
	go func() {
		var (
			msg string
			err error
		)
		defer func() {
			jm.mu.Lock()
			defer jm.mu.Unlock()
			if r := recover(); r != nil {
				log.Printf("Job '%s' panicked: %v", id, r)
				status.Status = "failed"
				status.Message = fmt.Sprintf("Job panicked: %v", r)
			} else if err != nil {
				log.Printf("Job '%s' failed: %v", id, err)
				status.Status = "failed"
				status.Message = err.Error()
			} else {
				status.Status = "success"
				status.Message = msg
				if status.Message == "" {
					status.Message = "Job completed successfully."
				}
			}
			status.EndTime = time.Now()
			jm.running[id] = false
			log.Printf("Finished job: %s", id)
		}()

		msg, err = task(ctx)
	}()
	return nil
}

// GetStatus returns a copy of every job's status, ordered by ID.
func (jm *JobManager) GetStatus() []*JobStatus {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	statuses := make([]*JobStatus, 0, len(jm.status))
	for _, s := range jm.status {
		c := *s
		statuses = append(statuses, &c)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}
