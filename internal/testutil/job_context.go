// Shared utilities for running jobs against a test app.

package testutil

import (
	"database/sql"

	"github.com/jonboulle/clockwork"
	"github.com/vrsandeep/readalong/internal/config"
	"github.com/vrsandeep/readalong/internal/core"
	"github.com/vrsandeep/readalong/internal/gateway"
	"github.com/vrsandeep/readalong/internal/jobs"
	"github.com/vrsandeep/readalong/internal/pace"
	"github.com/vrsandeep/readalong/internal/websocket"
)

// MockJobContext implements jobs.JobContext for testing. Cfg, when set,
// replaces the app's configuration.
type MockJobContext struct {
	App *core.App
	Cfg *config.Config
}

func (m *MockJobContext) DB() *sql.DB { return m.App.DB() }

func (m *MockJobContext) Config() *config.Config {
	if m.Cfg != nil {
		return m.Cfg
	}
	return m.App.Config()
}

func (m *MockJobContext) WsHub() *websocket.Hub        { return m.App.WsHub() }
func (m *MockJobContext) JobManager() *jobs.JobManager { return m.App.JobManager() }
func (m *MockJobContext) Sessions() *pace.Manager      { return m.App.Sessions() }
func (m *MockJobContext) Gateway() *gateway.Service    { return m.App.Gateway() }
func (m *MockJobContext) Clock() clockwork.Clock       { return m.App.Clock() }
