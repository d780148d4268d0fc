// Package appctx holds the per-run context threaded through the pipeline.
// A Run is built once by the command layer; nothing in the process keeps it
// in a global.
package appctx

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/naming"
	"github.com/ginjaninja78/invoicing/internal/tokens"
	"github.com/ginjaninja78/invoicing/pkg/utils"
)

// AppName is the application name exposed as <<APP_NAME>>.
const AppName = "invoicing"

// Run is everything a component needs to know about the current run.
type Run struct {
	ID      string
	Started time.Time
	Version string

	Config    *config.Config
	Workspace *utils.Workspace
	Log       *logrus.Entry
}

// New starts a run clocked at now. Entries are discarded until UseLogger.
func New(cfg *config.Config, version string, now time.Time) *Run {
	log := logrus.New()
	log.SetOutput(io.Discard)
	id := uuid.NewString()
	ws := cfg.Workspace
	return &Run{
		ID:      id,
		Started: now,
		Version: version,
		Config:  cfg,
		Workspace: &utils.Workspace{
			Root:   ws.Root,
			Input:  ws.Input,
			Output: ws.Output,
			Model:  ws.Model,
			Logs:   ws.Logs,
			Key:    ws.Key,
		},
		Log: log.WithField("run_id", id),
	}
}

// Syntax is the configured token delimiter pair.
func (r *Run) Syntax() tokens.Syntax {
	return tokens.Syntax{Open: r.Config.Syntax.Open, Close: r.Config.Syntax.Close}
}

// Names returns a path resolver clocked at the run start.
func (r *Run) Names() *naming.Resolver {
	res := naming.New(naming.Formats{
		Date:     r.Config.Formats.Date,
		Time:     r.Config.Formats.Time,
		DateTime: r.Config.Formats.DateTime,
	}, r.Started, r.Constants())
	res.Syntax = r.Syntax()
	return res
}

// Constants are the process values exposed to templates.
func (r *Run) Constants() naming.Constants {
	return naming.Constants{AppName: AppName, Version: r.Version, RunID: r.ID}
}

// UseLogger routes the run entries to log.
func (r *Run) UseLogger(log *logrus.Logger) {
	r.Log = log.WithField("run_id", r.ID)
}
