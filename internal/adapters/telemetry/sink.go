package telemetry

import (
	"github.com/vito/progrock"
	"go.trai.ch/bext/internal/core/ports"
)

// logWriter renders the progrock status stream as plain log lines.
// Builds usually run non-interactively (CI, scripts), so there is no
// TUI; progress still surfaces per vertex.
type logWriter struct {
	log ports.Logger
}

func (w *logWriter) WriteStatus(status *progrock.StatusUpdate) error {
	for _, v := range status.Vertexes {
		switch {
		case v.GetCached():
			w.log.Info("cached", "step", v.GetName())
		case v.GetError() != "":
			w.log.Warn("step failed", "step", v.GetName(), "error", v.GetError())
		case v.Completed != nil:
			w.log.Info("done", "step", v.GetName())
		case v.Started != nil:
			w.log.Info("start", "step", v.GetName())
		}
	}
	return nil
}

func (w *logWriter) Close() error { return nil }
