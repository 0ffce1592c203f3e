package importer

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
)

// RunLog captures a structured trace of one import run. The handler writes
// into a buffer that is uploaded alongside the session when the run ends.
type RunLog struct {
	mu  sync.Mutex
	buf bytes.Buffer
	log *slog.Logger
}

func NewRunLog(sessionID string) *RunLog {
	r := &RunLog{}
	handler := slog.NewTextHandler(&syncWriter{r: r}, &slog.HandlerOptions{Level: slog.LevelDebug})
	r.log = slog.New(handler).With("session_id", sessionID)
	return r
}

type syncWriter struct {
	r *RunLog
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	return w.r.buf.Write(p)
}

// StepStart marks the beginning of a pipeline step.
func (r *RunLog) StepStart(step int, name string) {
	r.log.Info("step start", "step", step, "name", name)
}

// StepEnd marks the end of a pipeline step with its error count.
func (r *RunLog) StepEnd(step int, name string, errCount int) {
	if errCount > 0 {
		r.log.Warn("step end", "step", step, "name", name, "errors", errCount)
		return
	}
	r.log.Info("step end", "step", step, "name", name)
}

func (r *RunLog) Info(msg string, args ...any) {
	r.log.Info(msg, args...)
}

func (r *RunLog) Warn(msg string, args ...any) {
	r.log.Warn(msg, args...)
}

// RowError records a per-row failure tagged with step and row index, in the
// same shape the session error list uses.
func (r *RunLog) RowError(step, rowIndex int, err error) string {
	tagged := fmt.Sprintf("[STEP %d - row %d] %v", step, rowIndex, err)
	r.log.Error("row error", "step", step, "row", rowIndex, "error", err.Error())
	return tagged
}

// Bytes returns the accumulated log content.
func (r *RunLog) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, r.buf.Len())
	copy(out, r.buf.Bytes())
	return out
}
