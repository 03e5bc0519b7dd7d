// Package progress publishes pipeline execution events to an operator
// dashboard over socket.io. The emitter is strictly best-effort: connection
// or emit failures are logged and never affect the run.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/clipforge/internal/ctxlog"
	"github.com/vk/clipforge/internal/pipeline"
)

// connectTimeout bounds how long Dial waits for the socket.io handshake.
const connectTimeout = 10 * time.Second

// Emitter implements pipeline.Notifier over a connected socket.io client.
type Emitter struct {
	io     *socket.Socket
	runID  string
	logger *slog.Logger
}

// Dial connects to the dashboard endpoint and returns an Emitter bound to
// the given run ID.
func Dial(ctx context.Context, rawURL, namespace, runID string) (*Emitter, error) {
	logger := ctxlog.FromContext(ctx).With("component", "progress", "url", rawURL)
	logger.Info("Connecting to progress endpoint...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse progress URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Progress endpoint connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("progress connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while connecting to progress endpoint")
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for progress connection", connectTimeout)
	}

	return &Emitter{io: io, runID: runID, logger: logger}, nil
}

// emit sends one event. Delivery is fire-and-forget; the client buffers or
// drops while disconnected.
func (e *Emitter) emit(event string, payload map[string]any) {
	payload["run_id"] = e.runID
	payload["ts"] = time.Now().UTC().Format(time.RFC3339)
	e.logger.Debug("Emitting progress event.", "event", event)
	e.io.Emit(event, payload)
}

// StepStarted implements pipeline.Notifier.
func (e *Emitter) StepStarted(stepID string, pending, cached int) {
	e.emit("step_started", map[string]any{
		"step":    stepID,
		"pending": pending,
		"cached":  cached,
	})
}

// ItemFinished implements pipeline.Notifier.
func (e *Emitter) ItemFinished(stepID, itemID string, err error) {
	payload := map[string]any{
		"step": stepID,
		"item": itemID,
		"ok":   err == nil,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	e.emit("item_finished", payload)
}

// StepFinished implements pipeline.Notifier.
func (e *Emitter) StepFinished(stepID string, report pipeline.StepReport) {
	e.emit("step_finished", map[string]any{
		"step":      stepID,
		"skipped":   report.Skipped,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	})
}

// Close disconnects from the dashboard.
func (e *Emitter) Close() {
	e.io.Disconnect()
}
