package report

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names emitted by SocketIO.
const (
	EventBatch    = "batch"
	EventPackage  = "package"
	EventFinished = "finished"
)

// SocketIO streams progress events to a socket.io endpoint, e.g. a CI
// dashboard. Emits are fire-and-forget; a dashboard going away never fails
// the build.
type SocketIO struct {
	io *socket.Socket
}

// DialSocketIO connects to rawURL (scheme, host and socket.io path) on the
// given namespace and waits up to timeout for the connection.
func DialSocketIO(ctx context.Context, rawURL, namespace string, timeout time.Duration) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("events_url", rawURL, "namespace", namespace)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("events URL %q must be absolute", rawURL)
	}
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		connected <- connectError(errs)
	})

	logger.Debug("Connecting to events endpoint...")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("events connection failed: %w", err)
		}
		logger.Info("Connected to events endpoint.", "sid", io.Id())
		return &SocketIO{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for events connection", timeout)
	}
}

// connectError turns the arguments of a connect_error event into an error.
func connectError(args []any) error {
	if len(args) == 0 {
		return errors.New("connect_error without details")
	}
	if err, ok := args[0].(error); ok && err != nil {
		return err
	}
	return fmt.Errorf("connect_error: %v", args[0])
}

// BatchStarted implements Reporter.
func (s *SocketIO) BatchStarted(_ context.Context, index int, script string, ids []string) {
	s.io.Emit(EventBatch, map[string]any{"index": index, "script": script, "packages": ids})
}

// PackageFinished implements Reporter.
func (s *SocketIO) PackageFinished(_ context.Context, id string, built bool, err error) {
	payload := map[string]any{"package": id, "built": built}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.io.Emit(EventPackage, payload)
}

// RunFinished implements Reporter.
func (s *SocketIO) RunFinished(_ context.Context, r *BuildReport, err error) {
	payload := map[string]any{
		"script":   r.Script,
		"built":    r.Built,
		"skipped":  r.Skipped,
		"batches":  len(r.Batches),
		"duration": r.Duration().String(),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.io.Emit(EventFinished, payload)
}

// Close disconnects from the endpoint.
func (s *SocketIO) Close() {
	s.io.Disconnect()
}
