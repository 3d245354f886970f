package report

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/skygrid/internal/ctxlog"
)

// SocketIOSink emits reports to a Socket.IO endpoint, typically a live
// dashboard.
type SocketIOSink struct {
	URL       string
	Namespace string
	// Event is the event name reports are emitted under.
	Event string
	// AckEvent, when set, is awaited after emitting.
	AckEvent           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

func (s *SocketIOSink) Name() string { return "socketio" }

// Publish connects, emits the report payload and disconnects.
func (s *SocketIOSink) Publish(ctx context.Context, r Report) error {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", s.URL, "event", s.Event)

	parsed, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL %q needs a scheme and a host", s.URL)
	}
	if s.Event == "" {
		return fmt.Errorf("no event name configured")
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	namespace := s.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	if parsed.Path != "" {
		opts.SetPath(parsed.Path)
	}
	if s.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer io.Disconnect()

	var connected atomic.Bool
	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	payload := r.Payload()
	io.On(types.EventName("connect"), func(...any) {
		connected.Store(true)
		logger.Debug("Connected, emitting report.", "sid", io.Id())
		io.Emit(s.Event, payload)
		if s.AckEvent == "" {
			finish(nil)
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				finish(fmt.Errorf("connect: %w", err))
				return
			}
		}
		finish(fmt.Errorf("connect failed"))
	})
	if s.AckEvent != "" {
		io.On(types.EventName(s.AckEvent), func(...any) {
			finish(nil)
		})
	}

	io.Connect()

	select {
	case <-opCtx.Done():
		if connected.Load() {
			return fmt.Errorf("timed out after connecting while waiting for event '%s'", s.AckEvent)
		}
		return fmt.Errorf("timed out while waiting for initial connection")
	case err := <-done:
		if err == nil {
			logger.Info("Report published.", "runID", r.RunID)
		}
		return err
	}
}
