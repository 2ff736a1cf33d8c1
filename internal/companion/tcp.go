package companion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/chrissnell/weatherface/internal/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Frame types on the TCP link.
const (
	FrameHello       = "hello"
	FrameWelcome     = "welcome"
	FrameUnavailable = "unavailable"
	FrameData        = "data"
)

// Frame is one MessagePack message on the TCP link.
type Frame struct {
	Type   string      `msgpack:"type"`
	Node   string      `msgpack:"node,omitempty"`
	Events []WireEvent `msgpack:"events,omitempty"`
}

var errUnavailable = errors.New("companion data service unavailable")

// DefaultRetryInterval is used when no retry interval is configured.
const DefaultRetryInterval = 5 * time.Second

// TCPTransport dials the companion, introduces itself with a hello frame and
// reads frames until the connection drops, then redials after the retry
// interval.
type TCPTransport struct {
	addr        string
	retry       time.Duration
	dialTimeout time.Duration
	readTimeout time.Duration
	node        string
	clock       clockwork.Clock
	logger      *zap.SugaredLogger

	listeners listeners

	mu     sync.Mutex
	cancel context.CancelFunc
	conn   net.Conn
	wg     sync.WaitGroup
}

// NewTCPTransport returns a transport for the companion at addr.
func NewTCPTransport(addr string, retry time.Duration, clock clockwork.Clock, logger *zap.SugaredLogger) *TCPTransport {
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TCPTransport{
		addr:        addr,
		retry:       retry,
		dialTimeout: 10 * time.Second,
		node:        uuid.NewString(),
		clock:       clock,
		logger:      log.OrNop(logger),
	}
}

// SetReadTimeout drops the connection when no frame arrives within d. Zero
// disables the deadline. It must be called before Connect.
func (t *TCPTransport) SetReadTimeout(d time.Duration) {
	t.readTimeout = d
}

// Node returns the ID this face announces in its hello frame.
func (t *TCPTransport) Node() string {
	return t.node
}

func (t *TCPTransport) AddListener(l DataListener)    { t.listeners.add(l) }
func (t *TCPTransport) RemoveListener(l DataListener) { t.listeners.remove(l) }

// Connect starts the connection loop in the background. A second Connect
// while the loop is running is ignored.
func (t *TCPTransport) Connect(ctx context.Context, cb ConnectionCallbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.logger.Info("skipping connect since a connection loop is already running")
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go t.run(ctx, cb)
}

// Disconnect stops the connection loop and waits for it to exit.
func (t *TCPTransport) Disconnect() error {
	t.mu.Lock()
	cancel := t.cancel
	conn := t.conn
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	t.wg.Wait()

	t.mu.Lock()
	t.cancel = nil
	t.mu.Unlock()
	return nil
}

func (t *TCPTransport) run(ctx context.Context, cb ConnectionCallbacks) {
	defer t.wg.Done()

	dialer := net.Dialer{Timeout: t.dialTimeout}
	for {
		t.logger.Infof("connecting to companion at %s", t.addr)
		conn, err := dialer.DialContext(ctx, "tcp", t.addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Errorf("could not connect to %s: %v", t.addr, err)
			cb.OnConnectionFailed(ReasonNetworkError)
		} else {
			welcomed, err := t.session(ctx, conn, cb)
			if ctx.Err() != nil {
				return
			}
			switch {
			case errors.Is(err, errUnavailable):
				cb.OnConnectionFailed(ReasonAPIUnavailable)
			case welcomed:
				t.logger.Errorf("companion connection lost: %v", err)
				cb.OnSuspended(CauseNetworkLost)
			default:
				t.logger.Errorf("companion handshake failed: %v", err)
				cb.OnConnectionFailed(ReasonProtocolError)
			}
		}

		t.logger.Infof("sleeping %v before reconnecting", t.retry)
		select {
		case <-ctx.Done():
			return
		case <-t.clock.After(t.retry):
		}
	}
}

// session runs one connection. It reports whether the companion welcomed us
// and the error that ended the session.
func (t *TCPTransport) session(ctx context.Context, conn net.Conn, cb ConnectionCallbacks) (welcomed bool, err error) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		conn.Close()
		t.mu.Lock()
		t.conn = nil
		t.mu.Unlock()
	}()
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := msgpack.NewEncoder(conn).Encode(Frame{Type: FrameHello, Node: t.node}); err != nil {
		return false, fmt.Errorf("error sending hello: %w", err)
	}

	dec := msgpack.NewDecoder(conn)
	dec.UseLooseInterfaceDecoding(true)

	for {
		if t.readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(t.readTimeout))
		}
		var f Frame
		if err := dec.Decode(&f); err != nil {
			return welcomed, fmt.Errorf("error decoding frame: %w", err)
		}

		switch f.Type {
		case FrameWelcome:
			if !welcomed {
				welcomed = true
				t.logger.Infof("companion %s accepted node %s", f.Node, t.node)
				cb.OnConnected()
			}
		case FrameUnavailable:
			return welcomed, errUnavailable
		case FrameData:
			if !welcomed {
				return false, fmt.Errorf("data frame before welcome")
			}
			events, dropped := convert(f.Events)
			if dropped > 0 {
				t.logger.Warnf("dropped %d events with unknown type", dropped)
			}
			t.listeners.dispatch(events)
		default:
			t.logger.Debugf("ignoring frame of type %q", f.Type)
		}
	}
}
