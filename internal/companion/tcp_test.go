package companion

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const waitFor = 2 * time.Second

type recordingCallbacks struct {
	connected chan struct{}
	suspended chan SuspendCause
	failed    chan FailureReason
}

func newRecordingCallbacks() *recordingCallbacks {
	return &recordingCallbacks{
		connected: make(chan struct{}, 16),
		suspended: make(chan SuspendCause, 16),
		failed:    make(chan FailureReason, 16),
	}
}

func (r *recordingCallbacks) OnConnected()                       { r.connected <- struct{}{} }
func (r *recordingCallbacks) OnSuspended(c SuspendCause)         { r.suspended <- c }
func (r *recordingCallbacks) OnConnectionFailed(f FailureReason) { r.failed <- f }

type sink chan []DataEvent

func (s sink) OnDataChanged(events []DataEvent) { s <- events }

func recv[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

// companion accepts one connection, reads the hello frame and then sends
// the given frames. The connection is closed when hangup is closed.
func companion(t *testing.T, ln net.Listener, hangup <-chan struct{}, frames ...Frame) chan Frame {
	t.Helper()
	hellos := make(chan Frame, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var hello Frame
		if err := msgpack.NewDecoder(conn).Decode(&hello); err != nil {
			return
		}
		hellos <- hello

		enc := msgpack.NewEncoder(conn)
		for _, f := range frames {
			if err := enc.Encode(f); err != nil {
				return
			}
		}
		<-hangup
	}()
	return hellos
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return ln
}

func TestTCPHandshakeAndData(t *testing.T) {
	ln := listen(t)
	hangup := make(chan struct{})
	hellos := companion(t, ln, hangup,
		Frame{Type: FrameWelcome, Node: "phone"},
		Frame{Type: FrameData, Events: []WireEvent{
			{Type: "changed", Path: WeatherPath, Data: map[string]any{KeyIconID: 801, KeyHighTemp: "75", KeyLowTemp: "60"}},
			{Type: "exploded", Path: WeatherPath},
		}},
	)

	tr := NewTCPTransport(ln.Addr().String(), 10*time.Millisecond, nil, nil)
	events := make(chan []DataEvent, 4)
	tr.AddListener(sink(events))
	cb := newRecordingCallbacks()
	tr.Connect(context.Background(), cb)
	defer tr.Disconnect()

	hello := recv(t, hellos, "hello frame")
	if hello.Type != FrameHello || hello.Node != tr.Node() || hello.Node == "" {
		t.Errorf("hello = %+v, want type %q and node %q", hello, FrameHello, tr.Node())
	}
	recv(t, cb.connected, "OnConnected")

	got := recv(t, events, "data events")
	if len(got) != 1 {
		t.Fatalf("events = %+v, want the one known event", got)
	}
	snap, err := DecodeWeather(got[0].Data)
	if err != nil {
		t.Fatalf("DecodeWeather() error = %v", err)
	}
	if *snap.IconCode != 801 || *snap.HighTemp != "75" {
		t.Errorf("snapshot = %+v, want 801/75", snap)
	}

	// Dropping the connection suspends and the transport dials again.
	redial := companion(t, ln, make(chan struct{}), Frame{Type: FrameWelcome})
	close(hangup)
	if cause := recv(t, cb.suspended, "OnSuspended"); cause != CauseNetworkLost {
		t.Errorf("suspend cause = %v, want %v", cause, CauseNetworkLost)
	}
	if again := recv(t, redial, "second hello"); again.Node != hello.Node {
		t.Errorf("node changed across reconnects: %q then %q", hello.Node, again.Node)
	}
	recv(t, cb.connected, "second OnConnected")
}

func TestTCPUnavailable(t *testing.T) {
	ln := listen(t)
	companion(t, ln, make(chan struct{}), Frame{Type: FrameUnavailable})

	tr := NewTCPTransport(ln.Addr().String(), time.Hour, nil, nil)
	cb := newRecordingCallbacks()
	tr.Connect(context.Background(), cb)
	defer tr.Disconnect()

	if reason := recv(t, cb.failed, "OnConnectionFailed"); reason != ReasonAPIUnavailable {
		t.Errorf("failure reason = %v, want %v", reason, ReasonAPIUnavailable)
	}
	select {
	case <-cb.connected:
		t.Errorf("OnConnected called for an unavailable service")
	default:
	}
}

func TestTCPDialFailure(t *testing.T) {
	ln := listen(t)
	addr := ln.Addr().String()
	ln.Close()

	tr := NewTCPTransport(addr, time.Hour, nil, nil)
	cb := newRecordingCallbacks()
	tr.Connect(context.Background(), cb)

	if reason := recv(t, cb.failed, "OnConnectionFailed"); reason != ReasonNetworkError {
		t.Errorf("failure reason = %v, want %v", reason, ReasonNetworkError)
	}

	done := make(chan struct{})
	go func() {
		tr.Disconnect()
		close(done)
	}()
	recv(t, done, "Disconnect during retry wait")
}

func TestTCPDisconnectStopsLoop(t *testing.T) {
	ln := listen(t)
	companion(t, ln, make(chan struct{}), Frame{Type: FrameWelcome})

	tr := NewTCPTransport(ln.Addr().String(), 10*time.Millisecond, nil, nil)
	cb := newRecordingCallbacks()
	tr.Connect(context.Background(), cb)
	recv(t, cb.connected, "OnConnected")

	if err := tr.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	select {
	case c := <-cb.suspended:
		t.Errorf("OnSuspended(%v) after Disconnect", c)
	case <-time.After(50 * time.Millisecond):
	}
}
