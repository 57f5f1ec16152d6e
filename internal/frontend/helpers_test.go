package frontend

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wowcore/wowcore/internal/core/peer"
)

const (
	eventTimeout = 2 * time.Second
	quietPeriod  = 200 * time.Millisecond
)

type eventKind string

const (
	connectEvent    eventKind = "connect"
	dataEvent       eventKind = "data"
	disconnectEvent eventKind = "disconnect"
)

type event struct {
	kind eventKind
	id   peer.Identity
	data []byte
}

// recordingBackend pushes every callback it receives onto a channel.
type recordingBackend struct {
	events chan event
	handle func(id peer.Identity, data []byte) error
	admit  func(id peer.Identity) error
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{events: make(chan event, 4096)}
}

func (b *recordingBackend) Identifier() string             { return "TEST" }
func (b *recordingBackend) Init(ctx context.Context) error { return nil }

func (b *recordingBackend) Handle(ctx context.Context, id peer.Identity, data []byte) error {
	b.events <- event{kind: dataEvent, id: id, data: data}
	if b.handle != nil {
		return b.handle(id, data)
	}
	return nil
}

func (b *recordingBackend) Admit(ctx context.Context, id peer.Identity) error {
	if b.admit != nil {
		return b.admit(id)
	}
	return nil
}

func (b *recordingBackend) Connected(ctx context.Context, id peer.Identity) bool {
	b.events <- event{kind: connectEvent, id: id}
	return true
}

func (b *recordingBackend) Disconnected(ctx context.Context, id peer.Identity) bool {
	b.events <- event{kind: disconnectEvent, id: id}
	return true
}

// waitFor returns the next event of the given kind for id, skipping anything else.
func (b *recordingBackend) waitFor(t *testing.T, kind eventKind, id peer.Identity) event {
	t.Helper()
	timeout := time.After(eventTimeout)
	for {
		select {
		case e := <-b.events:
			if e.kind == kind && e.id == id {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event from %s", kind, id)
			return event{}
		}
	}
}

// expectNone fails if an event of the given kind for id arrives within quietPeriod.
func (b *recordingBackend) expectNone(t *testing.T, kind eventKind, id peer.Identity) {
	t.Helper()
	timeout := time.After(quietPeriod)
	for {
		select {
		case e := <-b.events:
			if e.kind == kind && e.id == id {
				t.Fatalf("unexpected %s event from %s", kind, id)
			}
		case <-timeout:
			return
		}
	}
}

// stubConn lets tests pick the remote address of an in-memory connection.
type stubConn struct {
	net.Conn
	remote net.Addr
}

func (c *stubConn) RemoteAddr() net.Addr { return c.remote }

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

func startTestFrontend(t *testing.T, b Backend, configure func(f *Frontend)) (*Frontend, context.CancelFunc, *sync.WaitGroup) {
	t.Helper()
	f := &Frontend{
		Address: "127.0.0.1:0",
		Backend: b,
		Logger:  newTestLogger(),
	}
	if configure != nil {
		configure(f)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	if err := f.Start(ctx, wg); err != nil {
		cancel()
		t.Fatalf("error starting frontend: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return f, cancel, wg
}

func dial(t *testing.T, f *Frontend) (*net.TCPConn, peer.Identity) {
	t.Helper()
	conn, err := net.DialTCP("tcp", nil, f.Addr().(*net.TCPAddr))
	if err != nil {
		t.Fatalf("error connecting to frontend: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	id, err := peer.IdentityOf(conn.LocalAddr())
	if err != nil {
		t.Fatalf("error resolving identity: %v", err)
	}
	return conn, id
}

// expectClosed asserts that the server side of conn has been closed.
func expectClosed(t *testing.T, conn net.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(eventTimeout))
	buf := make([]byte, 16)
	for {
		_, err := conn.Read(buf)
		if err == nil {
			continue
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			t.Fatalf("connection %s was not closed by the server", conn.LocalAddr())
		}
		return
	}
}

func waitUntil(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(eventTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting until %s", desc)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
