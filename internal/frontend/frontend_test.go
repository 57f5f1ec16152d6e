package frontend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wowcore/wowcore/internal/core/codec"
	"github.com/wowcore/wowcore/internal/core/peer"
)

func TestFrontend_DeliversDataAndReplies(t *testing.T) {
	b := newRecordingBackend()
	f, _, _ := startTestFrontend(t, b, nil)

	conn, id := dial(t, f)
	b.waitFor(t, connectEvent, id)

	if !f.Connected(id) {
		t.Errorf("Connected(%s) = false, want true", id)
	}
	if got := f.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}

	if _, err := conn.Write([]byte("hello")); err != nil {
		t.Fatalf("error writing to frontend: %v", err)
	}
	got := b.waitFor(t, dataEvent, id)
	if diff := cmp.Diff([]byte("hello"), got.data); diff != "" {
		t.Errorf("unexpected data delivered to backend (-want +got):\n%s", diff)
	}

	reply := []byte{0x00, 0x00, 0x09}
	if err := f.SendTo(id, reply); err != nil {
		t.Fatalf("SendTo() returned error: %v", err)
	}
	buf := make([]byte, len(reply))
	_ = conn.SetReadDeadline(time.Now().Add(eventTimeout))
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("error reading reply: %v", err)
	}
	if diff := cmp.Diff(reply, buf); diff != "" {
		t.Errorf("unexpected reply (-want +got):\n%s", diff)
	}
}

func TestFrontend_PreservesOrderPerPeer(t *testing.T) {
	b := newRecordingBackend()
	f, _, _ := startTestFrontend(t, b, nil)

	conn, id := dial(t, f)
	b.waitFor(t, connectEvent, id)

	var sent []byte
	for i := 0; i < 200; i++ {
		msg := []byte{byte(i), byte(i >> 8), 0xAA}
		sent = append(sent, msg...)
		if _, err := conn.Write(msg); err != nil {
			t.Fatalf("error writing message %d: %v", i, err)
		}
	}

	// TCP may coalesce writes, so compare the concatenation of everything received.
	var received []byte
	for len(received) < len(sent) {
		received = append(received, b.waitFor(t, dataEvent, id).data...)
	}
	if !bytes.Equal(sent, received) {
		t.Errorf("data was delivered out of order or corrupted")
	}
}

func TestFrontend_SendTo(t *testing.T) {
	b := newRecordingBackend()
	f, _, _ := startTestFrontend(t, b, nil)

	_, id := dial(t, f)
	b.waitFor(t, connectEvent, id)

	unknown := netip.MustParseAddrPort("10.1.2.3:4567")
	tests := []struct {
		name    string
		id      peer.Identity
		data    []byte
		wantErr error
	}{
		{name: "unknown peer", id: unknown, data: []byte{1}, wantErr: ErrPeerNotFound},
		{name: "empty message", id: id, data: nil, wantErr: ErrEmptyMessage},
		{name: "connected peer", id: id, data: []byte{1, 2}, wantErr: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.SendTo(tt.id, tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SendTo() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := f.Disconnect(unknown); !errors.Is(err, ErrPeerNotFound) {
		t.Errorf("Disconnect() error = %v, want %v", err, ErrPeerNotFound)
	}
	if f.Len() != 1 {
		t.Errorf("failed sends changed the registry: Len() = %d, want 1", f.Len())
	}
}

func TestFrontend_RemoteCloseRemovesPeerOnce(t *testing.T) {
	b := newRecordingBackend()
	f, _, _ := startTestFrontend(t, b, nil)

	const numPeers = 5
	conns := make([]*net.TCPConn, numPeers)
	ids := make([]peer.Identity, numPeers)
	for i := range conns {
		conns[i], ids[i] = dial(t, f)
		b.waitFor(t, connectEvent, ids[i])
	}

	// Keep the other peers busy while the first one goes away.
	stop := make(chan struct{})
	trafficWg := sync.WaitGroup{}
	for _, conn := range conns[1:] {
		trafficWg.Add(1)
		go func(conn *net.TCPConn) {
			defer trafficWg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := conn.Write([]byte{0x01, 0x02}); err != nil {
					return
				}
				time.Sleep(time.Millisecond)
			}
		}(conn)
	}

	_ = conns[0].Close()
	b.waitFor(t, disconnectEvent, ids[0])
	b.expectNone(t, disconnectEvent, ids[0])

	close(stop)
	trafficWg.Wait()

	if f.Connected(ids[0]) {
		t.Errorf("closed peer %s is still registered", ids[0])
	}
	for _, id := range ids[1:] {
		if !f.Connected(id) {
			t.Errorf("peer %s was removed along with the closed one", id)
		}
	}
	if got := f.Len(); got != numPeers-1 {
		t.Errorf("Len() = %d, want %d", got, numPeers-1)
	}
}

func TestFrontend_BackendErrorClosesOnlyThatPeer(t *testing.T) {
	type challenge struct {
		Command uint8
		Size    uint16
		Build   uint16
	}
	schema := codec.MustSchema[challenge]("challenge",
		codec.Field("command", func(c *challenge) *uint8 { return &c.Command }, codec.Uint8()),
		codec.Field("size", func(c *challenge) *uint16 { return &c.Size }, codec.Uint16()),
		codec.Field("build", func(c *challenge) *uint16 { return &c.Build }, codec.Uint16()),
	)

	b := newRecordingBackend()
	b.handle = func(id peer.Identity, data []byte) error {
		_, err := schema.Parse(data)
		return err
	}
	f, _, _ := startTestFrontend(t, b, nil)

	bad, badID := dial(t, f)
	good, goodID := dial(t, f)
	b.waitFor(t, connectEvent, badID)
	b.waitFor(t, connectEvent, goodID)

	// Too short for the schema.
	if _, err := bad.Write([]byte{0x00}); err != nil {
		t.Fatalf("error writing to frontend: %v", err)
	}
	expectClosed(t, bad)
	b.waitFor(t, disconnectEvent, badID)

	if _, err := good.Write([]byte{0x00, 0x03, 0x00, 0x18, 0x17}); err != nil {
		t.Fatalf("error writing to frontend: %v", err)
	}
	b.waitFor(t, dataEvent, goodID)
	if !f.Connected(goodID) {
		t.Errorf("well-behaved peer was disconnected")
	}
}

func TestFrontend_RecoversFromHandlerPanic(t *testing.T) {
	b := newRecordingBackend()
	b.handle = func(id peer.Identity, data []byte) error {
		if data[0] == 0xFF {
			panic("malformed packet")
		}
		return nil
	}
	f, _, _ := startTestFrontend(t, b, nil)

	conn, id := dial(t, f)
	b.waitFor(t, connectEvent, id)
	if _, err := conn.Write([]byte{0xFF}); err != nil {
		t.Fatalf("error writing to frontend: %v", err)
	}
	expectClosed(t, conn)
	b.waitFor(t, disconnectEvent, id)

	// The server keeps accepting.
	_, next := dial(t, f)
	b.waitFor(t, connectEvent, next)
}

func TestFrontend_DisconnectClosesSession(t *testing.T) {
	b := newRecordingBackend()
	f, _, _ := startTestFrontend(t, b, nil)

	conn, id := dial(t, f)
	b.waitFor(t, connectEvent, id)

	if err := f.Disconnect(id); err != nil {
		t.Fatalf("Disconnect() returned error: %v", err)
	}
	expectClosed(t, conn)
	b.waitFor(t, disconnectEvent, id)
	waitUntil(t, "the peer is removed", func() bool { return !f.Connected(id) })
}

func TestFrontend_ShutdownClosesPeersWithoutDisconnect(t *testing.T) {
	b := newRecordingBackend()
	f, cancel, wg := startTestFrontend(t, b, nil)

	var conns []*net.TCPConn
	for i := 0; i < 3; i++ {
		conn, id := dial(t, f)
		b.waitFor(t, connectEvent, id)
		conns = append(conns, conn)
	}

	cancel()
	wg.Wait()

	for _, conn := range conns {
		expectClosed(t, conn)
	}
	if got := f.Len(); got != 0 {
		t.Errorf("Len() after shutdown = %d, want 0", got)
	}
	for {
		select {
		case e := <-b.events:
			if e.kind == disconnectEvent {
				t.Errorf("unexpected disconnect event for %s during shutdown", e.id)
			}
			continue
		default:
		}
		break
	}

	if _, err := net.DialTimeout("tcp", f.Addr().String(), quietPeriod); err == nil {
		t.Errorf("listener still accepting connections after shutdown")
	}
}

func TestFrontend_AdmitterRefusesConnection(t *testing.T) {
	b := newRecordingBackend()
	b.admit = func(id peer.Identity) error { return errors.New("banned") }
	f, _, _ := startTestFrontend(t, b, nil)

	conn, id := dial(t, f)
	expectClosed(t, conn)
	b.expectNone(t, connectEvent, id)

	if f.Len() != 0 {
		t.Errorf("refused peer was registered")
	}
}

func TestFrontend_DuplicateIdentityRejected(t *testing.T) {
	b := newRecordingBackend()
	f := &Frontend{Backend: b, Logger: newTestLogger(), ReceiveBufferSize: 64}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remote := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 3724}
	id := netip.MustParseAddrPort("10.0.0.1:3724")

	server1, client1 := net.Pipe()
	server2, client2 := net.Pipe()
	f.acceptClient(ctx, &stubConn{Conn: server1, remote: remote})
	f.acceptClient(ctx, &stubConn{Conn: server2, remote: remote})

	if _, err := client2.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("duplicate connection read error = %v, want %v", err, io.EOF)
	}
	b.waitFor(t, connectEvent, id)
	b.expectNone(t, connectEvent, id)
	if got := f.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}

	// The first session is unaffected.
	go func() { _, _ = client1.Write([]byte("still here")) }()
	if got := b.waitFor(t, dataEvent, id); string(got.data) != "still here" {
		t.Errorf("unexpected data from first peer: %q", got.data)
	}

	_ = client1.Close()
	b.waitFor(t, disconnectEvent, id)
	f.loops.Wait()
}

func TestFrontend_MaxConnections(t *testing.T) {
	b := newRecordingBackend()
	f, _, _ := startTestFrontend(t, b, func(f *Frontend) { f.MaxConnections = 1 })

	first, firstID := dial(t, f)
	b.waitFor(t, connectEvent, firstID)

	// Sits in the listen backlog until a slot frees up.
	_, secondID := dial(t, f)
	b.expectNone(t, connectEvent, secondID)

	_ = first.Close()
	b.waitFor(t, connectEvent, secondID)
}

func TestFrontend_ListenerBindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("error opening listener: %v", err)
	}
	defer taken.Close()

	f := &Frontend{Address: taken.Addr().String(), Backend: newRecordingBackend(), Logger: newTestLogger()}
	if err := f.Start(context.Background(), &sync.WaitGroup{}); !errors.Is(err, ErrListenerBind) {
		t.Errorf("Start() error = %v, want %v", err, ErrListenerBind)
	}
}
