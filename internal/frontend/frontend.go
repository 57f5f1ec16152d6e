// Package frontend implements the concurrent TCP connection server that sits in front of
// the auth logic. It accepts peers, keeps a registry of live sessions keyed by remote
// endpoint, runs one receive loop per peer and hands the received bytes to a Backend.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	wowdebug "github.com/wowcore/wowcore/internal/core/debug"
	"github.com/wowcore/wowcore/internal/core/peer"
)

const (
	defaultReceiveBufferSize = 1024
	acceptRetryDelay         = 50 * time.Millisecond
)

var (
	// ErrPeerNotFound is returned when sending to an identity that isn't registered.
	ErrPeerNotFound = errors.New("peer not found")
	// ErrDuplicateIdentity is returned when a second connection arrives from an
	// endpoint that already has a live session.
	ErrDuplicateIdentity = errors.New("peer identity already connected")
	// ErrListenerBind is returned from Start when the listening socket can't be opened.
	ErrListenerBind = errors.New("failed to bind listener")
	// ErrEmptyMessage is returned when asked to send zero bytes.
	ErrEmptyMessage = errors.New("refusing to send empty message")
)

// Frontend implements the concurrent peer connection logic.
//
// Data is read from any connected peers and passed to a Backend instance, abstracting
// the lower level connection details away from the Backend.
type Frontend struct {
	Address string
	Backend Backend
	Logger  *logrus.Logger

	// MaxConnections caps the number of simultaneously open sockets. Zero means no cap.
	MaxConnections int
	// ReceiveBufferSize is the largest chunk handed to the Backend in one call.
	ReceiveBufferSize int
	// PacketLogging enables debug-level hex dumps of all traffic.
	PacketLogging bool

	listener  net.Listener
	clients   registry
	loops     sync.WaitGroup
	packets   *wowdebug.PacketLogger
}

// Start initializes the Backend and opens a TCP socket on Address. A blocking loop for
// accepting connections is spun off in its own goroutine and added to the WaitGroup.
// Cancelling ctx stops the server; wg is released once every peer has been closed.
func (f *Frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if f.Backend == nil {
		return errors.New("frontend has no backend")
	}
	if f.Logger == nil {
		f.Logger = logrus.StandardLogger()
	}
	if f.ReceiveBufferSize <= 0 {
		f.ReceiveBufferSize = defaultReceiveBufferSize
	}
	if f.PacketLogging {
		f.packets = &wowdebug.PacketLogger{Logger: f.Logger, ServerName: f.Backend.Identifier()}
	}

	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %w", f.Backend.Identifier(), err)
	}

	socket, err := f.createSocket()
	if err != nil {
		return err
	}
	f.listener = socket

	wg.Add(1)
	go f.startBlockingLoop(ctx, socket, wg)

	return nil
}

// createSocket opens a TCP socket to listen for connections on the Address provided
// to the Frontend, capped at MaxConnections if one is set.
func (f *Frontend) createSocket() (net.Listener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: error resolving address %s: %v", ErrListenerBind, f.Address, err)
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: error listening on %s: %v", ErrListenerBind, f.Address, err)
	}

	if f.MaxConnections > 0 {
		return netutil.LimitListener(socket, f.MaxConnections), nil
	}
	return socket, nil
}

// Addr returns the address the Frontend is listening on, or nil before Start.
func (f *Frontend) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// startBlockingLoop is purely responsible for accepting new connections and spinning
// off goroutines to read from them.
func (f *Frontend) startBlockingLoop(ctx context.Context, socket net.Listener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Infof("[%s] waiting for connections on %v", f.Backend.Identifier(), socket.Addr())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// Unblocks Accept.
			_ = socket.Close()
		case <-stop:
		}
	}()

	for {
		connection, err := socket.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			f.Logger.Warnf("[%s] failed to accept connection: %s", f.Backend.Identifier(), err)
			time.Sleep(acceptRetryDelay)
			continue
		}
		// Note: If there is eventually a need to implement worker pooling rather than spawning
		// new goroutines for each peer, this is where it should be implemented.
		f.acceptClient(ctx, connection)
	}

	f.Logger.Infof("[%s] shutting down (waiting for connections to close)", f.Backend.Identifier())
	f.clients.closeAll()
	f.loops.Wait()
	f.Logger.Infof("[%s] exited", f.Backend.Identifier())
}

// acceptClient registers the connection as a new peer and starts its receive loop.
// Refused and duplicate connections are closed without invoking any callbacks.
func (f *Frontend) acceptClient(ctx context.Context, connection net.Conn) {
	p, err := peer.New(connection)
	if err != nil {
		f.Logger.Warnf("[%s] dropping connection: %s", f.Backend.Identifier(), err)
		_ = connection.Close()
		return
	}

	if admitter, ok := f.Backend.(Admitter); ok {
		if err := admitter.Admit(ctx, p.Identity()); err != nil {
			f.Logger.Infof("[%s] refused connection from %s: %s", f.Backend.Identifier(), p, err)
			_ = p.Close()
			return
		}
	}

	// Prevent multiple sessions from the same endpoint.
	if err := f.clients.add(p); err != nil {
		f.Logger.Infof("[%s] rejected second connection from %s", f.Backend.Identifier(), p)
		_ = p.Close()
		return
	}

	f.Logger.Infof("[%s] accepted connection from %s", f.Backend.Identifier(), p)

	f.loops.Add(1)
	go f.processPackets(ctx, p)

	if handler, ok := f.Backend.(ConnectHandler); ok {
		f.loops.Add(1)
		go func() {
			defer f.loops.Done()
			f.runCallback("connect", p, func() bool { return handler.Connected(ctx, p.Identity()) })
		}()
	}
}

// processPackets is a blocking loop dedicated to reading data sent by a peer. It only
// returns once the connection has closed or the Backend rejected the data.
func (f *Frontend) processPackets(ctx context.Context, p *peer.Peer) {
	defer f.loops.Done()
	defer f.closeConnectionAndRecover(ctx, p)

	buffer := make([]byte, f.ReceiveBufferSize)
	for {
		n, err := p.Read(buffer)
		if n > 0 {
			// The Backend may hold on to the slice; the buffer gets reused.
			data := make([]byte, n)
			copy(data, buffer[:n])

			f.packets.PrintPacket(wowdebug.ClientToServer, p.String(), data)

			if herr := f.Backend.Handle(ctx, p.Identity(), data); herr != nil {
				f.Logger.Warnf("[%s] error in client communication with %s: %s", f.Backend.Identifier(), p, herr)
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				f.Logger.Warnf("[%s] socket error (%s): %s", f.Backend.Identifier(), p, err)
			}
			return
		}
	}
}

// closeConnectionAndRecover is the failsafe that catches any panics, disconnects the
// peer and removes them from the registry regardless of the state of the connection.
func (f *Frontend) closeConnectionAndRecover(ctx context.Context, p *peer.Peer) {
	if err := recover(); err != nil {
		f.Logger.Errorf("[%s] error in client communication with %s: error=%s, trace: %s",
			f.Backend.Identifier(), p, err, debug.Stack())
	}

	if err := p.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		f.Logger.Warnf("[%s] failed to close client connection: %s", f.Backend.Identifier(), err)
	}

	if !f.clients.remove(p) {
		return
	}

	if ctx.Err() != nil {
		f.Logger.Debugf("[%s] closed client %s during shutdown", f.Backend.Identifier(), p)
		return
	}

	f.Logger.Infof("[%s] disconnected client %s", f.Backend.Identifier(), p)

	if handler, ok := f.Backend.(DisconnectHandler); ok {
		f.runCallback("disconnect", p, func() bool { return handler.Disconnected(ctx, p.Identity()) })
	}
}

// runCallback invokes one of the Backend's lifecycle hooks, logging failures and panics.
func (f *Frontend) runCallback(name string, p *peer.Peer, callback func() bool) {
	defer func() {
		if err := recover(); err != nil {
			f.Logger.Errorf("[%s] %s handler panicked for %s: error=%s, trace: %s",
				f.Backend.Identifier(), name, p, err, debug.Stack())
		}
	}()

	if !callback() {
		f.Logger.Warnf("[%s] %s handler reported failure for %s", f.Backend.Identifier(), name, p)
	}
}

// SendTo writes data to the peer registered under id. Sending to an unknown identity
// is logged and reported as ErrPeerNotFound.
func (f *Frontend) SendTo(id peer.Identity, data []byte) error {
	p, ok := f.clients.get(id)
	if !ok {
		f.logger().Errorf("unable to send %d bytes to %s: %s", len(data), id, ErrPeerNotFound)
		return fmt.Errorf("%w: %s", ErrPeerNotFound, id)
	}
	if len(data) == 0 {
		return ErrEmptyMessage
	}

	f.packets.PrintPacket(wowdebug.ServerToClient, p.String(), data)

	if err := p.Send(data); err != nil {
		return fmt.Errorf("error sending to %s: %w", id, err)
	}
	return nil
}

// Disconnect closes the session registered under id. The peer's receive loop then
// performs the usual cleanup, including the Backend's disconnect hook.
func (f *Frontend) Disconnect(id peer.Identity) error {
	p, ok := f.clients.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, id)
	}
	return p.Close()
}

// Connected reports whether a session is registered under id.
func (f *Frontend) Connected(id peer.Identity) bool {
	_, ok := f.clients.get(id)
	return ok
}

// Len returns the number of registered peers.
func (f *Frontend) Len() int {
	return f.clients.len()
}

func (f *Frontend) logger() *logrus.Logger {
	if f.Logger == nil {
		return logrus.StandardLogger()
	}
	return f.Logger
}
