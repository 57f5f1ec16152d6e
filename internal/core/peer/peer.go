package peer

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
)

// Identity uniquely identifies a connected peer by its remote address and port.
type Identity = netip.AddrPort

// IdentityOf converts a remote address into an Identity. IPv4 addresses that arrive
// mapped into IPv6 are unmapped so that both forms compare equal.
func IdentityOf(addr net.Addr) (Identity, error) {
	var ap netip.AddrPort
	switch a := addr.(type) {
	case *net.TCPAddr:
		ap = a.AddrPort()
	default:
		if addr == nil {
			return Identity{}, errors.New("peer has no remote address")
		}
		var err error
		if ap, err = netip.ParseAddrPort(addr.String()); err != nil {
			return Identity{}, fmt.Errorf("parsing remote address %s: %w", addr, err)
		}
	}
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), nil
}

// Peer represents one accepted connection from a game client. It is the only owner
// of the underlying socket.
type Peer struct {
	connection net.Conn
	identity   Identity

	writeLock sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func New(connection net.Conn) (*Peer, error) {
	id, err := IdentityOf(connection.RemoteAddr())
	if err != nil {
		return nil, err
	}
	return &Peer{connection: connection, identity: id}, nil
}

func (p *Peer) Identity() Identity { return p.identity }
func (p *Peer) IPAddr() string     { return p.identity.Addr().String() }
func (p *Peer) Port() uint16       { return p.identity.Port() }
func (p *Peer) String() string     { return p.identity.String() }

// Read consumes the available bytes directly from the peer's TCP connection.
func (p *Peer) Read(b []byte) (int, error) {
	return p.connection.Read(b)
}

// Send writes all of data to the connection. Concurrent calls are serialized so that
// the bytes of two messages never interleave on the wire.
func (p *Peer) Send(data []byte) error {
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	return p.transmit(data)
}

// transmit writes the contents of data to the TCP connection until every byte has
// been accepted by the socket.
func (p *Peer) transmit(data []byte) error {
	for bytesSent := 0; bytesSent < len(data); {
		n, err := p.connection.Write(data[bytesSent:])
		if err != nil {
			return fmt.Errorf("failed to send to peer %v: %w", p, err)
		}
		bytesSent += n
	}
	return nil
}

// Close the TCP connection. Only the first call closes the socket; later calls
// return the same result.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.connection.Close()
	})
	return p.closeErr
}
