package frontend

import (
	"context"

	"github.com/wowcore/wowcore/internal/core/peer"
)

// Backend is the sub-server that consumes the data received from peers. The Frontend
// owns the sockets; a Backend only ever sees peer identities and raw bytes.
type Backend interface {
	// Identifier returns a uniquely identifying string.
	Identifier() string

	// Init is called before the Frontend starts listening as a hook for the Backend to
	// perform any necessary initialization before it can accept peers.
	Init(ctx context.Context) error

	// Handle is called with every chunk of data read from a peer, in the order it was
	// received. Returning an error terminates that peer's session.
	Handle(ctx context.Context, id peer.Identity, data []byte) error
}

// Admitter is implemented by Backends that want to refuse connections before the peer
// is registered. A refused connection is closed without any further callbacks.
type Admitter interface {
	Admit(ctx context.Context, id peer.Identity) error
}

// ConnectHandler is implemented by Backends that want to be told about new peers. The
// hook runs in its own goroutine, concurrently with the peer's receive loop.
type ConnectHandler interface {
	Connected(ctx context.Context, id peer.Identity) bool
}

// DisconnectHandler is implemented by Backends that want to be told when a peer's
// session ends. It is not called for peers closed during shutdown.
type DisconnectHandler interface {
	Disconnected(ctx context.Context, id peer.Identity) bool
}

// Sender is the outbound half of the Frontend, handed to Backends that need to reply.
type Sender interface {
	SendTo(id peer.Identity, data []byte) error
}
