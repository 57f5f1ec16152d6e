package frontend

import (
	"sync"

	"github.com/wowcore/wowcore/internal/core/peer"
)

// registry is a concurrency-safe collection of connected peers keyed by identity.
// The zero value is ready to use.
type registry struct {
	sync.RWMutex
	peers map[peer.Identity]*peer.Peer
}

// add registers p unless another peer already holds its identity.
func (r *registry) add(p *peer.Peer) error {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.peers[p.Identity()]; ok {
		return ErrDuplicateIdentity
	}
	if r.peers == nil {
		r.peers = make(map[peer.Identity]*peer.Peer)
	}
	r.peers[p.Identity()] = p
	return nil
}

// remove deletes p from the registry. An entry for the same identity that belongs to a
// different Peer is left alone.
func (r *registry) remove(p *peer.Peer) bool {
	r.Lock()
	defer r.Unlock()

	if current, ok := r.peers[p.Identity()]; ok && current == p {
		delete(r.peers, p.Identity())
		return true
	}
	return false
}

func (r *registry) get(id peer.Identity) (*peer.Peer, bool) {
	r.RLock()
	defer r.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

func (r *registry) len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.peers)
}

// closeAll closes every registered connection. Entries are removed by the receive
// loops as they exit.
func (r *registry) closeAll() {
	r.RLock()
	peers := make([]*peer.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		peers = append(peers, p)
	}
	r.RUnlock()

	for _, p := range peers {
		_ = p.Close()
	}
}
