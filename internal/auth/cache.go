package auth

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wowcore/wowcore/internal/core/peer"
)

// Session is what the server remembers about a peer whose logon challenge was
// accepted, for use by the proof step.
type Session struct {
	AccountID    uint64
	AccountName  string
	Build        uint16
	Version      string
	Platform     string
	OS           string
	Locale       string
	ChallengedAt time.Time
}

// sessionCache holds one Session per peer and forgets it after the TTL.
type sessionCache struct {
	cacheInstance *gocache.Cache
}

func newSessionCache(ttl time.Duration) *sessionCache {
	cleanup := ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &sessionCache{cacheInstance: gocache.New(ttl, cleanup)}
}

func (c *sessionCache) put(id peer.Identity, s *Session) {
	c.cacheInstance.SetDefault(id.String(), s)
}

func (c *sessionCache) get(id peer.Identity) (*Session, bool) {
	v, ok := c.cacheInstance.Get(id.String())
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

func (c *sessionCache) remove(id peer.Identity) {
	c.cacheInstance.Delete(id.String())
}

func (c *sessionCache) len() int {
	return c.cacheInstance.ItemCount()
}
