package registry

import (
	"sync"

	"gamerelay/internal/protocol"
)

// Conn is the registries' view of a live connection. Implementations own the
// underlying socket; the registries only hold references for lookup and
// fan-out and never close a connection they did not accept.
type Conn interface {
	// ID is a stable identity derived from the remote endpoint, unique for
	// the lifetime of the connection.
	ID() string
	// WriteLine writes one framed message to the connection.
	WriteLine(p []byte) error
	Close() error
}

// ConnRegistry maps connection identities to the game they belong to.
type ConnRegistry struct {
	mu    sync.RWMutex
	games map[string]protocol.GameID
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{games: make(map[string]protocol.GameID)}
}

// Associate records that conn belongs to gameID. The first association wins:
// calling again, even with a different game, is a no-op.
func (r *ConnRegistry) Associate(conn Conn, gameID protocol.GameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[conn.ID()]; ok {
		return
	}
	r.games[conn.ID()] = gameID
}

// Lookup returns the game conn is associated with.
func (r *ConnRegistry) Lookup(conn Conn) (protocol.GameID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gameID, ok := r.games[conn.ID()]
	return gameID, ok
}

// Remove deletes conn's association. Required on disconnect so stale
// identities never resolve to a dead connection.
func (r *ConnRegistry) Remove(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, conn.ID())
}
