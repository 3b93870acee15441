// Package registry tracks which connection belongs to which game: the
// in-memory state the router consults to forward every message.
package registry

import (
	"errors"
	"sync"

	"gamerelay/internal/palette"
	"gamerelay/internal/protocol"
)

var (
	ErrUnknownGame        = errors.New("unknown game")
	ErrDuplicateGame      = errors.New("game id already active")
	ErrUnregisteredSender = errors.New("connection is not registered to a game")
)

// Game is one in-progress match: its judge, the players keyed by colour and
// the spectator set receiving broadcasts. Every player is automatically a
// spectator of its own game. Each game owns its colour allocator.
type Game struct {
	ID      protocol.GameID
	Judge   Conn
	Colours *palette.Allocator

	mu         sync.RWMutex
	players    map[palette.Colour]Conn
	spectators map[string]Conn
}

func newGame(id protocol.GameID, judge Conn) *Game {
	return &Game{
		ID:         id,
		Judge:      judge,
		Colours:    palette.NewAllocator(),
		players:    make(map[palette.Colour]Conn),
		spectators: make(map[string]Conn),
	}
}

// Player returns the connection registered under colour.
func (g *Game) Player(colour palette.Colour) (Conn, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	conn, ok := g.players[colour]
	return conn, ok
}

// Spectators returns a snapshot of the spectator set, safe to write to
// without holding the game's lock.
func (g *Game) Spectators() []Conn {
	g.mu.RLock()
	defer g.mu.RUnlock()
	conns := make([]Conn, 0, len(g.spectators))
	for _, conn := range g.spectators {
		conns = append(conns, conn)
	}
	return conns
}

func (g *Game) addPlayer(colour palette.Colour, conn Conn) (replaced bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, replaced = g.players[colour]
	g.players[colour] = conn
	g.spectators[conn.ID()] = conn
	return replaced
}

func (g *Game) addSpectator(conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spectators[conn.ID()] = conn
}

func (g *Game) dropConn(conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for colour, player := range g.players {
		if player.ID() == conn.ID() {
			delete(g.players, colour)
		}
	}
	delete(g.spectators, conn.ID())
}

// conns returns every connection the game holds a reference to.
func (g *Game) conns() []Conn {
	g.mu.RLock()
	defer g.mu.RUnlock()
	all := make([]Conn, 0, len(g.spectators)+1)
	if g.Judge != nil {
		all = append(all, g.Judge)
	}
	for _, conn := range g.spectators {
		all = append(all, conn)
	}
	return all
}

// GameRegistry maps game ids to Games and keeps the ConnRegistry in sync
// with every membership change.
type GameRegistry struct {
	mu    sync.RWMutex
	games map[protocol.GameID]*Game
	conns *ConnRegistry
}

func NewGameRegistry(conns *ConnRegistry) *GameRegistry {
	return &GameRegistry{
		games: make(map[protocol.GameID]*Game),
		conns: conns,
	}
}

// Create adds a new game judged by judge, or ErrDuplicateGame if the id is
// already active.
func (r *GameRegistry) Create(id protocol.GameID, judge Conn) (*Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; ok {
		return nil, ErrDuplicateGame
	}
	game := newGame(id, judge)
	r.games[id] = game
	r.conns.Associate(judge, id)
	return game, nil
}

// Get returns the active game with the given id.
func (r *GameRegistry) Get(id protocol.GameID) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.games[id]
	if !ok {
		return nil, ErrUnknownGame
	}
	return game, nil
}

// GameFor resolves the game that conn is registered to.
func (r *GameRegistry) GameFor(conn Conn) (*Game, error) {
	id, ok := r.conns.Lookup(conn)
	if !ok {
		return nil, ErrUnregisteredSender
	}
	return r.Get(id)
}

// AddPlayer registers conn under colour in the game, adds it to the
// spectator set and records the association. replaced reports whether a
// previous connection held the colour; the new connection wins.
func (r *GameRegistry) AddPlayer(id protocol.GameID, colour palette.Colour, conn Conn) (replaced bool, err error) {
	game, err := r.Get(id)
	if err != nil {
		return false, err
	}
	replaced = game.addPlayer(colour, conn)
	r.conns.Associate(conn, id)
	return replaced, nil
}

// AddSpectator adds conn to the game's broadcast set without allocating a
// colour.
func (r *GameRegistry) AddSpectator(id protocol.GameID, conn Conn) error {
	game, err := r.Get(id)
	if err != nil {
		return err
	}
	game.addSpectator(conn)
	r.conns.Associate(conn, id)
	return nil
}

// Remove evicts the game and clears the associations of every connection
// that belonged to it.
func (r *GameRegistry) Remove(id protocol.GameID) {
	r.mu.Lock()
	game, ok := r.games[id]
	if ok {
		delete(r.games, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	for _, conn := range game.conns() {
		r.conns.Remove(conn)
	}
}

// DropConn applies disconnect cleanup for conn. A judge going away evicts
// its whole game; a player or spectator is removed from the game it was in.
// evicted reports whether a game was torn down, and which.
func (r *GameRegistry) DropConn(conn Conn) (gameID protocol.GameID, evicted bool) {
	id, ok := r.conns.Lookup(conn)
	if !ok {
		return "", false
	}
	game, err := r.Get(id)
	if err != nil {
		r.conns.Remove(conn)
		return "", false
	}
	if game.Judge != nil && game.Judge.ID() == conn.ID() {
		r.Remove(id)
		return id, true
	}
	game.dropConn(conn)
	r.conns.Remove(conn)
	return "", false
}

// Count reports the number of active games.
func (r *GameRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
