// Package ws bridges WebSocket observers into a game's spectator set, so
// browser clients receive the same NOTIFY/READY/GAME_OVER fan-out as the
// TCP players.
package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"gamerelay/internal/protocol"
	"gamerelay/internal/registry"
	"gamerelay/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Bridge upgrades requests on /watch?game=<id> and registers the resulting
// connections as spectators of the named game.
type Bridge struct {
	games  *registry.GameRegistry
	logger *logger.Logger
}

func NewBridge(games *registry.GameRegistry) *Bridge {
	return &Bridge{games: games, logger: logger.Relay}
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	gameID := protocol.GameID(req.URL.Query().Get("game"))
	if gameID == "" {
		http.Error(w, "missing game parameter", http.StatusBadRequest)
		return
	}
	if _, err := b.games.Get(gameID); err != nil {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		b.logger.Error("websocket upgrade failed: %v", err)
		return
	}

	watcher := &wsConn{id: conn.RemoteAddr().String(), conn: conn}
	if err := b.games.AddSpectator(gameID, watcher); err != nil {
		// The game went away between the check and the upgrade.
		conn.Close()
		return
	}
	b.logger.Info("watcher %s joined game %s", watcher.ID(), gameID)
	go b.readLoop(watcher)
}

// readLoop discards inbound frames; watchers are write-only. It exists to
// notice the peer going away and run disconnect cleanup.
func (b *Bridge) readLoop(watcher *wsConn) {
	defer func() {
		watcher.Close()
		b.games.DropConn(watcher)
		b.logger.Info("watcher %s left", watcher.ID())
	}()
	for {
		if _, _, err := watcher.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsConn adapts a websocket connection to registry.Conn so a browser can
// sit in a spectator set next to TCP connections. Writes are serialised;
// gorilla/websocket allows only one concurrent writer.
type wsConn struct {
	id string

	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) WriteLine(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, p)
}

func (c *wsConn) Close() error { return c.conn.Close() }
