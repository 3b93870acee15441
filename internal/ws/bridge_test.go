package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gamerelay/internal/registry"
)

type fakeConn struct {
	id string
}

func (f *fakeConn) ID() string               { return f.id }
func (f *fakeConn) WriteLine(p []byte) error { return nil }
func (f *fakeConn) Close() error             { return nil }

func TestBridge(t *testing.T) {
	games := registry.NewGameRegistry(registry.NewConnRegistry())
	games.Create("g1", &fakeConn{id: "judge:1"})

	srv := httptest.NewServer(NewBridge(games))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?game=g1"

	t.Run("watcher receives broadcasts", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("failed to dial bridge: %v", err)
		}
		defer conn.Close()

		game, _ := games.Get("g1")
		spectators := waitForSpectators(t, game, 1)

		payload := []byte(`{"type":"NOTIFY","round":1}`)
		for _, s := range spectators {
			if err := s.WriteLine(payload); err != nil {
				t.Fatalf("WriteLine to watcher failed: %v", err)
			}
		}

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("failed to read broadcast: %v", err)
		}
		if string(msg) != string(payload) {
			t.Errorf("watcher received %q, want %q", msg, payload)
		}
	})

	t.Run("unknown game refuses the handshake", func(t *testing.T) {
		badURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?game=nope"
		if _, _, err := websocket.DefaultDialer.Dial(badURL, nil); err == nil {
			t.Fatal("dial succeeded for an unknown game")
		}
	})

	t.Run("missing game parameter refuses the handshake", func(t *testing.T) {
		badURL := "ws" + strings.TrimPrefix(srv.URL, "http")
		if _, _, err := websocket.DefaultDialer.Dial(badURL, nil); err == nil {
			t.Fatal("dial succeeded without a game parameter")
		}
	})

	t.Run("watcher disconnect leaves the spectator set", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("failed to dial bridge: %v", err)
		}

		game, _ := games.Get("g1")
		waitForSpectators(t, game, 1)

		conn.Close()
		waitForSpectators(t, game, 0)
	})
}

// waitForSpectators polls until the game's spectator set reaches n.
func waitForSpectators(t *testing.T, game *registry.Game, n int) []registry.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		spectators := game.Spectators()
		if len(spectators) == n {
			return spectators
		}
		if time.Now().After(deadline) {
			t.Fatalf("spectator set has %d entries, want %d", len(spectators), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
