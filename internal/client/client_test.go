package client

import (
	"bufio"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"gamerelay/internal/palette"
	"gamerelay/internal/relay"
)

// startGame brings up a relay with one initialised game and returns the
// judge's side of the wire.
func startGame(t *testing.T) (*relay.Relay, net.Conn, *bufio.Reader) {
	t.Helper()
	r := relay.New("127.0.0.1:0", "127.0.0.1:0")
	if err := r.Start(); err != nil {
		t.Fatalf("failed to start relay: %v", err)
	}
	t.Cleanup(func() { r.Stop() })

	judge, err := net.Dial("tcp", r.JudgeAddr())
	if err != nil {
		t.Fatalf("failed to dial judge endpoint: %v", err)
	}
	t.Cleanup(func() { judge.Close() })

	reader := bufio.NewReader(judge)
	if _, err := judge.Write([]byte(`{"type":"INITIALISE","game_id":"g1"}` + "\n")); err != nil {
		t.Fatalf("failed to initialise game: %v", err)
	}
	judge.SetReadDeadline(time.Now().Add(2 * time.Second))
	if line, err := reader.ReadString('\n'); err != nil || !strings.Contains(line, "INITIALISED") {
		t.Fatalf("expected INITIALISED, got %q (%v)", line, err)
	}
	return r, judge, reader
}

func judgeLine(t *testing.T, judge net.Conn, reader *bufio.Reader) string {
	t.Helper()
	judge.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read judge line: %v", err)
	}
	return strings.TrimSpace(line)
}

func TestRegisterAndMove(t *testing.T) {
	r, judge, reader := startGame(t)

	c := New(r.PlayerAddr())
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer c.Close()

	colour, err := c.Register("s123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if colour != palette.Black {
		t.Errorf("Register allocated %s, want Black", colour)
	}
	if c.Colour() != palette.Black {
		t.Errorf("Colour() = %s, want Black", c.Colour())
	}

	var join struct {
		Type   string `json:"type"`
		Colour string `json:"colour"`
	}
	if err := json.Unmarshal([]byte(judgeLine(t, judge, reader)), &join); err != nil {
		t.Fatalf("judge received non-JSON JOIN: %v", err)
	}
	if join.Type != "JOIN" || join.Colour != "Black" {
		t.Errorf("judge received %+v, want JOIN for Black", join)
	}

	if err := c.Move(json.RawMessage(`{"target":56,"ticket":"Bus"}`)); err != nil {
		t.Fatalf("Move returned error: %v", err)
	}
	want := `{"type":"MOVE","move":{"target":56,"ticket":"Bus"}}`
	if got := judgeLine(t, judge, reader); got != want {
		t.Errorf("judge received %q, want %q", got, want)
	}
}

func TestNotificationsDelivered(t *testing.T) {
	r, judge, _ := startGame(t)

	c := New(r.PlayerAddr())
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer c.Close()
	if _, err := c.Register("s123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	notice := `{"type":"NOTIFY","round":3}`
	if _, err := judge.Write([]byte(notice + "\n")); err != nil {
		t.Fatalf("judge write failed: %v", err)
	}

	select {
	case raw := <-c.Notifications():
		if string(raw) != notice {
			t.Errorf("notification = %q, want %q", raw, notice)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestRegisterWithoutGame(t *testing.T) {
	r := relay.New("127.0.0.1:0", "127.0.0.1:0")
	if err := r.Start(); err != nil {
		t.Fatalf("failed to start relay: %v", err)
	}
	t.Cleanup(func() { r.Stop() })

	c := New(r.PlayerAddr())
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer c.Close()

	if _, err := c.Register("s123"); err == nil {
		t.Fatal("Register succeeded with no game initialised")
	}
}
