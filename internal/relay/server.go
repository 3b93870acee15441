// Package relay implements the judge and player TCP endpoints and routes
// messages between them. All game state lives in the registries; the relay
// itself only dispatches.
package relay

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"gamerelay/internal/protocol"
	"gamerelay/internal/registry"
	"gamerelay/pkg/logger"
)

// EventKind discriminates the lifecycle events the relay publishes.
type EventKind string

const (
	EventGameInitialised EventKind = "game_initialised"
	EventGameOver        EventKind = "game_over"
)

// Event is published on Events when a game starts or finishes.
type Event struct {
	Kind   EventKind
	GameID protocol.GameID
}

// Relay accepts judge connections on one endpoint and player connections on
// another, and forwards messages between them according to the game and
// connection registries.
type Relay struct {
	judgeAddr  string
	playerAddr string

	judgeLn  net.Listener
	playerLn net.Listener

	conns *registry.ConnRegistry
	games *registry.GameRegistry

	mu      sync.RWMutex
	current protocol.GameID

	liveMu sync.Mutex
	live   map[string]*tcpConn

	events  chan Event
	logger  *logger.Logger
	running atomic.Bool
}

// New creates a relay that will listen on the given judge and player
// addresses once started.
func New(judgeAddr, playerAddr string) *Relay {
	conns := registry.NewConnRegistry()
	return &Relay{
		judgeAddr:  judgeAddr,
		playerAddr: playerAddr,
		conns:      conns,
		games:      registry.NewGameRegistry(conns),
		live:       make(map[string]*tcpConn),
		events:     make(chan Event, 16),
		logger:     logger.Relay,
	}
}

// Start opens both listening endpoints and begins accepting connections.
// It does not block; use Stop to shut the relay down.
func (r *Relay) Start() error {
	judgeLn, err := net.Listen("tcp", r.judgeAddr)
	if err != nil {
		return fmt.Errorf("judge endpoint: %w", err)
	}
	playerLn, err := net.Listen("tcp", r.playerAddr)
	if err != nil {
		judgeLn.Close()
		return fmt.Errorf("player endpoint: %w", err)
	}
	r.judgeLn = judgeLn
	r.playerLn = playerLn
	r.running.Store(true)

	r.logger.Info("judge endpoint listening on %s", judgeLn.Addr())
	r.logger.Info("player endpoint listening on %s", playerLn.Addr())

	go r.acceptLoop(judgeLn, r.routeJudge)
	go r.acceptLoop(playerLn, r.routePlayer)
	return nil
}

// Stop closes both listeners and every live connection.
func (r *Relay) Stop() error {
	if !r.running.CompareAndSwap(true, false) {
		return nil
	}
	r.judgeLn.Close()
	r.playerLn.Close()

	r.liveMu.Lock()
	for _, conn := range r.live {
		conn.Close()
	}
	r.liveMu.Unlock()

	r.logger.Info("relay stopped")
	return nil
}

// JudgeAddr returns the bound judge endpoint address.
func (r *Relay) JudgeAddr() string { return r.judgeLn.Addr().String() }

// PlayerAddr returns the bound player endpoint address.
func (r *Relay) PlayerAddr() string { return r.playerLn.Addr().String() }

// Events exposes the relay's lifecycle notifications. The channel is
// buffered; events are dropped, with a warning, rather than ever blocking
// message handling.
func (r *Relay) Events() <-chan Event { return r.events }

// Games exposes the game registry for read-side collaborators such as the
// spectator bridge.
func (r *Relay) Games() *registry.GameRegistry { return r.games }

type routeFunc func(conn registry.Conn, env *protocol.Envelope) error

func (r *Relay) acceptLoop(ln net.Listener, route routeFunc) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if r.running.Load() {
				r.logger.Error("failed to accept connection: %v", err)
				continue
			}
			return
		}
		go r.handleConn(newTCPConn(c), route)
	}
}

// handleConn reads newline-framed messages until the connection drops.
// Each line is handled to completion before the next is read, so registry
// mutations for one message never interleave with another message from the
// same connection.
func (r *Relay) handleConn(conn *tcpConn, route routeFunc) {
	r.addLive(conn)
	r.logger.Info("connection from %s", conn.ID())
	defer func() {
		conn.Close()
		r.removeLive(conn)
		r.disconnect(conn)
	}()

	reader := bufio.NewReader(conn.c)
	for r.running.Load() {
		line, err := reader.ReadString('\n')
		if err != nil {
			// A trailing fragment without a newline is never dispatched.
			return
		}
		trimmed := bytes.TrimSpace([]byte(line))
		if len(trimmed) == 0 {
			continue
		}
		env, err := protocol.Parse(trimmed)
		if err != nil {
			// Malformed lines fail the message, not the connection.
			r.logger.Warn("dropping line from %s: %v", conn.ID(), err)
			continue
		}
		if err := route(conn, env); err != nil {
			r.logger.Error("%s from %s: %v", env.Type, conn.ID(), err)
		}
	}
}

// disconnect applies the cleanup contract for a closed connection: its
// registry entries go away, and a judge takes its whole game with it.
func (r *Relay) disconnect(conn registry.Conn) {
	if gameID, evicted := r.games.DropConn(conn); evicted {
		r.logger.Warn("judge for game %s disconnected, game evicted", gameID)
	}
	r.logger.Info("connection closed: %s", conn.ID())
}

func (r *Relay) addLive(conn *tcpConn) {
	r.liveMu.Lock()
	r.live[conn.ID()] = conn
	r.liveMu.Unlock()
}

func (r *Relay) removeLive(conn *tcpConn) {
	r.liveMu.Lock()
	delete(r.live, conn.ID())
	r.liveMu.Unlock()
}

func (r *Relay) publish(ev Event) {
	select {
	case r.events <- ev:
	default:
		r.logger.Warn("event channel full, dropping %s for game %s", ev.Kind, ev.GameID)
	}
}
