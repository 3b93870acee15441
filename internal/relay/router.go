package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"gamerelay/internal/protocol"
	"gamerelay/internal/registry"
)

// routeJudge dispatches one message from a judge connection. Unknown types
// are ignored so the protocol can grow without breaking older relays.
func (r *Relay) routeJudge(conn registry.Conn, env *protocol.Envelope) error {
	switch env.Type {
	case protocol.MsgInitialise:
		return r.initialise(conn, env)
	case protocol.MsgNotifyTurn:
		return r.notifyTurn(conn, env)
	case protocol.MsgNotify, protocol.MsgReady:
		return r.broadcast(conn, env)
	case protocol.MsgGameOver:
		return r.gameOver(conn, env)
	default:
		r.logger.Debug("ignoring %s from judge %s", env.Type, conn.ID())
		return nil
	}
}

// routePlayer dispatches one message from a player connection.
func (r *Relay) routePlayer(conn registry.Conn, env *protocol.Envelope) error {
	switch env.Type {
	case protocol.MsgRegister:
		return r.register(conn, env)
	case protocol.MsgMove:
		return r.move(conn, env)
	default:
		r.logger.Debug("ignoring %s from player %s", env.Type, conn.ID())
		return nil
	}
}

// initialise creates the judge's game, acknowledges it and publishes the
// lifecycle event. The new game becomes the default target for player
// registrations that do not name one.
func (r *Relay) initialise(conn registry.Conn, env *protocol.Envelope) error {
	if env.GameID == "" {
		r.reject(conn, protocol.CodeMalformed, "INITIALISE requires a game_id")
		return fmt.Errorf("initialise from %s: missing game_id", conn.ID())
	}
	game, err := r.games.Create(env.GameID, conn)
	if err != nil {
		r.reject(conn, protocol.CodeDuplicateGame, fmt.Sprintf("game %s is already active", env.GameID))
		return fmt.Errorf("initialise game %s: %w", env.GameID, err)
	}

	r.mu.Lock()
	r.current = game.ID
	r.mu.Unlock()

	if err := r.send(conn, protocol.NewInitialised()); err != nil {
		return err
	}
	r.publish(Event{Kind: EventGameInitialised, GameID: game.ID})
	r.logger.Info("game %s initialised by judge %s", game.ID, conn.ID())
	return nil
}

// register allocates the next colour from the target game's palette, adds
// the player and notifies both sides. The player is told REGISTERED before
// the judge sees JOIN.
func (r *Relay) register(conn registry.Conn, env *protocol.Envelope) error {
	gameID := env.GameID
	if gameID == "" {
		r.mu.RLock()
		gameID = r.current
		r.mu.RUnlock()
	}
	if gameID == "" {
		r.reject(conn, protocol.CodeUnknownGame, "no game has been initialised")
		return fmt.Errorf("register %q: %w", env.StudentID, registry.ErrUnknownGame)
	}

	game, err := r.games.Get(gameID)
	if err != nil {
		r.reject(conn, protocol.CodeUnknownGame, fmt.Sprintf("game %s is not active", gameID))
		return fmt.Errorf("register %q for game %s: %w", env.StudentID, gameID, err)
	}

	colour, err := game.Colours.Next()
	if err != nil {
		r.reject(conn, protocol.CodeColourExhausted, fmt.Sprintf("game %s has no colours left", gameID))
		return fmt.Errorf("register %q for game %s: %w", env.StudentID, gameID, err)
	}

	replaced, err := r.games.AddPlayer(gameID, colour, conn)
	if err != nil {
		r.reject(conn, protocol.CodeUnknownGame, fmt.Sprintf("game %s is not active", gameID))
		return fmt.Errorf("register %q for game %s: %w", env.StudentID, gameID, err)
	}
	if replaced {
		r.logger.Warn("colour %s in game %s was already held, replaced by %s", colour, gameID, conn.ID())
	}

	if err := r.send(conn, protocol.NewRegistered(colour)); err != nil {
		return err
	}
	if err := r.send(game.Judge, protocol.NewJoin(colour)); err != nil {
		return err
	}
	r.logger.Info("player %q registered as %s in game %s", env.StudentID, colour, gameID)
	return nil
}

// move forwards a player's move, verbatim, to its game's judge.
func (r *Relay) move(conn registry.Conn, env *protocol.Envelope) error {
	game, err := r.gameFor(conn)
	if err != nil {
		return fmt.Errorf("move from %s: %w", conn.ID(), err)
	}
	return game.Judge.WriteLine(env.Raw())
}

// notifyTurn forwards a judge's turn notification, verbatim, to the single
// player holding the named colour.
func (r *Relay) notifyTurn(conn registry.Conn, env *protocol.Envelope) error {
	game, err := r.gameFor(conn)
	if err != nil {
		return fmt.Errorf("notify turn from %s: %w", conn.ID(), err)
	}
	player, ok := game.Player(env.Colour)
	if !ok {
		r.reject(conn, protocol.CodeUnregisteredSender, fmt.Sprintf("no player registered as %s", env.Colour))
		return fmt.Errorf("notify turn for %s in game %s: %w", env.Colour, game.ID, registry.ErrUnregisteredSender)
	}
	return player.WriteLine(env.Raw())
}

// broadcast fans a judge's message out to every spectator of its game.
func (r *Relay) broadcast(conn registry.Conn, env *protocol.Envelope) error {
	game, err := r.gameFor(conn)
	if err != nil {
		return fmt.Errorf("%s from %s: %w", env.Type, conn.ID(), err)
	}
	r.fanOut(game, env.Raw())
	return nil
}

// gameOver broadcasts the final message, publishes the lifecycle event and
// evicts the game along with every registry entry it held.
func (r *Relay) gameOver(conn registry.Conn, env *protocol.Envelope) error {
	game, err := r.gameFor(conn)
	if err != nil {
		return fmt.Errorf("game over from %s: %w", conn.ID(), err)
	}
	r.fanOut(game, env.Raw())
	r.publish(Event{Kind: EventGameOver, GameID: game.ID})
	r.games.Remove(game.ID)
	r.logger.Info("game %s over, evicted", game.ID)
	return nil
}

// gameFor resolves the sender's game, rejecting the message when the
// connection has no live association.
func (r *Relay) gameFor(conn registry.Conn) (*registry.Game, error) {
	game, err := r.games.GameFor(conn)
	if err == nil {
		return game, nil
	}
	code := protocol.CodeUnregisteredSender
	if errors.Is(err, registry.ErrUnknownGame) {
		code = protocol.CodeUnknownGame
	}
	r.reject(conn, code, "connection is not part of an active game")
	return nil, err
}

func (r *Relay) fanOut(game *registry.Game, line []byte) {
	for _, spectator := range game.Spectators() {
		if err := spectator.WriteLine(line); err != nil {
			r.logger.Error("broadcast to %s failed: %v", spectator.ID(), err)
		}
	}
}

// send marshals and writes a single relay-built message.
func (r *Relay) send(conn registry.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteLine(data)
}

// reject informs the offending connection without tearing it down.
func (r *Relay) reject(conn registry.Conn, code, message string) {
	if err := r.send(conn, protocol.NewError(code, message)); err != nil {
		r.logger.Error("failed to send %s to %s: %v", code, conn.ID(), err)
	}
}
