// Package protocol defines the newline-delimited JSON wire format shared by
// judges, players and the relay. Every message carries a "type" field that
// discriminates its schema; bodies the relay only forwards (move contents,
// notify contents) stay opaque and are passed through byte for byte.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"gamerelay/internal/palette"
)

// MessageType discriminates wire message schemas.
type MessageType string

const (
	// Judge to relay.
	MsgInitialise MessageType = "INITIALISE"
	MsgNotifyTurn MessageType = "NOTIFY_TURN"
	MsgNotify     MessageType = "NOTIFY"
	MsgReady      MessageType = "READY"
	MsgGameOver   MessageType = "GAME_OVER"

	// Player to relay.
	MsgRegister MessageType = "REGISTER"
	MsgMove     MessageType = "MOVE"

	// Relay to judge or player.
	MsgInitialised MessageType = "INITIALISED"
	MsgRegistered  MessageType = "REGISTERED"
	MsgJoin        MessageType = "JOIN"
	MsgError       MessageType = "ERROR"
)

// Error codes carried by ERROR messages.
const (
	CodeMalformed          = "MALFORMED_MESSAGE"
	CodeUnknownGame        = "UNKNOWN_GAME"
	CodeDuplicateGame      = "DUPLICATE_GAME"
	CodeUnregisteredSender = "UNREGISTERED_SENDER"
	CodeColourExhausted    = "COLOUR_EXHAUSTED"
)

// GameID identifies one active game. Judges may supply it as a JSON number
// or a string; it is canonicalised to its string form.
type GameID string

func (id GameID) String() string { return string(id) }

// UnmarshalJSON accepts both `"1337"` and `1337`.
func (id *GameID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = GameID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("game_id must be a string or number: %w", err)
	}
	*id = GameID(n.String())
	return nil
}

// ErrMissingType marks a line that parsed as JSON but has no type field.
var ErrMissingType = errors.New("message has no type field")

// Envelope is the decoded header of a single wire message. Only the fields
// the relay routes on are decoded; Raw returns the exact bytes received so
// forwarded payloads stay untouched.
type Envelope struct {
	Type      MessageType    `json:"type"`
	GameID    GameID         `json:"game_id,omitempty"`
	Colour    palette.Colour `json:"colour,omitempty"`
	StudentID string         `json:"student_id,omitempty"`

	raw []byte
}

// Parse decodes one line into an Envelope. The line is copied, so callers
// may reuse their read buffer.
func Parse(line []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}
	env.raw = make([]byte, len(line))
	copy(env.raw, line)
	return &env, nil
}

// Raw returns the original line bytes, without framing.
func (e *Envelope) Raw() []byte { return e.raw }

// Outbound messages built by the relay and the client library.

// Initialised acknowledges a judge's INITIALISE.
type Initialised struct {
	Type MessageType `json:"type"`
}

func NewInitialised() Initialised {
	return Initialised{Type: MsgInitialised}
}

// Registered tells a player which colour it was allocated.
type Registered struct {
	Type   MessageType    `json:"type"`
	Colour palette.Colour `json:"colour"`
}

func NewRegistered(colour palette.Colour) Registered {
	return Registered{Type: MsgRegistered, Colour: colour}
}

// Join tells a judge that a player joined its game.
type Join struct {
	Type   MessageType    `json:"type"`
	Colour palette.Colour `json:"colour"`
}

func NewJoin(colour palette.Colour) Join {
	return Join{Type: MsgJoin, Colour: colour}
}

// Register announces a player to the relay. GameID is optional; without it
// the relay targets the most recently initialised game.
type Register struct {
	Type      MessageType `json:"type"`
	StudentID string      `json:"student_id"`
	GameID    GameID      `json:"game_id,omitempty"`
}

func NewRegister(studentID string) Register {
	return Register{Type: MsgRegister, StudentID: studentID}
}

// Move wraps an opaque move body for forwarding to the judge.
type Move struct {
	Type MessageType     `json:"type"`
	Move json.RawMessage `json:"move"`
}

func NewMove(move json.RawMessage) Move {
	return Move{Type: MsgMove, Move: move}
}

// ErrorMessage reports a failed request back to its sender. Receivers that
// predate it simply ignore the unknown type.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

func NewError(code, message string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Code: code, Message: message}
}
