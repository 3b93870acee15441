// Package client implements the player side of the relay protocol: connect,
// register for a colour, send moves and receive the judge's notifications.
package client

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"gamerelay/internal/palette"
	"gamerelay/internal/protocol"
	"gamerelay/pkg/logger"
)

const registerTimeout = 10 * time.Second

// Client is a single player connection to the relay's player endpoint.
type Client struct {
	serverAddr string
	display    *Display
	logger     *logger.Logger

	conn net.Conn

	mu     sync.Mutex
	writer *bufio.Writer

	colour     palette.Colour
	registered chan palette.Colour
	rejected   chan string
	notices    chan []byte
}

// New creates a client that will dial the given player endpoint address.
func New(serverAddr string) *Client {
	return &Client{
		serverAddr: serverAddr,
		display:    NewDisplay(),
		logger:     logger.Client,
		registered: make(chan palette.Colour, 1),
		rejected:   make(chan string, 1),
		notices:    make(chan []byte, 64),
	}
}

// Connect dials the relay and starts reading server messages.
func (c *Client) Connect() error {
	conn, err := net.Dial("tcp", c.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn
	c.writer = bufio.NewWriter(conn)

	go c.readLoop()

	c.display.PrintServerStatus("connected to " + c.serverAddr)
	c.logger.Info("connected to relay at %s", c.serverAddr)
	return nil
}

// Register announces the student id and waits for the allocated colour.
func (c *Client) Register(studentID string) (palette.Colour, error) {
	if err := c.send(protocol.NewRegister(studentID)); err != nil {
		return "", err
	}

	timer := time.NewTimer(registerTimeout)
	defer timer.Stop()

	select {
	case colour := <-c.registered:
		c.colour = colour
		c.display.PrintRegistered(string(colour))
		c.logger.Info("registered as %s", colour)
		return colour, nil
	case reason := <-c.rejected:
		return "", fmt.Errorf("registration refused: %s", reason)
	case <-timer.C:
		return "", fmt.Errorf("timed out waiting for REGISTERED")
	}
}

// Move forwards an opaque move body to the judge via the relay.
func (c *Client) Move(move json.RawMessage) error {
	return c.send(protocol.NewMove(move))
}

// Colour returns the colour this client registered under.
func (c *Client) Colour() palette.Colour { return c.colour }

// Notifications yields the raw judge broadcasts (NOTIFY, NOTIFY_TURN, READY,
// GAME_OVER and anything newer). The channel closes when the connection
// drops.
func (c *Client) Notifications() <-chan []byte { return c.notices }

// Close tears the connection down.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) readLoop() {
	reader := bufio.NewReader(c.conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			close(c.notices)
			return
		}
		trimmed := bytes.TrimSpace([]byte(line))
		if len(trimmed) == 0 {
			continue
		}
		env, err := protocol.Parse(trimmed)
		if err != nil {
			c.logger.Warn("dropping line from relay: %v", err)
			continue
		}

		switch env.Type {
		case protocol.MsgRegistered:
			select {
			case c.registered <- env.Colour:
			default:
			}
		case protocol.MsgError:
			c.logger.Error("relay reported: %s", env.Raw())
			select {
			case c.rejected <- string(env.Raw()):
			default:
			}
		default:
			select {
			case c.notices <- env.Raw():
			default:
				c.logger.Warn("notification buffer full, dropping %s", env.Type)
			}
		}
	}
}

func (c *Client) send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return c.writer.Flush()
}
