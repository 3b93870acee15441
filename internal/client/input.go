// Package client handles user input validation and processing
package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// InputHandler reads move commands from the terminal.
type InputHandler struct {
	scanner *bufio.Scanner
	display *Display
}

// NewInputHandler creates a new input handler
func NewInputHandler(display *Display) *InputHandler {
	return &InputHandler{
		scanner: bufio.NewScanner(os.Stdin),
		display: display,
	}
}

// ReadMove reads one command and turns it into a move body. Accepted forms:
//
//	{"target":56,"ticket":"Bus","colour":"Black"}   raw JSON, sent as-is
//	56 Bus                                          target and ticket
//	quit                                            stop the client
//
// ok is false when input is exhausted or the user quit.
func (ih *InputHandler) ReadMove(colour string) (move json.RawMessage, ok bool) {
	for {
		ih.display.Prompt()
		if !ih.scanner.Scan() {
			return nil, false
		}

		input := strings.TrimSpace(ih.scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			return nil, false
		}

		if strings.HasPrefix(input, "{") {
			if !json.Valid([]byte(input)) {
				ih.display.PrintWarning("that is not valid JSON")
				continue
			}
			return json.RawMessage(input), true
		}

		fields := strings.Fields(input)
		if len(fields) != 2 {
			ih.display.PrintWarning("enter a move as '<target> <ticket>' or raw JSON")
			continue
		}
		target, err := strconv.Atoi(fields[0])
		if err != nil {
			ih.display.PrintWarning("target must be a number")
			continue
		}

		body, err := json.Marshal(map[string]interface{}{
			"target": target,
			"ticket": fields[1],
			"colour": colour,
		})
		if err != nil {
			ih.display.PrintError(fmt.Sprintf("failed to build move: %v", err))
			continue
		}
		return body, true
	}
}
