// Package client handles client-side display and user interface
package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Display prints client output with a consistent colour scheme.
type Display struct {
	serverColor *color.Color
	gameColor   *color.Color
	turnColor   *color.Color
	infoColor   *color.Color
	warnColor   *color.Color
	errorColor  *color.Color
}

// NewDisplay creates a new display instance with configured colors
func NewDisplay() *Display {
	return &Display{
		serverColor: color.New(color.FgCyan, color.Bold),
		gameColor:   color.New(color.FgYellow, color.Bold),
		turnColor:   color.New(color.FgGreen, color.Bold),
		infoColor:   color.New(color.FgWhite),
		warnColor:   color.New(color.FgYellow),
		errorColor:  color.New(color.FgRed),
	}
}

// PrintBanner displays the client banner
func (d *Display) PrintBanner() {
	banner := `
╔═══════════════════════════════════════╗
║          BOARD GAME RELAY             ║
║            Player Client              ║
╚═══════════════════════════════════════╝
`
	d.gameColor.Println(banner)
}

// PrintServerStatus displays relay connection status
func (d *Display) PrintServerStatus(message string) {
	timestamp := time.Now().Format("15:04:05")
	d.serverColor.Printf("[%s] [RELAY] %s\n", timestamp, message)
}

// PrintRegistered announces the colour the relay allocated
func (d *Display) PrintRegistered(colour string) {
	timestamp := time.Now().Format("15:04:05")
	d.turnColor.Printf("[%s] [REGISTERED] you are playing as %s\n", timestamp, colour)
}

// PrintNotice displays a broadcast received from the judge
func (d *Display) PrintNotice(msgType string, raw []byte) {
	timestamp := time.Now().Format("15:04:05")
	switch msgType {
	case "NOTIFY_TURN":
		d.turnColor.Printf("[%s] [%s] %s\n", timestamp, msgType, raw)
	case "GAME_OVER":
		d.gameColor.Printf("[%s] [%s] %s\n", timestamp, msgType, raw)
	default:
		d.infoColor.Printf("[%s] [%s] %s\n", timestamp, msgType, raw)
	}
}

// PrintInfo displays general information
func (d *Display) PrintInfo(message string) {
	d.infoColor.Println(message)
}

// PrintWarning displays a warning
func (d *Display) PrintWarning(message string) {
	d.warnColor.Printf("⚠️  %s\n", message)
}

// PrintError displays an error
func (d *Display) PrintError(message string) {
	d.errorColor.Printf("❌ %s\n", message)
}

// PrintSeparator draws a visual break between sections
func (d *Display) PrintSeparator() {
	d.infoColor.Println(strings.Repeat("=", 44))
}

// Prompt prints the move prompt without a newline
func (d *Display) Prompt() {
	fmt.Print("move> ")
}
