// Board game relay player client - Main Entry Point
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gamerelay/internal/client"
	"gamerelay/pkg/logger"
)

var (
	serverAddr = flag.String("server", "localhost:8123", "Player endpoint address (host:port)")
	studentID  = flag.String("student", "", "Student id to register with (required)")
	logLevel   = flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	logFile    = flag.String("log-file", "", "Log file path (optional)")
)

func main() {
	flag.Parse()

	logger.SetGlobalLogLevel(logger.ParseLevel(*logLevel))
	if *logFile != "" {
		if err := logger.Client.SetFile(*logFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set log file: %v\n", err)
			os.Exit(1)
		}
	}

	if *studentID == "" {
		fmt.Fprintln(os.Stderr, "a -student id is required")
		flag.Usage()
		os.Exit(2)
	}

	display := client.NewDisplay()
	display.PrintBanner()

	c := client.New(*serverAddr)
	if err := c.Connect(); err != nil {
		display.PrintError(fmt.Sprintf("Failed to connect to relay: %v", err))
		os.Exit(1)
	}
	defer c.Close()

	colour, err := c.Register(*studentID)
	if err != nil {
		display.PrintError(fmt.Sprintf("Registration failed: %v", err))
		os.Exit(1)
	}

	// Print judge broadcasts as they arrive.
	go func() {
		for raw := range c.Notifications() {
			display.PrintNotice(noticeType(raw), raw)
		}
		display.PrintWarning("lost connection to relay")
		os.Exit(0)
	}()

	display.PrintInfo("Type a move as '<target> <ticket>', raw JSON, or 'quit'.")
	input := client.NewInputHandler(display)
	for {
		move, ok := input.ReadMove(string(colour))
		if !ok {
			display.PrintInfo("Bye!")
			return
		}
		if err := c.Move(move); err != nil {
			display.PrintError(fmt.Sprintf("Failed to send move: %v", err))
			return
		}
	}
}

// noticeType pulls the type tag out of a raw broadcast for display.
func noticeType(raw []byte) string {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &header); err != nil || header.Type == "" {
		return "MESSAGE"
	}
	return header.Type
}
