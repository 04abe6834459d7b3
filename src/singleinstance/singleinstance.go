// Package singleinstance keeps one hover resident per session and lets other
// processes control it over a loopback TCP line protocol.
package singleinstance

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyRunning is returned by Start when another resident answers PING.
var ErrAlreadyRunning = errors.New("a hover resident is already running")

// Command is a control request understood by the resident.
type Command string

const (
	CmdEnable  Command = "ENABLE"
	CmdDisable Command = "DISABLE"
	CmdToggle  Command = "TOGGLE"
	CmdStatus  Command = "STATUS"
	CmdReload  Command = "RELOAD"
)

// ParseCommand accepts a command name in any case.
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CmdEnable, CmdDisable, CmdToggle, CmdStatus, CmdReload:
		return c, nil
	}
	return "", fmt.Errorf("unknown control command %q", s)
}

// Handler executes a command inside the resident and returns a one-line reply.
type Handler func(Command) (string, error)

// Server owns the control endpoint.
type Server interface {
	// Start binds the first port of the configured range and serves until
	// ctx is done or Close is called. Requests other than PING are refused
	// until a handler is set.
	Start(ctx context.Context) error
	SetHandler(h Handler)
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	Close() error
}

// Client sends one command to a running resident.
type Client interface {
	// Send returns found=false (and no error) when no resident answers.
	Send(ctx context.Context, cmd Command) (reply string, found bool, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
