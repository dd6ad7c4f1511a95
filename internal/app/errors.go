package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the application should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrNoBuffer indicates a command needs a current buffer and there is none.
	ErrNoBuffer = errors.New("no current buffer")

	// ErrUnknownCommand indicates the shell does not know the command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage indicates a command was given the wrong arguments.
	ErrUsage = errors.New("invalid arguments")
)

// CommandError represents an error that occurred while running a shell
// command.
type CommandError struct {
	Command string // Command name (e.g., "open", "goto")
	Target  string // Target of the command, if any
	Err     error  // Underlying error
}

func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Command
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError represents a failure to set up a component.
type ComponentError struct {
	Component string // Component name (e.g., "config", "metrics")
	Action    string // Action being performed
	Err       error  // Underlying error
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}

	if e.Action != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Component, e.Action)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	}

	return e.Component
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
