// Package gcodeio exposes the core's produced interfaces: M17/M18/M84
// enable/disable handling and step/dir/enable pin-change notifications,
// framed over pulsecore/protocol as an MCU command stream.
package gcodeio

import (
	"errors"
	"strconv"
	"sync"
)

// CommandHandler decodes its own arguments from data and acts on them.
type CommandHandler func(data *[]byte) error

// Command is one entry in a CommandRegistry.
type Command struct {
	ID      uint16
	Name    string
	Format  string
	Handler CommandHandler
}

// CommandRegistry holds the fixed, narrow command set gcodeio needs: pin
// notifications and M-code acks. The command set is known at compile
// time and has no bootstrap dictionary to answer, so the registry is
// instance-scoped rather than a package global, and carries no
// identify/dictionary-retrieval machinery.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[uint16]*Command
	nameToID map[string]uint16
	nextID   uint16
}

// NewCommandRegistry returns an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// Register adds a command, returning its ID. Re-registering the same
// name returns the existing ID.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := r.nextID
	r.nextID++

	r.commands[id] = &Command{ID: id, Name: name, Format: format, Handler: handler}
	r.nameToID[name] = id
	return id
}

// GetCommand retrieves a command by ID.
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Dispatch calls the handler registered for cmdID.
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok {
		return errors.New("gcodeio: unknown command ID: " + strconv.Itoa(int(cmdID)))
	}
	return cmd.Handler(data)
}

// Count returns the number of registered commands.
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dictionary renders the registered commands as a newline-separated
// "name format" listing, for diagnostics (the demo CLI's dict command),
// not for a host bootstrap handshake.
func (r *CommandRegistry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dict := ""
	for i := uint16(0); i < r.nextID; i++ {
		cmd, ok := r.commands[i]
		if !ok {
			continue
		}
		if cmd.Format != "" {
			dict += cmd.Name + " " + cmd.Format + "\n"
		} else {
			dict += cmd.Name + "\n"
		}
	}
	return dict
}
