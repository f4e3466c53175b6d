package core

import (
	"errors"
	"sync"
)

// CommandHandler handles a command with raw frame data. The handler
// decodes its own arguments from the data slice.
type CommandHandler func(data *[]byte) error

// Command is one host-visible command or response message.
type Command struct {
	ID      uint16
	Name    string
	Format  string // format string for the dictionary (e.g. "oid=%c cs_pin=%u")
	Handler CommandHandler
}

// CommandRegistry holds all registered commands and responses.
type CommandRegistry struct {
	mu         sync.RWMutex
	commands   map[uint16]*Command
	nameToID   map[string]uint16
	nextID     uint16
	dictionary string // serialized dictionary for the host
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// RegisterCommand registers a command handler on the global registry.
func RegisterCommand(name string, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// RegisterResponse registers a response message (firmware -> host); it has
// no handler.
func RegisterResponse(name string, format string) uint16 {
	return globalRegistry.Register(name, format, nil)
}

// Register adds a command to the registry.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := r.nextID
	r.nextID++

	r.commands[id] = &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	}
	r.nameToID[name] = id
	r.rebuildDictionary()

	return id
}

// GetCommand retrieves a command by ID.
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// GetCommandByName retrieves a command by name.
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered commands.
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for cmdID.
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok {
		return errors.New("unknown command ID: " + itoa(int(cmdID)))
	}
	if cmd.Handler == nil {
		return errors.New("command has no handler: " + cmd.Name)
	}
	return cmd.Handler(data)
}

// GetDictionary returns the command dictionary string the host uses to
// map names to IDs.
func (r *CommandRegistry) GetDictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// rebuildDictionary rebuilds the dictionary string. Lock held by caller.
func (r *CommandRegistry) rebuildDictionary() {
	dict := ""
	for i := uint16(0); i < r.nextID; i++ {
		if cmd, ok := r.commands[i]; ok {
			if cmd.Format != "" {
				dict += cmd.Name + " " + cmd.Format + "\n"
			} else {
				dict += cmd.Name + "\n"
			}
		}
	}
	r.dictionary = dict
}

// DispatchCommand dispatches on the global registry.
func DispatchCommand(cmdID uint16, data *[]byte) error {
	return globalRegistry.Dispatch(cmdID, data)
}

// GetGlobalRegistry returns the global command registry.
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}

// Firmware constants exported to the host alongside the dictionary.
var (
	constantsMu sync.RWMutex
	constants   = make(map[string]string)
)

// RegisterConstant publishes a named constant (MCU name, clock rate).
func RegisterConstant(name string, value interface{}) {
	constantsMu.Lock()
	defer constantsMu.Unlock()
	switch v := value.(type) {
	case string:
		constants[name] = v
	case int:
		constants[name] = itoa(v)
	case uint32:
		constants[name] = utoa(v)
	default:
		constants[name] = ""
	}
}

// GetConstant looks up a published constant.
func GetConstant(name string) (string, bool) {
	constantsMu.RLock()
	defer constantsMu.RUnlock()
	v, ok := constants[name]
	return v, ok
}
