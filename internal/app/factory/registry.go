package factory

import (
	"sync"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
)

// Constructor builds a channel-specific order from a raw creation command.
// It validates channel requirements, allocates channel resources (table,
// lane) and returns the order in created state with totals computed.
type Constructor func(cmd ports.CreateOrderCommand) (*orders.Order, error)

// Registry maps a channel tag to its order constructor. It is an explicit
// object, constructed once at process start and passed by reference, so tests
// can build isolated instances.
type Registry struct {
	mu           sync.RWMutex
	constructors map[orders.Channel]Constructor
}

// NewRegistry creates an empty creation registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[orders.Channel]Constructor)}
}

// Register associates a channel with a constructor. Re-registering the same
// channel replaces the prior entry (last write wins; handy for test doubles).
func (registry *Registry) Register(channel orders.Channel, ctor Constructor) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.constructors[channel] = ctor
}

// Create looks up the constructor for the command's channel and runs it.
// Returns *orders.UnknownChannelError when no constructor is registered.
func (registry *Registry) Create(cmd ports.CreateOrderCommand) (*orders.Order, error) {
	registry.mu.RLock()
	ctor, ok := registry.constructors[cmd.Channel]
	registry.mu.RUnlock()

	if !ok {
		return nil, &orders.UnknownChannelError{Channel: cmd.Channel}
	}
	return ctor(cmd)
}
