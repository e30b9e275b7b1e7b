package core

import (
	"fmt"
	"sync"
)

// Connector is a named external-system client (ticketing, messaging,
// scheduling, journey logging). Construction, credentials and retries are
// owned by the concrete implementation; the core only looks clients up by
// name and calls through narrow interfaces.
type Connector interface {
	Name() string
}

// SessionSeeder applies channel-specific defaults to a brand-new session
// from the first inbound turn's addressing. The channel connector implements
// this so the platform's seeding rules stay out of the dispatcher.
type SessionSeeder interface {
	SeedSession(s *Session, ch ChannelInfo)
}

// ConnectorManager is a name-keyed registry handing out already-constructed
// connectors to handlers and navigators.
type ConnectorManager struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewConnectorManager constructs an empty manager.
func NewConnectorManager() *ConnectorManager {
	return &ConnectorManager{connectors: make(map[string]Connector)}
}

// Register adds a connector under its Name. Re-registering a name replaces
// the previous client.
func (m *ConnectorManager) Register(c Connector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectors[c.Name()] = c
}

// Get returns the connector registered under name.
func (m *ConnectorManager) Get(name string) (Connector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.connectors[name]
	if !ok {
		return nil, fmt.Errorf("connector %q: %w", name, ErrConnectorNotRegistered)
	}
	return c, nil
}
