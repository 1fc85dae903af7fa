package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	TurnAdvanceStart    EventType = "TURN_ADVANCE_START"
	TurnAdvanceComplete EventType = "TURN_ADVANCE_COMPLETE"
	PolicyApplied       EventType = "POLICY_APPLIED"
	SubsidyAdded        EventType = "SUBSIDY_ADDED"
	SubsidyExpired      EventType = "SUBSIDY_EXPIRED"
	SubsidyRemoved      EventType = "SUBSIDY_REMOVED"
	BudgetAllocated     EventType = "BUDGET_ALLOCATED"
	CalibrationComplete EventType = "CALIBRATION_COMPLETE"
	RelationChanged     EventType = "RELATION_CHANGED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Handler receives published events.
type Handler func(event *Event)

// Bus is an in-process pub/sub bus for engine events.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventType]map[int]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType]map[int]Handler)}
}

// Subscribe registers a handler for an event type and returns a
// subscription id for Unsubscribe.
func (b *Bus) Subscribe(t EventType, h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.handlers[t] == nil {
		b.handlers[t] = make(map[int]Handler)
	}
	b.handlers[t][b.nextID] = h
	return b.nextID
}

// Unsubscribe removes a subscription. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(t EventType, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[t], id)
}

// Publish delivers an event to all handlers registered for its type.
// Delivery is synchronous; handlers must not block.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()
	for _, h := range hs {
		h(event)
	}
}

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus, for subscribers.
func (m *Manager) Bus() *Bus {
	return m.bus
}

// Emit publishes an event and logs it.
func (m *Manager) Emit(t EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}
	m.log.Debug().
		Str("event_type", string(t)).
		Str("module", module).
		Msg("Event emitted")
	m.bus.Publish(event)
}
