package core

// Event represents a game event
type Event struct {
	Type    EventType
	Tick    uint64
	Payload interface{}
}

type EventType uint16

const (
	EvtUnitSpawned EventType = iota
	EvtUnitDied
	EvtBuildingPlaced
	EvtBuildingDestroyed
	EvtHealthChanged
	EvtProductionChanged
	EvtResearchCompleted
	EvtResourceGathered
)

var eventNames = [...]string{
	"unit_spawned", "unit_died", "building_placed", "building_destroyed",
	"health_changed", "production_changed", "research_completed", "resource_gathered",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// ---- Payloads ----

type UnitSpawnedEvent struct {
	ID       EntityID
	TypeID   string
	PlayerID int
}

type UnitDiedEvent struct {
	ID       EntityID
	TypeID   string
	PlayerID int
	Killer   EntityID // 0 when the death had no attacker
}

type BuildingPlacedEvent struct {
	ID       EntityID
	TypeID   string
	PlayerID int
}

type BuildingDestroyedEvent struct {
	ID       EntityID
	TypeID   string
	PlayerID int
}

type HealthChangedEvent struct {
	ID     EntityID
	Before int
	After  int
}

type ProductionChangedEvent struct {
	Building EntityID
	PlayerID int
	QueueLen int
}

type ResearchCompletedEvent struct {
	PlayerID int
	TechID   string
}

type ResourceGatheredEvent struct {
	PlayerID int
	Kind     ResourceKind
	Amount   int
}

// ---- Bus ----

// EventBus dispatches events to listeners. Systems emit during a tick and
// the queue is drained once per tick after all systems ran.
type EventBus struct {
	listeners map[EventType][]EventHandler
	queue     []Event
}

type EventHandler func(e Event)

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]EventHandler),
	}
}

// On registers a handler for an event type
func (eb *EventBus) On(t EventType, h EventHandler) {
	eb.listeners[t] = append(eb.listeners[t], h)
}

// Emit queues an event for dispatch
func (eb *EventBus) Emit(e Event) {
	eb.queue = append(eb.queue, e)
}

// Dispatch processes all queued events. Events emitted by handlers are
// processed in the same drain.
func (eb *EventBus) Dispatch() {
	for i := 0; i < len(eb.queue); i++ {
		e := eb.queue[i]
		for _, h := range eb.listeners[e.Type] {
			h(e)
		}
	}
	eb.queue = eb.queue[:0]
}

// Pending returns the number of queued, undispatched events.
func (eb *EventBus) Pending() int {
	return len(eb.queue)
}
