package task

import (
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
)

// EventPublisher publishes task lifecycle events.
type EventPublisher interface {
	TaskCreated(event events.TaskCreatedEvent) error
	TaskCompleted(event events.TaskCompletedEvent) error
	TaskDeleted(event events.TaskDeletedEvent) error
}

// BusPublisher publishes the typed v1 task events on the mono event bus.
type BusPublisher struct {
	bus mono.EventBus
}

// NewBusPublisher creates a publisher for bus.
func NewBusPublisher(bus mono.EventBus) *BusPublisher {
	return &BusPublisher{bus: bus}
}

// TaskCreated publishes TaskCreatedV1.
func (p *BusPublisher) TaskCreated(event events.TaskCreatedEvent) error {
	return events.TaskCreatedV1.Publish(p.bus, event, nil)
}

// TaskCompleted publishes TaskCompletedV1.
func (p *BusPublisher) TaskCompleted(event events.TaskCompletedEvent) error {
	return events.TaskCompletedV1.Publish(p.bus, event, nil)
}

// TaskDeleted publishes TaskDeletedV1.
func (p *BusPublisher) TaskDeleted(event events.TaskDeletedEvent) error {
	return events.TaskDeletedV1.Publish(p.bus, event, nil)
}
