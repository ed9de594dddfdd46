package ecs

import "reflect"

// Commands provides a buffer for deferred store operations that are executed
// when Flush is called. Use it to request structural changes while iterating
// a store, since inserts and removes invalidate outstanding pointers.
type Commands struct {
	removes []removeCommand
	writes  []func(*Storage)
	defers  []func()
}

func NewCommands() *Commands {
	return &Commands{}
}

type removeCommand struct {
	entity   EntityId
	compType reflect.Type
}

// QueueInsert queues an Insert of component for entity.
func QueueInsert[T any](c *Commands, entity EntityId, component T) {
	c.writes = append(c.writes, func(s *Storage) {
		Insert(s, entity, component)
	})
}

// QueueSet queues a Set of component for entity.
func QueueSet[T any](c *Commands, entity EntityId, component T) {
	c.writes = append(c.writes, func(s *Storage) {
		Set(s, entity, component)
	})
}

// QueueRemove queues removal of entity's component of type T.
func QueueRemove[T any](c *Commands, entity EntityId) {
	c.RemoveComponent(entity, reflect.TypeFor[T]())
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeCommand{
		entity:   entity,
		compType: compType,
	})
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.removes) + len(c.writes) + len(c.defers)
}

// Flush applies all queued operations to storage and resets the buffer.
// Removals run first, then inserts and sets in the order they were queued,
// then deferred functions. A queued remove followed by an insert therefore
// replaces the component.
func (c *Commands) Flush(storage *Storage) {
	for _, cmd := range c.removes {
		storage.DeleteComponent(cmd.entity, cmd.compType)
	}

	for _, write := range c.writes {
		write(storage)
	}

	for _, fn := range c.defers {
		fn()
	}

	clear(c.writes)
	clear(c.defers)
	c.removes = c.removes[:0]
	c.writes = c.writes[:0]
	c.defers = c.defers[:0]
}
