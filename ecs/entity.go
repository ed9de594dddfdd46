package ecs

// EntityId is an opaque, caller-assigned identifier.
// The storage never allocates or recycles ids; an entity only exists as a key
// inside the component stores it has been inserted into.
type EntityId uint32
