package ecs

import "reflect"

// iComponentStorage is the type-erased view of a ComponentStore[T] used by
// Storage for operations that span every registered type.
type iComponentStorage interface {
	Type() reflect.Type
	Has(id EntityId) bool
	Delete(id EntityId)
	Len() int
	Clear()
	Compact()
	stats() ComponentStats
}
