package ecs

// System is a stateless transformation over one component type T.
// Implementations must be usable as their zero value and implement Apply on a
// value receiver; a fresh instance is created for every invocation. Apply must
// not call back into the storage for T and cannot fail.
//
// Systems that need several extra arguments take a struct as A.
type System[T any, A any] interface {
	Apply(component *T, args A)
}

// ApplySystem runs system S on id's component of type T, if there is one.
// The component is mutated in place under its store's write lock. A missing
// component is not an error; nothing happens.
//
//	ecs.ApplySystem[MoveSystem, Position](storage, id, dt)
func ApplySystem[S System[T, A], T any, A any](s *Storage, id EntityId, args A) {
	StoreOf[T](s).Update(id, func(component *T) {
		var system S
		system.Apply(component, args)
	})
}

// ApplySystemAll runs system S on every component of type T and returns how
// many components it was applied to.
func ApplySystemAll[S System[T, A], T any, A any](s *Storage, args A) int {
	store := StoreOf[T](s)

	applied := 0
	for id := range store.EntityIds() {
		if store.Update(id, func(component *T) {
			var system S
			system.Apply(component, args)
		}) {
			applied++
		}
	}
	return applied
}
