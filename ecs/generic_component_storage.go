package ecs

import (
	"iter"
	"reflect"
	"sync"

	"github.com/kamstrup/intmap"
)

const (
	genericBlockSize = 64
)

type record[T any] struct {
	entity EntityId
	value  T
}

// block is a fixed run of slots. Blocks are heap allocated individually so
// growing the store never moves existing records.
type block[T any] struct {
	records [genericBlockSize]record[T]
	filled  [genericBlockSize]bool
}

// ComponentStore holds every component of type T, keyed by entity.
// Each store carries its own lock; stores of different types never contend.
//
// Pointers handed out by Get and the iterators stay valid until the next
// structural change (Insert, Set, Delete, Clear, Compact) of this store.
type ComponentStore[T any] struct {
	mu        sync.RWMutex
	typ       reflect.Type
	blocks    []*block[T]
	freeSlots []int
	nextIndex int
	index     *intmap.Map[EntityId, int]
}

func newComponentStore[T any]() *ComponentStore[T] {
	return &ComponentStore[T]{
		typ:   reflect.TypeFor[T](),
		index: intmap.New[EntityId, int](genericBlockSize),
	}
}

// Type returns the component type held by this store.
func (cs *ComponentStore[T]) Type() reflect.Type {
	return cs.typ
}

// Insert adds component for id unless id already has one.
// The first value written wins; it reports whether the value was stored.
func (cs *ComponentStore[T]) Insert(id EntityId, component T) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.index.Get(id); ok {
		return false
	}
	cs.place(id, component)
	return true
}

// Set stores component for id, overwriting any existing value in place.
func (cs *ComponentStore[T]) Set(id EntityId, component T) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if index, ok := cs.index.Get(id); ok {
		cs.slot(index).value = component
		return
	}
	cs.place(id, component)
}

// Delete removes the component for id. Missing ids are ignored.
func (cs *ComponentStore[T]) Delete(id EntityId) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	index, ok := cs.index.Get(id)
	if !ok {
		return
	}
	cs.index.Del(id)

	b := cs.blocks[index/genericBlockSize]
	slotIdx := index % genericBlockSize
	b.filled[slotIdx] = false
	b.records[slotIdx] = record[T]{} // Zero out the value
	cs.freeSlots = append(cs.freeSlots, index)

	// A drained store starts filling from the front again
	if cs.index.Len() == 0 {
		cs.freeSlots = cs.freeSlots[:0]
		cs.nextIndex = 0
	}
}

// Has reports whether id has a component in this store.
func (cs *ComponentStore[T]) Has(id EntityId) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	_, ok := cs.index.Get(id)
	return ok
}

// Get returns a pointer to the component for id, or nil if there is none.
func (cs *ComponentStore[T]) Get(id EntityId) *T {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	index, ok := cs.index.Get(id)
	if !ok {
		return nil
	}
	return &cs.slot(index).value
}

// Update calls fn with the component for id while holding the store's write
// lock. It reports whether id had a component.
func (cs *ComponentStore[T]) Update(id EntityId, fn func(*T)) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	index, ok := cs.index.Get(id)
	if !ok {
		return false
	}
	fn(&cs.slot(index).value)
	return true
}

// Len returns the number of components in the store.
func (cs *ComponentStore[T]) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.index.Len()
}

// Clear removes every component.
func (cs *ComponentStore[T]) Clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.blocks = nil
	cs.freeSlots = nil
	cs.nextIndex = 0
	cs.index.Clear()
}

// All returns an iterator over every (entity, component) pair in slot order.
// The read lock is taken per step and released before yielding, so the loop
// body may call back into the store.
func (cs *ComponentStore[T]) All() iter.Seq2[EntityId, *T] {
	return func(yield func(EntityId, *T) bool) {
		for i := 0; ; i++ {
			cs.mu.RLock()
			if i >= cs.nextIndex {
				cs.mu.RUnlock()
				return
			}
			b := cs.blocks[i/genericBlockSize]
			slotIdx := i % genericBlockSize
			filled := b.filled[slotIdx]
			rec := &b.records[slotIdx]
			entity := rec.entity
			cs.mu.RUnlock()

			if !filled {
				continue
			}
			if !yield(entity, &rec.value) {
				return
			}
		}
	}
}

// Components returns an iterator over pointers to every component.
func (cs *ComponentStore[T]) Components() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, component := range cs.All() {
			if !yield(component) {
				return
			}
		}
	}
}

// EntityIds returns an iterator over every entity that has a component here,
// in the same order as Components.
func (cs *ComponentStore[T]) EntityIds() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for id := range cs.All() {
			if !yield(id) {
				return
			}
		}
	}
}

// Compact moves all components to the front of the store, dropping free slots.
// Relative order is preserved.
func (cs *ComponentStore[T]) Compact() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	total := cs.index.Len()
	if total == 0 {
		cs.blocks = nil
		cs.freeSlots = nil
		cs.nextIndex = 0
		return
	}

	numNewBlocks := (total + genericBlockSize - 1) / genericBlockSize
	newBlocks := make([]*block[T], numNewBlocks)
	for i := range newBlocks {
		newBlocks[i] = new(block[T])
	}

	writePos := 0
	for readIdx := 0; readIdx < cs.nextIndex; readIdx++ {
		rb := cs.blocks[readIdx/genericBlockSize]
		readSlotIdx := readIdx % genericBlockSize
		if !rb.filled[readSlotIdx] {
			continue
		}

		wb := newBlocks[writePos/genericBlockSize]
		writeSlotIdx := writePos % genericBlockSize
		wb.records[writeSlotIdx] = rb.records[readSlotIdx]
		wb.filled[writeSlotIdx] = true
		cs.index.Put(rb.records[readSlotIdx].entity, writePos)

		writePos++
	}

	cs.blocks = newBlocks
	cs.freeSlots = nil
	cs.nextIndex = writePos
}

func (cs *ComponentStore[T]) stats() ComponentStats {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return ComponentStats{
		Count:     cs.index.Len(),
		Capacity:  len(cs.blocks) * genericBlockSize,
		FreeSlots: len(cs.freeSlots),
	}
}

// slot returns the record at index. Caller holds the lock.
func (cs *ComponentStore[T]) slot(index int) *record[T] {
	return &cs.blocks[index/genericBlockSize].records[index%genericBlockSize]
}

// place writes a new record into a free or fresh slot. Caller holds the lock.
func (cs *ComponentStore[T]) place(id EntityId, component T) {
	var index int
	if n := len(cs.freeSlots); n > 0 {
		index = cs.freeSlots[n-1]
		cs.freeSlots = cs.freeSlots[:n-1]
	} else {
		index = cs.nextIndex
		cs.nextIndex++
		if index/genericBlockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new(block[T]))
		}
	}

	b := cs.blocks[index/genericBlockSize]
	slotIdx := index % genericBlockSize
	b.records[slotIdx] = record[T]{entity: id, value: component}
	b.filled[slotIdx] = true
	cs.index.Put(id, index)
}
