// Package ecs stores typed components keyed by caller-assigned entity ids and
// applies stateless systems to them in place.
package ecs

import (
	"iter"
	"reflect"
	"sync"
	"unsafe"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Storage owns one ComponentStore per component type.
// Stores are created lazily the first time a type is used and live as long
// as the Storage does.
type Storage struct {
	stores cmap.ConcurrentMap[reflect.Type, iComponentStorage]
}

// NewStorage creates an empty storage.
func NewStorage() *Storage {
	return &Storage{
		stores: cmap.NewWithCustomShardingFunction[reflect.Type, iComponentStorage](typeShard),
	}
}

var defaultStorage = sync.OnceValue(NewStorage)

// Default returns the process-wide storage, creating it on first use.
func Default() *Storage {
	return defaultStorage()
}

// RegisterComponent creates the store for T up front. Using T through any
// other function has the same effect, so registration is optional.
func RegisterComponent[T any](s *Storage) *ComponentStore[T] {
	return StoreOf[T](s)
}

// StoreOf returns the store holding components of type T.
// Callers on a hot path can keep the result to skip the type lookup.
func StoreOf[T any](s *Storage) *ComponentStore[T] {
	t := reflect.TypeFor[T]()
	if existing, ok := s.stores.Get(t); ok {
		return existing.(*ComponentStore[T])
	}

	s.stores.SetIfAbsent(t, newComponentStore[T]())
	existing, _ := s.stores.Get(t)
	return existing.(*ComponentStore[T])
}

// Insert adds component to id unless id already has a component of type T.
func Insert[T any](s *Storage, id EntityId, component T) bool {
	return StoreOf[T](s).Insert(id, component)
}

// Set inserts component for id or overwrites the existing one.
func Set[T any](s *Storage, id EntityId, component T) {
	StoreOf[T](s).Set(id, component)
}

// Remove deletes id's component of type T, if any.
func Remove[T any](s *Storage, id EntityId) {
	StoreOf[T](s).Delete(id)
}

// Exists reports whether id has a component of type T.
func Exists[T any](s *Storage, id EntityId) bool {
	return StoreOf[T](s).Has(id)
}

// Get returns id's component of type T, or nil.
func Get[T any](s *Storage, id EntityId) *T {
	return StoreOf[T](s).Get(id)
}

// Update mutates id's component of type T under the store lock.
func Update[T any](s *Storage, id EntityId, fn func(*T)) bool {
	return StoreOf[T](s).Update(id, fn)
}

// Count returns how many entities have a component of type T.
func Count[T any](s *Storage) int {
	return StoreOf[T](s).Len()
}

// All returns an iterator over every entity and its component of type T.
func All[T any](s *Storage) iter.Seq2[EntityId, *T] {
	return StoreOf[T](s).All()
}

// Components returns an iterator over pointers to every component of type T.
func Components[T any](s *Storage) iter.Seq[*T] {
	return StoreOf[T](s).Components()
}

// EntityIds returns an iterator over every entity with a component of type T.
func EntityIds[T any](s *Storage) iter.Seq[EntityId] {
	return StoreOf[T](s).EntityIds()
}

// HasComponent checks if an entity has a component of the given type without
// creating a store for it.
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	store, ok := s.stores.Get(compType)
	if !ok {
		return false
	}
	return store.Has(id)
}

// DeleteComponent removes the component of the given type from id.
func (s *Storage) DeleteComponent(id EntityId, compType reflect.Type) {
	if store, ok := s.stores.Get(compType); ok {
		store.Delete(id)
	}
}

// Clear empties every store. The stores themselves stay registered.
func (s *Storage) Clear() {
	for item := range s.stores.IterBuffered() {
		item.Val.Clear()
	}
}

// Compact compacts every store.
func (s *Storage) Compact() {
	for item := range s.stores.IterBuffered() {
		item.Val.Compact()
	}
}

// iface represents the internal memory layout of an interface{}.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// typeShard hashes every byte of a type's runtime descriptor address with
// FNV-1a. Descriptors are aligned, so the low bits alone would put every type
// in the same shard.
func typeShard(t reflect.Type) uint32 {
	var h uint32 = 2166136261     // FNV-1a 32-bit offset basis
	const prime uint32 = 16777619 // FNV-1a 32-bit prime

	addr := uint64(uintptr((*iface)(unsafe.Pointer(&t)).data))
	for i := 0; i < 8; i++ {
		h ^= uint32(addr & 0xFF)
		h *= prime
		addr >>= 8
	}
	return h
}
