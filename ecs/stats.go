package ecs

import "sort"

// StorageStats is a point-in-time summary of a Storage.
type StorageStats struct {
	ComponentTypeCount  int
	TotalComponentCount int
	Components          []ComponentStats
}

// ComponentStats describes one component store.
type ComponentStats struct {
	TypeName  string
	Count     int
	Capacity  int
	FreeSlots int
}

// CollectStats gathers per-type statistics, sorted by type name.
func (s *Storage) CollectStats() *StorageStats {
	stats := &StorageStats{}

	for item := range s.stores.IterBuffered() {
		cs := item.Val.stats()
		cs.TypeName = item.Val.Type().String()
		stats.Components = append(stats.Components, cs)
		stats.TotalComponentCount += cs.Count
	}
	stats.ComponentTypeCount = len(stats.Components)

	sort.Slice(stats.Components, func(i, j int) bool {
		return stats.Components[i].TypeName < stats.Components[j].TypeName
	})
	return stats
}
