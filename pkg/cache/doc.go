// Package cache provides a generic, thread-safe LRU cache.
//
// When the cache reaches its capacity, the least recently used entry is
// evicted.
//
//	seen := cache.New[string, struct{}](512)
//	if seen.Add(id, struct{}{}) {
//		// first sighting
//	}
//
// All operations are O(1).
package cache
