// Package cache provides a generic, thread-safe LRU cache.
//
// The relay uses it in two places: the email renderer keeps parsed templates
// in it, and the broadcast room registry keeps one broadcaster per user so
// that idle rooms are closed once the registry is full.
//
//	rooms := cache.NewLRUCache[string, *Room](1024)
//	rooms.SetEvictCallback(func(_ string, r *Room) { r.Close() })
//
//	room, _, err := rooms.GetOrCreate(userID, func() (*Room, error) {
//		return newRoom(userID), nil
//	})
//
// Eviction callbacks run after the cache lock is released. Range iterates
// over a snapshot and does not change recency.
package cache
