package observer

import "sync/atomic"

// globalIDCounter is the source of unique IDs for deps.
var globalIDCounter uint64

// nextID returns the next unique dep ID.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
