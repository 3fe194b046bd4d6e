package episodic

import "github.com/papercomputeco/keepsake/pkg/ring"

// DefaultCapacity is the number of entries kept per user.
const DefaultCapacity = 100

// NewHistory returns a FIFO of at most capacity entries seeded with
// entries, oldest first. Only the newest capacity entries survive.
func NewHistory(capacity int, entries ...Entry) *ring.Buffer[Entry] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return ring.From(capacity, entries)
}
