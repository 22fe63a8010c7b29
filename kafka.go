package kafka

import "sync"

// Broker represents a kafka broker in a kafka cluster, and the side of the
// broker-delegation link (spec.md §4.F) that a *Toppar can be linked into.
//
// The broker subsystem that owns TCP sessions to brokers is an external
// collaborator (spec.md §1); Broker here only carries the identity used to
// look it up (NodeID) and the membership list this core needs to keep
// consistent: the set of partitions currently delegated to it.
type Broker struct {
	refCount

	Host string
	Port int
	Rack string

	nodeID int32

	toppars   map[*Toppar]struct{}
	topparsMu sync.RWMutex
}

// NewBroker constructs a Broker handle for the given node id. The broker
// subsystem owns the real connection; this core only needs the identity and
// a place to track delegated partitions.
func NewBroker(nodeID int32, host string, port int) *Broker {
	b := &Broker{
		Host:    host,
		Port:    port,
		nodeID:  nodeID,
		toppars: make(map[*Toppar]struct{}),
	}
	b.refCount.keep()
	return b
}

// Keep increments the Broker's reference count. Paired with a Toppar's
// leader link: a delegated partition and its leader each hold a strong
// reference to the other (spec.md §4.A, §9).
func (b *Broker) Keep() *Broker {
	b.refCount.keep()
	return b
}

// Drop decrements the Broker's reference count. The broker subsystem is
// responsible for tearing down the underlying connection once this
// reaches zero; this core has nothing further to release.
func (b *Broker) Drop() {
	b.refCount.drop()
}

// NodeID returns the broker's node id, as reported by cluster metadata.
func (b *Broker) NodeID() int32 { return b.nodeID }

// LockToppars acquires the broker's toppars_wlock (spec.md §6). Mutations
// of the delegation membership list must hold this lock; see delegate.go.
func (b *Broker) LockToppars() { b.topparsMu.Lock() }

// UnlockToppars releases the lock acquired by LockToppars.
func (b *Broker) UnlockToppars() { b.topparsMu.Unlock() }

// TopparCount returns the number of partitions currently delegated to this
// broker. It takes the toppars read lock itself, so it must not be called
// while holding LockToppars.
func (b *Broker) TopparCount() int {
	b.topparsMu.RLock()
	defer b.topparsMu.RUnlock()
	return len(b.toppars)
}

// HasToppar reports whether p is currently linked into this broker's
// delegation list. Used by tests to verify invariant 4 in spec.md §3.
func (b *Broker) HasToppar(p *Toppar) bool {
	b.topparsMu.RLock()
	defer b.topparsMu.RUnlock()
	_, ok := b.toppars[p]
	return ok
}

// linkToppar and unlinkToppar assume the caller already holds topparsMu;
// they exist only to keep delegate.go's protocol readable.
func (b *Broker) linkToppar(p *Toppar) {
	b.toppars[p] = struct{}{}
}

func (b *Broker) unlinkToppar(p *Toppar) {
	delete(b.toppars, p)
}
