package kafka

import (
	"sync"
	"time"

	"github.com/segmentio/toppar/compress"
)

// TopicConfig is the snapshot of producer/consumer options spec.md §3
// attaches to a Topic: message and request timeouts consumed by the broker
// subsystem, the partitioner used to route messages, and the compression
// codec messages destined for this topic's partitions should use once
// they're batched by that same external subsystem.
type TopicConfig struct {
	// MessageTimeout bounds how long a message may sit in a partition's
	// queue before the broker subsystem gives up on it. Must be positive.
	MessageTimeout time.Duration

	// RequestTimeout bounds how long the broker subsystem waits for a
	// produce/fetch request to complete. Must be positive.
	RequestTimeout time.Duration

	// Partitioner chooses the partition for a keyed message. Defaults to
	// RandomBalancer if nil (spec.md §4.D).
	Partitioner Balancer

	// Compression selects the codec the broker subsystem should use when
	// batching messages for this topic. Zero value means uncompressed.
	Compression compress.Compression

	// Logger and ErrorLogger receive the debug and notice channel lines
	// this core emits (spec.md §6). Both default to a no-op logger.
	Logger      Logger
	ErrorLogger Logger
}

func (c *TopicConfig) validate(name string) error {
	if name == "" {
		return ErrInvalidArg
	}
	if c.MessageTimeout <= 0 {
		return ErrInvalidArg
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidArg
	}
	return nil
}

func (c *TopicConfig) setDefaults() {
	if c.Partitioner == nil {
		c.Partitioner = RandomBalancer{}
	}
	if c.Logger == nil {
		c.Logger = LoggerFunc(func(string, ...any) {})
	}
	if c.ErrorLogger == nil {
		c.ErrorLogger = LoggerFunc(func(string, ...any) {})
	}
}

// Topic is spec.md's Topic object (component C): the partition array, the
// desired list, the unassigned holding slot, and the rwlock guarding all
// three plus config.
type Topic struct {
	refCount

	name   string
	client *Client

	config      TopicConfig
	partitioner Partitioner

	mu         sync.RWMutex
	partitions []*Toppar // dense, partitions[i].ID() == int32(i)
	desired    []*Toppar
	unassigned *Toppar
}

func newTopic(client *Client, name string, config TopicConfig) *Topic {
	t := &Topic{
		name:   name,
		client: client,
		config: config,
	}
	t.partitioner = newPartitioner(config.Partitioner)
	t.refCount.keep()
	t.unassigned = newToppar(t, PartitionUA)
	return t
}

// Name returns the topic's name.
func (t *Topic) Name() string { return t.name }

// Keep increments the Topic's reference count.
func (t *Topic) Keep() *Topic {
	t.refCount.keep()
	return t
}

// Drop decrements the Topic's reference count, destroying it once the
// count reaches zero. By the time that happens every Toppar the Topic once
// held a reference to must already have been released via
// RemoveAllPartitions — a live Toppar keeps its Topic's refcount above
// zero (spec.md §4.A) — so destroy only needs to unlink from the registry.
func (t *Topic) Drop() {
	if t.refCount.drop() {
		if t.client != nil {
			t.client.unlink(t)
		}
	}
}

// RLock/RUnlock/Lock/Unlock expose the Topic's rwlock directly: several
// operations in spec.md §4.C document "caller must hold write lock" (or
// read lock) rather than taking it internally, because they are meant to
// compose with other mutations (desired_add followed by a partition count
// update under the same critical section, for instance).
func (t *Topic) RLock()   { t.mu.RLock() }
func (t *Topic) RUnlock() { t.mu.RUnlock() }
func (t *Topic) Lock()    { t.mu.Lock() }
func (t *Topic) Unlock()  { t.mu.Unlock() }

// N returns the current partition count. Caller must hold the read or
// write lock.
func (t *Topic) N() int { return len(t.partitions) }

// partitionIDs returns a snapshot of the ids of partitions currently known
// (partitions[], not desired or UA). Used by the partitioner; takes its
// own read lock since it is not part of the documented caller-locks-first
// surface.
func (t *Topic) partitionIDs() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int, len(t.partitions))
	for i := range t.partitions {
		ids[i] = i
	}
	return ids
}

// LookupPartition returns the Toppar for id, keeping a reference the
// caller must Drop. If id is within [0, N) the corresponding partition is
// returned. Otherwise, if uaOnMiss is set, the unassigned Toppar is
// returned. Otherwise ok is false.
//
// Caller must hold the Topic's read or write lock (spec.md §4.C).
func (t *Topic) LookupPartition(id int32, uaOnMiss bool) (p *Toppar, ok bool) {
	if id >= 0 && int(id) < len(t.partitions) {
		p = t.partitions[id]
	} else if uaOnMiss {
		p = t.unassigned
	} else {
		return nil, false
	}
	if p == nil {
		return nil, false
	}
	return p.Keep(), true
}

// DesiredLookup returns the Toppar for id if it is currently on the
// desired list, keeping a reference the caller must Drop.
//
// Caller must hold the Topic's read or write lock.
func (t *Topic) DesiredLookup(id int32) (*Toppar, bool) {
	for _, p := range t.desired {
		if p.ID() == id {
			return p.Keep(), true
		}
	}
	return nil, false
}

// DesiredAdd idempotently marks id as desired by the application
// (spec.md §4.C). It keeps a reference the caller must Drop.
//
// Caller must hold the Topic's write lock.
func (t *Topic) DesiredAdd(id int32) *Toppar {
	if p, ok := t.LookupPartition(id, false); ok {
		p.mu.Lock()
		p.flags |= flagDesired
		p.mu.Unlock()
		t.config.Logger.Printf("[DESP] topic %q: marking partition %d as desired", t.name, id)
		return p
	}

	if p, ok := t.DesiredLookup(id); ok {
		return p
	}

	p := newToppar(t, id)
	p.flags = flagDesired | flagUnknown
	t.desired = append(t.desired, p)
	t.config.Logger.Printf("[DESP] topic %q: adding desired partition %d", t.name, id)
	return p.Keep()
}

// DesiredRemove clears the DESIRED flag on p. If p was also UNKNOWN it is
// unlinked from the desired list, which drops the Topic's reference to it.
// Idempotent on a partition that wasn't marked desired.
//
// Caller must hold the Topic's write lock.
func (t *Topic) DesiredRemove(p *Toppar) {
	p.mu.Lock()
	if p.flags&flagDesired == 0 {
		p.mu.Unlock()
		return
	}
	p.flags &^= flagDesired
	wasUnknown := p.flags&flagUnknown != 0
	if wasUnknown {
		p.flags &^= flagUnknown
	}
	p.mu.Unlock()

	t.config.Logger.Printf("[DESP] topic %q: removing desired partition %d", t.name, p.ID())

	if wasUnknown {
		t.unlinkDesired(p)
		p.Drop()
	}
}

func (t *Topic) unlinkDesired(p *Toppar) {
	for i, d := range t.desired {
		if d == p {
			t.desired = append(t.desired[:i], t.desired[i+1:]...)
			return
		}
	}
}

// desiredTake removes and returns the Toppar for id from the desired
// list, if present, transferring the list's own reference to the caller
// without adjusting the refcount: the caller installs it directly into
// whichever structural slot it's migrating to (partitions[], typically).
func (t *Topic) desiredTake(id int32) (*Toppar, bool) {
	for i, d := range t.desired {
		if d.ID() == id {
			t.desired = append(t.desired[:i], t.desired[i+1:]...)
			return d, true
		}
	}
	return nil, false
}

// MoveToUnassigned drains mq into the unassigned Toppar's pending queue.
// Returns ErrNoUA if the topic has no unassigned slot (e.g. after
// RemoveAllPartitions).
func (t *Topic) MoveToUnassigned(mq *msgq) error {
	t.mu.RLock()
	ua := t.unassigned
	t.mu.RUnlock()
	if ua == nil {
		return ErrNoUA
	}
	ua.mu.Lock()
	ua.msgq.concat(mq)
	ua.mu.Unlock()
	return nil
}

// Unassigned returns the unassigned Toppar, keeping a reference the caller
// must Drop, or ok=false if the topic has none.
func (t *Topic) Unassigned() (p *Toppar, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.unassigned == nil {
		return nil, false
	}
	return t.unassigned.Keep(), true
}

// RemoveAllPartitions purges every message from every partition, including
// the unassigned slot, and drops the Topic's references to all of them.
// Used on teardown (spec.md §4.C).
func (t *Topic) RemoveAllPartitions() {
	t.Keep()
	defer t.Drop()

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range t.partitions {
		p.mu.Lock()
		p.purgeLocked()
		p.mu.Unlock()
		p.Drop()
	}
	t.partitions = nil

	for _, p := range t.desired {
		p.mu.Lock()
		p.purgeLocked()
		p.mu.Unlock()
		p.Drop()
	}
	t.desired = nil

	if t.unassigned != nil {
		t.unassigned.mu.Lock()
		t.unassigned.purgeLocked()
		t.unassigned.mu.Unlock()
		t.unassigned.Drop()
		t.unassigned = nil
	}
}

// AssignUnassigned reruns the partitioner over every message currently
// sitting in the unassigned queue, routing each to its chosen partition.
// Messages the partitioner reports unavailable for are prepended back onto
// the unassigned queue in their original relative order (spec.md §4.C,
// §5: "retried first next time").
func (t *Topic) AssignUnassigned() {
	t.mu.RLock()
	ua := t.unassigned
	t.mu.RUnlock()
	if ua == nil {
		t.config.Logger.Printf("[ASSIGNUA] topic %q: no unassigned partition available", t.name)
		return
	}
	ua.Keep()
	defer ua.Drop()

	ua.mu.Lock()
	drained := ua.msgq.drain()
	ua.mu.Unlock()

	total := len(drained)
	t.config.Logger.Printf("[PARTCNT] topic %q: partitioning %d unassigned messages", t.name, total)

	failed := newMsgq()

	for _, m := range drained {
		id, ok := t.partitioner.Partition(t, m.Key)
		if !ok {
			failed.enq(m)
			continue
		}
		m.Partition = id
		p, found := t.withLock(func() (*Toppar, bool) { return t.LookupPartition(id, true) })
		if !found {
			failed.enq(m)
			continue
		}
		p.EnqueueTail(m)
		p.Drop()
	}

	t.config.Logger.Printf("[UAS] topic %q: %d/%d messages were partitioned", t.name, total-failed.len(), total)

	if failed.len() > 0 {
		// Matches the original's cosmetic log bug: by this point the
		// drained queue has already been emptied, so this always logs 0.
		t.config.Logger.Printf("[UAS] topic %q: %d/%d messages failed partitioning", t.name, ua.msgq.len(), total)
		ua.SpliceHead(&failed)
	}
}

func (t *Topic) withLock(f func() (*Toppar, bool)) (*Toppar, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return f()
}
