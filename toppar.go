package kafka

import "sync"

// PartitionUA is the reserved partition id spec.md §6 calls UA: a negative
// sentinel distinct from any valid partition id, identifying the
// unassigned holding slot.
const PartitionUA int32 = -1

// Toppar flags, spec.md §3. Desired is set once the application has asked
// for a partition id; Unknown is set while that partition sits on the
// Topic's desired list rather than in its partitions array. Invariant:
// Unknown implies Desired and implies linked into Topic.desired.
type topparFlags uint8

const (
	flagDesired topparFlags = 1 << iota
	flagUnknown
)

// Toppar is spec.md's Partition object: the per-(topic,partition) unit of
// state. It is named Toppar, not Partition, because Partition already
// names the wire metadata DTO this package's admin surface would return
// (topic, leader, replicas, isr) — a different thing entirely from the
// stateful object that owns a queue and a leader link.
type Toppar struct {
	refCount

	parent    *Topic
	partition int32

	mu    sync.Mutex
	flags topparFlags

	msgq     msgq // pending transmit
	xmitMsgq msgq // handed to the broker for transmit
	fetchq   msgq // delivered to the application

	fetchState fetchState

	// leader is mutated only under parent's write lock (spec.md §5), never
	// under mu, so it can be read by a broker I/O thread without taking mu.
	leader *Broker
}

type fetchState int

const (
	fetchStateNone fetchState = iota
	fetchStateActive
	fetchStateStopped
)

func newToppar(parent *Topic, partition int32) *Toppar {
	p := &Toppar{
		parent:    parent,
		partition: partition,
		msgq:      newMsgq(),
		xmitMsgq:  newMsgq(),
		fetchq:    newMsgq(),
	}
	p.refCount.keep()
	parent.keep()
	return p
}

// destroy releases the Toppar's strong reference to its parent Topic. A
// Toppar keeps its Topic alive (spec.md §4.A) so that even a Toppar
// outliving a metadata shrink can still report ID()/Topic() sensibly.
func (p *Toppar) destroy() {
	p.parent.Drop()
}

// Keep increments the Toppar's reference count.
func (p *Toppar) Keep() *Toppar {
	p.refCount.keep()
	return p
}

// Drop decrements the Toppar's reference count, destroying it once the
// count reaches zero (spec.md §4.A invariant 5).
func (p *Toppar) Drop() {
	if p.refCount.drop() {
		p.destroy()
	}
}

// ID returns the partition id, or PartitionUA for the unassigned slot.
func (p *Toppar) ID() int32 { return p.partition }

// Topic returns the owning Topic. The returned reference is not kept; the
// Toppar already holds one for as long as the caller holds the Toppar.
func (p *Toppar) Topic() *Topic { return p.parent }

func (p *Toppar) hasFlag(f topparFlags) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flags&f != 0
}

// IsDesired reports whether the application has asked for this partition
// (spec.md §3's DESIRED flag).
func (p *Toppar) IsDesired() bool { return p.hasFlag(flagDesired) }

// IsUnknown reports whether this Toppar currently lives on its Topic's
// desired list rather than in partitions[] (spec.md §3's UNKNOWN flag).
func (p *Toppar) IsUnknown() bool { return p.hasFlag(flagUnknown) }

// Leader returns the broker currently delegated as this partition's
// leader, or nil if none. Caller should hold the Topic's read or write
// lock for a consistent read (spec.md §5).
func (p *Toppar) Leader() *Broker { return p.leader }

// EnqueueTail appends m to the pending transmit queue.
func (p *Toppar) EnqueueTail(m Message) {
	p.mu.Lock()
	p.msgq.enq(m)
	p.mu.Unlock()
}

// EnqueueHead prepends m to the pending transmit queue, for flash messages
// that must be served ahead of anything already queued.
func (p *Toppar) EnqueueHead(m Message) {
	p.mu.Lock()
	p.msgq.insert(m)
	p.mu.Unlock()
}

// Dequeue removes and returns the message at the head of the pending
// transmit queue. Called by the broker I/O thread that owns this
// partition's leader link.
func (p *Toppar) Dequeue() (Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.msgq.deq()
}

// Len reports the number of messages currently pending transmit.
func (p *Toppar) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.msgq.len()
}

// QueuedBytes reports the combined key+value size of every message
// currently pending transmit. Used for the BRKDELGT debug line.
func (p *Toppar) QueuedBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.msgq.bytes()
}

// SpliceHead prepends the contents of other onto the head of this
// Toppar's pending queue, emptying other. Used to preserve order when
// messages are returned to the UA slot after a failed partitioning
// attempt (spec.md §4.B).
func (p *Toppar) SpliceHead(other *msgq) {
	p.mu.Lock()
	p.msgq.prepend(other)
	p.mu.Unlock()
}

// MoveMsgsFrom concatenates src's pending queue onto the tail of this
// Toppar's pending queue, emptying src. Unlike spec.md's literal "caller
// must hold both locks", the caller need not hold either lock itself:
// MoveMsgsFrom takes src's lock and this Toppar's lock internally, always
// in the same order (lower partition id's Toppar first) to avoid
// deadlocking against a concurrent move in the opposite direction.
func (p *Toppar) MoveMsgsFrom(src *Toppar) {
	if p == src {
		return
	}
	first, second := p, src
	if src.partition < p.partition {
		first, second = src, p
	}
	first.mu.Lock()
	second.mu.Lock()
	p.msgq.concat(&src.msgq)
	second.mu.Unlock()
	first.mu.Unlock()
}

// purgeLocked discards every pending message without delivering it
// anywhere. Caller must hold p.mu.
func (p *Toppar) purgeLocked() {
	p.msgq.purge()
}
