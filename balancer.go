package kafka

import (
	"math/rand"
	"sync/atomic"
)

// Balancer chooses a partition from a list of available partitions, given
// an optional routing key. Implementations must be safe for concurrent use
// by multiple goroutines.
type Balancer interface {
	Balance(key []byte, partitions ...int) (partition int)
}

type BalancerFunc func([]byte, ...int) int

func (f BalancerFunc) Balance(key []byte, partitions ...int) int {
	return f(key, partitions...)
}

// RoundRobin is a Balancer that distributes messages across partitions in
// sequence, ignoring the key.
type RoundRobin struct {
	offset uint32
}

func (rr *RoundRobin) Balance(key []byte, partitions ...int) int {
	return partitions[int(atomic.AddUint32(&rr.offset, 1))%len(partitions)]
}

// RandomBalancer is a Balancer that picks a uniformly random partition from
// those available, ignoring the key. It is the default partitioner
// installed on a Topic that doesn't configure one.
type RandomBalancer struct{}

func (RandomBalancer) Balance(key []byte, partitions ...int) int {
	return partitions[rand.Intn(len(partitions))]
}

// Partitioner is the collaborator interface spec.md §6 calls
// msg_partitioner: it resolves the partition a message with the given key
// should be routed to among a topic's currently known partitions.
//
// Partition returns ok == false when no partition can presently be chosen
// (the wire protocol's -1 "requested partition currently unavailable"),
// which tells the caller to hold the message in the unassigned queue.
type Partitioner interface {
	Partition(t *Topic, key []byte) (partition int32, ok bool)
}

// balancerPartitioner adapts a Balancer, which only knows how to choose
// among an explicit list of partition ids, into a Partitioner, which
// consults the Topic for the list of ids currently available.
type balancerPartitioner struct {
	balancer Balancer
}

func newPartitioner(b Balancer) Partitioner {
	return balancerPartitioner{balancer: b}
}

func (p balancerPartitioner) Partition(t *Topic, key []byte) (int32, bool) {
	ids := t.partitionIDs()
	if len(ids) == 0 {
		return PartitionUA, false
	}
	return int32(p.balancer.Balance(key, ids...)), true
}
