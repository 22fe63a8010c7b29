package kafka

// LeaderQueryFunc is the topic_leader_query collaborator interface
// spec.md §6 names: an asynchronous, fire-and-forget request to the
// metadata subsystem to re-resolve a topic's leaders.
type LeaderQueryFunc func(topic *Topic)

// TopicUpdate applies a single partition's current leader assertion from
// the metadata subsystem, per spec.md §4.E.1.
//
//   - If the topic isn't known locally, this is a no-op (logged).
//   - If leaderID is -1, or no broker with that id is known locally, the
//     partition's leader is cleared and query is invoked asynchronously.
//   - If the partition's current leader already matches, this is a no-op.
//   - Otherwise the partition is delegated to the resolved broker.
func (c *Client) TopicUpdate(name string, partition int32, leaderID int32, query LeaderQueryFunc) {
	t, ok := c.Find(name)
	if !ok {
		c.config.Logger.Printf("[METADATA] TOPICUPD: ignoring unknown topic %q", name)
		return
	}
	defer t.Drop()

	// Resolved before the topic lock is taken: the package lock order is
	// client -> topic -> partition -> broker.toppars, and looking up the
	// broker needs the client lock.
	var rkb *Broker
	var brokerKnown bool
	if leaderID != -1 {
		rkb, brokerKnown = c.FindBrokerByNodeID(leaderID)
	}

	t.Lock()
	defer t.Unlock()

	p, ok := t.LookupPartition(partition, false)
	invariant(ok, "metadata update for partition not known locally", t.name)
	defer p.Drop()

	if leaderID == -1 {
		Delegate(p, nil)
		t.config.Logger.Printf("[TOPICUPD] topic %q [%d]: lost its leader", name, partition)
		if query != nil {
			go query(t)
		}
		return
	}

	if !brokerKnown {
		t.config.ErrorLogger.Printf("[TOPICBRK] topic %q [%d]: migrated to unknown broker %d, requesting metadata update", name, partition, leaderID)
		Delegate(p, nil)
		if query != nil {
			go query(t)
		}
		return
	}

	if p.Leader() == rkb {
		t.config.Logger.Printf("[TOPICUPD] topic %q [%d]: no leader change (broker %d)", name, partition, leaderID)
		return
	}

	t.config.Logger.Printf("[TOPICUPD] topic %q [%d]: migrating to broker %d", name, partition, leaderID)
	Delegate(p, rkb)
}

// PartitionCountUpdate applies a new total partition count for a topic,
// per spec.md §4.E.2. Returns ErrUnknownTopic if the topic isn't known
// locally. Returns changed=true if the count actually differed from the
// topic's current count.
func (c *Client) PartitionCountUpdate(name string, newCount int32) (changed bool, err error) {
	t, ok := c.Find(name)
	if !ok {
		c.config.Logger.Printf("[METADATA] PARTCNT: ignoring unknown topic %q", name)
		return false, ErrUnknownTopic
	}
	defer t.Drop()

	t.Lock()
	defer t.Unlock()

	oldCount := int32(len(t.partitions))
	if oldCount == newCount {
		t.config.Logger.Printf("[PARTCNT] topic %q: no change in partition count", name)
		return false, nil
	}

	t.config.ErrorLogger.Printf("[PARTCNT] topic %q: partition count changed from %d to %d", name, oldCount, newCount)

	next := make([]*Toppar, newCount)

	var i int32
	for i = 0; i < oldCount && i < newCount; i++ {
		next[i] = t.partitions[i]
	}
	for ; i < newCount; i++ {
		if p, ok := t.desiredTake(i); ok {
			// desiredTake transfers the desired list's own reference
			// directly into the partitions[] slot; no keep/drop needed.
			p.mu.Lock()
			p.flags &^= flagUnknown
			p.mu.Unlock()
			next[i] = p
		} else {
			next[i] = newToppar(t, i)
		}
	}

	ua, hasUA := t.unassigned, t.unassigned != nil

	for ; i < oldCount; i++ {
		old := t.partitions[i]

		if hasUA {
			ua.MoveMsgsFrom(old)
		} else {
			old.mu.Lock()
			old.purgeLocked()
			old.mu.Unlock()
		}

		old.mu.Lock()
		reinsert := old.flags&flagDesired != 0
		if reinsert {
			invariant(old.flags&flagUnknown == 0, "desired partition already unknown while still in partitions[]", t.name)
			old.flags |= flagUnknown
		}
		old.mu.Unlock()

		if reinsert {
			// The partitions[] slot's reference transfers directly to
			// the desired list; no keep/drop needed.
			t.desired = append(t.desired, old)
		} else {
			old.Drop() // the partitions[] slot's only reference
		}
	}

	t.partitions = next
	return true, nil
}
