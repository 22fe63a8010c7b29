package kafka

// Delegate transfers p between brokers, implementing the protocol in
// spec.md §4.F. newLeader may be nil to undelegate. A call with the current
// leader returns without doing or logging anything; every other branch
// logs on the BRKDELGT channel (spec.md §6) via p.parent's Logger.
//
// Caller must already hold the Toppar's Topic write lock: the lock order
// for this whole package is client → topic → partition → broker.toppars
// (spec.md §4.F), and within a single Delegate call the Toppar's own mutex
// is not needed because the Topic write lock already excludes concurrent
// mutation of the leader field.
func Delegate(p *Toppar, newLeader *Broker) {
	if p.leader == newLeader {
		return
	}

	logger := p.parent.config.Logger
	queued, bytes := p.Len(), p.QueuedBytes()

	// Survive the transitions below even if every other reference to p
	// were dropped concurrently.
	p.Keep()
	defer p.Drop()

	if old := p.leader; old != nil {
		logger.Printf("[BRKDELGT] topic %q [%d]: no longer delegated to %s:%d (%d msgs, %d bytes queued)",
			p.parent.name, p.partition, old.Host, old.Port, queued, bytes)

		old.LockToppars()
		old.unlinkToppar(p)
		p.leader = nil
		old.UnlockToppars()

		p.Drop()  // the reference old was holding on p
		old.Drop() // the reference p was holding on old
	}

	if newLeader != nil {
		logger.Printf("[BRKDELGT] topic %q [%d]: delegating to %s:%d (%d msgs, %d bytes queued)",
			p.parent.name, p.partition, newLeader.Host, newLeader.Port, queued, bytes)

		newLeader.LockToppars()
		p.Keep() // on behalf of newLeader
		newLeader.linkToppar(p)
		p.leader = newLeader
		newLeader.Keep() // on behalf of p
		newLeader.UnlockToppars()
	} else {
		logger.Printf("[BRKDELGT] topic %q [%d]: now has no leader", p.parent.name, p.partition)
	}
}
