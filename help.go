package pnbtree

// help drives descriptor d through its state machine toward a terminal
// state and reports whether it committed. It is re-entrant: any thread
// that observes d, whether it created it or not, may call help, and every
// step is gated by an expected-value read so that repeated calls are
// idempotent. A stalled thread that created d never holds back the others
// helping it.
func (m *Map[K, V]) help(d *Descriptor[K, V]) bool {
	// Handshaking: either the counter hasn't moved since d's creator took
	// its sequence number, in which case d may proceed, or a scan has
	// started in the meantime and d must abort and be retried with a
	// fresh sequence.
	if state(d.state.Load()) == stateNull {
		if m.counter.Load() != d.handshakingSeq {
			d.state.CompareAndSwap(int32(stateNull), int32(stateAbort))
		} else {
			d.state.CompareAndSwap(int32(stateNull), int32(stateTry))
		}
	}

	success := state(d.state.Load()) == stateTry
	if success {
		success = m.mark(d.firstMarkedNode, d.firstMarkedOldInfo, d)
		if success && d.secondMarkedNode != nil {
			success = m.mark(d.secondMarkedNode, d.secondMarkedOldInfo, d)
			if success {
				success = m.mark(d.thirdMarkedNode, d.thirdMarkedOldInfo, d)
			}
		}
	}

	if success {
		left := d.connectorNode.left.Load()
		right := d.connectorNode.right.Load()
		switch d.firstMarkedNode {
		case left:
			d.connectorNode.left.CompareAndSwap(left, d.newNode)
		case right:
			d.connectorNode.right.CompareAndSwap(right, d.newNode)
		}
		if d.state.CompareAndSwap(int32(stateTry), int32(stateCommit)) {
			m.tryRetire(d.firstMarkedNode)
			if d.secondMarkedNode != nil {
				m.tryRetire(d.secondMarkedNode)
				m.tryRetire(d.thirdMarkedNode)
			}
		}
	} else if state(d.state.Load()) == stateTry {
		d.state.CompareAndSwap(int32(stateTry), int32(stateAbort))
	}

	return state(d.state.Load()) == stateCommit
}

// mark CASes n's info from old to d and reports whether d ended up
// installed, whether by this call or by a concurrent helper racing to do
// the same thing.
func (m *Map[K, V]) mark(n *Node[K, V], old, d *Descriptor[K, V]) bool {
	if n.info.Load() == old {
		n.info.CompareAndSwap(old, d)
	}
	return n.info.Load() == d
}

// tryRetire hands n to the map's Retire hook once no in-flight RangeScan
// could still need to walk n's prev chain to find its view of the tree.
// With no scan in flight at all, that's trivially true. With scans in
// flight, it holds only if every one of them is tracked by sequence number
// and the oldest tracked view is already at or past n's own version — an
// older scan would already see n (or something newer) as current, not
// need to chain back past it. An untracked scan (see Map.enterScan) can't
// be ruled out this way, so tryRetire conservatively does nothing for n.
// help calls tryRetire once per marked node, so a node skipped here is
// never handed to retire later.
func (m *Map[K, V]) tryRetire(n *Node[K, V]) {
	if m.retire == nil || n == nil {
		return
	}
	if m.activeScanCount.Load() == 0 {
		m.retire(n)
		return
	}
	if min, tracked := m.minActiveSeq(); tracked && min >= n.versionSeq {
		m.retire(n)
	}
}
