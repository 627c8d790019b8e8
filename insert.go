package pnbtree

// PutIfAbsent inserts value under key if no mapping for key already exists.
// It returns the value already associated with key, and true, if the key
// was present; otherwise it returns the zero V and false.
func (m *Map[K, V]) PutIfAbsent(key K, value V) (prior V, present bool) {
	if isNilKey(key) {
		panic(ErrNilKey)
	}

	var ggp *Node[K, V]
	for {
		seq := m.counter.Load()

		newGgp, gp, p, l, coherent := m.search(key, seq, ggp)
		ggp = newGgp
		if !coherent {
			continue
		}

		lv := m.validateLeaf(gp, p, l, key)
		if !lv.ok {
			continue
		}

		if l.key != nil && m.equal(key, *l.key) {
			return l.value, true
		}

		// Handshaking optimization: if a scan has started since seq was
		// taken, the new triad built below must carry a fresher sequence.
		if m.counter.Load() != seq {
			continue
		}

		newLeaf := &Node[K, V]{key: keyPtr(key), value: value, versionSeq: seq}
		newLeaf.info.Store(m.dummy)
		newSibling := &Node[K, V]{key: l.key, value: l.value, versionSeq: seq}
		newSibling.info.Store(m.dummy)

		var newInternal *Node[K, V]
		if m.goLeft(key, l.key) {
			newInternal = m.newInternalTriad(newSibling.key, newLeaf, newSibling, l, seq)
		} else {
			newInternal = m.newInternalTriad(newLeaf.key, newSibling, newLeaf, l, seq)
		}

		if m.executeInsert(p, l, lv.pInfo, l.info.Load(), newInternal, seq) {
			var zero V
			return zero, false
		}
	}
}

func (m *Map[K, V]) newInternalTriad(key *K, left, right, prev *Node[K, V], seq int64) *Node[K, V] {
	n := &Node[K, V]{key: key, prev: prev, versionSeq: seq}
	n.left.Store(left)
	n.right.Store(right)
	n.info.Store(m.dummy)
	return n
}

// executeInsert re-checks that p and l are not frozen, re-checks that no
// scan has started since seq was taken, and then attempts to publish a
// fresh descriptor on p's info field. It helps the descriptor it installs
// and reports whether that help reported COMMIT.
func (m *Map[K, V]) executeInsert(p, l *Node[K, V], pinfo, linfo *Descriptor[K, V], newInternal *Node[K, V], seq int64) bool {
	if frozen(p, pinfo) {
		if helpable(pinfo) {
			m.help(pinfo)
		}
		return false
	}
	if frozen(l, linfo) {
		if helpable(linfo) {
			m.help(linfo)
		}
		return false
	}
	if m.counter.Load() != seq {
		return false
	}

	d := &Descriptor[K, V]{
		connectorNode:      p,
		firstMarkedNode:    l,
		firstMarkedOldInfo: linfo,
		newNode:            newInternal,
		handshakingSeq:     seq,
	}
	d.state.Store(int32(stateNull))

	if p.info.Load() == pinfo && p.info.CompareAndSwap(pinfo, d) {
		return m.help(d)
	}
	return false
}
