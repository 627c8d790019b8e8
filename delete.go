package pnbtree

// Remove deletes the mapping for key, if any, and returns the value that
// was removed and true; if key was absent it returns the zero V and false,
// leaving the tree unchanged.
func (m *Map[K, V]) Remove(key K) (prior V, present bool) {
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

		if l.key == nil || !m.equal(key, *l.key) {
			var zero V
			return zero, false
		}

		// l sits on the goLeft(key, p.key) side of p; the sibling is on
		// the other side.
		siblingLeft := !m.goLeft(key, p.key)
		sibling := m.readChild(p, siblingLeft, seq)
		sv := m.validateLink(p, sibling, siblingLeft)
		if !sv.ok {
			continue
		}

		if m.counter.Load() != seq {
			continue
		}

		newSibling, sinfo, ok := m.buildNewSibling(sibling, p, seq)
		if !ok {
			continue
		}

		if m.executeDelete(gp, p, l, sibling, lv.gpInfo, lv.pInfo, l.info.Load(), sinfo, newSibling, seq) {
			return l.value, true
		}
	}
}

// buildNewSibling constructs the replacement for sibling that will be
// promoted in place of p, a structural copy with prev = p and a fresh
// versionSeq. Its info field starts as whatever descriptor sibling itself
// carried at the moment of the copy (not the dummy, unlike a freshly
// created leaf or internal node) so that the promoted node keeps sibling's
// own in-progress-or-terminal ownership consistent for anyone already
// holding that descriptor as a witness. When sibling is internal,
// buildNewSibling additionally validates both of sibling's current links,
// certifying the subtree being promoted; ok is false if either validation
// fails and the caller should retry.
func (m *Map[K, V]) buildNewSibling(sibling, p *Node[K, V], seq int64) (newSibling *Node[K, V], sinfo *Descriptor[K, V], ok bool) {
	if sibling.IsLeaf() {
		sinfo = sibling.info.Load()
		ns := &Node[K, V]{key: sibling.key, value: sibling.value, prev: p, versionSeq: seq}
		ns.info.Store(sinfo)
		return ns, sinfo, true
	}

	left := sibling.left.Load()
	right := sibling.right.Load()

	leftLink := m.validateLink(sibling, left, true)
	if !leftLink.ok {
		return nil, nil, false
	}
	rightLink := m.validateLink(sibling, right, false)
	if !rightLink.ok {
		return nil, nil, false
	}

	sinfo = leftLink.info
	ns := &Node[K, V]{key: sibling.key, prev: p, versionSeq: seq}
	ns.left.Store(left)
	ns.right.Store(right)
	ns.info.Store(sinfo)
	return ns, sinfo, true
}

// executeDelete re-checks that gp, p, l, and s are not frozen, re-checks
// that no scan has started since seq was taken, and then attempts to
// publish a fresh descriptor on gp's info field. It helps the descriptor it
// installs and reports whether that help reported COMMIT.
func (m *Map[K, V]) executeDelete(gp, p, l, s *Node[K, V], gpinfo, pinfo, linfo, sinfo *Descriptor[K, V], newSibling *Node[K, V], seq int64) bool {
	if frozen(gp, gpinfo) {
		if helpable(gpinfo) {
			m.help(gpinfo)
		}
		return false
	}
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
	if frozen(s, sinfo) {
		if helpable(sinfo) {
			m.help(sinfo)
		}
		return false
	}
	if m.counter.Load() != seq {
		return false
	}

	d := &Descriptor[K, V]{
		connectorNode:       gp,
		firstMarkedNode:     p,
		secondMarkedNode:    l,
		thirdMarkedNode:     s,
		firstMarkedOldInfo:  pinfo,
		secondMarkedOldInfo: linfo,
		thirdMarkedOldInfo:  sinfo,
		newNode:             newSibling,
		handshakingSeq:      seq,
	}
	d.state.Store(int32(stateNull))

	if gp.info.Load() == gpinfo && gp.info.CompareAndSwap(gpinfo, d) {
		return m.help(d)
	}
	return false
}
