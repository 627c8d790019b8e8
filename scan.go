package pnbtree

// RangeScan returns the values of every key in [a, b], in ascending key
// order, as observed in a consistent snapshot of the tree taken at the
// moment RangeScan is called. It is wait-free once it has incremented the
// map's version counter: the remaining traversal never blocks on, or is
// blocked by, any concurrent point operation — it only ever helps a
// descriptor it happens to observe along the way, exactly as any other
// operation would.
func (m *Map[K, V]) RangeScan(a, b K) []V {
	if isNilKey(a) || isNilKey(b) {
		panic(ErrNilKey)
	}
	if m.less(b, a) {
		panic(ErrInvalidRange)
	}

	seq := m.counter.Load()
	m.counter.Add(1)

	slot := m.enterScan(seq)
	defer m.exitScan(slot)

	buf := m.getScanBuf()
	defer m.putScanBuf(buf)

	m.scanNode(m.root, seq, a, b, buf)

	out := make([]V, buf.len())
	copy(out, buf.values())
	return out
}

func (m *Map[K, V]) scanNode(n *Node[K, V], seq int64, a, b K, buf *valueStack[V]) {
	if n.IsLeaf() {
		if n.key != nil && !m.less(*n.key, a) && !m.less(b, *n.key) {
			buf.push(n.value)
		}
		return
	}

	info := n.info.Load()
	if helpable(info) {
		m.help(info)
	}

	switch {
	case n.key != nil && !m.less(a, *n.key):
		// n.key <= a: everything in [a, b] lies at or to the right of n.
		m.scanNode(m.readChild(n, false, seq), seq, a, b, buf)
	case n.key == nil || m.less(b, *n.key):
		// n is the sentinel, or b < n.key: everything in [a, b] lies to
		// the left of n.
		m.scanNode(m.readChild(n, true, seq), seq, a, b, buf)
	default:
		m.scanNode(m.readChild(n, true, seq), seq, a, b, buf)
		m.scanNode(m.readChild(n, false, seq), seq, a, b, buf)
	}
}
