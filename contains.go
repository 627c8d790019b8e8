package pnbtree

// Contains reports whether key is present in the map. It linearizes at the
// successful validateLeaf's second info re-read.
func (m *Map[K, V]) Contains(key K) bool {
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
		if lv.ok {
			return l.key != nil && m.equal(key, *l.key)
		}
	}
}
