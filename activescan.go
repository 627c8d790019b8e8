package pnbtree

// enterScan records that a RangeScan with view seq is in flight, and tries
// to note seq itself in a free slot of activeSeq so minActiveSeq can later
// report it. It returns the slot index, or -1 if every slot was taken. A
// slot holds seq+1 while occupied (0 stays reserved for "free") and is
// released back to 0 by exitScan.
func (m *Map[K, V]) enterScan(seq int64) int {
	m.activeScanCount.Add(1)
	for i := range m.activeSeq {
		if m.activeSeq[i].CompareAndSwap(0, seq+1) {
			return i
		}
	}
	return -1
}

func (m *Map[K, V]) exitScan(slot int) {
	if slot >= 0 {
		m.activeSeq[slot].Store(0)
	}
	m.activeScanCount.Add(-1)
}

// minActiveSeq returns the oldest view among tracked in-flight scans. ok is
// false if no scan is currently tracked in the slot array, which tryRetire
// must not confuse with "no scan is in flight" — see activeScanCount.
func (m *Map[K, V]) minActiveSeq() (min int64, ok bool) {
	for i := range m.activeSeq {
		v := m.activeSeq[i].Load()
		if v == 0 {
			continue
		}
		s := v - 1
		if !ok || s < min {
			min = s
			ok = true
		}
	}
	return min, ok
}
