package pnbtree

// readChild returns the child of p — left or right, per the left flag —
// that existed at version seq. It loads the current child and then walks
// backward through prev while the child's own versionSeq is newer than
// seq, which is what lets an operation started at seq ignore structural
// changes a concurrent, later-starting operation has already published.
func (m *Map[K, V]) readChild(p *Node[K, V], left bool, seq int64) *Node[K, V] {
	var c *Node[K, V]
	if left {
		c = p.left.Load()
	} else {
		c = p.right.Load()
	}
	for c.versionSeq > seq {
		c = c.prev
	}
	return c
}

// search locates the leaf that key would occupy, along with its parent and
// grandparent. ggp is the great-grandparent carried over from the previous
// attempt, used to resume the descent there instead of restarting from
// root when ggp is not itself frozen. It returns the new great-grandparent
// (for the next retry) and reports coherent == false when resumption left
// the search in an inconsistent state (gp is nil but p is not root), which
// means the caller must retry without trusting gp, p, or l.
func (m *Map[K, V]) search(key K, seq int64, ggp *Node[K, V]) (newGgp, gp, p, l *Node[K, V], coherent bool) {
	var pv, lv *Node[K, V]
	if ggp != nil && !frozen(ggp, ggp.info.Load()) {
		pv = ggp
		lv = m.readChild(pv, m.goLeft(key, pv.key), seq)
	} else {
		pv = m.root
		lv = m.root.left.Load()
	}

	var ggpv, gpv *Node[K, V]
	for !lv.IsLeaf() {
		ggpv = gpv
		gpv = pv
		pv = lv
		lv = m.readChild(pv, m.goLeft(key, pv.key), seq)
	}

	if gpv == nil && pv != m.root {
		return ggpv, nil, nil, nil, false
	}
	return ggpv, gpv, pv, lv, true
}

// linkValidation is the result of validateLink: whether the link held, and
// the descriptor instance observed on p while it did, to be used as a CAS
// witness by the caller.
type linkValidation[K, V any] struct {
	ok   bool
	info *Descriptor[K, V]
}

// validateLink certifies that, at some instant during its execution, p was
// not busy, not logically removed, and p's indicated child pointer equalled
// c. If p is busy it helps p's descriptor first and reports failure for
// this attempt regardless.
func (m *Map[K, V]) validateLink(p, c *Node[K, V], left bool) linkValidation[K, V] {
	pinfo := p.info.Load()
	if helpable(pinfo) {
		m.help(pinfo)
		return linkValidation[K, V]{}
	}
	var child *Node[K, V]
	if left {
		child = p.left.Load()
	} else {
		child = p.right.Load()
	}
	if !(state(pinfo.state.Load()) == stateCommit && isMarked(pinfo, p)) && c == child {
		return linkValidation[K, V]{ok: true, info: pinfo}
	}
	return linkValidation[K, V]{}
}

// leafValidation is the result of validateLeaf.
type leafValidation[K, V any] struct {
	ok     bool
	gpInfo *Descriptor[K, V]
	pInfo  *Descriptor[K, V]
}

// validateLeaf composes the gp-p and p-l link validations and additionally
// re-reads p's (and, when p is not root, gp's) info to make sure neither
// briefly went busy between its own validation and this second read.
func (m *Map[K, V]) validateLeaf(gp, p, l *Node[K, V], key K) leafValidation[K, V] {
	pl := m.validateLink(p, l, m.goLeft(key, p.key))
	ok := pl.ok

	var gpLink linkValidation[K, V]
	if ok && p != m.root {
		gpLink = m.validateLink(gp, p, m.goLeft(key, gp.key))
		ok = gpLink.ok
	}

	ok = ok && p.info.Load() == pl.info && (p == m.root || gp.info.Load() == gpLink.info)

	return leafValidation[K, V]{ok: ok, gpInfo: gpLink.info, pInfo: pl.info}
}
