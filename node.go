package pnbtree

import "github.com/go-pnbst/pnbtree/gatomic"

// Node is the unit of tree structure. A leaf carries a key/value pair or,
// for the sentinel leaves planted below root, a nil key. An internal node
// carries a routing key and two children. Leaf-ness is defined structurally:
// a node is a leaf exactly when its left child is nil.
//
// Node is exported read-only — callers that install a Retire hook on a Map
// receive *Node values through it and may inspect Key/Value, but the
// pointer fields used to drive the CAS protocol stay unexported.
type Node[K, V any] struct {
	key   *K
	value V

	left  gatomic.Pointer[Node[K, V]]
	right gatomic.Pointer[Node[K, V]]

	// prev is the node this one replaced at construction time. It is set
	// once, before the node is ever published, and never changes again, so
	// readers walking it need no synchronization with writers.
	prev *Node[K, V]

	// info names the descriptor currently owning this node. A node whose
	// descriptor is in stateNull or stateTry is busy; one whose descriptor
	// has committed and marks this node is logically removed.
	info gatomic.Pointer[Descriptor[K, V]]

	// versionSeq is the value of the map's version counter observed by the
	// operation that created this node. It is immutable post-construction.
	versionSeq int64
}

// Key reports the node's key and whether it holds a real key rather than a
// sentinel. Sentinel nodes (the four leaves planted below root, and any
// internal node whose routing position has not yet diverged from one of
// them) report ok == false.
func (n *Node[K, V]) Key() (key K, ok bool) {
	if n.key == nil {
		return key, false
	}
	return *n.key, true
}

// Value returns the node's value. It is meaningful only for leaves.
func (n *Node[K, V]) Value() V {
	return n.value
}

// IsLeaf reports whether n is a leaf, i.e. has no children.
func (n *Node[K, V]) IsLeaf() bool {
	return n.left.Load() == nil
}

// state is one of the four descriptor states described by the protocol.
// NULL and TRY are transient; COMMIT and ABORT are terminal.
type state int32

const (
	stateNull state = iota
	stateTry
	stateCommit
	stateAbort
)

// Descriptor describes an in-progress update. It is published on the
// connector node's info field by a single CAS and then advanced — by any
// number of cooperating threads — through handshaking, marking, and the
// child swing that is the operation's linearization point.
type Descriptor[K, V any] struct {
	state gatomic.Int32

	// connectorNode is the node whose child pointer will be swung from
	// firstMarkedNode to newNode once every mark below has succeeded.
	connectorNode *Node[K, V]

	// firstMarkedNode, secondMarkedNode, and thirdMarkedNode are the nodes
	// to be logically removed. Insert marks only the first (the leaf being
	// replaced); delete marks all three (parent, leaf, sibling).
	firstMarkedNode  *Node[K, V]
	secondMarkedNode *Node[K, V]
	thirdMarkedNode  *Node[K, V]

	// firstMarkedOldInfo, secondMarkedOldInfo, and thirdMarkedOldInfo are
	// the descriptor values expected to still be installed on the
	// corresponding marked node; they are the CAS witnesses used to install
	// this descriptor there.
	firstMarkedOldInfo  *Descriptor[K, V]
	secondMarkedOldInfo *Descriptor[K, V]
	thirdMarkedOldInfo  *Descriptor[K, V]

	// newNode is the replacement subtree root to be installed as a child of
	// connectorNode.
	newNode *Node[K, V]

	// handshakingSeq is the counter value observed by the operation that
	// created this descriptor, used to decide whether the operation's new
	// nodes are invisible to any scan already in progress.
	handshakingSeq int64
}

// isMarked reports whether d marks n as one of its victims.
func isMarked[K, V any](d *Descriptor[K, V], n *Node[K, V]) bool {
	return d.firstMarkedNode == n || d.secondMarkedNode == n || d.thirdMarkedNode == n
}

// frozen reports whether n may not be the target of a new update because d,
// its currently observed descriptor, is either still in progress or has
// already committed n's removal.
func frozen[K, V any](n *Node[K, V], d *Descriptor[K, V]) bool {
	s := state(d.state.Load())
	return s == stateNull || s == stateTry || (s == stateCommit && isMarked(d, n))
}

// helpable reports whether d's state still requires a thread to drive it
// toward a terminal state.
func helpable[K, V any](d *Descriptor[K, V]) bool {
	s := state(d.state.Load())
	return s == stateNull || s == stateTry
}
