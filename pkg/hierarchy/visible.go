package hierarchy

import "github.com/matzehuels/taxotree/pkg/taxonomy"

// VisibleNode is one node of the visible projection.
type VisibleNode struct {
	Node     Node
	Depth    int
	Parent   *VisibleNode // nil for the root
	Children []*VisibleNode
}

// VisibleTree is the subset of the store reachable from the root through
// expanded nodes only. It is a fresh value on every call to
// [Store.Visible] and does not change when the store does.
type VisibleTree struct {
	Direction taxonomy.Direction
	Root      *VisibleNode
	Nodes     []*VisibleNode // pre-order
	index     map[string]*VisibleNode
}

// Len returns the number of visible nodes.
func (t VisibleTree) Len() int { return len(t.Nodes) }

// Lookup returns the visible node with the given id.
func (t VisibleTree) Lookup(id string) (*VisibleNode, bool) {
	n, ok := t.index[id]
	return n, ok
}

// Contains reports whether id is visible.
func (t VisibleTree) Contains(id string) bool {
	_, ok := t.index[id]
	return ok
}

// IDs returns the visible ids in pre-order.
func (t VisibleTree) IDs() []string {
	ids := make([]string, len(t.Nodes))
	for i, n := range t.Nodes {
		ids[i] = n.Node.ID
	}
	return ids
}

// Visible computes the visible projection: the root, and every node whose
// ancestors are all expanded. A node itself may be collapsed; its
// successors are then hidden.
func (s *Store) Visible() VisibleTree {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := VisibleTree{Direction: s.dir, index: make(map[string]*VisibleNode)}
	re, ok := s.entries[s.root]
	if !ok {
		return t
	}

	var build func(e *entry, parent *VisibleNode, depth int) *VisibleNode
	build = func(e *entry, parent *VisibleNode, depth int) *VisibleNode {
		vn := &VisibleNode{Node: e.node.clone(), Depth: depth, Parent: parent}
		t.Nodes = append(t.Nodes, vn)
		t.index[vn.Node.ID] = vn
		if !e.node.Expanded {
			return vn
		}
		for _, id := range e.successors {
			vn.Children = append(vn.Children, build(s.entries[id], vn, depth+1))
		}
		return vn
	}
	t.Root = build(re, nil, 0)
	return t
}
