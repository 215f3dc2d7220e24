package hierarchy

import (
	"slices"

	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// FetchState describes what is known about a node's neighbours in the
// store's direction.
type FetchState int

const (
	// Unfetched means no fetch has completed for the node.
	Unfetched FetchState = iota
	// Fetching means a fetch is in flight and nothing has been merged yet.
	Fetching
	// FetchedEmpty means a fetch completed with an empty neighbour list.
	FetchedEmpty
	// FetchedPopulated means a fetch completed with at least one neighbour.
	FetchedPopulated
)

// String returns the lower-case name of the state.
func (s FetchState) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case FetchedEmpty:
		return "fetched-empty"
	case FetchedPopulated:
		return "fetched"
	default:
		return "unfetched"
	}
}

// Fetched reports whether the neighbour list has been set.
func (s FetchState) Fetched() bool { return s == FetchedEmpty || s == FetchedPopulated }

// Node is one taxonomy concept as the explorer knows it.
//
// Values returned by [Store] methods are copies; mutate through the store.
type Node struct {
	ID          string
	Label       string
	Deprecated  string // deprecation marker, "" when current
	HasChildren bool
	HasParents  bool
	Expanded    bool

	ExtraParents  []string
	ExtraChildren []string
}

// FromSummary converts a wire summary into an unexpanded Node.
func FromSummary(s taxonomy.NodeSummary) Node {
	n := Node{
		ID:          s.ID,
		Label:       s.Label,
		Deprecated:  s.Deprecation(),
		HasChildren: s.HasChildren,
		HasParents:  s.HasParents,
	}
	for _, r := range s.ExtraParents {
		n.ExtraParents = addID(n.ExtraParents, r.ID, n.ID)
	}
	for _, r := range s.ExtraChildren {
		n.ExtraChildren = addID(n.ExtraChildren, r.ID, n.ID)
	}
	return n
}

// IsDeprecated reports whether the concept carries a deprecation marker.
func (n Node) IsDeprecated() bool { return n.Deprecated != "" }

// HasMore reports whether the backend has neighbours in direction d.
func (n Node) HasMore(d taxonomy.Direction) bool {
	if d == taxonomy.Parents {
		return n.HasParents
	}
	return n.HasChildren
}

// Extra returns the overlay relatives drawn in direction d: ExtraParents
// for a children tree, ExtraChildren for a parents tree.
func (n Node) Extra(d taxonomy.Direction) []string {
	if d == taxonomy.Parents {
		return n.ExtraChildren
	}
	return n.ExtraParents
}

func (n Node) clone() Node {
	n.ExtraParents = slices.Clone(n.ExtraParents)
	n.ExtraChildren = slices.Clone(n.ExtraChildren)
	return n
}

// addID appends id to set unless it is empty, equal to self or already present.
func addID(set []string, id, self string) []string {
	if id == "" || id == self || slices.Contains(set, id) {
		return set
	}
	return append(set, id)
}
