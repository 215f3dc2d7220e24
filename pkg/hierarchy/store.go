package hierarchy

import (
	"errors"
	"slices"
	"sync"

	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

var (
	// ErrNoResult is returned by [Store.Merge] when the fetch produced no
	// list at all (a null payload). An empty list is a valid result.
	ErrNoResult = errors.New("fetch returned no result")

	// ErrNodeNotFound is returned when an id is not in the store, for
	// example because the store was rebuilt while a fetch was in flight.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDirectionMismatch is returned by [Store.Merge] when the result was
	// fetched for the other direction.
	ErrDirectionMismatch = errors.New("direction does not match store")

	// ErrAlreadyFetched is returned by [Store.Merge] when the target's
	// neighbour list is already set.
	ErrAlreadyFetched = errors.New("node already fetched")

	// ErrNoRoot is returned by operations that need an initialized store.
	ErrNoRoot = errors.New("store has no root")
)

type entry struct {
	node       Node
	parent     string // tree parent, "" for the root
	depth      int
	successors []string
	state      FetchState
	fetching   bool
}

// Store is the id-indexed hierarchy for one root and one direction.
//
// The zero value is not usable; call [New].
type Store struct {
	mu      sync.RWMutex
	dir     taxonomy.Direction
	root    string
	entries map[string]*entry
}

// New creates an empty store that grows in direction dir.
func New(dir taxonomy.Direction) *Store {
	return &Store{dir: dir, entries: make(map[string]*entry)}
}

// Direction returns the direction fixed at construction.
func (s *Store) Direction() taxonomy.Direction { return s.dir }

// Initialize discards any prior tree and installs root, expanded.
func (s *Store) Initialize(root Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root = root.clone()
	root.Expanded = true
	s.root = root.ID
	s.entries = map[string]*entry{root.ID: {node: root}}
}

// Merge applies a fetch result for targetID.
//
// New items become unexpanded, unfetched successors of the target in the
// order given. Items already in the store are not moved: the relationship
// is added to their extra-edge set instead. The target ends up expanded
// with a fetched neighbour list.
//
// Every error leaves the store untouched.
func (s *Store) Merge(targetID string, items []taxonomy.NodeSummary, dir taxonomy.Direction) error {
	if items == nil {
		return ErrNoResult
	}
	if dir != s.dir {
		return ErrDirectionMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.entries[targetID]
	if !ok {
		return ErrNodeNotFound
	}
	if target.state.Fetched() {
		return ErrAlreadyFetched
	}

	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" || it.ID == targetID || seen[it.ID] {
			continue
		}
		seen[it.ID] = true

		if existing, ok := s.entries[it.ID]; ok {
			s.linkExtra(existing, targetID)
			continue
		}
		n := FromSummary(it)
		s.entries[it.ID] = &entry{node: n, parent: targetID, depth: target.depth + 1}
		target.successors = append(target.successors, it.ID)
	}

	target.fetching = false
	target.node.Expanded = true
	if len(items) == 0 {
		target.state = FetchedEmpty
	} else {
		target.state = FetchedPopulated
	}
	return nil
}

// linkExtra records that e is a neighbour of targetID reached a second time.
func (s *Store) linkExtra(e *entry, targetID string) {
	if e.parent == targetID {
		return
	}
	if s.dir == taxonomy.Parents {
		e.node.ExtraChildren = addID(e.node.ExtraChildren, targetID, e.node.ID)
		return
	}
	e.node.ExtraParents = addID(e.node.ExtraParents, targetID, e.node.ID)
}

// Root returns a copy of the root node.
func (s *Store) Root() (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[s.root]
	if !ok {
		return Node{}, false
	}
	return e.node.clone(), true
}

// RootID returns the root id, or "" before Initialize.
func (s *Store) RootID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return Node{}, false
	}
	return e.node.clone(), true
}

// State returns the fetch state of id. Unknown ids report Unfetched.
func (s *Store) State(id string) FetchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return Unfetched
	}
	if !e.state.Fetched() && e.fetching {
		return Fetching
	}
	return e.state
}

// Successors returns the tree successors of id in order.
func (s *Store) Successors(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[id]; ok {
		return slices.Clone(e.successors)
	}
	return nil
}

// Len returns the number of nodes in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SetExpanded sets the Expanded flag of id.
func (s *Store) SetExpanded(id string, expanded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ErrNodeNotFound
	}
	e.node.Expanded = expanded
	return nil
}

// MarkFetching flags id as having a fetch in flight. It returns false when
// the node is unknown or already fetched.
func (s *Store) MarkFetching(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.state.Fetched() {
		return false
	}
	e.fetching = true
	return true
}

// ClearFetching removes the in-flight flag from id, leaving it Unfetched
// unless a merge already completed.
func (s *Store) ClearFetching(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.fetching = false
	}
}

// ExpandPath expands every node in ids. All ids must be known and fetched;
// otherwise nothing changes and the first offending id's error is returned.
func (s *Store) ExpandPath(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok {
			return ErrNodeNotFound
		}
		if !e.state.Fetched() && id != s.root {
			return ErrNoResult
		}
	}
	for _, id := range ids {
		s.entries[id].node.Expanded = true
	}
	return nil
}

// Entry is one row of a [Store.Snapshot].
type Entry struct {
	Node       Node
	Parent     string
	Depth      int
	State      FetchState
	Successors []string
}

// Snapshot returns a copy of every entry in tree pre-order from the root,
// regardless of expansion.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	var walk func(id string)
	walk = func(id string) {
		e := s.entries[id]
		st := e.state
		if !st.Fetched() && e.fetching {
			st = Fetching
		}
		out = append(out, Entry{
			Node:       e.node.clone(),
			Parent:     e.parent,
			Depth:      e.depth,
			State:      st,
			Successors: slices.Clone(e.successors),
		})
		for _, c := range e.successors {
			walk(c)
		}
	}
	if _, ok := s.entries[s.root]; ok {
		walk(s.root)
	}
	return out
}
