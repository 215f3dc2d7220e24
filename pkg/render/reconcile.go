package render

import "sync"

// Diff is the enter/update/exit split of one keyed set.
type Diff[T any] struct {
	Enter  []T      `json:"enter"`
	Update []T      `json:"update"`
	Exit   []string `json:"exit"`
}

// Empty reports whether nothing entered or exited. Updates alone do not
// count: every surviving element is re-emitted with its current values.
func (d Diff[T]) Empty() bool { return len(d.Enter) == 0 && len(d.Exit) == 0 }

// Patch is the difference between two scenes.
type Patch struct {
	Nodes      Diff[Node] `json:"nodes"`
	Edges      Diff[Edge] `json:"edges"`
	ExtraEdges Diff[Edge] `json:"extra_edges"`
}

// Structural reports whether any node or edge entered or exited.
func (p Patch) Structural() bool {
	return !p.Nodes.Empty() || !p.Edges.Empty() || !p.ExtraEdges.Empty()
}

// Reconciler remembers the last applied scene.
//
// A Reconciler is safe for concurrent use.
type Reconciler struct {
	mu   sync.Mutex
	prev Scene
}

// Apply diffs next against the previous scene and keeps next as the new
// previous scene. The first call reports every element as entering.
func (r *Reconciler) Apply(next Scene) Patch {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := Patch{
		Nodes:      diff(r.prev.Nodes, next.Nodes, func(n Node) string { return n.ID }),
		Edges:      diff(r.prev.Edges, next.Edges, edgeKey),
		ExtraEdges: diff(r.prev.ExtraEdges, next.ExtraEdges, edgeKey),
	}
	r.prev = next
	return p
}

// Current returns the last applied scene.
func (r *Reconciler) Current() Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prev
}

// Reset forgets the previous scene; the next Apply reports a full enter.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prev = Scene{}
}

func edgeKey(e Edge) string { return e.Key }

func diff[T any](prev, next []T, key func(T) string) Diff[T] {
	old := make(map[string]bool, len(prev))
	for _, v := range prev {
		old[key(v)] = true
	}
	kept := make(map[string]bool, len(next))

	var d Diff[T]
	for _, v := range next {
		k := key(v)
		kept[k] = true
		if old[k] {
			d.Update = append(d.Update, v)
		} else {
			d.Enter = append(d.Enter, v)
		}
	}
	for _, v := range prev {
		if k := key(v); !kept[k] {
			d.Exit = append(d.Exit, k)
		}
	}
	return d
}
