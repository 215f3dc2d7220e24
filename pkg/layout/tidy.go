package layout

import (
	"math"

	"github.com/matzehuels/taxotree/pkg/hierarchy"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// Node sizes of the two tree kinds.
const (
	ChildrenSiblingSpacing = 30
	ChildrenDepthSpacing   = 370
	ParentsSiblingSpacing  = 25
	ParentsDepthSpacing    = 350
)

// Options controls spacing and separation.
type Options struct {
	SiblingSpacing float64 // distance between adjacent siblings
	DepthSpacing   float64 // distance between generations

	SiblingSeparation float64 // separation units between nodes with the same parent
	CousinSeparation  float64 // separation units between nodes with different parents
}

// DefaultOptions returns the node size used for direction d.
func DefaultOptions(d taxonomy.Direction) Options {
	opts := Options{SiblingSeparation: 1, CousinSeparation: 2}
	if d == taxonomy.Parents {
		opts.SiblingSpacing, opts.DepthSpacing = ParentsSiblingSpacing, ParentsDepthSpacing
	} else {
		opts.SiblingSpacing, opts.DepthSpacing = ChildrenSiblingSpacing, ChildrenDepthSpacing
	}
	return opts
}

func (o Options) withDefaults() Options {
	if o.SiblingSpacing == 0 {
		o.SiblingSpacing = ChildrenSiblingSpacing
	}
	if o.DepthSpacing == 0 {
		o.DepthSpacing = ChildrenDepthSpacing
	}
	if o.SiblingSeparation == 0 {
		o.SiblingSeparation = 1
	}
	if o.CousinSeparation == 0 {
		o.CousinSeparation = 2
	}
	return o
}

// Point is a laid-out position.
type Point struct {
	Sibling float64
	Depth   float64
}

// Positions maps visible node ids to their layout points.
type Positions map[string]Point

// Bounds returns the extent of all points. An empty set has zero bounds.
func (p Positions) Bounds() (minSibling, maxSibling, maxDepth float64) {
	if len(p) == 0 {
		return 0, 0, 0
	}
	minSibling, maxSibling = math.Inf(1), math.Inf(-1)
	for _, pt := range p {
		minSibling = math.Min(minSibling, pt.Sibling)
		maxSibling = math.Max(maxSibling, pt.Sibling)
		maxDepth = math.Max(maxDepth, pt.Depth)
	}
	return minSibling, maxSibling, maxDepth
}

type tnode struct {
	id       string
	depth    int
	parent   *tnode
	children []*tnode

	ancestor        *tnode // a
	defaultAncestor *tnode // A
	thread          *tnode // t
	prelim          float64
	mod             float64
	change          float64
	shift           float64
	number          int
	x               float64
}

// Tidy lays out tree. The root lands at sibling coordinate 0.
func Tidy(tree hierarchy.VisibleTree, opts Options) Positions {
	out := make(Positions, tree.Len())
	if tree.Root == nil {
		return out
	}
	opts = opts.withDefaults()

	l := &tidy{opts: opts}
	root := l.wrap(tree.Root)
	sentinel := &tnode{children: []*tnode{root}}
	root.parent = sentinel

	eachAfter(root, l.firstWalk)
	sentinel.mod = -root.prelim
	eachBefore(root, secondWalk)

	eachBefore(root, func(v *tnode) {
		out[v.id] = Point{
			Sibling: v.x * opts.SiblingSpacing,
			Depth:   float64(v.depth) * opts.DepthSpacing,
		}
	})
	return out
}

type tidy struct {
	opts Options
}

func (l *tidy) wrap(n *hierarchy.VisibleNode) *tnode {
	v := &tnode{id: n.Node.ID, depth: n.Depth}
	v.ancestor = v
	for i, c := range n.Children {
		w := l.wrap(c)
		w.parent = v
		w.number = i
		v.children = append(v.children, w)
	}
	return v
}

func (l *tidy) separation(a, b *tnode) float64 {
	if a.parent == b.parent {
		return l.opts.SiblingSeparation
	}
	return l.opts.CousinSeparation
}

func (l *tidy) firstWalk(v *tnode) {
	siblings := v.parent.children
	var w *tnode
	if v.number > 0 {
		w = siblings[v.number-1]
	}

	if len(v.children) > 0 {
		executeShifts(v)
		midpoint := (v.children[0].prelim + v.children[len(v.children)-1].prelim) / 2
		if w != nil {
			v.prelim = w.prelim + l.separation(v, w)
			v.mod = v.prelim - midpoint
		} else {
			v.prelim = midpoint
		}
	} else if w != nil {
		v.prelim = w.prelim + l.separation(v, w)
	}

	anc := v.parent.defaultAncestor
	if anc == nil {
		anc = siblings[0]
	}
	v.parent.defaultAncestor = l.apportion(v, w, anc)
}

// apportion pushes the subtree at v right until its left contour clears
// the right contour of the subtrees of its left siblings.
func (l *tidy) apportion(v, w, ancestor *tnode) *tnode {
	if w == nil {
		return ancestor
	}
	vip, vop := v, v
	vim := w
	vom := vip.parent.children[0]
	sip, sop := vip.mod, vop.mod
	sim, som := vim.mod, vom.mod

	for {
		vim = nextRight(vim)
		vip = nextLeft(vip)
		if vim == nil || vip == nil {
			break
		}
		vom = nextLeft(vom)
		vop = nextRight(vop)
		vop.ancestor = v
		shift := vim.prelim + sim - vip.prelim - sip + l.separation(vim, vip)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.mod
		sip += vip.mod
		som += vom.mod
		sop += vop.mod
	}
	if vim != nil && nextRight(vop) == nil {
		vop.thread = vim
		vop.mod += sim - sop
	}
	if vip != nil && nextLeft(vom) == nil {
		vom.thread = vip
		vom.mod += sip - som
		ancestor = v
	}
	return ancestor
}

func secondWalk(v *tnode) {
	v.x = v.prelim + v.parent.mod
	v.mod += v.parent.mod
}

func nextLeft(v *tnode) *tnode {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.thread
}

func nextRight(v *tnode) *tnode {
	if len(v.children) > 0 {
		return v.children[len(v.children)-1]
	}
	return v.thread
}

func moveSubtree(wm, wp *tnode, shift float64) {
	change := shift / float64(wp.number-wm.number)
	wp.change -= change
	wp.shift += shift
	wm.change += change
	wp.prelim += shift
	wp.mod += shift
}

func executeShifts(v *tnode) {
	var shift, change float64
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.prelim += shift
		w.mod += shift
		change += w.change
		shift += w.shift + change
	}
}

func nextAncestor(vim, v, ancestor *tnode) *tnode {
	if vim.ancestor.parent == v.parent {
		return vim.ancestor
	}
	return ancestor
}

func eachAfter(v *tnode, fn func(*tnode)) {
	for _, c := range v.children {
		eachAfter(c, fn)
	}
	fn(v)
}

func eachBefore(v *tnode, fn func(*tnode)) {
	fn(v)
	for _, c := range v.children {
		eachBefore(c, fn)
	}
}
