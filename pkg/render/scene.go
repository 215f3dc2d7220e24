package render

import (
	"math"

	"github.com/matzehuels/taxotree/pkg/hierarchy"
	"github.com/matzehuels/taxotree/pkg/layout"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// Label is a placed node label.
type Label struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Anchor     string  `json:"anchor"`
	FontWeight int     `json:"font_weight"`
	Italic     bool    `json:"italic,omitempty"`
}

// Node is one drawable node.
type Node struct {
	ID         string    `json:"id"`
	Pos        Vec       `json:"pos"`
	State      NodeState `json:"-"`
	Class      string    `json:"class"`
	Fill       string    `json:"fill"`
	Root       bool      `json:"root,omitempty"`
	Expanded   bool      `json:"expanded"`
	HasMore    bool      `json:"has_more"`
	Deprecated string    `json:"deprecated,omitempty"`
	Label      Label     `json:"label"`
}

// Edge is one drawable edge.
type Edge struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Target string `json:"target"`
	From   Vec    `json:"from"`
	To     Vec    `json:"to"`
	Path   string `json:"path"`
	Extra  bool   `json:"extra,omitempty"`
}

// Scene is everything needed to draw one frame.
type Scene struct {
	Direction  taxonomy.Direction `json:"-"`
	RootID     string             `json:"root"`
	Nodes      []Node             `json:"nodes"`
	Edges      []Edge             `json:"edges"`
	ExtraEdges []Edge             `json:"extra_edges"`
}

// Node returns the scene node with the given id.
func (s Scene) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Bounds returns the screen extent of all node centres.
func (s Scene) Bounds() (minX, minY, maxX, maxY float64) {
	if len(s.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range s.Nodes {
		minX, maxX = math.Min(minX, n.Pos.X), math.Max(maxX, n.Pos.X)
		minY, maxY = math.Min(minY, n.Pos.Y), math.Max(maxY, n.Pos.Y)
	}
	return minX, minY, maxX, maxY
}

// ExtraKey is the key of the extra edge source→target.
func ExtraKey(source, target string) string { return source + "→" + target }

// Screen maps a layout point to screen coordinates for direction d.
func Screen(p layout.Point, d taxonomy.Direction) Vec {
	if d == taxonomy.Parents {
		return Vec{X: -p.Depth, Y: p.Sibling}
	}
	return Vec{X: p.Depth, Y: p.Sibling}
}

// Build assembles the scene of tree laid out at pos.
//
// Primary edges run from tree parent to tree child. Extra edges run from
// the extra relative to the node listing it and are emitted only when both
// ends are visible.
func Build(tree hierarchy.VisibleTree, pos layout.Positions, style Style) Scene {
	dir := tree.Direction
	sc := Scene{Direction: dir, Nodes: make([]Node, 0, tree.Len())}
	if tree.Root == nil {
		return sc
	}
	sc.RootID = tree.Root.Node.ID

	at := func(id string) Vec { return Screen(pos[id], dir) }

	for _, vn := range tree.Nodes {
		n := vn.Node
		isRoot := vn.Parent == nil
		st := style.Classify(n, isRoot, dir)
		pl := style.Placement(isRoot, n.Expanded, dir)

		weight := style.FontWeight
		if n.IsDeprecated() {
			weight = style.DeprecatedFontWeight
		}

		sc.Nodes = append(sc.Nodes, Node{
			ID:         n.ID,
			Pos:        at(n.ID),
			State:      st,
			Class:      st.String(),
			Fill:       style.Fill(st),
			Root:       isRoot,
			Expanded:   n.Expanded,
			HasMore:    n.HasMore(dir),
			Deprecated: n.Deprecated,
			Label: Label{
				Text:       n.Label,
				X:          pl.X,
				Y:          pl.Y,
				Anchor:     pl.Anchor,
				FontWeight: weight,
				Italic:     n.IsDeprecated(),
			},
		})

		if !isRoot {
			sc.Edges = append(sc.Edges, newEdge(vn.Node.ID, vn.Parent.Node.ID, n.ID, at, style, false))
		}
	}

	seen := make(map[string]bool)
	for _, vn := range tree.Nodes {
		for _, rel := range vn.Node.Extra(dir) {
			key := ExtraKey(rel, vn.Node.ID)
			if seen[key] || !tree.Contains(rel) {
				continue
			}
			seen[key] = true
			sc.ExtraEdges = append(sc.ExtraEdges, newEdge(key, rel, vn.Node.ID, at, style, true))
		}
	}
	return sc
}

func newEdge(key, source, target string, at func(string) Vec, style Style, extra bool) Edge {
	from, to := at(source), at(target)
	return Edge{
		Key:    key,
		Source: source,
		Target: target,
		From:   from,
		To:     to,
		Path:   EdgePath(from, to, style.ArrowOffset, style.AlignEpsilon),
		Extra:  extra,
	}
}
