package render

import (
	"github.com/matzehuels/taxotree/pkg/hierarchy"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// NodeState is the fill class of a node.
type NodeState int

const (
	StateLeaf NodeState = iota
	StateHasMore
	StateRoot
	StateDeprecated
)

// String returns the CSS class suffix of the state.
func (s NodeState) String() string {
	switch s {
	case StateHasMore:
		return "has-more"
	case StateRoot:
		return "root"
	case StateDeprecated:
		return "deprecated"
	default:
		return "leaf"
	}
}

// StateStyle is one row of the state table. When several states apply to
// a node, the one with the highest Priority wins.
type StateStyle struct {
	Fill     string
	Priority int
}

// LabelPlacement positions a label relative to its node, in a children
// tree. Parents trees mirror X and the anchor.
type LabelPlacement struct {
	X, Y   float64
	Anchor string
}

// Style is the single table of visual constants consumed by [Build] and
// the sinks.
type Style struct {
	States map[NodeState]StateStyle

	NodeRadius      float64
	NodeStroke      string
	NodeStrokeWidth float64 // only drawn on nodes with more to fetch or show
	HoverFill       string
	LabelHoverFill  string

	RootLabel      LabelPlacement
	ExpandedLabel  LabelPlacement
	CollapsedLabel LabelPlacement

	FontWeight           int
	DeprecatedFontWeight int
	FontSize             float64

	EdgeStroke      string
	ExtraEdgeStroke string
	ExtraEdgeDash   string

	ArrowOffset  float64 // pull-back of edge ends so arrowheads stay visible
	AlignEpsilon float64 // sibling-axis delta below which edges are straight
}

// DefaultStyle returns the standard explorer palette.
func DefaultStyle() Style {
	return Style{
		States: map[NodeState]StateStyle{
			StateDeprecated: {Fill: "#FC1455", Priority: 3},
			StateRoot:       {Fill: "#FFCF00", Priority: 2},
			StateHasMore:    {Fill: "#69B3A2", Priority: 1},
			StateLeaf:       {Fill: "#999999", Priority: 0},
		},

		NodeRadius:      7,
		NodeStroke:      "#444444",
		NodeStrokeWidth: 2,
		HoverFill:       "#16F1A2",
		LabelHoverFill:  "#19C1A2",

		RootLabel:      LabelPlacement{X: 0, Y: -20, Anchor: "middle"},
		ExpandedLabel:  LabelPlacement{X: -15, Y: 0, Anchor: "end"},
		CollapsedLabel: LabelPlacement{X: 10, Y: 0, Anchor: "start"},

		FontWeight:           450,
		DeprecatedFontWeight: 325,
		FontSize:             12,

		EdgeStroke:      "#999999",
		ExtraEdgeStroke: "red",
		ExtraEdgeDash:   "5,5",

		ArrowOffset:  13,
		AlignEpsilon: 1,
	}
}

// Classify returns the highest-priority state that applies to n.
func (s Style) Classify(n hierarchy.Node, isRoot bool, d taxonomy.Direction) NodeState {
	best := StateLeaf
	consider := func(st NodeState, applies bool) {
		if applies && s.States[st].Priority > s.States[best].Priority {
			best = st
		}
	}
	consider(StateHasMore, n.HasMore(d))
	consider(StateRoot, isRoot)
	consider(StateDeprecated, n.IsDeprecated())
	return best
}

// Fill returns the fill colour of state st.
func (s Style) Fill(st NodeState) string { return s.States[st].Fill }

// Placement returns the label placement for a node, mirrored for d.
func (s Style) Placement(isRoot, expanded bool, d taxonomy.Direction) LabelPlacement {
	var p LabelPlacement
	switch {
	case isRoot:
		return s.RootLabel
	case expanded:
		p = s.ExpandedLabel
	default:
		p = s.CollapsedLabel
	}
	if d == taxonomy.Parents {
		p.X = -p.X
		p.Anchor = mirrorAnchor(p.Anchor)
	}
	return p
}

func mirrorAnchor(a string) string {
	switch a {
	case "start":
		return "end"
	case "end":
		return "start"
	default:
		return a
	}
}
