package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/taxotree/pkg/hierarchy"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// buildTree builds a fully expanded tree. parents[i] is the index of the
// parent of node i+1; node 0 is the root.
func buildTree(t testing.TB, prefix string, parents []int) hierarchy.VisibleTree {
	t.Helper()
	name := func(i int) string { return fmt.Sprintf("%s%d", prefix, i) }

	kids := make(map[int][]int)
	for i, p := range parents {
		kids[p] = append(kids[p], i+1)
	}

	s := hierarchy.New(taxonomy.Children)
	s.Initialize(hierarchy.Node{ID: name(0), HasChildren: len(kids[0]) > 0})
	queue := []int{0}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if len(kids[n]) == 0 {
			continue
		}
		items := make([]taxonomy.NodeSummary, 0, len(kids[n]))
		for _, c := range kids[n] {
			items = append(items, taxonomy.NodeSummary{ID: name(c), HasChildren: len(kids[c]) > 0})
			queue = append(queue, c)
		}
		if err := s.Merge(name(n), items, taxonomy.Children); err != nil {
			t.Fatalf("Merge(%s) error: %v", name(n), err)
		}
	}
	return s.Visible()
}

func TestTidy(t *testing.T) {
	opts := DefaultOptions(taxonomy.Children)

	tests := []struct {
		name    string
		parents []int
		want    map[string]Point
	}{
		{
			name:    "root only",
			parents: nil,
			want:    map[string]Point{"n0": {0, 0}},
		},
		{
			name:    "three leaves",
			parents: []int{0, 0, 0},
			want: map[string]Point{
				"n0": {0, 0},
				"n1": {-30, 370},
				"n2": {0, 370},
				"n3": {30, 370},
			},
		},
		{
			// n1 has two children, n2 one; cousins n4 and n5 are two units apart.
			name:    "cousins",
			parents: []int{0, 0, 1, 1, 2},
			want: map[string]Point{
				"n0": {0, 0},
				"n1": {-37.5, 370},
				"n2": {37.5, 370},
				"n3": {-52.5, 740},
				"n4": {-22.5, 740},
				"n5": {37.5, 740},
			},
		},
		{
			name:    "chain",
			parents: []int{0, 1, 2},
			want: map[string]Point{
				"n0": {0, 0},
				"n1": {0, 370},
				"n2": {0, 740},
				"n3": {0, 1110},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tidy(buildTree(t, "n", tt.parents), opts)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("%s = %+v, want %+v", id, got[id], want)
				}
			}
		})
	}
}

func TestTidyParentsSpacing(t *testing.T) {
	got := Tidy(buildTree(t, "n", []int{0, 0}), DefaultOptions(taxonomy.Parents))
	if got["n1"] != (Point{-12.5, 350}) || got["n2"] != (Point{12.5, 350}) {
		t.Errorf("positions = %+v", got)
	}
}

func TestTidyEmpty(t *testing.T) {
	if got := Tidy(hierarchy.VisibleTree{}, Options{}); len(got) != 0 {
		t.Errorf("Tidy(empty) = %v, want empty", got)
	}
}

func TestBounds(t *testing.T) {
	p := Positions{"a": {-30, 0}, "b": {45, 370}, "c": {0, 740}}
	lo, hi, depth := p.Bounds()
	if lo != -30 || hi != 45 || depth != 740 {
		t.Errorf("Bounds() = %v, %v, %v", lo, hi, depth)
	}
	if lo, hi, depth := (Positions{}).Bounds(); lo != 0 || hi != 0 || depth != 0 {
		t.Errorf("empty Bounds() = %v, %v, %v", lo, hi, depth)
	}
}

func TestTidyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	opts := DefaultOptions(taxonomy.Children)

	// Shape is encoded as raw ints; node i+1 hangs under node seq[i] % (i+1).
	shape := func(seq []int) []int {
		parents := make([]int, len(seq))
		for i, v := range seq {
			parents[i] = v % (i + 1)
		}
		return parents
	}

	properties.Property("same shape gives identical coordinates", prop.ForAll(
		func(seq []int) bool {
			parents := shape(seq)
			a := buildTree(t, "a", parents)
			b := buildTree(t, "b", parents)
			pa, pb := Tidy(a, opts), Tidy(b, opts)
			for i := range a.Nodes {
				if pa[a.Nodes[i].Node.ID] != pb[b.Nodes[i].Node.ID] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("parents are centred over their children", prop.ForAll(
		func(seq []int) bool {
			tree := buildTree(t, "n", shape(seq))
			pos := Tidy(tree, opts)
			for _, n := range tree.Nodes {
				if len(n.Children) == 0 {
					continue
				}
				first := pos[n.Children[0].Node.ID].Sibling
				last := pos[n.Children[len(n.Children)-1].Node.ID].Sibling
				if math.Abs(pos[n.Node.ID].Sibling-(first+last)/2) > 1e-6 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("nodes of one generation keep order and spacing", prop.ForAll(
		func(seq []int) bool {
			tree := buildTree(t, "n", shape(seq))
			pos := Tidy(tree, opts)
			last := make(map[int]float64)
			for _, n := range tree.Nodes {
				x := pos[n.Node.ID].Sibling
				if prev, ok := last[n.Depth]; ok && x-prev < opts.SiblingSpacing-1e-6 {
					return false
				}
				last[n.Depth] = x
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
