package sink

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/taxotree/pkg/render"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

func testScene() render.Scene {
	return render.Scene{
		Direction: taxonomy.Children,
		RootID:    "T",
		Nodes: []render.Node{
			{ID: "T", Class: "root", Fill: "#FFCF00", Root: true, Expanded: true, HasMore: true,
				Label: render.Label{Text: "Thing", Y: -20, Anchor: "middle", FontWeight: 450}},
			{ID: "A", Pos: render.Vec{X: 370, Y: -15}, Class: "has-more", Fill: "#69B3A2", HasMore: true,
				Label: render.Label{Text: "A & <B>", X: 10, Anchor: "start", FontWeight: 450}},
			{ID: "D", Pos: render.Vec{X: 370, Y: 15}, Class: "deprecated", Fill: "#FC1455", Deprecated: "2020",
				Label: render.Label{Text: "Old", X: 10, Anchor: "start", FontWeight: 325, Italic: true}},
		},
		Edges: []render.Edge{
			{Key: "A", Source: "T", Target: "A", Path: "M0,0C178.5,0 178.5,-15 357,-15"},
			{Key: "D", Source: "T", Target: "D", Path: "M0,0C178.5,0 178.5,15 357,15"},
		},
		ExtraEdges: []render.Edge{
			{Key: render.ExtraKey("A", "D"), Source: "A", Target: "D", Path: "M370,-15L370,2", Extra: true},
		},
	}
}

func TestRenderSVG(t *testing.T) {
	out := string(RenderSVG(testScene()))

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`<marker id="arrow"`,
		`<marker id="arrow-extra"`,
		`marker-end="url(#arrow)"`,
		`stroke-dasharray="5,5"`,
		`marker-end="url(#arrow-extra)"`,
		`data-id="A"`,
		`class="node has-more clickable"`,
		`class="node root"`,
		`A &amp; &lt;B&gt;`,
		`font-style="italic"`,
		`<circle r="7"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if strings.Contains(out, "<script") {
		t.Error("SVG contains a script without WithInteraction")
	}
}

func TestRenderSVGOptions(t *testing.T) {
	out := string(RenderSVG(testScene(), WithLabels(false), WithInteraction()))
	if strings.Contains(out, "<text") {
		t.Error("labels rendered with WithLabels(false)")
	}
	if !strings.Contains(out, "<script") || !strings.Contains(out, "#16F1A2") {
		t.Error("interaction script or hover style missing")
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	out := string(RenderSVG(render.Scene{}))
	if !strings.HasPrefix(out, "<svg") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("empty scene SVG = %q", out)
	}
}

func TestRenderJSON(t *testing.T) {
	var r render.Reconciler
	sc := testScene()
	patch := r.Apply(sc)

	data, err := RenderJSON(sc, WithPatch(patch), WithOutcome("expanded"))
	if err != nil {
		t.Fatalf("RenderJSON error: %v", err)
	}

	var got struct {
		Direction string `json:"direction"`
		Outcome   string `json:"outcome"`
		Scene     struct {
			Root       string            `json:"root"`
			Nodes      []json.RawMessage `json:"nodes"`
			ExtraEdges []json.RawMessage `json:"extra_edges"`
		} `json:"scene"`
		Patch struct {
			Nodes struct {
				Enter []json.RawMessage `json:"enter"`
			} `json:"nodes"`
		} `json:"patch"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Direction != "children" || got.Outcome != "expanded" || got.Scene.Root != "T" {
		t.Errorf("header = %+v", got)
	}
	if len(got.Scene.Nodes) != 3 || len(got.Scene.ExtraEdges) != 1 || len(got.Patch.Nodes.Enter) != 3 {
		t.Errorf("counts = %d nodes, %d extra, %d enter",
			len(got.Scene.Nodes), len(got.Scene.ExtraEdges), len(got.Patch.Nodes.Enter))
	}
}

func TestRenderJSONEmptyScene(t *testing.T) {
	data, err := RenderJSON(render.Scene{Direction: taxonomy.Parents}, WithIndent())
	if err != nil {
		t.Fatalf("RenderJSON error: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"direction": "parents"`, `"nodes": []`, `"extra_edges": []`} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %s:\n%s", want, s)
		}
	}
	if strings.Contains(s, `"patch"`) {
		t.Error("patch present without WithPatch")
	}
}

func TestDigest(t *testing.T) {
	digest := func(sc render.Scene) string {
		t.Helper()
		d, err := Digest(sc)
		if err != nil {
			t.Fatalf("Digest() error: %v", err)
		}
		return d
	}

	a := testScene()
	if digest(a) != digest(testScene()) {
		t.Error("equal scenes have different digests")
	}

	b := testScene()
	b.Nodes[1].Expanded = true
	if digest(a) == digest(b) {
		t.Error("expansion did not change the digest")
	}

	c := testScene()
	c.Direction = taxonomy.Parents
	if digest(a) == digest(c) {
		t.Error("direction did not change the digest")
	}
}

func TestDigestUnencodableScene(t *testing.T) {
	sc := testScene()
	sc.Nodes[1].Pos.X = math.NaN()
	d, err := Digest(sc)
	if err == nil {
		t.Fatalf("Digest() = %q, want error for NaN coordinate", d)
	}
	if d != "" {
		t.Errorf("Digest() returned %q alongside an error", d)
	}
}
