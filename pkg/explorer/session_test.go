package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/taxotree/pkg/hierarchy"
	"github.com/matzehuels/taxotree/pkg/render"
	"github.com/matzehuels/taxotree/pkg/search"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
	"github.com/matzehuels/taxotree/pkg/taxonomy/taxonomytest"
)

var quiet = log.New(io.Discard)

// fixture is the taxonomy
//
//	T ─┬─ A
//	   ├─ B ── C (also under D)
//	   └─ P ── D
func fixture() *taxonomytest.Source {
	src := taxonomytest.New()
	src.Selected["T"] = taxonomy.SelectedInfo{NodeSummary: taxonomytest.Branch("T")}
	src.ChildrenOf["T"] = []taxonomy.NodeSummary{taxonomytest.Leaf("A"), taxonomytest.Branch("B"), taxonomytest.Branch("P")}
	src.ChildrenOf["B"] = []taxonomy.NodeSummary{taxonomytest.Branch("C", "D")}
	src.ChildrenOf["P"] = []taxonomy.NodeSummary{taxonomytest.Leaf("D")}
	src.ChildrenOf["C"] = []taxonomy.NodeSummary{}
	return src
}

func selectT(t *testing.T, src *taxonomytest.Source) (*Session, Frame) {
	t.Helper()
	s := New(src, Options{Logger: quiet})
	f, err := s.Select(context.Background(), "T")
	if err != nil {
		t.Fatalf("Select(T) error: %v", err)
	}
	return s, f
}

func nodeIDs(sc render.Scene) []string {
	ids := make([]string, len(sc.Nodes))
	for i, n := range sc.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func edgeKeys(edges []render.Edge) []string {
	keys := make([]string, len(edges))
	for i, e := range edges {
		keys[i] = e.Key
	}
	return keys
}

func TestScenarioExpandRoot(t *testing.T) {
	src := taxonomytest.New()
	src.Selected["T"] = taxonomy.SelectedInfo{NodeSummary: taxonomy.NodeSummary{ID: "T", HasChildren: true}}
	src.ChildrenOf["T"] = []taxonomy.NodeSummary{{ID: "A"}, {ID: "B", HasChildren: true}}

	_, f := selectT(t, src)

	if f.Outcome != OutcomeExpanded {
		t.Errorf("outcome = %v, want expanded", f.Outcome)
	}
	if got := nodeIDs(f.Scene); !slices.Equal(got, []string{"T", "A", "B"}) {
		t.Fatalf("visible = %v, want [T A B]", got)
	}
	for _, id := range []string{"A", "B"} {
		if n, _ := f.Scene.Node(id); n.Expanded {
			t.Errorf("%s rendered expanded", id)
		}
	}
	if n := src.Calls("children", "T"); n != 1 {
		t.Errorf("children(T) called %d times, want 1", n)
	}
}

func TestScenarioFetchFailure(t *testing.T) {
	src := fixture()
	s, before := selectT(t, src)
	src.Fail["B"] = errors.New("connection reset")

	f := s.Click(context.Background(), "B")

	if f.Outcome != OutcomeFetchFailed {
		t.Errorf("outcome = %v, want fetch-failed", f.Outcome)
	}
	if st := s.Store().State("B"); st != hierarchy.Unfetched {
		t.Errorf("B state = %v, want unfetched", st)
	}
	if !slices.Equal(nodeIDs(f.Scene), nodeIDs(before.Scene)) || f.Patch.Structural() {
		t.Errorf("visible set changed: %v", nodeIDs(f.Scene))
	}

	// Manual retry.
	delete(src.Fail, "B")
	f = s.Click(context.Background(), "B")
	if f.Outcome != OutcomeExpanded || !slices.Contains(nodeIDs(f.Scene), "C") {
		t.Errorf("retry = %v %v", f.Outcome, nodeIDs(f.Scene))
	}
}

func TestFetchFailureKinds(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*taxonomytest.Source)
	}{
		{"network", func(src *taxonomytest.Source) { src.Fail["B"] = errors.New("dial tcp: refused") }},
		{"null payload", func(src *taxonomytest.Source) { src.ChildrenOf["B"] = nil }},
		{"unknown", func(src *taxonomytest.Source) { delete(src.ChildrenOf, "B") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fixture()
			tt.setup(src)
			s, _ := selectT(t, src)
			if got := s.Click(context.Background(), "B").Outcome; got != OutcomeFetchFailed {
				t.Errorf("outcome = %v, want fetch-failed", got)
			}
			if s.Store().State("B").Fetched() {
				t.Error("B marked fetched after failure")
			}
		})
	}
}

func TestScenarioSearchNoResults(t *testing.T) {
	s, _ := selectT(t, fixture())
	got := s.Search(context.Background(), search.Request{Query: "valve", Mode: taxonomy.SearchByLabel, Limit: 25})
	if len(got.Results) != 0 || got.Results == nil || got.ErrorMessage != "No results found." {
		t.Errorf("Search = %#v", got)
	}
}

func TestScenarioExtraEdge(t *testing.T) {
	s, _ := selectT(t, fixture())
	ctx := context.Background()

	f := s.Click(ctx, "B")
	if !slices.Contains(nodeIDs(f.Scene), "C") || len(f.Scene.ExtraEdges) != 0 {
		t.Fatalf("after B: nodes %v extra %v", nodeIDs(f.Scene), edgeKeys(f.Scene.ExtraEdges))
	}

	f = s.Click(ctx, "P")
	if got := edgeKeys(f.Scene.ExtraEdges); !slices.Equal(got, []string{render.ExtraKey("D", "C")}) {
		t.Fatalf("after P: extra edges %v, want [D→C]", got)
	}
	if got := edgeKeys(f.Patch.ExtraEdges.Enter); !slices.Equal(got, []string{"D→C"}) {
		t.Errorf("extra enter = %v", got)
	}

	f = s.Click(ctx, "P")
	if f.Outcome != OutcomeCollapsed || len(f.Scene.ExtraEdges) != 0 {
		t.Errorf("after collapsing P: %v extra %v", f.Outcome, edgeKeys(f.Scene.ExtraEdges))
	}
	if !slices.Equal(f.Patch.ExtraEdges.Exit, []string{"D→C"}) {
		t.Errorf("extra exit = %v", f.Patch.ExtraEdges.Exit)
	}
}

func TestLeafNeverFetches(t *testing.T) {
	src := fixture()
	s, _ := selectT(t, src)

	for range 3 {
		if got := s.Click(context.Background(), "A").Outcome; got != OutcomeNoop {
			t.Errorf("Click(A) = %v, want noop", got)
		}
	}
	if n := src.Calls("children", "A"); n != 0 {
		t.Errorf("children(A) called %d times", n)
	}
	if a, _ := s.Store().Node("A"); a.Expanded {
		t.Error("leaf A became expanded")
	}
}

func TestFetchedNodeIsNeverRefetched(t *testing.T) {
	src := fixture()
	s, _ := selectT(t, src)
	ctx := context.Background()

	var outcomes []Outcome
	for range 4 {
		outcomes = append(outcomes, s.Click(ctx, "B").Outcome)
	}
	want := []Outcome{OutcomeExpanded, OutcomeCollapsed, OutcomeExpanded, OutcomeCollapsed}
	if !slices.Equal(outcomes, want) {
		t.Errorf("outcomes = %v, want %v", outcomes, want)
	}
	if n := src.Calls("children", "B"); n != 1 {
		t.Errorf("children(B) called %d times, want 1", n)
	}
}

func TestCollapseExpandIsIdempotent(t *testing.T) {
	s, _ := selectT(t, fixture())
	ctx := context.Background()
	s.Click(ctx, "B")
	s.Click(ctx, "P")
	before := s.Frame(ctx).Scene

	s.Click(ctx, "B")
	after := s.Click(ctx, "B").Scene

	if !reflect.DeepEqual(before, after) {
		t.Errorf("scene changed after collapse+expand:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestRootNeverCollapses(t *testing.T) {
	src := fixture()
	s, _ := selectT(t, src)

	f := s.Click(context.Background(), "T")
	if f.Outcome != OutcomeNoop || f.Patch.Structural() {
		t.Errorf("Click(root) = %v structural=%v", f.Outcome, f.Patch.Structural())
	}
	if root, _ := s.Store().Root(); !root.Expanded {
		t.Error("root collapsed")
	}
	if n := src.Calls("children", "T"); n != 1 {
		t.Errorf("children(T) called %d times, want 1", n)
	}
}

func TestUnknownNodeIsNoop(t *testing.T) {
	s, _ := selectT(t, fixture())
	if got := s.Click(context.Background(), "nope").Outcome; got != OutcomeNoop {
		t.Errorf("Click(unknown) = %v", got)
	}
	if got := New(fixture(), Options{Logger: quiet}).Click(context.Background(), "T"); got.Outcome != OutcomeNoop || len(got.Scene.Nodes) != 0 {
		t.Errorf("Click before Select = %+v", got)
	}
}

func TestSelectSeedsFromPayload(t *testing.T) {
	src := fixture()
	src.Selected["T"] = taxonomy.SelectedInfo{
		NodeSummary: taxonomytest.Branch("T"),
		Children:    []taxonomy.NodeSummary{taxonomytest.Leaf("A"), taxonomytest.Branch("B")},
	}

	_, f := selectT(t, src)
	if got := nodeIDs(f.Scene); !slices.Equal(got, []string{"T", "A", "B"}) {
		t.Errorf("visible = %v", got)
	}
	if n := src.Calls("children", "T"); n != 0 {
		t.Errorf("children(T) called %d times, want 0", n)
	}
}

func TestSelectErrors(t *testing.T) {
	s := New(fixture(), Options{Logger: quiet})
	if _, err := s.Select(context.Background(), ""); err == nil {
		t.Error("Select(\"\") succeeded")
	}
	if _, err := s.Select(context.Background(), "missing"); !errors.Is(err, taxonomytest.ErrUnknown) {
		t.Errorf("Select(missing) = %v", err)
	}
	if s.Selected() != nil || s.Store() != nil {
		t.Error("failed Select left state behind")
	}
}

func TestSelectReplacesTree(t *testing.T) {
	src := fixture()
	src.Selected["B"] = taxonomy.SelectedInfo{NodeSummary: taxonomytest.Branch("B")}
	s, _ := selectT(t, src)
	s.Click(context.Background(), "P")

	f, err := s.Select(context.Background(), "B")
	if err != nil {
		t.Fatal(err)
	}
	if got := nodeIDs(f.Scene); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("visible = %v, want [B C]", got)
	}
	if len(f.Patch.Nodes.Enter) != 2 || len(f.Patch.Nodes.Exit) != 0 {
		t.Errorf("patch after reselect = %+v", f.Patch.Nodes)
	}
	if s.Store().Len() != 2 {
		t.Errorf("store holds %d nodes, want 2", s.Store().Len())
	}
}

func TestSetDirection(t *testing.T) {
	src := fixture()
	src.Selected["C"] = taxonomy.SelectedInfo{NodeSummary: taxonomy.NodeSummary{ID: "C", HasChildren: true, HasParents: true}}
	src.ParentsOf["C"] = []taxonomy.NodeSummary{{ID: "B", HasParents: true}, {ID: "D", HasParents: true}}

	s := New(src, Options{Logger: quiet})
	ctx := context.Background()
	if _, err := s.Select(ctx, "C"); err != nil {
		t.Fatal(err)
	}

	f := s.SetDirection(ctx, taxonomy.Parents)
	if s.Direction() != taxonomy.Parents || f.Scene.Direction != taxonomy.Parents {
		t.Fatalf("direction = %v", s.Direction())
	}
	if got := nodeIDs(f.Scene); !slices.Equal(got, []string{"C", "B", "D"}) {
		t.Errorf("visible = %v", got)
	}
	for _, id := range []string{"B", "D"} {
		if n, _ := f.Scene.Node(id); n.Pos.X >= 0 {
			t.Errorf("%s at x=%v, want left of the root", id, n.Pos.X)
		}
	}

	if f := s.SetDirection(ctx, taxonomy.Parents); f.Outcome != OutcomeNoop || f.Patch.Structural() {
		t.Errorf("same direction = %+v", f.Outcome)
	}
}

func TestSetIncludeDeprecatedReloads(t *testing.T) {
	src := fixture()
	s, _ := selectT(t, src)
	ctx := context.Background()

	s.SetIncludeDeprecated(ctx, true)
	if !s.IncludeDeprecated() {
		t.Error("IncludeDeprecated() = false")
	}
	if n := src.Calls("children", "T"); n != 2 {
		t.Errorf("children(T) called %d times, want 2", n)
	}
}

func TestInfo(t *testing.T) {
	src := fixture()
	src.Info["B"] = taxonomy.NodeInfo{ID: "B", Label: "Bee", Parents: []string{"T"}}
	s := New(src, Options{Logger: quiet})

	info, err := s.Info(context.Background(), "B")
	if err != nil || info.Label != "Bee" {
		t.Errorf("Info(B) = %+v, %v", info, err)
	}
	if _, err := s.Info(context.Background(), "  "); err == nil {
		t.Error("Info(blank) succeeded")
	}
}

func TestConcurrentTogglesShareOneFetch(t *testing.T) {
	src := fixture()
	s, _ := selectT(t, src)
	src.Gate = make(chan struct{})

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 8)
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = s.Click(context.Background(), "B").Outcome
		}()
	}

	waitFetching(t, s.Store(), "B")
	close(src.Gate)
	wg.Wait()

	if n := src.Calls("children", "B"); n != 1 {
		t.Errorf("children(B) called %d times, want 1", n)
	}
	for i, o := range outcomes {
		if o == OutcomeFetchFailed || o == OutcomeNoop {
			t.Errorf("toggle %d = %v", i, o)
		}
	}
}

// waitFetching blocks until id is being fetched in store.
func waitFetching(t *testing.T, store *hierarchy.Store, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for store.State(id) != hierarchy.Fetching {
		if time.Now().After(deadline) {
			t.Fatalf("%s never started fetching", id)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestClickDroppedWhenTreeRebuilt(t *testing.T) {
	tests := []struct {
		name    string
		rebuild func(*Session) error
	}{
		{"select", func(s *Session) error {
			_, err := s.Select(context.Background(), "T")
			return err
		}},
		{"deprecated filter", func(s *Session) error {
			s.SetIncludeDeprecated(context.Background(), true)
			return nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fixture()
			// Seed from the payload so rebuilding does not fetch.
			src.Selected["T"] = taxonomy.SelectedInfo{
				NodeSummary: taxonomytest.Branch("T"),
				Children:    src.ChildrenOf["T"],
			}
			s, _ := selectT(t, src)
			old := s.Store()
			src.Gate = make(chan struct{})

			done := make(chan Frame, 1)
			go func() { done <- s.Click(context.Background(), "B") }()
			waitFetching(t, old, "B")

			if err := tt.rebuild(s); err != nil {
				t.Fatalf("rebuild: %v", err)
			}
			close(src.Gate)
			f := <-done

			if f.Outcome != OutcomeNoop {
				t.Errorf("outcome = %v, want noop", f.Outcome)
			}
			if s.Store() == old {
				t.Fatal("store was not rebuilt")
			}
			if st := s.Store().State("B"); st != hierarchy.Unfetched {
				t.Errorf("B in current store = %v, want unfetched", st)
			}
			if got := nodeIDs(f.Scene); slices.Contains(got, "C") {
				t.Errorf("visible = %v, stale children leaked into current tree", got)
			}
			if !old.State("B").Fetched() {
				t.Error("result was not merged into the discarded store")
			}
		})
	}
}

func TestFetchLandsUnderCollapsedAncestor(t *testing.T) {
	ctx := context.Background()
	src := fixture()
	src.ChildrenOf["C"] = []taxonomy.NodeSummary{taxonomytest.Leaf("E")}
	s, _ := selectT(t, src)
	s.Click(ctx, "B")
	src.Gate = make(chan struct{})

	done := make(chan Frame, 1)
	go func() { done <- s.Click(ctx, "C") }()
	waitFetching(t, s.Store(), "C")

	if f := s.Click(ctx, "B"); f.Outcome != OutcomeCollapsed {
		t.Fatalf("collapse B = %v, want collapsed", f.Outcome)
	}
	close(src.Gate)
	f := <-done

	if f.Outcome != OutcomeExpanded {
		t.Errorf("outcome = %v, want expanded", f.Outcome)
	}
	if got := nodeIDs(f.Scene); slices.Contains(got, "C") || slices.Contains(got, "E") {
		t.Errorf("visible = %v, want C and E hidden under collapsed B", got)
	}
	if st := s.Store().State("C"); st != hierarchy.FetchedPopulated {
		t.Errorf("C state = %v, want fetched", st)
	}

	f = s.Click(ctx, "B")
	if got := nodeIDs(f.Scene); !slices.Contains(got, "C") || !slices.Contains(got, "E") {
		t.Errorf("after re-expanding B visible = %v, want C and E", got)
	}
	if n := src.Calls("children", "C"); n != 1 {
		t.Errorf("children(C) called %d times, want 1", n)
	}
}

func TestReveal(t *testing.T) {
	ctx := context.Background()
	src := fixture()
	s, _ := selectT(t, src)

	f := s.Reveal(ctx, "B", "C")
	if f.Outcome != OutcomeExpanded {
		t.Errorf("Reveal(B, C) = %v, want expanded", f.Outcome)
	}
	if got := nodeIDs(f.Scene); !slices.Contains(got, "C") {
		t.Fatalf("visible = %v, want C", got)
	}
	if !s.Store().State("C").Fetched() {
		t.Error("C not fetched")
	}

	if got := s.Reveal(ctx, "B").Outcome; got != OutcomeNoop {
		t.Errorf("Reveal of expanded B = %v, want noop", got)
	}

	s.Click(ctx, "B")
	f = s.Reveal(ctx, "B")
	if f.Outcome != OutcomeExpanded || !slices.Contains(nodeIDs(f.Scene), "C") {
		t.Errorf("Reveal of collapsed B = %v %v", f.Outcome, nodeIDs(f.Scene))
	}
	if n := src.Calls("children", "B"); n != 1 {
		t.Errorf("children(B) called %d times, want 1", n)
	}

	for _, ids := range [][]string{{"A"}, {"Q"}} {
		if got := s.Reveal(ctx, ids...).Outcome; got != OutcomeNoop {
			t.Errorf("Reveal(%v) = %v, want noop", ids, got)
		}
	}
}

func TestRevealStopsOnFetchFailure(t *testing.T) {
	src := fixture()
	src.Fail["B"] = errors.New("connection reset")
	s, _ := selectT(t, src)

	f := s.Reveal(context.Background(), "B", "C")
	if f.Outcome != OutcomeFetchFailed {
		t.Errorf("outcome = %v, want fetch-failed", f.Outcome)
	}
	if _, ok := s.Store().Node("C"); ok {
		t.Error("C known after failed reveal")
	}
}

func TestSceneLeavesReconcilerAlone(t *testing.T) {
	ctx := context.Background()
	s, _ := selectT(t, fixture())
	s.Click(ctx, "B")

	// Collapse behind the session's back so only the next frame sees it.
	if err := s.Store().SetExpanded("B", false); err != nil {
		t.Fatal(err)
	}
	if got := nodeIDs(s.Scene(ctx)); slices.Contains(got, "C") {
		t.Fatalf("Scene() = %v, want C hidden", got)
	}
	f := s.Frame(ctx)
	if !slices.Contains(f.Patch.Nodes.Exit, "C") {
		t.Errorf("Frame() exit = %v, want C", f.Patch.Nodes.Exit)
	}
}

// lattice is a taxonomy over n0..n11 where most nodes are reachable along
// several paths.
func lattice() *taxonomytest.Source {
	const size = 12
	src := taxonomytest.New()
	kids := func(i int) []int {
		if i >= 9 {
			return nil
		}
		var out []int
		for _, k := range []int{2*i + 1, 2*i + 2, (i + 5) % size} {
			if k < size && k != i && !slices.Contains(out, k) {
				out = append(out, k)
			}
		}
		return out
	}
	summary := func(i int) taxonomy.NodeSummary {
		return taxonomy.NodeSummary{ID: fmt.Sprintf("n%d", i), HasChildren: len(kids(i)) > 0}
	}
	for i := range size {
		items := []taxonomy.NodeSummary{}
		for _, k := range kids(i) {
			items = append(items, summary(k))
		}
		src.ChildrenOf[fmt.Sprintf("n%d", i)] = items
	}
	src.Selected["n0"] = taxonomy.SelectedInfo{NodeSummary: summary(0)}
	return src
}

func TestSessionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150

	properties := gopter.NewProperties(parameters)

	properties.Property("clicks keep every invariant", prop.ForAll(
		func(clicks []int) bool {
			src := lattice()
			s := New(src, Options{Logger: quiet})
			ctx := context.Background()
			f, err := s.Select(ctx, "n0")
			if err != nil {
				return false
			}

			for _, c := range clicks {
				snap := s.Store().Snapshot()
				target := snap[c%len(snap)].Node
				wasExpanded := target.Expanded

				f = s.Click(ctx, target.ID)

				if !target.HasChildren {
					after, _ := s.Store().Node(target.ID)
					if f.Outcome != OutcomeNoop || after.Expanded != wasExpanded {
						return false
					}
				}
				if root, _ := s.Store().Root(); !root.Expanded {
					return false
				}
			}

			// At most one fetch per node.
			for i := range 12 {
				if src.Calls("children", fmt.Sprintf("n%d", i)) > 1 {
					return false
				}
			}

			// Extra edges exist exactly when both ends are visible.
			visible := make(map[string]bool)
			for _, n := range f.Scene.Nodes {
				visible[n.ID] = true
			}
			want := make(map[string]bool)
			for _, n := range f.Scene.Nodes {
				node, _ := s.Store().Node(n.ID)
				for _, rel := range node.Extra(taxonomy.Children) {
					if visible[rel] {
						want[render.ExtraKey(rel, n.ID)] = true
					}
				}
			}
			if len(want) != len(f.Scene.ExtraEdges) {
				return false
			}
			for _, e := range f.Scene.ExtraEdges {
				if !want[e.Key] || !visible[e.Source] || !visible[e.Target] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
