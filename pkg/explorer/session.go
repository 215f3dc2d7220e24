package explorer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/taxotree/pkg/errors"
	"github.com/matzehuels/taxotree/pkg/hierarchy"
	"github.com/matzehuels/taxotree/pkg/layout"
	"github.com/matzehuels/taxotree/pkg/observability"
	"github.com/matzehuels/taxotree/pkg/render"
	"github.com/matzehuels/taxotree/pkg/search"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// Options configures a Session.
type Options struct {
	// Direction is the initial graph direction. Defaults to children.
	Direction taxonomy.Direction
	// IncludeDeprecated is passed to every fetch.
	IncludeDeprecated bool
	// Layout overrides the per-direction spacing defaults when non-nil.
	Layout *layout.Options
	// Style overrides [render.DefaultStyle] when non-nil.
	Style *render.Style
	// Logger receives fetch failures and toggles. Defaults to log.Default().
	Logger *log.Logger
}

// Frame is what the view draws after an interaction.
type Frame struct {
	Outcome Outcome      `json:"outcome"`
	Scene   render.Scene `json:"scene"`
	Patch   render.Patch `json:"patch"`
}

// Session is one user's explorer: the selected root, the direction and the
// tree fetched so far.
//
// A Session is safe for concurrent use.
type Session struct {
	src    taxonomy.Source
	style  render.Style
	logger *log.Logger

	mu         sync.Mutex
	dir        taxonomy.Direction
	dep        bool
	layoutOpts *layout.Options
	selected   *taxonomy.SelectedInfo
	ctrl       *Controller
	recon      render.Reconciler
}

// New creates a session with nothing selected.
func New(src taxonomy.Source, opts Options) *Session {
	s := &Session{
		src:        src,
		style:      render.DefaultStyle(),
		logger:     opts.Logger,
		dir:        opts.Direction,
		dep:        opts.IncludeDeprecated,
		layoutOpts: opts.Layout,
	}
	if opts.Style != nil {
		s.style = *opts.Style
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Direction returns the current graph direction.
func (s *Session) Direction() taxonomy.Direction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// IncludeDeprecated reports whether fetches include deprecated concepts.
func (s *Session) IncludeDeprecated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dep
}

// Selected returns the selected root's context, or nil before Select.
func (s *Session) Selected() *taxonomy.SelectedInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Store returns the current hierarchy store, or nil before Select.
func (s *Session) Store() *hierarchy.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return nil
	}
	return s.ctrl.Store()
}

// Select makes rootID the new root. The previous tree is discarded and the
// root's immediate neighbourhood is shown, either from the selected-info
// payload or through one fetch.
func (s *Session) Select(ctx context.Context, rootID string) (Frame, error) {
	if err := errs.ValidateNodeID(rootID); err != nil {
		return Frame{}, err
	}
	info, err := s.src.SelectedInfo(ctx, rootID)
	if err != nil {
		s.logger.Warn("select failed", "id", rootID, "err", err)
		return Frame{}, fmt.Errorf("select %s: %w", rootID, err)
	}

	s.mu.Lock()
	s.selected = info
	ctrl := s.rebuildLocked()
	s.mu.Unlock()

	s.logger.Info("selected root", "id", info.ID, "label", info.Label)
	return s.seed(ctx, ctrl, info), nil
}

// Reload rebuilds the tree for the current root without fetching its
// selected-info again.
func (s *Session) Reload(ctx context.Context) Frame {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return Frame{}
	}
	info := s.selected
	ctrl := s.rebuildLocked()
	s.mu.Unlock()
	return s.seed(ctx, ctrl, info)
}

// SetDirection switches between the children and parents graphs of the
// current root.
func (s *Session) SetDirection(ctx context.Context, d taxonomy.Direction) Frame {
	s.mu.Lock()
	if s.dir == d {
		s.mu.Unlock()
		return s.Frame(ctx)
	}
	s.dir = d
	s.mu.Unlock()
	return s.Reload(ctx)
}

// SetIncludeDeprecated changes the deprecated filter and rebuilds the tree.
func (s *Session) SetIncludeDeprecated(ctx context.Context, on bool) Frame {
	s.mu.Lock()
	if s.dep == on {
		s.mu.Unlock()
		return s.Frame(ctx)
	}
	s.dep = on
	s.mu.Unlock()
	return s.Reload(ctx)
}

// rebuildLocked replaces the store with a fresh one holding only the root.
func (s *Session) rebuildLocked() *Controller {
	store := hierarchy.New(s.dir)
	store.Initialize(hierarchy.FromSummary(s.selected.NodeSummary))
	if s.ctrl != nil {
		s.ctrl.Retire()
	}
	s.ctrl = NewController(store, s.src, s.dep, s.logger)
	s.recon.Reset()
	return s.ctrl
}

// seed shows the root's neighbourhood for a freshly built store.
func (s *Session) seed(ctx context.Context, ctrl *Controller, info *taxonomy.SelectedInfo) Frame {
	store := ctrl.Store()
	rootID := store.RootID()

	out := OutcomeNoop
	if items := info.Neighbours(store.Direction()); items != nil {
		if err := store.Merge(rootID, items, store.Direction()); err != nil {
			s.logger.Debug("seed merge skipped", "id", rootID, "err", err)
		} else {
			out = OutcomeExpanded
		}
	}
	if out == OutcomeNoop {
		out = ctrl.Toggle(ctx, rootID)
	}
	return s.render(ctx, ctrl, out)
}

func (s *Session) controller() *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

// Click toggles node id and returns the resulting frame.
//
// When the tree is rebuilt while the click's fetch is in flight, the fetch
// lands in the discarded store and the frame reports [OutcomeNoop] for the
// current tree.
func (s *Session) Click(ctx context.Context, id string) Frame {
	ctrl := s.controller()
	if ctrl == nil {
		return Frame{}
	}
	return s.render(ctx, ctrl, ctrl.Toggle(ctx, id))
}

// Reveal expands ids in order, fetching unfetched ones first. Unlike
// [Session.Click] it never collapses. Ids without further nodes in the
// current direction are skipped; an unknown id or a failed fetch stops the
// walk.
func (s *Session) Reveal(ctx context.Context, ids ...string) Frame {
	ctrl := s.controller()
	if ctrl == nil {
		return Frame{}
	}
	store := ctrl.Store()
	dir := store.Direction()

	out := OutcomeNoop
	var path []string
	for _, id := range ids {
		n, ok := store.Node(id)
		if !ok {
			s.logger.Debug("reveal stopped at unknown node", "id", id)
			break
		}
		if !n.HasMore(dir) {
			continue
		}
		if !store.State(id).Fetched() {
			if o := ctrl.Toggle(ctx, id); o != OutcomeExpanded {
				if o == OutcomeFetchFailed {
					out = o
				}
				break
			}
			out = OutcomeExpanded
			continue
		}
		if !n.Expanded {
			path = append(path, id)
		}
	}
	if len(path) > 0 {
		if err := store.ExpandPath(path...); err != nil {
			s.logger.Debug("reveal expand skipped", "path", path, "err", err)
		} else if out == OutcomeNoop {
			out = OutcomeExpanded
		}
	}
	return s.render(ctx, ctrl, out)
}

// Frame re-renders the current tree without changing it. The reconciler's
// baseline moves to the returned scene.
func (s *Session) Frame(ctx context.Context) Frame {
	return s.render(ctx, nil, OutcomeNoop)
}

// Scene builds the current scene without touching the reconciler, for
// read-only views.
func (s *Session) Scene(ctx context.Context) render.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return render.Scene{}
	}
	return s.buildLocked(ctx)
}

// render builds the frame for out. A result produced by a controller other
// than the current one is reported as a no-op.
func (s *Session) render(ctx context.Context, from *Controller, out Outcome) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return Frame{Outcome: out}
	}
	if from != nil && from != s.ctrl && out != OutcomeNoop {
		s.logger.Debug("dropped stale result", "outcome", out)
		out = OutcomeNoop
	}

	scene := s.buildLocked(ctx)
	return Frame{Outcome: out, Scene: scene, Patch: s.recon.Apply(scene)}
}

func (s *Session) buildLocked(ctx context.Context) render.Scene {
	start := time.Now()
	tree := s.ctrl.Store().Visible()
	opts := layout.DefaultOptions(tree.Direction)
	if s.layoutOpts != nil {
		opts = *s.layoutOpts
	}
	scene := render.Build(tree, layout.Tidy(tree, opts), s.style)
	observability.Explorer().OnRender(ctx, tree.Len(), time.Since(start))
	return scene
}

// Info fetches the detail record of id.
func (s *Session) Info(ctx context.Context, id string) (*taxonomy.NodeInfo, error) {
	if err := errs.ValidateNodeID(id); err != nil {
		return nil, err
	}
	info, err := s.src.NodeInfo(ctx, id, s.IncludeDeprecated())
	if err != nil {
		s.logger.Warn("node info failed", "id", id, "err", err)
		return nil, err
	}
	return info, nil
}

// Search runs req with the session's deprecated filter.
func (s *Session) Search(ctx context.Context, req search.Request) search.Outcome {
	req.IncludeDeprecated = s.IncludeDeprecated()
	return search.Run(ctx, s.src, req, s.logger)
}
