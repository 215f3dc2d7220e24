package explorer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/taxotree/pkg/hierarchy"
	"github.com/matzehuels/taxotree/pkg/observability"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// Outcome is the result of one toggle.
type Outcome int

const (
	// OutcomeNoop means nothing changed.
	OutcomeNoop Outcome = iota
	// OutcomeExpanded means the node's neighbours are now shown.
	OutcomeExpanded
	// OutcomeCollapsed means the node's neighbours are now hidden.
	OutcomeCollapsed
	// OutcomeFetchFailed means the fetch failed and the node is still
	// unfetched.
	OutcomeFetchFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExpanded:
		return "expanded"
	case OutcomeCollapsed:
		return "collapsed"
	case OutcomeFetchFailed:
		return "fetch-failed"
	default:
		return "noop"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Structural reports whether the visible tree changed.
func (o Outcome) Structural() bool { return o == OutcomeExpanded || o == OutcomeCollapsed }

// Controller applies toggles to one store.
type Controller struct {
	store             *hierarchy.Store
	src               taxonomy.Source
	includeDeprecated bool
	logger            *log.Logger
	group             singleflight.Group
	retired           atomic.Bool
}

// NewController creates a controller for store that fetches from src.
func NewController(store *hierarchy.Store, src taxonomy.Source, includeDeprecated bool, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		store:             store,
		src:               src,
		includeDeprecated: includeDeprecated,
		logger:            logger,
	}
}

// Store returns the store the controller mutates.
func (c *Controller) Store() *hierarchy.Store { return c.store }

// Retire marks the controller's store as discarded. Toggles that finish
// afterwards report [OutcomeNoop].
func (c *Controller) Retire() { c.retired.Store(true) }

// Retired reports whether [Controller.Retire] was called.
func (c *Controller) Retired() bool { return c.retired.Load() }

// Toggle handles a click on node id:
//
//   - unknown nodes and nodes with nothing more in the store's direction
//     are left alone;
//   - unfetched nodes are fetched once and expanded;
//   - fetched nodes flip between expanded and collapsed, except the root,
//     which stays expanded.
func (c *Controller) Toggle(ctx context.Context, id string) Outcome {
	out := c.toggle(ctx, id)
	if out != OutcomeNoop && c.Retired() {
		c.logger.Debug("dropped result for discarded tree", "id", id, "outcome", out)
		out = OutcomeNoop
	}
	observability.Explorer().OnToggle(ctx, c.store.Direction().String(), out.String())
	c.logger.Debug("toggle", "id", id, "outcome", out)
	return out
}

func (c *Controller) toggle(ctx context.Context, id string) Outcome {
	dir := c.store.Direction()
	n, ok := c.store.Node(id)
	if !ok || !n.HasMore(dir) {
		return OutcomeNoop
	}

	if !c.store.State(id).Fetched() {
		return c.fetch(ctx, id)
	}

	if id == c.store.RootID() && n.Expanded {
		return OutcomeNoop
	}
	if err := c.store.SetExpanded(id, !n.Expanded); err != nil {
		return OutcomeNoop
	}
	if n.Expanded {
		return OutcomeCollapsed
	}
	return OutcomeExpanded
}

// fetch loads the neighbours of id and merges them. Concurrent callers for
// the same id share one request and all observe its outcome.
func (c *Controller) fetch(ctx context.Context, id string) Outcome {
	dir := c.store.Direction()

	_, err, _ := c.group.Do(id, func() (any, error) {
		if !c.store.MarkFetching(id) {
			return nil, hierarchy.ErrAlreadyFetched
		}
		defer c.store.ClearFetching(id)

		start := time.Now()
		items, err := taxonomy.Neighbours(ctx, c.src, dir, id, c.includeDeprecated)
		observability.Explorer().OnFetch(ctx, dir.String(), len(items), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		return nil, c.store.Merge(id, items, dir)
	})

	switch {
	case err == nil:
		return OutcomeExpanded
	case errors.Is(err, hierarchy.ErrAlreadyFetched):
		// Another toggle completed the fetch first.
		return OutcomeExpanded
	default:
		c.logger.Warn("fetch failed", "id", id, "direction", dir, "err", err)
		return OutcomeFetchFailed
	}
}
