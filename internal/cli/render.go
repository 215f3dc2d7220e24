package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/taxotree/pkg/cache"
	"github.com/matzehuels/taxotree/pkg/explorer"
	"github.com/matzehuels/taxotree/pkg/render"
	"github.com/matzehuels/taxotree/pkg/render/nodelink"
	"github.com/matzehuels/taxotree/pkg/render/sink"
)

const (
	formatSVG      = "svg"
	formatJSON     = "json"
	formatDOT      = "dot"
	formatGraphviz = "graphviz"

	// fetchConcurrency bounds parallel fetches while expanding a level.
	fetchConcurrency = 4
)

type renderOpts struct {
	output    string
	format    string
	direction string
	depth     int
	expand    []string
	labels    bool
	detailed  bool
	noCache   bool
}

// renderCommand writes the tree of a concept to a file or stdout.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: formatSVG, depth: 1}

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Render the tree of a concept",
		Long: `Render selects <id>, expands it and writes the resulting scene.

The root is always expanded. --depth expands every level up to the given
depth; --expand then reveals the listed chain of nodes, in order, fetching
the ones not loaded yet. Nodes already expanded stay expanded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("labels") {
				opts.labels = c.cfg.Labels
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	f.StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, json, dot, graphviz")
	f.StringVarP(&opts.direction, "direction", "d", "", "children or parents (default from config)")
	f.IntVar(&opts.depth, "depth", opts.depth, "expand every level up to this depth")
	f.StringSliceVar(&opts.expand, "expand", nil, "chain of node ids to expand after the depth expansion")
	f.BoolVar(&opts.labels, "labels", true, "draw node labels")
	f.BoolVar(&opts.detailed, "detailed", false, "include ids and states in DOT labels")
	f.BoolVar(&opts.noCache, "no-cache", false, "bypass the rendered-scene cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, id string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	sess, err := c.newSession(c.newSource(), opts.direction)
	if err != nil {
		return err
	}
	if _, err := sess.Select(ctx, id); err != nil {
		return err
	}
	if err := expandDepth(ctx, sess, opts.depth); err != nil {
		return err
	}
	if len(opts.expand) > 0 {
		ids := make([]string, len(opts.expand))
		for i, eid := range opts.expand {
			ids[i] = strings.TrimSpace(eid)
		}
		f := sess.Reveal(ctx, ids...)
		logger.Debug("reveal", "ids", ids, "outcome", f.Outcome)
	}
	scene := sess.Scene(ctx)

	artifacts, closeCache, err := c.newArtifacts(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer closeCache()

	data, cached, err := renderScene(ctx, artifacts, scene, opts)
	if err != nil {
		return err
	}
	prog.done("Rendered", "root", id, "format", opts.format)

	if opts.output == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %s", id)
	printSceneStats(scene, cached)
	printFile(opts.output)
	return nil
}

// renderScene encodes scene in the requested format. SVG output goes
// through the artifact cache.
func renderScene(ctx context.Context, artifacts *cache.Artifacts, scene render.Scene, opts renderOpts) ([]byte, bool, error) {
	dotOpts := nodelink.Options{Detailed: opts.detailed, ShowExtra: true}
	switch opts.format {
	case formatSVG, formatGraphviz:
		digest, err := sink.Digest(scene)
		if err != nil {
			return nil, false, err
		}
		if opts.format == formatGraphviz {
			key := cache.ArtifactKeyOpts{Format: "graphviz-svg", Labels: true}
			return artifacts.GetOrRender(ctx, digest, key, func() ([]byte, error) {
				return nodelink.RenderSVG(ctx, nodelink.ToDOT(scene, dotOpts))
			})
		}
		key := cache.ArtifactKeyOpts{Format: formatSVG, Labels: opts.labels}
		return artifacts.GetOrRender(ctx, digest, key, func() ([]byte, error) {
			return sink.RenderSVG(scene, sink.WithLabels(opts.labels)), nil
		})
	case formatJSON:
		data, err := sink.RenderJSON(scene, sink.WithIndent())
		return data, false, err
	case formatDOT:
		return []byte(nodelink.ToDOT(scene, dotOpts)), false, nil
	default:
		return nil, false, fmt.Errorf("unknown format %q (want svg, json, dot or graphviz)", opts.format)
	}
}

// expandDepth expands every visible node above depth, one level at a
// time. Fetches within a level run concurrently.
func expandDepth(ctx context.Context, sess *explorer.Session, depth int) error {
	for level := 1; level < depth; level++ {
		tree := sess.Store().Visible()
		var ids []string
		for _, n := range tree.Nodes {
			if n.Depth == level && !n.Node.Expanded && n.Node.HasMore(tree.Direction) {
				ids = append(ids, n.Node.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fetchConcurrency)
		for _, id := range ids {
			g.Go(func() error {
				sess.Reveal(gctx, id)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
