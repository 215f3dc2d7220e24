package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/taxotree/pkg/render"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node id and state under the label.
	Detailed bool
	// ShowExtra draws the dashed extra-relation overlay.
	ShowExtra bool
}

// ToDOT converts a scene to Graphviz DOT format.
// Children graphs grow rightwards and parents graphs leftwards, matching the
// interactive view. Node positions are left to Graphviz.
func ToDOT(scene render.Scene, opts Options) string {
	rankdir := "LR"
	if scene.Direction == taxonomy.Parents {
		rankdir = "RL"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, fontname=\"sans-serif\", margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [color=\"#999999\", arrowsize=0.6];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	for _, n := range scene.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range scene.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}
	if opts.ShowExtra {
		for _, e := range scene.ExtraEdges {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=red, constraint=false];\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n render.Node, detailed bool) string {
	label := n.Label.Text
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}
	parts := []string{label, n.ID, "state: " + n.Class}
	if n.Deprecated != "" {
		parts = append(parts, "deprecated: "+n.Deprecated)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n render.Node, detailed bool) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		fmt.Sprintf("fillcolor=%q", n.Fill),
	}
	if n.Label.Italic {
		attrs = append(attrs, "fontname=\"sans-serif italic\"")
	}
	if n.HasMore && !n.Expanded {
		attrs = append(attrs, "style=\"rounded,filled,bold\"", "color=\"#444444\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the drawing scales with its
// container instead of using Graphviz's point units.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
