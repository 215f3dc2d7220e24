package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/taxotree/pkg/render"
)

const nodeInteractionCSS = `
    .node circle { transition: fill 0.15s ease; }
    .node.clickable { cursor: pointer; }
    .node.clickable:hover circle { fill: %[1]s; }
    .node text:hover { fill: %[2]s; cursor: pointer; }`

const nodeInteractionJS = `
    document.querySelectorAll('.node').forEach(el => {
      el.querySelector('circle').addEventListener('click', ev => {
        ev.stopPropagation();
        el.dispatchEvent(new CustomEvent('taxotree:toggle', { bubbles: true, detail: el.dataset.id }));
      });
      el.querySelector('text')?.addEventListener('click', ev => {
        ev.stopPropagation();
        el.dispatchEvent(new CustomEvent('taxotree:info', { bubbles: true, detail: el.dataset.id }));
      });
    });`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style       render.Style
	labels      bool
	interactive bool
	padding     float64
}

func WithStyle(s render.Style) SVGOption { return func(r *svgRenderer) { r.style = s } }
func WithLabels(show bool) SVGOption     { return func(r *svgRenderer) { r.labels = show } }
func WithInteraction() SVGOption         { return func(r *svgRenderer) { r.interactive = true } }
func WithPadding(p float64) SVGOption    { return func(r *svgRenderer) { r.padding = p } }

// RenderSVG draws scene as a standalone SVG document.
func RenderSVG(scene render.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{style: render.DefaultStyle(), labels: true, padding: 60}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := scene.Bounds()
	// Labels extend past the outermost nodes.
	minX -= r.padding * 3
	maxX += r.padding * 3
	minY -= r.padding
	maxY += r.padding
	w, h := maxX-minX, maxY-minY

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f" font-family="sans-serif" font-size="%s">`+"\n",
		render.Num(minX), render.Num(minY), render.Num(w), render.Num(h), w, h, render.Num(r.style.FontSize))

	renderDefs(&buf, r.style)
	if r.interactive {
		fmt.Fprintf(&buf, "  <style>"+nodeInteractionCSS+"\n  </style>\n", r.style.HoverFill, r.style.LabelHoverFill)
	}

	buf.WriteString("  <g class=\"links\">\n")
	for _, e := range scene.Edges {
		fmt.Fprintf(&buf, `    <path class="link" data-key="%s" d="%s" stroke="%s" stroke-width="1" fill="none" marker-end="url(#arrow)"/>`+"\n",
			html.EscapeString(e.Key), e.Path, r.style.EdgeStroke)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("  <g class=\"extra-links\">\n")
	for _, e := range scene.ExtraEdges {
		fmt.Fprintf(&buf, `    <path class="extra-link" data-key="%s" d="%s" stroke="%s" stroke-width="1" stroke-dasharray="%s" fill="none" marker-end="url(#arrow-extra)"/>`+"\n",
			html.EscapeString(e.Key), e.Path, r.style.ExtraEdgeStroke, r.style.ExtraEdgeDash)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("  <g class=\"nodes\">\n")
	for _, n := range scene.Nodes {
		renderNode(&buf, r, n)
	}
	buf.WriteString("  </g>\n")

	if r.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", nodeInteractionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer, s render.Style) {
	buf.WriteString("  <defs>\n")
	for _, m := range []struct{ id, fill string }{{"arrow", s.EdgeStroke}, {"arrow-extra", s.ExtraEdgeStroke}} {
		fmt.Fprintf(buf, `    <marker id="%s" viewBox="0 -5 10 10" refX="10" refY="0" markerWidth="6" markerHeight="6" orient="auto"><path d="M0,-5L10,0L0,5" fill="%s"/></marker>`+"\n",
			m.id, m.fill)
	}
	buf.WriteString("  </defs>\n")
}

func renderNode(buf *bytes.Buffer, r svgRenderer, n render.Node) {
	class := "node " + n.Class
	if n.HasMore && !n.Root {
		class += " clickable"
	}
	fmt.Fprintf(buf, `    <g class="%s" data-id="%s" data-has-more="%t" data-expanded="%t" transform="translate(%s,%s)">`+"\n",
		class, html.EscapeString(n.ID), n.HasMore, n.Expanded, render.Num(n.Pos.X), render.Num(n.Pos.Y))

	stroke := 0.0
	if n.HasMore {
		stroke = r.style.NodeStrokeWidth
	}
	fmt.Fprintf(buf, `      <circle r="%s" fill="%s" stroke="%s" stroke-width="%s"/>`+"\n",
		render.Num(r.style.NodeRadius), n.Fill, r.style.NodeStroke, render.Num(stroke))

	if r.labels {
		style := "normal"
		if n.Label.Italic {
			style = "italic"
		}
		fmt.Fprintf(buf, `      <text dy=".35em" x="%s" y="%s" text-anchor="%s" font-weight="%d" font-style="%s">%s</text>`+"\n",
			render.Num(n.Label.X), render.Num(n.Label.Y), n.Label.Anchor, n.Label.FontWeight, style, html.EscapeString(n.Label.Text))
	}
	buf.WriteString("    </g>\n")
}
