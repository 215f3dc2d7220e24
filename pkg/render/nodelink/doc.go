// Package nodelink exports explorer scenes as Graphviz node-link diagrams.
//
// The interactive view positions nodes with its own tidy-tree layout. This
// package instead hands the visible tree to Graphviz, which is useful for
// static exports and for checking a scene by eye:
//
//	dot := nodelink.ToDOT(scene, nodelink.Options{ShowExtra: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Extra relations are drawn dashed and red with constraint=false so they do
// not affect ranking.
package nodelink
