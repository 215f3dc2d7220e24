// Package sink serializes explorer scenes.
//
// # SVG Output
//
// [RenderSVG] produces a standalone SVG document: arrow markers, primary
// links, dashed extra links and one group per node carrying data-id and
// data-has-more attributes so a page script can route clicks.
//
//	svg := sink.RenderSVG(scene,
//	    sink.WithStyle(render.DefaultStyle()),
//	    sink.WithInteraction(),
//	)
//
// # JSON Output
//
// [RenderJSON] exports a scene, optionally with the patch that produced it
// and the outcome of the triggering click, for the browser client.
package sink
