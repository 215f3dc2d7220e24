// Package pkg holds the taxotree libraries.
//
// # Overview
//
// Taxotree explores a class hierarchy served by a taxonomy REST backend. A
// tree starts at one concept and grows towards its children or its parents,
// one level per click, fetching each level only when it is first expanded.
//
// The data flow of one click:
//
//	[explorer.Session].Click
//	         ↓
//	[explorer.Controller] (fetch through [taxonomy.Source] on first expand)
//	         ↓
//	[hierarchy.Store] (merge, flip Expanded, compute the visible tree)
//	         ↓
//	[layout.Tidy] (tidy-tree positions)
//	         ↓
//	[render.Build] + [render.Reconciler] (scene and enter/exit patch)
//	         ↓
//	render/sink (SVG, JSON) or render/nodelink (DOT, Graphviz)
//
// # Packages
//
//   - taxonomy: wire types and the Source interface
//   - integrations/taxonomy: REST client implementing Source
//   - hierarchy, layout, render, explorer: the lazy graph engine
//   - search: query validation and result mapping
//   - cache: rendered-scene cache (file, Redis, null)
//   - server: browser explorer
//   - config, errors, observability, metrics, buildinfo: ambient support
//
// # Quick Start
//
//	src := taxonomyclient.NewClient("http://localhost:8000")
//	sess := explorer.New(src, explorer.Options{Direction: taxonomy.Children})
//	if _, err := sess.Select(ctx, rootID); err != nil {
//	    return err
//	}
//	frame := sess.Click(ctx, childID)
//	svg := sink.RenderSVG(frame.Scene)
package pkg
