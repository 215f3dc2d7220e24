// Package render turns a laid-out visible tree into a drawable scene and
// reconciles successive scenes.
//
// # Overview
//
// Rendering is split into three steps:
//
//   - [Build] maps layout points to screen coordinates, classifies every
//     node through the [Style] table and derives primary and extra edges
//   - [Reconciler.Apply] diffs a scene against the previous one and returns
//     a [Patch] of enter, update and exit sets
//   - sinks in the [sink] and [nodelink] subpackages serialize a scene
//
// # Keys
//
// Nodes are keyed by id. Primary edges are keyed by their target id: the
// visible projection is a tree, so every non-root node has exactly one
// incoming primary edge. Extra edges are keyed "source→target" so a node
// with several extra relatives keeps all of them.
//
// # Orientation
//
// A children tree grows to the right (screen x = depth). A parents tree is
// mirrored and grows to the left (screen x = -depth); label offsets mirror
// with it. The sibling coordinate is always screen y.
//
// [sink]: github.com/matzehuels/taxotree/pkg/render/sink
// [nodelink]: github.com/matzehuels/taxotree/pkg/render/nodelink
package render
