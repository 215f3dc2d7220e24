// Package layout positions the visible part of a hierarchy as a tidy tree.
//
// [Tidy] implements the Buchheim-Walker improvement of the Reingold-Tilford
// algorithm in linear time: a post-order walk assigns preliminary sibling
// coordinates and shifts subtrees apart along their contours, and a
// pre-order walk accumulates the modifiers into final coordinates.
// Siblings sit one unit apart, cousins two. Units are then scaled by the
// node size in [Options].
//
// Coordinates are abstract: Sibling runs across a generation and Depth
// runs from the root outwards. Mapping them onto screen axes (and
// mirroring for a parents tree) is the renderer's job.
//
// The result depends only on the shape and order of the input tree, so
// two trees with the same shape produce bit-identical coordinates.
package layout
