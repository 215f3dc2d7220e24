// Package hierarchy holds the partially fetched taxonomy tree the explorer
// draws.
//
// # Model
//
// A [Store] is an id-indexed graph of [Node] values with a single
// [taxonomy.Direction] fixed at construction. Every entry records the tree
// parent whose fetch first introduced it and the ordered list of tree
// successors. Two projections are computed from that one store:
//
//   - the tree projection follows successors from the root; [Store.Visible]
//     filters it by the Expanded flag
//   - the overlay projection follows the ExtraParents (children direction)
//     or ExtraChildren (parents direction) id sets
//
// A concept that arrives a second time through another path is never
// re-parented. The second relationship is recorded in the extra-edge set
// instead, which keeps the tree acyclic over any multi-parent taxonomy.
//
// # Fetch State
//
// A node's neighbour list has three meaningful states before any toggling
// happens: not fetched, fetched and empty, fetched with items. [FetchState]
// keeps them apart (plus a transient Fetching marker) and a fetched list is
// never reset to unfetched for the life of the store.
//
// # Concurrency
//
// Store methods are safe for concurrent use. Locks are held only inside
// the methods; callers fetch from the network without holding anything.
package hierarchy
