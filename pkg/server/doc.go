// Package server serves the browser explorer.
//
// Each visitor gets a taxotree_session cookie naming an in-memory
// [explorer.Session]. The page posts clicks to the JSON API and then
// re-fetches the SVG. Other clients can redraw from the returned scene and
// patch instead.
//
// # Routes
//
//	GET  /                      HTML shell
//	GET  /api/graph             current frame
//	POST /api/select/{id}       select a new root
//	POST /api/toggle/{id}       click a node
//	POST /api/direction/{dir}   children or parents
//	POST /api/deprecated/{on}   include deprecated concepts
//	GET  /api/node/{id}         detail panel
//	GET  /api/search            ?q=&mode=&limit=
//	GET  /graph.svg             scene as SVG (cached)
//	GET  /graph.dot             scene as Graphviz DOT
//	GET  /export.svg            scene laid out by Graphviz (cached)
//	GET  /metrics               Prometheus exposition
//	GET  /healthz               liveness
//
// Node ids are URIs and may contain slashes, so id routes match the rest
// of the path. Clients should percent-encode ids.
package server
