// Package taxonomy defines the wire types of the taxonomy REST API and the
// [Source] interface the explorer engine consumes.
//
// # Overview
//
// The taxonomy backend serves an ISO-15926-style class hierarchy. Concepts
// are identified by their URI and reached through a handful of endpoints:
//
//	GET /node/children/{id}?dep=      → {"children": [NodeSummary...]}
//	GET /node/parents/{id}?dep=       → {"parents": [NodeSummary...]}
//	GET /node/info/{id}?dep=          → NodeInfo
//	GET /node/selected-info/{id}      → SelectedInfo
//	GET /search/{id|label}/{q}?limit= → {"results": [SearchResult...]}
//
// The types in this package mirror those payloads. [NodeSummary] is the
// unit the hierarchy store is built from; it carries enough to draw a node
// (label, deprecation marker) and to know whether more nodes exist in
// either direction without fetching them.
//
// # Sources
//
// [Source] is implemented by pkg/integrations/taxonomy.Client for the real
// backend. Tests use in-memory fakes; any type with the same methods works.
package taxonomy
