package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
)

// Direction selects which hierarchy relation a tree follows.
type Direction int

const (
	// Children grows the tree from a concept towards its subclasses.
	Children Direction = iota
	// Parents grows the tree from a concept towards its superclasses.
	Parents
)

// String returns "children" or "parents".
func (d Direction) String() string {
	if d == Parents {
		return "parents"
	}
	return "children"
}

// ParseDirection converts "children" or "parents" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "children", "":
		return Children, nil
	case "parents":
		return Parents, nil
	default:
		return Children, fmt.Errorf("unknown direction %q (want children or parents)", s)
	}
}

// Ref is an id-only reference to another concept, used for extra edges.
type Ref struct {
	ID string `json:"id"`
}

// NodeSummary is the compact node record returned by the children, parents
// and selected-info endpoints.
//
// Dep holds the deprecation date when the concept is deprecated and is nil
// otherwise. ExtraParents lists subclass-of targets other than the one the
// summary was fetched through (children endpoint); ExtraChildren is the
// mirror image on the parents endpoint.
type NodeSummary struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	Dep           *string `json:"dep"`
	HasChildren   bool    `json:"has_children"`
	HasParents    bool    `json:"has_parents"`
	ExtraParents  []Ref   `json:"extra_parents,omitempty"`
	ExtraChildren []Ref   `json:"extra_children,omitempty"`
}

// Deprecation returns the deprecation marker or "" when not deprecated.
func (n NodeSummary) Deprecation() string {
	if n.Dep == nil {
		return ""
	}
	return *n.Dep
}

// HasMore reports whether the backend has further nodes in direction d.
func (n NodeSummary) HasMore(d Direction) bool {
	if d == Parents {
		return n.HasParents
	}
	return n.HasChildren
}

// NodeList is a neighbour list field of a response body. Present tells a
// missing field apart from an explicit null, which leaves Items nil.
type NodeList struct {
	Items   []NodeSummary
	Present bool
}

// UnmarshalJSON implements [json.Unmarshaler].
func (l *NodeList) UnmarshalJSON(data []byte) error {
	l.Present = true
	return json.Unmarshal(data, &l.Items)
}

// ChildrenResponse is the body of GET /node/children/{id}.
type ChildrenResponse struct {
	Children NodeList `json:"children"`
}

// ParentsResponse is the body of GET /node/parents/{id}.
type ParentsResponse struct {
	Parents NodeList `json:"parents"`
}

// SelectedInfo seeds a fresh tree. Children and Parents are optional; when
// present they hold the immediate neighbourhood of the selected concept.
type SelectedInfo struct {
	NodeSummary
	Children []NodeSummary `json:"children,omitempty"`
	Parents  []NodeSummary `json:"parents,omitempty"`
}

// Neighbours returns the seeded neighbour list for d, or nil when the
// payload did not include it.
func (s SelectedInfo) Neighbours(d Direction) []NodeSummary {
	if d == Parents {
		return s.Parents
	}
	return s.Children
}

// NodeInfo is the detail record shown in the node information panel.
type NodeInfo struct {
	ID         string              `json:"id"`
	Label      string              `json:"label"`
	Definition string              `json:"definition,omitempty"`
	Dep        *string             `json:"dep"`
	Parents    []string            `json:"parents"`
	Types      []string            `json:"types"`
	Properties map[string][]string `json:"properties,omitempty"`
}

// SearchMode selects which field a search query matches.
type SearchMode string

const (
	SearchByID    SearchMode = "id"
	SearchByLabel SearchMode = "label"
)

// SearchResult is one search hit.
type SearchResult struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Dep   *string `json:"dep"`
}

// Deprecated reports whether the hit is a deprecated concept.
func (r SearchResult) Deprecated() bool { return r.Dep != nil && *r.Dep != "" }

// SearchResponse is the body of GET /search/{mode}/{query}. The echo field
// ("id" or "label") repeats the query. Results is nil when the field is
// missing or null.
type SearchResponse struct {
	ID      string          `json:"id,omitempty"`
	Label   string          `json:"label,omitempty"`
	Results *[]SearchResult `json:"results"`
}

// Source is the remote node source the explorer engine consumes.
//
// Implementations return an error for invalid input, transport failures,
// non-success statuses and payloads missing the expected field. Callers in
// the engine turn every error into a logged no-op.
type Source interface {
	Children(ctx context.Context, id string, includeDeprecated bool) ([]NodeSummary, error)
	Parents(ctx context.Context, id string, includeDeprecated bool) ([]NodeSummary, error)
	NodeInfo(ctx context.Context, id string, includeDeprecated bool) (*NodeInfo, error)
	SelectedInfo(ctx context.Context, id string) (*SelectedInfo, error)
	Search(ctx context.Context, query string, mode SearchMode, includeDeprecated bool, limit int) ([]SearchResult, error)
}

// Neighbours fetches the neighbours of id in direction d from src.
func Neighbours(ctx context.Context, src Source, d Direction, id string, includeDeprecated bool) ([]NodeSummary, error) {
	if d == Parents {
		return src.Parents(ctx, id, includeDeprecated)
	}
	return src.Children(ctx, id, includeDeprecated)
}
