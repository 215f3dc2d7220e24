// Package taxonomytest provides an in-memory [taxonomy.Source] for tests.
package taxonomytest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// ErrUnknown is returned for ids the fake has no data for.
var ErrUnknown = errors.New("taxonomytest: unknown id")

// Source is a scripted taxonomy.Source.
//
// Neighbour maps distinguish a missing key (ErrUnknown) from a key mapped to
// nil (a null payload, nil result and nil error). Fail injects an error per
// id for Children and Parents. When Gate is non-nil every neighbour fetch
// blocks until Gate is closed or the context ends.
type Source struct {
	ChildrenOf map[string][]taxonomy.NodeSummary
	ParentsOf  map[string][]taxonomy.NodeSummary
	Info       map[string]taxonomy.NodeInfo
	Selected   map[string]taxonomy.SelectedInfo
	Results    []taxonomy.SearchResult
	Fail       map[string]error
	SearchErr  error
	Gate       chan struct{}

	mu    sync.Mutex
	calls map[string]int
}

// New returns an empty fake.
func New() *Source {
	return &Source{
		ChildrenOf: make(map[string][]taxonomy.NodeSummary),
		ParentsOf:  make(map[string][]taxonomy.NodeSummary),
		Info:       make(map[string]taxonomy.NodeInfo),
		Selected:   make(map[string]taxonomy.SelectedInfo),
		Fail:       make(map[string]error),
	}
}

// Calls returns how often method was called for id ("" for Search).
func (s *Source) Calls(method, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+":"+id]
}

// TotalCalls returns the number of calls to method across all ids.
func (s *Source) TotalCalls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.calls {
		if strings.HasPrefix(k, method+":") {
			n += v
		}
	}
	return n
}

func (s *Source) record(method, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method+":"+id]++
}

func (s *Source) Children(ctx context.Context, id string, _ bool) ([]taxonomy.NodeSummary, error) {
	return s.neighbours(ctx, "children", s.ChildrenOf, id)
}

func (s *Source) Parents(ctx context.Context, id string, _ bool) ([]taxonomy.NodeSummary, error) {
	return s.neighbours(ctx, "parents", s.ParentsOf, id)
}

func (s *Source) neighbours(ctx context.Context, method string, m map[string][]taxonomy.NodeSummary, id string) ([]taxonomy.NodeSummary, error) {
	s.record(method, id)
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.Fail[id]; err != nil {
		return nil, err
	}
	items, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, id)
	}
	if items == nil {
		return nil, nil
	}
	return append([]taxonomy.NodeSummary{}, items...), nil
}

func (s *Source) NodeInfo(_ context.Context, id string, _ bool) (*taxonomy.NodeInfo, error) {
	s.record("info", id)
	info, ok := s.Info[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, id)
	}
	return &info, nil
}

func (s *Source) SelectedInfo(_ context.Context, id string) (*taxonomy.SelectedInfo, error) {
	s.record("selected", id)
	info, ok := s.Selected[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, id)
	}
	return &info, nil
}

func (s *Source) Search(_ context.Context, query string, mode taxonomy.SearchMode, _ bool, limit int) ([]taxonomy.SearchResult, error) {
	s.record("search", "")
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	var out []taxonomy.SearchResult
	for _, r := range s.Results {
		field := r.Label
		if mode == taxonomy.SearchByID {
			field = r.ID
		}
		if strings.Contains(strings.ToLower(field), strings.ToLower(query)) {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Leaf returns a summary with no further nodes in either direction.
func Leaf(id string) taxonomy.NodeSummary {
	return taxonomy.NodeSummary{ID: id, Label: id}
}

// Branch returns a summary that has children and lists extraParents.
func Branch(id string, extraParents ...string) taxonomy.NodeSummary {
	n := taxonomy.NodeSummary{ID: id, Label: id, HasChildren: true}
	for _, p := range extraParents {
		n.ExtraParents = append(n.ExtraParents, taxonomy.Ref{ID: p})
	}
	return n
}
