package taxonomy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/taxotree/pkg/integrations"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(server.URL, integrations.WithHTTPClient(server.Client()), integrations.WithRateLimit(0))
}

func TestClientChildren(t *testing.T) {
	var gotPath, gotDep string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDep = r.URL.Query().Get("dep")
		w.Write([]byte(`{"children":[
			{"id":"B","label":"Bee","dep":null,"has_children":true,"extra_parents":[{"id":"X"}]},
			{"id":"C","label":"Sea","dep":"2021-03-01","has_children":false}
		]}`))
	})

	items, err := client.Children(context.Background(), "A", true)
	if err != nil {
		t.Fatalf("Children() error: %v", err)
	}
	if gotPath != "/node/children/A" {
		t.Errorf("path = %q, want /node/children/A", gotPath)
	}
	if gotDep != "true" {
		t.Errorf("dep = %q, want true", gotDep)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if !items[0].HasChildren || items[0].Deprecation() != "" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if len(items[0].ExtraParents) != 1 || items[0].ExtraParents[0].ID != "X" {
		t.Errorf("extra parents = %+v, want [X]", items[0].ExtraParents)
	}
	if items[1].Deprecation() != "2021-03-01" {
		t.Errorf("items[1].Deprecation() = %q", items[1].Deprecation())
	}
}

func TestClientParentsURIID(t *testing.T) {
	const id = "http://data.15926.org/dm/Child1"
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"parents":[{"id":"http://data.15926.org/dm/Thing","label":"Thing","has_children":true,"extra_children":[{"id":"Y"}]}]}`))
	})

	items, err := client.Parents(context.Background(), id, false)
	if err != nil {
		t.Fatalf("Parents() error: %v", err)
	}
	if gotPath != "/node/parents/"+id {
		t.Errorf("decoded path = %q, want /node/parents/%s", gotPath, id)
	}
	if len(items) != 1 || items[0].ExtraChildren[0].ID != "Y" {
		t.Errorf("items = %+v", items)
	}
}

func TestClientNeighboursEmptyAndNull(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantNil bool
	}{
		{"empty list", `{"children":[]}`, false},
		{"null", `{"children":null}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			items, err := client.Children(context.Background(), "A", false)
			if err != nil {
				t.Fatalf("Children() error: %v", err)
			}
			if (items == nil) != tt.wantNil {
				t.Errorf("items nil = %v, want %v", items == nil, tt.wantNil)
			}
			if len(items) != 0 {
				t.Errorf("len(items) = %d, want 0", len(items))
			}
		})
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		status  int
		body    string
		wantErr error
	}{
		{"empty id", "", 200, `{"children":[]}`, integrations.ErrInvalidInput},
		{"not found", "A", 404, ``, integrations.ErrNotFound},
		{"server error", "A", 500, ``, integrations.ErrServer},
		{"missing field", "A", 200, `{"parents":[]}`, integrations.ErrMalformed},
		{"wrong shape", "A", 200, `{"children":{"id":"B"}}`, integrations.ErrMalformed},
		{"item without id", "A", 200, `{"children":[{"label":"x"}]}`, integrations.ErrMalformed},
		{"not json", "A", 200, `<html>`, integrations.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.Children(context.Background(), tt.id, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Children() error = %v, want %v", err, tt.wantErr)
			}
			if tt.id == "" && calls != 0 {
				t.Errorf("invalid id issued %d requests, want 0", calls)
			}
		})
	}
}

func TestClientParentsMissingField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"children":[{"id":"B"}]}`))
	})
	if _, err := client.Parents(context.Background(), "A", false); !errors.Is(err, integrations.ErrMalformed) {
		t.Errorf("Parents() error = %v, want ErrMalformed", err)
	}
}

func TestClientSelectedInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/node/selected-info/R" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":"R","label":"Root","has_children":true,"children":[{"id":"A","label":"A"}]}`))
	})

	info, err := client.SelectedInfo(context.Background(), "R")
	if err != nil {
		t.Fatalf("SelectedInfo() error: %v", err)
	}
	if info.ID != "R" || info.Label != "Root" || !info.HasChildren {
		t.Errorf("info = %+v", info.NodeSummary)
	}
	if n := info.Neighbours(taxonomy.Children); len(n) != 1 || n[0].ID != "A" {
		t.Errorf("children = %+v", n)
	}
	if n := info.Neighbours(taxonomy.Parents); n != nil {
		t.Errorf("parents = %+v, want nil", n)
	}
}

func TestClientNodeInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"P","label":"Pump","definition":"moves fluid","dep":null,
			"parents":["A","B"],"types":["ClassOfClass"],"properties":{"rdfs:comment":["c1"]}}`))
	})

	info, err := client.NodeInfo(context.Background(), "P", false)
	if err != nil {
		t.Fatalf("NodeInfo() error: %v", err)
	}
	if info.Definition != "moves fluid" || len(info.Parents) != 2 || info.Properties["rdfs:comment"][0] != "c1" {
		t.Errorf("info = %+v", info)
	}

	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{}`)) })
	if _, err := empty.NodeInfo(context.Background(), "P", false); !errors.Is(err, integrations.ErrMalformed) {
		t.Errorf("NodeInfo() on empty body error = %v, want ErrMalformed", err)
	}
}

func TestClientSearch(t *testing.T) {
	var gotPath, gotLimit, gotDep string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		gotDep = r.URL.Query().Get("dep")
		w.Write([]byte(`{"label":"pump","results":[{"id":"P","label":"Pump","dep":null},{"id":"Q","label":"Old pump","dep":"2019"}]}`))
	})

	results, err := client.Search(context.Background(), "pump", taxonomy.SearchByLabel, false, 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotPath != "/search/label/pump" || gotLimit != "25" || gotDep != "false" {
		t.Errorf("request = %s limit=%s dep=%s", gotPath, gotLimit, gotDep)
	}
	if len(results) != 2 || results[0].Deprecated() || !results[1].Deprecated() {
		t.Errorf("results = %+v", results)
	}
}

func TestClientSearchInvalid(t *testing.T) {
	client := NewClient("http://127.0.0.1:0")
	tests := []struct {
		name  string
		query string
		mode  taxonomy.SearchMode
	}{
		{"empty query", "", taxonomy.SearchByID},
		{"blank query", "  ", taxonomy.SearchByLabel},
		{"bad mode", "pump", taxonomy.SearchMode("definition")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Search(context.Background(), tt.query, tt.mode, false, 5)
			if !errors.Is(err, integrations.ErrInvalidInput) {
				t.Errorf("Search() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestClientSearchMissingResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x"}`))
	})
	_, err := client.Search(context.Background(), "x", taxonomy.SearchByID, false, 5)
	if !errors.Is(err, integrations.ErrMalformed) {
		t.Errorf("Search() error = %v, want ErrMalformed", err)
	}
}

func TestClientPing(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"pong", `{"status":"success","message":"Pong!"}`, false},
		{"failure", `{"status":"error","message":"db down"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/ping") {
					t.Errorf("path = %q", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			})
			resp, err := client.Ping(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ping() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && resp.Message != "Pong!" {
				t.Errorf("message = %q", resp.Message)
			}
		})
	}
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	if got := NewClient("").BaseURL(); got != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", got, DefaultBaseURL)
	}
}
