package taxonomy

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/matzehuels/taxotree/pkg/buildinfo"
	errs "github.com/matzehuels/taxotree/pkg/errors"
	"github.com/matzehuels/taxotree/pkg/integrations"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// DefaultBaseURL is the address of a locally running taxonomy backend.
const DefaultBaseURL = "http://localhost:8000"

// DefaultSearchLimit is the result limit used when a search passes limit <= 0.
const DefaultSearchLimit = 25

// Client provides access to the taxonomy REST API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

var _ taxonomy.Source = (*Client)(nil)

// NewClient creates a taxonomy client for the backend at baseURL.
// An empty baseURL selects [DefaultBaseURL].
func NewClient(baseURL string, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client: integrations.NewClient(map[string]string{
			"Accept":     "application/json",
			"User-Agent": buildinfo.UserAgent(),
		}, opts...),
		baseURL: baseURL,
	}
}

// BaseURL returns the backend address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Children returns the direct subclasses of id.
//
// Returns:
//   - the decoded list (possibly empty) on success
//   - nil with no error when the backend answers "children": null
//   - [integrations.ErrInvalidInput] for an empty id, before any request
//   - [integrations.ErrNotFound], [integrations.ErrServer] or
//     [integrations.ErrNetwork] for request failures
//   - [integrations.ErrMalformed] when the "children" field is missing
func (c *Client) Children(ctx context.Context, id string, includeDeprecated bool) ([]taxonomy.NodeSummary, error) {
	return c.neighbours(ctx, "children", id, includeDeprecated)
}

// Parents returns the direct superclasses of id. Errors as for [Client.Children].
func (c *Client) Parents(ctx context.Context, id string, includeDeprecated bool) ([]taxonomy.NodeSummary, error) {
	return c.neighbours(ctx, "parents", id, includeDeprecated)
}

func (c *Client) neighbours(ctx context.Context, field, id string, dep bool) ([]taxonomy.NodeSummary, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	u := c.endpoint(depQuery(dep), "node", field, id)

	var list taxonomy.NodeList
	if field == "parents" {
		var body taxonomy.ParentsResponse
		if err := c.Get(ctx, u, &body); err != nil {
			return nil, err
		}
		list = body.Parents
	} else {
		var body taxonomy.ChildrenResponse
		if err := c.Get(ctx, u, &body); err != nil {
			return nil, err
		}
		list = body.Children
	}
	if !list.Present {
		return nil, fmt.Errorf("%w: %s response for %s has no %q field", integrations.ErrMalformed, field, id, field)
	}

	for i, it := range list.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: %s of %s: item %d has no id", integrations.ErrMalformed, field, id, i)
		}
	}
	return list.Items, nil
}

// NodeInfo returns the detail record of id.
func (c *Client) NodeInfo(ctx context.Context, id string, includeDeprecated bool) (*taxonomy.NodeInfo, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var info taxonomy.NodeInfo
	if err := c.Get(ctx, c.endpoint(depQuery(includeDeprecated), "node", "info", id), &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, fmt.Errorf("%w: info for %s has no id", integrations.ErrMalformed, id)
	}
	return &info, nil
}

// SelectedInfo returns the summary of id used to seed a fresh tree,
// optionally with its immediate children and parents.
func (c *Client) SelectedInfo(ctx context.Context, id string) (*taxonomy.SelectedInfo, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var info taxonomy.SelectedInfo
	if err := c.Get(ctx, c.endpoint(nil, "node", "selected-info", id), &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, fmt.Errorf("%w: selected-info for %s has no id", integrations.ErrMalformed, id)
	}
	return &info, nil
}

// Search queries concepts by id or label. A limit <= 0 selects
// [DefaultSearchLimit].
func (c *Client) Search(ctx context.Context, query string, mode taxonomy.SearchMode, includeDeprecated bool, limit int) ([]taxonomy.SearchResult, error) {
	if err := errs.ValidateSearchQuery(query); err != nil {
		return nil, fmt.Errorf("%w: %v", integrations.ErrInvalidInput, err)
	}
	if mode != taxonomy.SearchByID && mode != taxonomy.SearchByLabel {
		return nil, fmt.Errorf("%w: unknown search mode %q", integrations.ErrInvalidInput, mode)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := depQuery(includeDeprecated)
	q.Set("limit", strconv.Itoa(limit))

	var body taxonomy.SearchResponse
	if err := c.Get(ctx, c.endpoint(q, "search", string(mode), query), &body); err != nil {
		return nil, err
	}
	if body.Results == nil {
		return nil, fmt.Errorf("%w: search response has no results", integrations.ErrMalformed)
	}
	return *body.Results, nil
}

// PingResponse is the body of GET /ping.
type PingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Ping checks that the backend is up. A response whose status is not
// "success" is reported as [integrations.ErrServer].
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var resp PingResponse
	if err := c.Get(ctx, c.endpoint(nil, "ping"), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: ping status %q", integrations.ErrServer, resp.Status)
	}
	return &resp, nil
}

func (c *Client) endpoint(q url.Values, segments ...string) string {
	u := integrations.JoinURL(c.baseURL, segments...)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func depQuery(dep bool) url.Values {
	return url.Values{"dep": []string{strconv.FormatBool(dep)}}
}

func validateID(id string) error {
	if err := errs.ValidateNodeID(id); err != nil {
		return fmt.Errorf("%w: %v", integrations.ErrInvalidInput, err)
	}
	return nil
}
