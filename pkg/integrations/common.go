package integrations

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/matzehuels/taxotree/pkg/errors"
)

const (
	httpTimeout = 10 * time.Second

	// DefaultRateLimit is the default request budget in requests per second.
	DefaultRateLimit = 10
)

// Sentinel errors returned (wrapped) by [Client]. Each one carries a
// [errs.Code], so both errors.Is(err, ErrNotFound) and errs.GetCode(err)
// work on anything the client returns.
var (
	// ErrInvalidInput is returned before any request when an argument
	// cannot be placed into a URL.
	ErrInvalidInput = errs.New(errs.ErrCodeInvalidInput, "invalid input")

	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errs.New(errs.ErrCodeNotFound, "resource not found")

	// ErrNetwork is returned for transport failures (connection errors, timeouts).
	ErrNetwork = errs.New(errs.ErrCodeNetwork, "network error")

	// ErrServer is returned for any other non-success status.
	ErrServer = errs.New(errs.ErrCodeServer, "unexpected server status")

	// ErrMalformed is returned when a body is not valid JSON or lacks the
	// expected field.
	ErrMalformed = errs.New(errs.ErrCodeMalformed, "malformed response")
)

// NewHTTPClient creates an HTTP client with the standard backend timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// PathEscape percent-encodes a single path segment. Concept ids are URIs,
// so slashes inside them are encoded rather than treated as separators.
func PathEscape(s string) string { return url.PathEscape(s) }

// JoinURL joins a base URL and path segments, escaping every segment.
// Trailing slashes on base are dropped.
func JoinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(PathEscape(s))
	}
	return b.String()
}
