// Package integrations provides the shared HTTP client used to talk to the
// taxonomy backend.
//
// # Overview
//
// [Client] wraps net/http with the conventions every backend call follows:
//
//   - a token-bucket rate limit ([DefaultRateLimit] requests per second)
//   - default headers merged with per-request headers
//   - status mapping: 200 succeeds, 404 is [ErrNotFound], any other status
//     is [ErrServer], transport failures are [ErrNetwork] and undecodable
//     bodies are [ErrMalformed]
//   - observability hooks for every request and response
//
// There are no retries and no response cache. Taxonomy data is always read
// live; a failed request surfaces once and the caller turns it into a no-op.
//
// # Subpackages
//
//   - [taxonomy]: REST client implementing the explorer's node source
//
// [taxonomy]: github.com/matzehuels/taxotree/pkg/integrations/taxonomy
package integrations
