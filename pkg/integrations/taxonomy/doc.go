// Package taxonomy provides a REST client for the taxonomy backend.
//
// [Client] implements [taxonomy.Source] on top of the shared
// [integrations.Client]: every method validates its arguments, builds an
// escaped URL, issues one GET and checks that the payload carries the field
// the endpoint promises ("children", "parents", "results", ...). A payload
// whose field is present but null decodes to a nil slice with no error; the
// hierarchy store treats that as "no result" rather than "no neighbours".
//
// [taxonomy.Source]: github.com/matzehuels/taxotree/pkg/taxonomy.Source
package taxonomy
