// Package search runs concept searches for the explorer's search box.
//
// Every failure, and an empty hit list, yields an [Outcome] with no results
// and [NoResultsMessage]; the error itself is only logged.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/taxotree/pkg/errors"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// NoResultsMessage is shown when a search produced nothing.
const NoResultsMessage = "No results found."

// DefaultLimit is the result limit used when a request leaves it unset.
const DefaultLimit = 25

var validate = validator.New()

// Request is one search-box submission.
type Request struct {
	Query             string              `json:"query" validate:"required,max=256"`
	Mode              taxonomy.SearchMode `json:"mode" validate:"omitempty,oneof=id label"`
	Limit             int                 `json:"limit" validate:"gte=0,lte=1000"`
	IncludeDeprecated bool                `json:"dep"`
}

// Outcome is what the search box displays.
type Outcome struct {
	Results      []taxonomy.SearchResult `json:"results"`
	ErrorMessage string                  `json:"errorMessage,omitempty"`
}

// Empty reports whether the outcome carries no hits.
func (o Outcome) Empty() bool { return len(o.Results) == 0 }

// Normalize trims the query and fills in the default mode and limit.
func (r Request) Normalize() Request {
	r.Query = strings.TrimSpace(r.Query)
	if r.Mode == "" {
		r.Mode = taxonomy.SearchByLabel
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	return r
}

// Validate checks the request after normalization.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errs.New(errs.ErrCodeInvalidQuery, "%s: failed %q", fe.Field(), fe.Tag())
		}
		return errs.Wrap(errs.ErrCodeInvalidQuery, err, "invalid search request")
	}
	return nil
}

// Run executes req against src. It never fails: invalid requests, source
// errors and empty hit lists all produce the no-results outcome.
func Run(ctx context.Context, src taxonomy.Source, req Request, logger *log.Logger) Outcome {
	if logger == nil {
		logger = log.Default()
	}
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		logger.Debug("search rejected", "query", req.Query, "err", err)
		return noResults()
	}

	results, err := src.Search(ctx, req.Query, req.Mode, req.IncludeDeprecated, req.Limit)
	if err != nil {
		logger.Warn("search failed", "query", req.Query, "mode", req.Mode, "err", err)
		return noResults()
	}
	if len(results) == 0 {
		return noResults()
	}
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return Outcome{Results: results}
}

func noResults() Outcome {
	return Outcome{Results: []taxonomy.SearchResult{}, ErrorMessage: NoResultsMessage}
}
