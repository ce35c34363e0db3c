package query

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/manojoshi/osorm/driver"
	"github.com/manojoshi/osorm/internal"
	"github.com/manojoshi/osorm/scan"
)

// -------------------------------------------------------------------
// SearchBuilder – fluent builder for _search requests
// -------------------------------------------------------------------

type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

type sortSpec struct {
	field string
	dir   Dir
}

type SearchBuilder struct {
	idx          string
	criteria     *Criteria
	raw          Query
	returnFields []string
	sorts        []sortSpec
	from, size   int
	withTotal    bool
	minScore     *float64
	executor     driver.Executor
}

// NewSearch starts a builder. Executor must be provided before Run.
func NewSearch(index string) *SearchBuilder {
	return &SearchBuilder{idx: index, size: 10_000}
}

// Where sets the criteria compiled into the request's query clause.
func (b *SearchBuilder) Where(c *Criteria) *SearchBuilder { b.criteria = c; return b }

// WhereQuery sets a prebuilt query node, bypassing criteria compilation.
func (b *SearchBuilder) WhereQuery(q Query) *SearchBuilder { b.raw = q; return b }

// Select limits _source to the given fields.
func (b *SearchBuilder) Select(fs ...string) *SearchBuilder {
	b.returnFields = append([]string{}, fs...)
	return b
}

// SortBy appends a sort key.
func (b *SearchBuilder) SortBy(f string, d Dir) *SearchBuilder {
	b.sorts = append(b.sorts, sortSpec{field: f, dir: d})
	return b
}

// Limit sets the result window.
func (b *SearchBuilder) Limit(from, size int) *SearchBuilder {
	b.from, b.size = from, size
	return b
}

// WithTotal asks the cluster for an exact hit total.
func (b *SearchBuilder) WithTotal() *SearchBuilder { b.withTotal = true; return b }

// MinScore drops hits scoring below the threshold.
func (b *SearchBuilder) MinScore(s float64) *SearchBuilder { b.minScore = &s; return b }

func (b *SearchBuilder) Using(ex driver.Executor) *SearchBuilder {
	b.executor = ex
	return b
}

// Body gives you the complete request body for logging / explain use.
func (b *SearchBuilder) Body() ([]byte, error) {
	q := b.raw
	if q == nil && b.criteria != nil {
		compiled, err := CompileCriteria(b.criteria)
		if err != nil {
			return nil, err
		}
		q = compiled
	}
	if q == nil {
		q = NewMatchAllQuery()
	}

	src, err := q.Source()
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"from":  b.from,
		"size":  b.size,
		"query": src,
	}
	if len(b.returnFields) > 0 {
		body["_source"] = internal.Unique(b.returnFields)
	}
	if len(b.sorts) > 0 {
		sorts := make([]any, len(b.sorts))
		for i, s := range b.sorts {
			sorts[i] = map[string]any{s.field: map[string]any{"order": string(s.dir)}}
		}
		body["sort"] = sorts
	}
	if b.withTotal {
		body["track_total_hits"] = true
	}
	if b.minScore != nil {
		body["min_score"] = *b.minScore
	}
	return json.Marshal(body)
}

// Run executes the search and decodes the hits into maps.
func (b *SearchBuilder) Run(ctx context.Context) ([]map[string]any, error) {
	raw, err := b.RunRaw(ctx)
	if err != nil {
		return nil, err
	}
	return scan.DecodeMaps(raw)
}

// RunRaw executes the search and returns the raw response body.
func (b *SearchBuilder) RunRaw(ctx context.Context) ([]byte, error) {
	if b.executor == nil {
		return nil, errors.New("query: executor not set (call Using())")
	}
	body, err := b.Body()
	if err != nil {
		return nil, err
	}
	return b.executor.Search(ctx, b.idx, body)
}
