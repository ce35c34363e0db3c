package query

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/manojoshi/osorm/driver"
	"github.com/manojoshi/osorm/scan"
)

// -------------------------------------------------------------------
// AggregateBuilder – fluent builder for grouped metric aggregations.
// Group keys become the sources of one composite aggregation, reducers
// become metric sub-aggregations per bucket.
// -------------------------------------------------------------------

// GroupKey names one grouping dimension of an aggregation.
type GroupKey struct {
	field string
	alias string
}

// By groups on a field.
func By(field string) GroupKey { return GroupKey{field: field, alias: field} }

// As renames the key in the result rows.
func (g GroupKey) As(alias string) GroupKey { g.alias = alias; return g }

type reducer struct{ fn, field, alias string }

const compositeAggName = "group"

type AggregateBuilder struct {
	idx      string
	criteria *Criteria
	groups   []GroupKey
	reducers []reducer
	size     int
	executor driver.Executor
}

func NewAggregate(index string) *AggregateBuilder {
	return &AggregateBuilder{idx: index, size: 10_000}
}

func (b *AggregateBuilder) Where(c *Criteria) *AggregateBuilder { b.criteria = c; return b }

func (b *AggregateBuilder) GroupBy(keys ...GroupKey) *AggregateBuilder {
	b.groups = keys
	return b
}

// Reduce adds a metric over each bucket: "count", "sum", "avg", "min"
// or "max". The count reducer reads the bucket document count and needs
// no field.
func (b *AggregateBuilder) Reduce(fn, field, as string) *AggregateBuilder {
	b.reducers = append(b.reducers, reducer{strings.ToLower(fn), field, as})
	return b
}

// Size caps the number of buckets returned.
func (b *AggregateBuilder) Size(n int) *AggregateBuilder { b.size = n; return b }

func (b *AggregateBuilder) Using(ex driver.Executor) *AggregateBuilder {
	b.executor = ex
	return b
}

// Body gives you the complete request body for logging / explain use.
func (b *AggregateBuilder) Body() ([]byte, error) {
	if len(b.groups) == 0 {
		return nil, errors.New("query: aggregate needs at least one group key")
	}

	var q Query
	if b.criteria != nil {
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

	sources := make([]any, len(b.groups))
	for i, g := range b.groups {
		sources[i] = map[string]any{
			g.alias: map[string]any{"terms": map[string]any{"field": g.field}},
		}
	}

	metrics := map[string]any{}
	for _, r := range b.reducers {
		if r.fn == "count" {
			// bucket doc_count, resolved at decode time
			continue
		}
		metrics[r.alias] = map[string]any{r.fn: map[string]any{"field": r.field}}
	}

	composite := map[string]any{
		"composite": map[string]any{"size": b.size, "sources": sources},
	}
	if len(metrics) > 0 {
		composite["aggs"] = metrics
	}

	body := map[string]any{
		"size":  0,
		"query": src,
		"aggs":  map[string]any{compositeAggName: composite},
	}
	return json.Marshal(body)
}

// Run executes the aggregation and flattens each bucket into one row:
// group keys under their aliases, metric values and count reducers
// under theirs.
func (b *AggregateBuilder) Run(ctx context.Context) ([]map[string]any, error) {
	if b.executor == nil {
		return nil, errors.New("query: executor not set (call Using())")
	}
	body, err := b.Body()
	if err != nil {
		return nil, err
	}
	raw, err := b.executor.Search(ctx, b.idx, body)
	if err != nil {
		return nil, err
	}

	buckets, err := scan.DecodeComposite(raw, compositeAggName)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, len(buckets))
	for i, bucket := range buckets {
		row := make(map[string]any, len(bucket.Key)+len(b.reducers))
		for k, v := range bucket.Key {
			row[k] = v
		}
		for _, r := range b.reducers {
			if r.fn == "count" {
				row[r.alias] = bucket.DocCount
				continue
			}
			row[r.alias] = bucket.Metrics[r.alias]
		}
		rows[i] = row
	}
	return rows, nil
}
