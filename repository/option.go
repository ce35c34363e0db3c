package repository

import q "github.com/manojoshi/osorm/query"

// Opt tweaks the search builder a Repository read assembles. Options
// just forward to the fluent setters of the query package.
type Opt func(*q.SearchBuilder)

// AggOpt tweaks an aggregation builder.
type AggOpt func(*q.AggregateBuilder)

// ---------- search helpers ----------

// Select applies a list of fields to return in _source.
func Select(fields ...string) Opt {
	return func(b *q.SearchBuilder) { b.Select(fields...) }
}

// Limit applies a result window.
func Limit(from, size int) Opt {
	return func(b *q.SearchBuilder) { b.Limit(from, size) }
}

// SortAsc sorts ascending by field.
func SortAsc(field string) Opt { return sortOpt(field, q.Asc) }

// SortDesc sorts descending by field.
func SortDesc(field string) Opt { return sortOpt(field, q.Desc) }

func sortOpt(f string, dir q.Dir) Opt {
	return func(b *q.SearchBuilder) { b.SortBy(f, dir) }
}

// WithTotal requests an exact hit total.
func WithTotal() Opt {
	return func(b *q.SearchBuilder) { b.WithTotal() }
}

// MinScore drops hits below the score threshold.
func MinScore(s float64) Opt {
	return func(b *q.SearchBuilder) { b.MinScore(s) }
}

// ---------- aggregate helpers ----------

// Count adds a bucket document count under alias.
func Count(alias string) AggOpt {
	return func(b *q.AggregateBuilder) { b.Reduce("count", "", alias) }
}

// Sum adds a sum metric over field.
func Sum(field, alias string) AggOpt {
	return func(b *q.AggregateBuilder) { b.Reduce("sum", field, alias) }
}

// Avg adds an average metric over field.
func Avg(field, alias string) AggOpt {
	return func(b *q.AggregateBuilder) { b.Reduce("avg", field, alias) }
}

// BucketSize caps the number of buckets returned.
func BucketSize(n int) AggOpt {
	return func(b *q.AggregateBuilder) { b.Size(n) }
}
