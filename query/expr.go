package query

// -------------------------------------------------------------------
// Query – the root interface. Every node knows how to render itself
// into OpenSearch query DSL via Source(). We keep the rendering logic
// in compile.go so nodes stay dumb data containers.
//
// An absent query is a nil Query, never an empty bool node: "no query"
// is a valid result distinct from "match nothing".
// -------------------------------------------------------------------

// Query is a compiled boolean-query value. Source returns the
// JSON-marshalable DSL object understood by the search client.
type Query interface {
	Source() (any, error)
}

// boostable is implemented by every node so a relevance boost can be
// applied uniformly after lowering.
type boostable interface {
	setBoost(float64)
}

// ScoreModeAvg aggregates nested match scores by their average.
const ScoreModeAvg = "avg"

// ------------
// Leaf nodes
// ------------

// NewMatchAllQuery matches every document.
func NewMatchAllQuery() *MatchAllQuery { return &MatchAllQuery{} }

// NewExistsQuery tests that a field has an indexed value.
func NewExistsQuery(field string) *ExistsQuery { return &ExistsQuery{field: field} }

// NewWildcardQuery matches a term-level wildcard pattern.
func NewWildcardQuery(field, value string) *WildcardQuery {
	return &WildcardQuery{field: field, value: value}
}

// NewQueryStringQuery parses the value with the classic query-string syntax.
func NewQueryStringQuery(queryText string) *QueryStringQuery {
	return &QueryStringQuery{queryText: queryText}
}

// NewRangeQuery bounds a field; set edges with Gt/Gte/Lt/Lte.
func NewRangeQuery(field string) *RangeQuery { return &RangeQuery{field: field} }

// NewFuzzyQuery matches terms within edit distance of the value.
func NewFuzzyQuery(field, value string) *FuzzyQuery {
	return &FuzzyQuery{field: field, value: value}
}

// NewMatchQuery is an analyzed full-text match.
func NewMatchQuery(field string, queryText any) *MatchQuery {
	return &MatchQuery{field: field, queryText: queryText}
}

// NewTermsQuery matches documents whose field holds any of the exact values.
func NewTermsQuery(field string, values ...string) *TermsQuery {
	return &TermsQuery{field: field, values: values}
}

// NewRegexpQuery matches a term-level regular expression.
func NewRegexpQuery(field, value string) *RegexpQuery {
	return &RegexpQuery{field: field, value: value}
}

// ------------
// Combinators
// ------------

// NewBoolQuery groups clauses into should (OR), mustNot (NOT) and
// must (AND) lists.
func NewBoolQuery() *BoolQuery { return &BoolQuery{} }

// NewNestedQuery scopes an inner query to sub-documents under path,
// aggregating scores with the average mode.
func NewNestedQuery(path string, inner Query) *NestedQuery {
	return &NestedQuery{path: path, inner: inner, scoreMode: ScoreModeAvg}
}

// -------------------------------------------------------------------
// internal node types
// -------------------------------------------------------------------

type MatchAllQuery struct {
	boost *float64
}

type ExistsQuery struct {
	field string
	boost *float64
}

type WildcardQuery struct {
	field string
	value string
	boost *float64
}

type QueryStringQuery struct {
	queryText       string
	field           string
	defaultOperator string
	analyzeWildcard bool
	boost           *float64
}

// Field restricts the query-string to a single field.
func (q *QueryStringQuery) Field(name string) *QueryStringQuery {
	q.field = name
	return q
}

// DefaultOperator sets how bare tokens combine ("AND" or "OR").
func (q *QueryStringQuery) DefaultOperator(op string) *QueryStringQuery {
	q.defaultOperator = op
	return q
}

// AnalyzeWildcard runs wildcard terms through the analyzer.
func (q *QueryStringQuery) AnalyzeWildcard(v bool) *QueryStringQuery {
	q.analyzeWildcard = v
	return q
}

type RangeQuery struct {
	field            string
	gt, gte, lt, lte any
	boost            *float64
}

func (q *RangeQuery) Gt(v any) *RangeQuery  { q.gt = v; return q }
func (q *RangeQuery) Gte(v any) *RangeQuery { q.gte = v; return q }
func (q *RangeQuery) Lt(v any) *RangeQuery  { q.lt = v; return q }
func (q *RangeQuery) Lte(v any) *RangeQuery { q.lte = v; return q }

type FuzzyQuery struct {
	field string
	value string
	boost *float64
}

type MatchQuery struct {
	field     string
	queryText any
	operator  string
	boost     *float64
}

// Operator sets how analyzed tokens combine ("AND" or "OR").
func (q *MatchQuery) Operator(op string) *MatchQuery {
	q.operator = op
	return q
}

type TermsQuery struct {
	field  string
	values []string
	boost  *float64
}

type RegexpQuery struct {
	field string
	value string
	boost *float64
}

type BoolQuery struct {
	must    []Query
	mustNot []Query
	should  []Query
	boost   *float64
}

// Must appends AND clauses.
func (q *BoolQuery) Must(qs ...Query) *BoolQuery {
	q.must = append(q.must, qs...)
	return q
}

// MustNot appends NOT clauses.
func (q *BoolQuery) MustNot(qs ...Query) *BoolQuery {
	q.mustNot = append(q.mustNot, qs...)
	return q
}

// Should appends OR clauses.
func (q *BoolQuery) Should(qs ...Query) *BoolQuery {
	q.should = append(q.should, qs...)
	return q
}

type NestedQuery struct {
	path      string
	inner     Query
	scoreMode string
	boost     *float64
}

// ScoreMode overrides how sub-document scores are aggregated.
func (q *NestedQuery) ScoreMode(mode string) *NestedQuery {
	q.scoreMode = mode
	return q
}

// ------------
// Boost setters
// ------------

func (q *MatchAllQuery) Boost(b float64) *MatchAllQuery       { q.setBoost(b); return q }
func (q *ExistsQuery) Boost(b float64) *ExistsQuery           { q.setBoost(b); return q }
func (q *WildcardQuery) Boost(b float64) *WildcardQuery       { q.setBoost(b); return q }
func (q *QueryStringQuery) Boost(b float64) *QueryStringQuery { q.setBoost(b); return q }
func (q *RangeQuery) Boost(b float64) *RangeQuery             { q.setBoost(b); return q }
func (q *FuzzyQuery) Boost(b float64) *FuzzyQuery             { q.setBoost(b); return q }
func (q *MatchQuery) Boost(b float64) *MatchQuery             { q.setBoost(b); return q }
func (q *TermsQuery) Boost(b float64) *TermsQuery             { q.setBoost(b); return q }
func (q *RegexpQuery) Boost(b float64) *RegexpQuery           { q.setBoost(b); return q }
func (q *BoolQuery) Boost(b float64) *BoolQuery               { q.setBoost(b); return q }
func (q *NestedQuery) Boost(b float64) *NestedQuery           { q.setBoost(b); return q }

func (q *MatchAllQuery) setBoost(b float64)    { q.boost = &b }
func (q *ExistsQuery) setBoost(b float64)      { q.boost = &b }
func (q *WildcardQuery) setBoost(b float64)    { q.boost = &b }
func (q *QueryStringQuery) setBoost(b float64) { q.boost = &b }
func (q *RangeQuery) setBoost(b float64)       { q.boost = &b }
func (q *FuzzyQuery) setBoost(b float64)       { q.boost = &b }
func (q *MatchQuery) setBoost(b float64)       { q.boost = &b }
func (q *TermsQuery) setBoost(b float64)       { q.boost = &b }
func (q *RegexpQuery) setBoost(b float64)      { q.boost = &b }
func (q *BoolQuery) setBoost(b float64)        { q.boost = &b }
func (q *NestedQuery) setBoost(b float64)      { q.boost = &b }
