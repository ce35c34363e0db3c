// Package query provides a criteria model and helpers for building type-safe,
// composable OpenSearch queries.
//
//	import q "github.com/manojoshi/osorm/query"
//
//	where := q.Where("status").Is("PENDING").
//	    And("qty").GreaterThanEqual(2).
//	    Or("warehouse_id").In(12, 15, 18)
//
//	node, err := q.CompileCriteria(where)
package query

import (
	"math"
)

// FieldType tells the compiler how a field is indexed. Keyword fields are
// matched exactly, text fields go through the analyzer.
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeKeyword FieldType = "keyword"
)

// Field carries the metadata the compiler reads per target attribute: the
// mapped name, an optional dot-path when the field lives under a nested
// object, and the index type.
type Field struct {
	Name string
	Path string
	Type FieldType
}

// Criteria is a chain of predicate nodes combined left-to-right with
// AND/OR/NOT connectives, mirroring the fluent style of the SearchBuilder.
// Each node targets one field and holds one or more (operator, value)
// entries; parenthesized groups are attached as sub-criteria.
//
// A Criteria is built once by the caller and treated as read-only by
// CompileCriteria, so sharing a finished value between goroutines is safe.
type Criteria struct {
	chain    []*Criteria // all siblings in build order, receiver last
	sub      []*Criteria
	field    *Field
	entries  []Entry
	or       bool
	negating bool
	boost    float32 // NaN means "unset"
}

// boostUnset is the sentinel for an absent boost.
var boostUnset = float32(math.NaN())

func newNode(f *Field) *Criteria {
	c := &Criteria{field: f, boost: boostUnset}
	c.chain = []*Criteria{c}
	return c
}

// New returns an empty Criteria, useful as a bare parent for sub-criteria
// groups. An empty node contributes nothing when compiled.
func New() *Criteria { return newNode(nil) }

// Where starts a criteria chain on the named field.
func Where(name string) *Criteria { return WhereField(Field{Name: name}) }

// WhereField starts a criteria chain on a field with full metadata
// (nested path, keyword type). Use index.FieldsOf to resolve metadata
// from a mapped model.
func WhereField(f Field) *Criteria { return newNode(&f) }

// Group returns a fieldless node holding the given criteria as sub-groups
// combined conjunctively with its siblings.
func Group(groups ...*Criteria) *Criteria {
	return New().AndGroup(groups...)
}

// OrGroup is Group with OR semantics: each sub-group becomes an alternative.
func OrGroup(groups ...*Criteria) *Criteria {
	c := New().AndGroup(groups...)
	c.or = true
	return c
}

// And appends a new conjunctive sibling on the named field and returns it.
// The returned node carries the whole chain; compile the last node returned
// by the fluent expression.
func (c *Criteria) And(name string) *Criteria { return c.AndField(Field{Name: name}) }

// AndField is And with full field metadata.
func (c *Criteria) AndField(f Field) *Criteria { return c.link(&f, false) }

// Or appends a new sibling combined disjunctively with the chain so far.
func (c *Criteria) Or(name string) *Criteria { return c.OrField(Field{Name: name}) }

// OrField is Or with full field metadata.
func (c *Criteria) OrField(f Field) *Criteria { return c.link(&f, true) }

func (c *Criteria) link(f *Field, or bool) *Criteria {
	n := &Criteria{field: f, or: or, boost: boostUnset}
	n.chain = append(append(make([]*Criteria, 0, len(c.chain)+1), c.chain...), n)
	return n
}

// Not marks the current node as negated. NOT is a modifier on the
// connective: a node can be OR and NOT at the same time.
func (c *Criteria) Not() *Criteria {
	c.negating = true
	return c
}

// AndGroup attaches parenthesized sub-criteria to the current node. During
// compilation sub-groups are routed by this node's own connective, not by
// anything inside the group.
func (c *Criteria) AndGroup(groups ...*Criteria) *Criteria {
	c.sub = append(c.sub, groups...)
	return c
}

// Boost sets the relevance multiplier for this node's fragment.
func (c *Criteria) Boost(b float32) *Criteria {
	c.boost = b
	return c
}

// ---------- operator entries ----------

func (c *Criteria) add(op Operator, v any) *Criteria {
	c.entries = append(c.entries, Entry{Op: op, Value: v})
	return c
}

// Is adds an EQUALS entry: all tokens of the value must match.
func (c *Criteria) Is(v any) *Criteria { return c.add(OpEquals, v) }

// Contains adds a wildcard *value* match.
func (c *Criteria) Contains(v any) *Criteria { return c.add(OpContains, v) }

// StartsWith adds a value* prefix match.
func (c *Criteria) StartsWith(v any) *Criteria { return c.add(OpStartsWith, v) }

// EndsWith adds a *value suffix match.
func (c *Criteria) EndsWith(v any) *Criteria { return c.add(OpEndsWith, v) }

// Expression adds a raw query-string expression. The value is passed through
// verbatim, no escaping.
func (c *Criteria) Expression(v any) *Criteria { return c.add(OpExpression, v) }

// Between adds a two-sided inclusive range.
func (c *Criteria) Between(lower, upper any) *Criteria {
	return c.add(OpBetween, []any{lower, upper})
}

// LessThan adds an exclusive upper bound.
func (c *Criteria) LessThan(v any) *Criteria { return c.add(OpLess, v) }

// LessThanEqual adds an inclusive upper bound.
func (c *Criteria) LessThanEqual(v any) *Criteria { return c.add(OpLessEqual, v) }

// GreaterThan adds an exclusive lower bound.
func (c *Criteria) GreaterThan(v any) *Criteria { return c.add(OpGreater, v) }

// GreaterThanEqual adds an inclusive lower bound.
func (c *Criteria) GreaterThanEqual(v any) *Criteria { return c.add(OpGreaterEqual, v) }

// In adds a set-inclusion entry. On keyword fields this lowers to a terms
// query, on text fields to an OR of quoted terms.
func (c *Criteria) In(vs ...any) *Criteria { return c.add(OpIn, vs) }

// NotIn mirrors In wrapped in negation.
func (c *Criteria) NotIn(vs ...any) *Criteria { return c.add(OpNotIn, vs) }

// Fuzzy adds a fuzzy match on the escaped value.
func (c *Criteria) Fuzzy(v any) *Criteria { return c.add(OpFuzzy, v) }

// Matches adds a tokenized match, tokens combined with OR.
func (c *Criteria) Matches(v any) *Criteria { return c.add(OpMatches, v) }

// MatchesAll adds a tokenized match, tokens combined with AND.
func (c *Criteria) MatchesAll(v any) *Criteria { return c.add(OpMatchesAll, v) }

// Exists adds a field-existence test.
func (c *Criteria) Exists() *Criteria { return c.add(OpExists, nil) }

// Empty matches documents where the field exists but has no content.
func (c *Criteria) Empty() *Criteria { return c.add(OpEmpty, nil) }

// NotEmpty matches documents where the field has any content.
func (c *Criteria) NotEmpty() *Criteria { return c.add(OpNotEmpty, nil) }

// Regexp adds a regular-expression match. The value is passed through
// verbatim, no escaping.
func (c *Criteria) Regexp(v any) *Criteria { return c.add(OpRegexp, v) }
