package query

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/manojoshi/osorm/internal"
)

// ErrInvalidArgument is wrapped by every precondition failure of the
// criteria compiler: nil criteria, a missing value for an operator that
// needs one, or a malformed Between/In value. Check with errors.Is.
var ErrInvalidArgument = errors.New("query: invalid argument")

// CompileCriteria folds a criteria chain into a boolean query tree.
//
// Sibling fragments are bucketed by their own connective: OR goes to
// should, NOT to must_not, plain AND to must. When a sibling carries
// both OR and NOT, OR wins; this matches the behavior callers already
// depend on and is asserted by a regression test. The first non-absent
// fragment is held back and placed only after the walk: it joins should
// when every other fragment is a disjunction, else must_not when the
// first sibling was negated, else must. Sub-criteria groups compile
// independently and are routed by the receiver's own connective.
//
// A criteria tree that contributes no fragments at all compiles to a
// nil Query, which is a valid "no query" result, not an error.
func CompileCriteria(c *Criteria) (Query, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: criteria must not be nil", ErrInvalidArgument)
	}

	var cl clauses
	var first Query
	negateFirst := false

	for _, node := range c.chain {
		fragment, err := queryForEntries(node)
		if err != nil {
			return nil, err
		}
		if fragment == nil {
			continue
		}
		if first == nil {
			first = fragment
			negateFirst = node.negating
			continue
		}
		cl = cl.bucket(fragment, node.or, node.negating)
	}

	for _, sub := range c.sub {
		subQuery, err := CompileCriteria(sub)
		if err != nil {
			return nil, err
		}
		if subQuery == nil {
			continue
		}
		cl = cl.bucket(subQuery, c.or, c.negating)
	}

	cl = cl.placeFirst(first, negateFirst)

	if cl.empty() {
		return nil, nil
	}
	return NewBoolQuery().
		Should(cl.should...).
		MustNot(cl.mustNot...).
		Must(cl.must...), nil
}

// clauses accumulates the three clause lists during the fold. Methods
// return a new value so each step of the fold stays inspectable.
type clauses struct {
	should  []Query
	mustNot []Query
	must    []Query
}

// bucket routes one fragment by its connective flags. OR takes
// precedence over NOT when both are set.
func (cl clauses) bucket(q Query, or, negating bool) clauses {
	switch {
	case or:
		cl.should = append(cl.should, q)
	case negating:
		cl.mustNot = append(cl.mustNot, q)
	default:
		cl.must = append(cl.must, q)
	}
	return cl
}

// placeFirst disposes of the held-back first fragment. It joins the
// disjunction only when should is the sole populated list, so a lone
// leading predicate is not forced into an artificial conjunction with
// later alternatives.
func (cl clauses) placeFirst(first Query, negate bool) clauses {
	if first == nil {
		return cl
	}
	switch {
	case len(cl.should) > 0 && len(cl.mustNot) == 0 && len(cl.must) == 0:
		cl.should = append([]Query{first}, cl.should...)
	case negate:
		cl.mustNot = append([]Query{first}, cl.mustNot...)
	default:
		cl.must = append([]Query{first}, cl.must...)
	}
	return cl
}

func (cl clauses) empty() bool {
	return len(cl.should) == 0 && len(cl.mustNot) == 0 && len(cl.must) == 0
}

// queryForEntries lowers one node's own entries into a fragment.
// Nodes without a field or without entries contribute nothing.
func queryForEntries(c *Criteria) (Query, error) {
	if c.field == nil || len(c.entries) == 0 {
		return nil, nil
	}
	if c.field.Name == "" {
		return nil, fmt.Errorf("%w: criteria field has no name", ErrInvalidArgument)
	}

	var q Query
	if len(c.entries) == 1 {
		single, err := queryFor(c.entries[0], *c.field)
		if err != nil {
			return nil, err
		}
		q = single
	} else {
		// multiple operators on one field are conjunctive
		bq := NewBoolQuery()
		matched := false
		for _, entry := range c.entries {
			eq, err := queryFor(entry, *c.field)
			if err != nil {
				return nil, err
			}
			if eq != nil {
				bq.Must(eq)
				matched = true
			}
		}
		if matched {
			q = bq
		}
	}
	if q == nil {
		return nil, nil
	}

	applyBoost(q, c.boost)

	if c.field.Path != "" {
		q = NewNestedQuery(c.field.Path, q)
	}
	return q, nil
}

// queryFor lowers a single (operator, value) entry. Unrecognized
// operators fall through the default arm and produce no fragment.
func queryFor(e Entry, f Field) (Query, error) {
	fieldName := f.Name
	isKeywordField := f.Type == FieldTypeKeyword

	// operators without a value
	switch e.Op {
	case OpExists:
		return NewExistsQuery(fieldName), nil
	case OpEmpty:
		return NewBoolQuery().
			Must(NewExistsQuery(fieldName)).
			MustNot(NewWildcardQuery(fieldName, "*")), nil
	case OpNotEmpty:
		return NewWildcardQuery(fieldName, "*"), nil
	}

	if e.Value == nil {
		return nil, fmt.Errorf("%w: operator %s on field %q requires a value",
			ErrInvalidArgument, e.Op, fieldName)
	}

	searchText := Escape(valueString(e.Value))

	switch e.Op {
	case OpEquals:
		return NewQueryStringQuery(searchText).Field(fieldName).DefaultOperator("AND"), nil
	case OpContains:
		return NewQueryStringQuery("*" + searchText + "*").Field(fieldName).AnalyzeWildcard(true), nil
	case OpStartsWith:
		return NewQueryStringQuery(searchText + "*").Field(fieldName).AnalyzeWildcard(true), nil
	case OpEndsWith:
		return NewQueryStringQuery("*" + searchText).Field(fieldName).AnalyzeWildcard(true), nil
	case OpExpression:
		return NewQueryStringQuery(valueString(e.Value)).Field(fieldName), nil
	case OpLessEqual:
		return NewRangeQuery(fieldName).Lte(e.Value), nil
	case OpGreaterEqual:
		return NewRangeQuery(fieldName).Gte(e.Value), nil
	case OpLess:
		return NewRangeQuery(fieldName).Lt(e.Value), nil
	case OpGreater:
		return NewRangeQuery(fieldName).Gt(e.Value), nil
	case OpBetween:
		bounds, err := sliceValues(e.Value)
		if err != nil || len(bounds) != 2 {
			return nil, fmt.Errorf("%w: BETWEEN on field %q needs a two-element pair",
				ErrInvalidArgument, fieldName)
		}
		if bounds[0] == nil && bounds[1] == nil {
			return nil, fmt.Errorf("%w: BETWEEN on field %q needs at least one bound",
				ErrInvalidArgument, fieldName)
		}
		return NewRangeQuery(fieldName).Gte(bounds[0]).Lte(bounds[1]), nil
	case OpFuzzy:
		return NewFuzzyQuery(fieldName, searchText), nil
	case OpMatches:
		return NewMatchQuery(fieldName, e.Value).Operator("OR"), nil
	case OpMatchesAll:
		return NewMatchQuery(fieldName, e.Value).Operator("AND"), nil
	case OpIn:
		values, err := sliceValues(e.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: IN on field %q requires an iterable value",
				ErrInvalidArgument, fieldName)
		}
		if isKeywordField {
			return NewBoolQuery().Must(NewTermsQuery(fieldName, toStrings(values)...)), nil
		}
		return NewQueryStringQuery(orQueryString(values)).Field(fieldName), nil
	case OpNotIn:
		values, err := sliceValues(e.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: NOT_IN on field %q requires an iterable value",
				ErrInvalidArgument, fieldName)
		}
		if isKeywordField {
			return NewBoolQuery().MustNot(NewTermsQuery(fieldName, toStrings(values)...)), nil
		}
		return NewQueryStringQuery("NOT(" + orQueryString(values) + ")").Field(fieldName), nil
	case OpRegexp:
		return NewRegexpQuery(fieldName, valueString(e.Value)), nil
	default:
		// unrecognized operators contribute no fragment
		return nil, nil
	}
}

func applyBoost(q Query, boost float32) {
	if q == nil || math.IsNaN(float64(boost)) {
		return
	}
	if b, ok := q.(boostable); ok {
		b.setBoost(float64(boost))
	}
}

func toStrings(values []any) []string {
	return internal.Map(values, valueString)
}

// orQueryString joins the escaped, quoted string forms of the values
// with spaces; the query-string parser's default OR operator turns the
// sequence into a disjunction. Nil elements are skipped.
func orQueryString(values []any) string {
	sb := internal.GetBuilder()
	defer internal.PutBuilder(sb)

	for _, v := range internal.Filter(values, func(v any) bool { return v != nil }) {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('"')
		sb.WriteString(Escape(valueString(v)))
		sb.WriteByte('"')
	}
	return sb.String()
}

// sliceValues flattens any slice or array value into []any. Strings do
// not count as iterables here.
func sliceValues(v any) ([]any, error) {
	if vs, ok := v.([]any); ok {
		return vs, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: value of type %T is not iterable", ErrInvalidArgument, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// valueString converts a value to its query-string form without reflection
// on the common paths.
func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
