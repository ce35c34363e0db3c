package query

// Operator identifies how a single criteria entry is lowered into a query
// fragment. The set is closed; CompileCriteria maps values outside it to no
// fragment at all (an explicit default arm, not an error).
type Operator uint8

const (
	// operators without a value
	OpExists Operator = iota
	OpEmpty
	OpNotEmpty
	// operators with a value
	OpEquals
	OpContains
	OpStartsWith
	OpEndsWith
	OpExpression
	OpLessEqual
	OpGreaterEqual
	OpLess
	OpGreater
	OpBetween
	OpFuzzy
	OpMatches
	OpMatchesAll
	OpIn
	OpNotIn
	OpRegexp
)

var operatorNames = map[Operator]string{
	OpExists:       "EXISTS",
	OpEmpty:        "EMPTY",
	OpNotEmpty:     "NOT_EMPTY",
	OpEquals:       "EQUALS",
	OpContains:     "CONTAINS",
	OpStartsWith:   "STARTS_WITH",
	OpEndsWith:     "ENDS_WITH",
	OpExpression:   "EXPRESSION",
	OpLessEqual:    "LESS_EQUAL",
	OpGreaterEqual: "GREATER_EQUAL",
	OpLess:         "LESS",
	OpGreater:      "GREATER",
	OpBetween:      "BETWEEN",
	OpFuzzy:        "FUZZY",
	OpMatches:      "MATCHES",
	OpMatchesAll:   "MATCHES_ALL",
	OpIn:           "IN",
	OpNotIn:        "NOT_IN",
	OpRegexp:       "REGEXP",
}

func (op Operator) String() string {
	if s, ok := operatorNames[op]; ok {
		return s
	}
	return "UNKNOWN"
}

// Entry is one (operator, value) pair attached to a criteria node. A single
// field criterion may combine several entries, e.g. GreaterThanEqual plus
// LessThanEqual for a range; multiple entries on one field are conjunctive.
type Entry struct {
	Op    Operator
	Value any
}
