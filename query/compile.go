package query

// -------------------------------------------------------------------
// node renderers – kept in a central file so cross-node helpers don't
// spread over the package. Only expr.go's structs know about these.
// Source() never mutates the node, so a finished Query can be rendered
// repeatedly and concurrently.
// -------------------------------------------------------------------

func (q *MatchAllQuery) Source() (any, error) {
	inner := map[string]any{}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"match_all": inner}, nil
}

func (q *ExistsQuery) Source() (any, error) {
	inner := map[string]any{"field": q.field}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"exists": inner}, nil
}

func (q *WildcardQuery) Source() (any, error) {
	inner := map[string]any{"value": q.value}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"wildcard": map[string]any{q.field: inner}}, nil
}

func (q *QueryStringQuery) Source() (any, error) {
	inner := map[string]any{"query": q.queryText}
	if q.field != "" {
		inner["fields"] = []string{q.field}
	}
	if q.defaultOperator != "" {
		inner["default_operator"] = q.defaultOperator
	}
	if q.analyzeWildcard {
		inner["analyze_wildcard"] = true
	}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"query_string": inner}, nil
}

func (q *RangeQuery) Source() (any, error) {
	bounds := map[string]any{}
	if q.gt != nil {
		bounds["gt"] = q.gt
	}
	if q.gte != nil {
		bounds["gte"] = q.gte
	}
	if q.lt != nil {
		bounds["lt"] = q.lt
	}
	if q.lte != nil {
		bounds["lte"] = q.lte
	}
	if q.boost != nil {
		bounds["boost"] = *q.boost
	}
	return map[string]any{"range": map[string]any{q.field: bounds}}, nil
}

func (q *FuzzyQuery) Source() (any, error) {
	inner := map[string]any{"value": q.value}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"fuzzy": map[string]any{q.field: inner}}, nil
}

func (q *MatchQuery) Source() (any, error) {
	inner := map[string]any{"query": q.queryText}
	if q.operator != "" {
		inner["operator"] = q.operator
	}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"match": map[string]any{q.field: inner}}, nil
}

func (q *TermsQuery) Source() (any, error) {
	inner := map[string]any{q.field: q.values}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"terms": inner}, nil
}

func (q *RegexpQuery) Source() (any, error) {
	inner := map[string]any{"value": q.value}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"regexp": map[string]any{q.field: inner}}, nil
}

func (q *BoolQuery) Source() (any, error) {
	inner := map[string]any{}

	for key, clauses := range map[string][]Query{
		"must":     q.must,
		"must_not": q.mustNot,
		"should":   q.should,
	} {
		if len(clauses) == 0 {
			continue
		}
		rendered, err := sources(clauses)
		if err != nil {
			return nil, err
		}
		inner[key] = rendered
	}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"bool": inner}, nil
}

func (q *NestedQuery) Source() (any, error) {
	src, err := q.inner.Source()
	if err != nil {
		return nil, err
	}
	inner := map[string]any{
		"path":       q.path,
		"query":      src,
		"score_mode": q.scoreMode,
	}
	if q.boost != nil {
		inner["boost"] = *q.boost
	}
	return map[string]any{"nested": inner}, nil
}

func sources(qs []Query) ([]any, error) {
	out := make([]any, len(qs))
	for i, q := range qs {
		src, err := q.Source()
		if err != nil {
			return nil, err
		}
		out[i] = src
	}
	return out, nil
}
