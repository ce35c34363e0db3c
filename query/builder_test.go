package query_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	q "github.com/manojoshi/osorm/query"
)

// fakeExecutor records the last search call and replies with a canned
// body. Only Search is exercised by the builders.
type fakeExecutor struct {
	lastIndex string
	lastBody  []byte
	response  []byte
	err       error
}

func (f *fakeExecutor) Search(_ context.Context, index string, body []byte) ([]byte, error) {
	f.lastIndex = index
	f.lastBody = body
	return f.response, f.err
}

func (f *fakeExecutor) IndexDoc(context.Context, string, string, []byte) ([]byte, error) {
	return nil, nil
}
func (f *fakeExecutor) GetDoc(context.Context, string, string) ([]byte, error) { return nil, nil }
func (f *fakeExecutor) DeleteDoc(context.Context, string, string) error        { return nil }
func (f *fakeExecutor) Bulk(context.Context, []byte) ([]byte, error)           { return nil, nil }
func (f *fakeExecutor) CreateIndex(context.Context, string, []byte) error      { return nil }
func (f *fakeExecutor) IndexExists(context.Context, string) (bool, error)      { return false, nil }
func (f *fakeExecutor) DeleteIndex(context.Context, string) error              { return nil }

func decodeBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestSearchBuilderBodyDefaults(t *testing.T) {
	t.Parallel()

	raw, err := q.NewSearch("orders").Body()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"from":  float64(0),
		"size":  float64(10000),
		"query": map[string]any{"match_all": map[string]any{}},
	}, decodeBody(t, raw))
}

func TestSearchBuilderBodyFull(t *testing.T) {
	t.Parallel()

	raw, err := q.NewSearch("orders").
		Where(q.Where("status").Is("PENDING")).
		Select("order_id", "qty", "order_id").
		SortBy("promise_ts", q.Asc).
		SortBy("qty", q.Desc).
		Limit(20, 50).
		WithTotal().
		MinScore(0.5).
		Body()
	require.NoError(t, err)

	body := decodeBody(t, raw)
	assert.Equal(t, float64(20), body["from"])
	assert.Equal(t, float64(50), body["size"])
	assert.Equal(t, true, body["track_total_hits"])
	assert.Equal(t, 0.5, body["min_score"])
	// duplicate select fields are dropped, order preserved
	assert.Equal(t, []any{"order_id", "qty"}, body["_source"])
	assert.Equal(t, []any{
		map[string]any{"promise_ts": map[string]any{"order": "asc"}},
		map[string]any{"qty": map[string]any{"order": "desc"}},
	}, body["sort"])

	assert.Equal(t, map[string]any{
		"bool": map[string]any{
			"must": []any{
				map[string]any{"query_string": map[string]any{
					"query":            "PENDING",
					"fields":           []any{"status"},
					"default_operator": "AND",
				}},
			},
		},
	}, body["query"])
}

func TestSearchBuilderBodyRawQuery(t *testing.T) {
	t.Parallel()

	raw, err := q.NewSearch("orders").
		WhereQuery(q.NewTermsQuery("status", "A", "B")).
		Body()
	require.NoError(t, err)

	body := decodeBody(t, raw)
	assert.Equal(t, map[string]any{
		"terms": map[string]any{"status": []any{"A", "B"}},
	}, body["query"])
}

func TestSearchBuilderBodyCompileError(t *testing.T) {
	t.Parallel()

	_, err := q.NewSearch("orders").
		Where(q.Where("status").Is(nil)).
		Body()
	require.Error(t, err)
	assert.ErrorIs(t, err, q.ErrInvalidArgument)
}

func TestSearchBuilderRun(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{response: []byte(`{
		"hits": {
			"total": {"value": 2},
			"hits": [
				{"_id": "101", "_score": 1.0, "_source": {"status": "PENDING", "qty": 2}},
				{"_id": "102", "_score": 0.5, "_source": {"status": "PENDING", "qty": 1}}
			]
		}
	}`)}

	rows, err := q.NewSearch("orders").
		Where(q.Where("status").Is("PENDING")).
		Using(exec).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "orders", exec.lastIndex)
	assert.NotEmpty(t, exec.lastBody)
	require.Len(t, rows, 2)
	assert.Equal(t, "PENDING", rows[0]["status"])
	assert.Equal(t, float64(2), rows[0]["qty"])
}

func TestSearchBuilderRunWithoutExecutor(t *testing.T) {
	t.Parallel()

	_, err := q.NewSearch("orders").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executor not set")
}
