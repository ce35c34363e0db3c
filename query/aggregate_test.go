package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	q "github.com/manojoshi/osorm/query"
)

func TestAggregateBuilderBody(t *testing.T) {
	t.Parallel()

	raw, err := q.NewAggregate("orders").
		Where(q.Where("status").Is("PENDING")).
		GroupBy(q.By("warehouse_id"), q.By("status").As("state")).
		Reduce("sum", "qty", "total_qty").
		Reduce("count", "", "orders").
		Size(100).
		Body()
	require.NoError(t, err)

	body := decodeBody(t, raw)
	assert.Equal(t, float64(0), body["size"])
	require.Contains(t, body, "query")

	aggs := body["aggs"].(map[string]any)["group"].(map[string]any)
	composite := aggs["composite"].(map[string]any)
	assert.Equal(t, float64(100), composite["size"])
	assert.Equal(t, []any{
		map[string]any{"warehouse_id": map[string]any{"terms": map[string]any{"field": "warehouse_id"}}},
		map[string]any{"state": map[string]any{"terms": map[string]any{"field": "status"}}},
	}, composite["sources"])

	// count reducers read doc_count, only metric reducers render aggs
	assert.Equal(t, map[string]any{
		"total_qty": map[string]any{"sum": map[string]any{"field": "qty"}},
	}, aggs["aggs"])
}

func TestAggregateBuilderBodyRequiresGroupKeys(t *testing.T) {
	t.Parallel()

	_, err := q.NewAggregate("orders").Body()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group key")
}

func TestAggregateBuilderRun(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{response: []byte(`{
		"hits": {"total": {"value": 3}, "hits": []},
		"aggregations": {
			"group": {
				"buckets": [
					{"key": {"warehouse_id": 1}, "doc_count": 2, "total_qty": {"value": 3}},
					{"key": {"warehouse_id": 2}, "doc_count": 1, "total_qty": {"value": 1}}
				]
			}
		}
	}`)}

	rows, err := q.NewAggregate("orders").
		GroupBy(q.By("warehouse_id")).
		Reduce("sum", "qty", "total_qty").
		Reduce("count", "", "orders").
		Using(exec).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "orders", exec.lastIndex)
	require.Len(t, rows, 2)
	assert.Equal(t, float64(1), rows[0]["warehouse_id"])
	assert.Equal(t, int64(2), rows[0]["orders"])
	assert.Equal(t, float64(3), rows[0]["total_qty"])
}

func TestAggregateBuilderRunWithoutExecutor(t *testing.T) {
	t.Parallel()

	_, err := q.NewAggregate("orders").GroupBy(q.By("x")).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executor not set")
}
