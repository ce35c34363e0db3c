// Package repository offers a thin, type-safe façade on top of the
// lower-level builders in the query package. It follows the
// functional-options pattern so callers can keep code terse while still
// accessing the full power of the search DSL.
//
//	repo := repository.New("orders", conn)
//	rows, err := repo.Search(ctx,
//	    q.Where("status").Is("PENDING").And("warehouse_id").In(45, 46),
//	    repository.Select("order_id", "qty"),
//	    repository.SortAsc("promise_ts"),
//	    repository.Limit(0, 1000),
//	)
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/manojoshi/osorm/driver"
	"github.com/manojoshi/osorm/index"
	"github.com/manojoshi/osorm/internal"
	q "github.com/manojoshi/osorm/query"
	"github.com/manojoshi/osorm/scan"
)

// bulkBatchSize caps how many documents go into a single _bulk request.
const bulkBatchSize = 500

// Repository is bound to one index and the connection it rides on.
type Repository struct {
	index string
	exec  driver.Executor
}

// New constructs a repository bound to an index.
func New(indexName string, exec driver.Executor) *Repository {
	return &Repository{index: indexName, exec: exec}
}

// Index returns the bound index name.
func (r *Repository) Index() string { return r.index }

/*───────────────────────────────────────────────────────────────
|  Administrative helpers                                        |
└───────────────────────────────────────────────────────────────*/

// EnsureIndex – thin wrapper over index.AutoCreate with the bound index
// name injected.
func (r *Repository) EnsureIndex(ctx context.Context, model any, opts ...index.CreateOpt) error {
	opts = append(opts, index.WithName(r.index))
	return index.AutoCreate(ctx, r.exec, model, opts...)
}

// DropIndex deletes the bound index; a missing index is not an error.
func (r *Repository) DropIndex(ctx context.Context) error {
	if err := r.exec.DeleteIndex(ctx, r.index); err != nil &&
		!errors.Is(err, driver.ErrNotFound) {
		return err
	}
	return nil
}

/*───────────────────────────────────────────────────────────────
|  Write path                                                    |
└───────────────────────────────────────────────────────────────*/

// Save indexes one document. An empty id gets a generated UUID; the id
// actually used is returned.
func (r *Repository) Save(ctx context.Context, id string, doc any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("repository: marshal document: %w", err)
	}
	if _, err := r.exec.IndexDoc(ctx, r.index, id, body); err != nil {
		return "", err
	}
	slog.DebugContext(ctx, "document saved", "index", r.index, "id", id)
	return id, nil
}

// Delete removes one document by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.exec.DeleteDoc(ctx, r.index, id)
}

// BulkIndex writes many documents in batched _bulk requests. keyFn maps
// each record to its document id; return "" to let the cluster assign one.
func (r *Repository) BulkIndex(
	ctx context.Context,
	records []any,
	keyFn func(any) string,
) error {

	for _, batch := range internal.Chunk(records, bulkBatchSize) {
		payload, err := bulkPayload(r.index, batch, keyFn)
		if err != nil {
			return err
		}
		raw, err := r.exec.Bulk(ctx, payload)
		if err != nil {
			return err
		}
		if err := scan.BulkError(raw); err != nil {
			return err
		}
		slog.DebugContext(ctx, "bulk batch indexed", "index", r.index, "docs", len(batch))
	}
	return nil
}

// bulkPayload renders NDJSON action/document line pairs.
func bulkPayload(indexName string, records []any, keyFn func(any) string) ([]byte, error) {
	sb := internal.GetBuilder()
	defer internal.PutBuilder(sb)

	for _, rec := range records {
		action := map[string]any{"_index": indexName}
		if keyFn != nil {
			if id := keyFn(rec); id != "" {
				action["_id"] = id
			}
		}
		meta, err := json.Marshal(map[string]any{"index": action})
		if err != nil {
			return nil, fmt.Errorf("repository: marshal bulk action: %w", err)
		}
		doc, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("repository: marshal bulk document: %w", err)
		}
		sb.Write(meta)
		sb.WriteByte('\n')
		sb.Write(doc)
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

/*───────────────────────────────────────────────────────────────
|  Read path                                                     |
└───────────────────────────────────────────────────────────────*/

// Search compiles the criteria and decodes the hits into maps. A nil
// criteria matches all documents.
func (r *Repository) Search(
	ctx context.Context,
	where *q.Criteria,
	opts ...Opt,
) ([]map[string]any, error) {

	sb := r.searchBuilder(where, opts)
	return sb.Run(ctx)
}

// Count returns the exact number of documents matching the criteria.
func (r *Repository) Count(ctx context.Context, where *q.Criteria) (int64, error) {
	sb := r.searchBuilder(where, nil).Limit(0, 0).WithTotal()
	raw, err := sb.RunRaw(ctx)
	if err != nil {
		return 0, err
	}
	return scan.Total(raw)
}

// Aggregate runs a grouped metric aggregation. Caller supplies group
// keys and reducers via options.
func (r *Repository) Aggregate(
	ctx context.Context,
	where *q.Criteria,
	groupBy []q.GroupKey,
	opts ...AggOpt,
) ([]map[string]any, error) {

	ab := q.NewAggregate(r.index).
		Using(r.exec).
		GroupBy(groupBy...)
	if where != nil {
		ab.Where(where)
	}
	for _, o := range opts {
		o(ab)
	}
	return ab.Run(ctx)
}

func (r *Repository) searchBuilder(where *q.Criteria, opts []Opt) *q.SearchBuilder {
	sb := q.NewSearch(r.index).Using(r.exec)
	if where != nil {
		sb.Where(where)
	}
	for _, o := range opts {
		o(sb)
	}
	return sb
}

/*───────────────────────────────────────────────────────────────
|  Generic helpers                                               |
└───────────────────────────────────────────────────────────────*/

// SearchAs decodes matching documents into []T. The document _id is
// assigned into the struct field tagged `osorm:"...,pk"`.
func SearchAs[T any](
	ctx context.Context,
	r *Repository,
	where *q.Criteria,
	opts ...Opt,
) ([]T, error) {

	raw, err := r.searchBuilder(where, opts).RunRaw(ctx)
	if err != nil {
		return nil, err
	}
	return scan.DecodeSlice[T](raw)
}

// Get fetches one document by id into T. Missing documents surface as
// driver.ErrNotFound.
func Get[T any](ctx context.Context, r *Repository, id string) (T, error) {
	var zero T
	raw, err := r.exec.GetDoc(ctx, r.index, id)
	if err != nil {
		return zero, err
	}
	return scan.DecodeGet[T](raw)
}
