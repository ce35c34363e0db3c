// driver/opensearch.go
//
// Thin shim over github.com/opensearch-project/opensearch-go/v2 that
// satisfies the osorm Executor interface and adds connection bootstrap
// (env config, initial healthcheck) plus OpenTelemetry spans around
// every round trip.
//
// Usage:
//
//	cfg, _ := driver.LoadConfig()
//	conn, err := driver.NewConn(ctx, cfg)
//	repo := repository.New("orders", conn)
//	rows, _ := repo.Search(ctx, q.Where("status").Is("PENDING"))
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrConnectionFailed indicates the client could not be created from
	// the given configuration. Check with errors.Is.
	ErrConnectionFailed = errors.New("driver: opensearch connection failed")

	// ErrHealthcheckFailed indicates the cluster is unreachable. Returned
	// by NewConn during bootstrap and by Ping/Healthcheck afterwards.
	ErrHealthcheckFailed = errors.New("driver: opensearch healthcheck failed")

	// ErrRequestFailed wraps any non-2xx API response; the error text
	// carries the endpoint, status and a body snippet.
	ErrRequestFailed = errors.New("driver: opensearch request failed")

	// ErrNotFound is returned for 404s on document lookups and deletes.
	ErrNotFound = errors.New("driver: not found")
)

// Executor is the REST surface the query builders and the repository
// ride on. Conn implements it; tests substitute fakes.
type Executor interface {
	Search(ctx context.Context, index string, body []byte) ([]byte, error)
	IndexDoc(ctx context.Context, index, id string, body []byte) ([]byte, error)
	GetDoc(ctx context.Context, index, id string) ([]byte, error)
	DeleteDoc(ctx context.Context, index, id string) error
	Bulk(ctx context.Context, body []byte) ([]byte, error)
	CreateIndex(ctx context.Context, index string, body []byte) error
	IndexExists(ctx context.Context, index string) (bool, error)
	DeleteIndex(ctx context.Context, index string) error
}

// Config holds client connection parameters with environment variable
// mapping, parsed by github.com/caarlos0/env.
type Config struct {
	Addresses    []string `env:"OPENSEARCH_ADDRESSES" envDefault:"http://localhost:9200" envSeparator:","`
	Username     string   `env:"OPENSEARCH_USERNAME"`
	Password     string   `env:"OPENSEARCH_PASSWORD"`
	MaxRetries   int      `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool     `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
	CompressBody bool     `env:"OPENSEARCH_COMPRESS_BODY" envDefault:"false"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("driver: parse config: %w", err)
	}
	return cfg, nil
}

// Conn implements Executor on top of *opensearch.Client.
type Conn struct {
	client *opensearch.Client
}

// NewConn builds a client from cfg and verifies the cluster is reachable.
func NewConn(ctx context.Context, cfg Config) (*Conn, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:           cfg.Addresses,
		Username:            cfg.Username,
		Password:            cfg.Password,
		MaxRetries:          cfg.MaxRetries,
		DisableRetry:        cfg.DisableRetry,
		CompressRequestBody: cfg.CompressBody,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	conn := &Conn{client: client}
	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

// WrapClient adopts an already configured client, skipping the
// bootstrap healthcheck.
func WrapClient(client *opensearch.Client) *Conn { return &Conn{client: client} }

// Ping verifies cluster connectivity.
func (c *Conn) Ping(ctx context.Context) error {
	res, err := c.client.Info(c.client.Info.WithContext(ctx))
	if err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrHealthcheckFailed, res.Status())
	}
	return nil
}

// Healthcheck returns a probe function suitable for liveness/readiness
// endpoints.
func Healthcheck(c *Conn) func(context.Context) error {
	return c.Ping
}

// Search runs _search against one index and returns the raw response body.
func (c *Conn) Search(ctx context.Context, index string, body []byte) ([]byte, error) {
	ctx, span := startSpan(ctx, "search", index)
	defer span.End()

	start := time.Now()
	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(index),
		c.client.Search.WithBody(bytes.NewReader(body)),
	)
	return finish(ctx, span, "search", index, start, res, err)
}

// IndexDoc writes a single document, creating or replacing it by id.
func (c *Conn) IndexDoc(ctx context.Context, index, id string, body []byte) ([]byte, error) {
	ctx, span := startSpan(ctx, "index_doc", index)
	defer span.End()

	start := time.Now()
	res, err := c.client.Index(
		index,
		bytes.NewReader(body),
		c.client.Index.WithContext(ctx),
		c.client.Index.WithDocumentID(id),
	)
	return finish(ctx, span, "index_doc", index, start, res, err)
}

// GetDoc fetches a document by id. Missing documents yield ErrNotFound.
func (c *Conn) GetDoc(ctx context.Context, index, id string) ([]byte, error) {
	ctx, span := startSpan(ctx, "get_doc", index)
	defer span.End()

	start := time.Now()
	res, err := c.client.Get(index, id, c.client.Get.WithContext(ctx))
	return finish(ctx, span, "get_doc", index, start, res, err)
}

// DeleteDoc removes a document by id. Missing documents yield ErrNotFound.
func (c *Conn) DeleteDoc(ctx context.Context, index, id string) error {
	ctx, span := startSpan(ctx, "delete_doc", index)
	defer span.End()

	start := time.Now()
	res, err := c.client.Delete(index, id, c.client.Delete.WithContext(ctx))
	_, err = finish(ctx, span, "delete_doc", index, start, res, err)
	return err
}

// Bulk submits an NDJSON payload of bulk actions.
func (c *Conn) Bulk(ctx context.Context, body []byte) ([]byte, error) {
	ctx, span := startSpan(ctx, "bulk", "")
	defer span.End()

	start := time.Now()
	res, err := c.client.Bulk(bytes.NewReader(body), c.client.Bulk.WithContext(ctx))
	return finish(ctx, span, "bulk", "", start, res, err)
}

// CreateIndex creates an index with the given settings/mappings body.
func (c *Conn) CreateIndex(ctx context.Context, index string, body []byte) error {
	ctx, span := startSpan(ctx, "create_index", index)
	defer span.End()

	start := time.Now()
	res, err := c.client.Indices.Create(
		index,
		c.client.Indices.Create.WithContext(ctx),
		c.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	_, err = finish(ctx, span, "create_index", index, start, res, err)
	return err
}

// IndexExists reports whether the index is present.
func (c *Conn) IndexExists(ctx context.Context, index string) (bool, error) {
	ctx, span := startSpan(ctx, "index_exists", index)
	defer span.End()

	res, err := c.client.Indices.Exists(
		[]string{index},
		c.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		err := fmt.Errorf("%w: index_exists [%s]", ErrRequestFailed, res.Status())
		span.RecordError(err)
		return false, err
	}
}

// DeleteIndex drops an index. Missing indices yield ErrNotFound.
func (c *Conn) DeleteIndex(ctx context.Context, index string) error {
	ctx, span := startSpan(ctx, "delete_index", index)
	defer span.End()

	start := time.Now()
	res, err := c.client.Indices.Delete(
		[]string{index},
		c.client.Indices.Delete.WithContext(ctx),
	)
	_, err = finish(ctx, span, "delete_index", index, start, res, err)
	return err
}

// ----------------------------------------------------------------------------
// internal helpers
// ----------------------------------------------------------------------------

func startSpan(ctx context.Context, endpoint, index string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("osorm.driver").Start(ctx, "opensearch."+endpoint)
	span.SetAttributes(attribute.String("opensearch.endpoint", endpoint))
	if index != "" {
		span.SetAttributes(attribute.String("opensearch.index", index))
	}
	return ctx, span
}

// finish drains the response, records span attributes and translates
// error statuses into sentinel-wrapped errors.
func finish(
	ctx context.Context,
	span trace.Span,
	endpoint, index string,
	start time.Time,
	res *opensearchapi.Response,
	err error,
) ([]byte, error) {

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Float64("opensearch.duration_ms", float64(elapsed.Milliseconds())))

	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("%w: %s %s", ErrNotFound, endpoint, index)
		} else {
			err = fmt.Errorf("%w: %s [%s] %s", ErrRequestFailed, endpoint, res.Status(), snippet(raw))
		}
		span.RecordError(err)
		return nil, err
	}

	slog.DebugContext(ctx, "opensearch request",
		"endpoint", endpoint,
		"index", index,
		"duration_ms", elapsed.Milliseconds(),
	)
	return raw, nil
}

func snippet(raw []byte) string {
	const max = 200
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
