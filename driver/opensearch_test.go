package driver_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/osorm/driver"
)

// newTestConn spins up an httptest server running handler and wires a
// Conn to it.
func newTestConn(t *testing.T, handler http.HandlerFunc) *driver.Conn {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	return driver.WrapClient(client)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := driver.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Addresses)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.False(t, cfg.CompressBody)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("OPENSEARCH_ADDRESSES", "http://node1:9200,http://node2:9200")
	t.Setenv("OPENSEARCH_USERNAME", "admin")
	t.Setenv("OPENSEARCH_PASSWORD", "secret")
	t.Setenv("OPENSEARCH_MAX_RETRIES", "5")
	t.Setenv("OPENSEARCH_COMPRESS_BODY", "true")

	cfg, err := driver.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://node1:9200", "http://node2:9200"}, cfg.Addresses)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.True(t, cfg.CompressBody)
}

func TestNewConnHealthcheck(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"cluster_name": "test", "version": {"number": "2.11.0"}}`)
	}))
	t.Cleanup(srv.Close)

	conn, err := driver.NewConn(context.Background(), driver.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	assert.NoError(t, conn.Ping(context.Background()))
}

func TestNewConnUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := driver.NewConn(context.Background(), driver.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	assert.ErrorIs(t, err, driver.ErrHealthcheckFailed)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	var gotPath, gotBody string
	conn := newTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"hits": {"total": {"value": 0}, "hits": []}}`)
	})

	raw, err := conn.Search(context.Background(), "orders",
		[]byte(`{"query": {"match_all": {}}}`))
	require.NoError(t, err)

	assert.Equal(t, "/orders/_search", gotPath)
	assert.JSONEq(t, `{"query": {"match_all": {}}}`, gotBody)
	assert.Contains(t, string(raw), `"hits"`)
}

func TestSearchRequestFailed(t *testing.T) {
	t.Parallel()

	conn := newTestConn(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": {"reason": "parsing_exception"}}`)
	})

	_, err := conn.Search(context.Background(), "orders", []byte(`{`))
	require.ErrorIs(t, err, driver.ErrRequestFailed)
	assert.Contains(t, err.Error(), "parsing_exception")
}

func TestIndexDoc(t *testing.T) {
	t.Parallel()

	var gotPath string
	conn := newTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"result": "created"}`)
	})

	raw, err := conn.IndexDoc(context.Background(), "orders", "101",
		[]byte(`{"status": "PENDING"}`))
	require.NoError(t, err)
	assert.Equal(t, "/orders/_doc/101", gotPath)
	assert.Contains(t, string(raw), "created")
}

func TestGetDocNotFound(t *testing.T) {
	t.Parallel()

	conn := newTestConn(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"found": false}`)
	})

	_, err := conn.GetDoc(context.Background(), "orders", "missing")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestDeleteDoc(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	conn := newTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"result": "deleted"}`)
	})

	require.NoError(t, conn.DeleteDoc(context.Background(), "orders", "101"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/orders/_doc/101", gotPath)
}

func TestBulk(t *testing.T) {
	t.Parallel()

	var gotBody string
	conn := newTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"errors": false, "items": []}`)
	})

	payload := `{"index":{"_index":"orders","_id":"101"}}` + "\n" +
		`{"status":"PENDING"}` + "\n"
	raw, err := conn.Bulk(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, gotBody)
	assert.Contains(t, string(raw), `"errors"`)
}

func TestIndexExists(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		ok, err := conn.IndexExists(context.Background(), "orders")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		ok, err := conn.IndexExists(context.Background(), "orders")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := conn.IndexExists(context.Background(), "orders")
		assert.ErrorIs(t, err, driver.ErrRequestFailed)
	})
}

func TestCreateIndex(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotBody string
	conn := newTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"acknowledged": true}`)
	})

	body := `{"settings": {"number_of_shards": 1}}`
	require.NoError(t, conn.CreateIndex(context.Background(), "orders", []byte(body)))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/orders", gotPath)
	assert.JSONEq(t, body, gotBody)
}

func TestDeleteIndexNotFound(t *testing.T) {
	t.Parallel()

	conn := newTestConn(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error": {"type": "index_not_found_exception"}}`)
	})

	err := conn.DeleteIndex(context.Background(), "orders")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestRequestFailedSnippetTruncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 500)
	conn := newTestConn(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, long)
	})

	_, err := conn.Search(context.Background(), "orders", []byte(`{`))
	require.ErrorIs(t, err, driver.ErrRequestFailed)
	assert.Less(t, len(err.Error()), 500)
	assert.Contains(t, err.Error(), "...")
}
