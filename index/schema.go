// Package index turns Go structs into OpenSearch index mappings.
// A single public entry-point, `AutoCreate`, checks whether an index
// exists and creates it if missing.
//
//	type Order struct {
//	    ID        string    `osorm:"order_id,keyword,pk"`
//	    Status    string    `osorm:"status,keyword"`
//	    Qty       int       `osorm:"qty,integer"`
//	    Notes     string    `osorm:"notes"`
//	    Comments  []Comment `osorm:"comments,nested"`
//	}
//
//	if err := index.AutoCreate(ctx, conn, Order{},
//	    index.WithName("orders"),
//	    index.WithShards(3),
//	); err != nil {
//	    log.Fatal(err)
//	}
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/manojoshi/osorm/driver"
	"github.com/manojoshi/osorm/internal"
	"github.com/manojoshi/osorm/query"
)

// ------------------------------------------------------------------
// Options
// ------------------------------------------------------------------

type CreateOpt func(*createCfg)

type createCfg struct {
	name     string
	shards   int
	replicas int
	settings map[string]any
}

func WithName(name string) CreateOpt { return func(c *createCfg) { c.name = name } }
func WithShards(n int) CreateOpt     { return func(c *createCfg) { c.shards = n } }
func WithReplicas(n int) CreateOpt   { return func(c *createCfg) { c.replicas = n } }

// WithSettings merges extra index settings (analyzers, refresh interval…).
func WithSettings(s map[string]any) CreateOpt {
	return func(c *createCfg) { c.settings = s }
}

// mapping types the tag parser accepts; anything else falls back to text.
var fieldTypes = []string{
	"text", "keyword", "integer", "long", "float", "double",
	"date", "boolean", "nested",
}

// ------------------------------------------------------------------
// Public API
// ------------------------------------------------------------------

// AutoCreate builds a mapping from the supplied struct model and creates
// the index when it does not exist yet. Safe to call concurrently – a
// create race surfaces as resource_already_exists, which is ignored.
func AutoCreate(
	ctx context.Context,
	exec driver.Executor,
	model any,
	opts ...CreateOpt,
) error {

	cfg := &createCfg{name: inferIndexName(model), shards: 1, replicas: 0}
	for _, o := range opts {
		o(cfg)
	}

	exists, err := exec.IndexExists(ctx, cfg.name)
	if err != nil {
		return fmt.Errorf("index: existence check failed: %w", err)
	}
	if exists {
		return nil
	}

	settings := map[string]any{
		"number_of_shards":   cfg.shards,
		"number_of_replicas": cfg.replicas,
	}
	for k, v := range cfg.settings {
		settings[k] = v
	}

	body, err := json.Marshal(map[string]any{
		"settings": settings,
		"mappings": BuildMapping(model),
	})
	if err != nil {
		return fmt.Errorf("index: marshal mapping: %w", err)
	}

	if err := exec.CreateIndex(ctx, cfg.name, body); err != nil &&
		!strings.Contains(err.Error(), "resource_already_exists_exception") {
		return fmt.Errorf("index: create failed: %w", err)
	}
	return nil
}

// BuildMapping inspects the struct tags (`osorm:"field,keyword,pk"`) and
// returns the mappings object with its properties tree.
func BuildMapping(model any) map[string]any {
	return map[string]any{"properties": buildProperties(structType(model))}
}

func buildProperties(rt reflect.Type) map[string]any {
	props := make(map[string]any)
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, typ := parseTag(f.Tag.Get("osorm"))
		if name == "" {
			continue
		}

		if typ == "nested" {
			props[name] = map[string]any{
				"type":       "nested",
				"properties": buildProperties(elemType(f.Type)),
			}
			continue
		}
		props[name] = map[string]any{"type": typ}
	}
	return props
}

// FieldsOf resolves the query-side metadata of a mapped model: one
// query.Field per tagged attribute, keyed by its dotted name. Nested
// attributes carry the path of their enclosing nested object so the
// criteria compiler can wrap their fragments.
func FieldsOf(model any) map[string]query.Field {
	out := make(map[string]query.Field)
	collectFields(structType(model), "", out)
	return out
}

func collectFields(rt reflect.Type, path string, out map[string]query.Field) {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, typ := parseTag(f.Tag.Get("osorm"))
		if name == "" {
			continue
		}
		full := name
		if path != "" {
			full = path + "." + name
		}

		if typ == "nested" {
			collectFields(elemType(f.Type), full, out)
			continue
		}

		ft := query.FieldTypeText
		if typ == "keyword" {
			ft = query.FieldTypeKeyword
		}
		out[full] = query.Field{Name: full, Path: path, Type: ft}
	}
}

// ------------------------------------------------------------------
// internal helpers
// ------------------------------------------------------------------

// parseTag splits `osorm:"field_name,type,pk"`. The type attribute is
// optional and defaults to text; pk and unknown attributes are ignored
// here (scan reads pk).
func parseTag(tag string) (name, typ string) {
	if tag == "" {
		return "", ""
	}
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	typ = "text"
	for _, a := range parts[1:] {
		a = strings.ToLower(strings.TrimSpace(a))
		if internal.Contains(fieldTypes, a) {
			typ = a
		}
	}
	return name, typ
}

func structType(model any) reflect.Type {
	rt := reflect.TypeOf(model)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}

// elemType unwraps slices/arrays/pointers down to the nested struct.
func elemType(rt reflect.Type) reflect.Type {
	for rt.Kind() == reflect.Slice || rt.Kind() == reflect.Array || rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}

// inferIndexName defaults to the snake_cased struct type name.
func inferIndexName(model any) string {
	return snake(structType(model).Name())
}

// snake converts CamelCase to snake_case.
func snake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}
