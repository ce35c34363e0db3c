// Package scan decodes raw OpenSearch response bodies into Go values.
// The _search envelope is walked with fastjson so total/hits extraction
// does not pay for a full unmarshal; individual _source payloads are
// then decoded with encoding/json into the caller's type.
package scan

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/valyala/fastjson"
)

// Hit is one search hit: document id, relevance score and the raw
// _source payload.
type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// Result is the decoded _search envelope.
type Result struct {
	Total    int64
	MaxScore float64
	Hits     []Hit
}

// Bucket is one row of a composite aggregation: the group key values,
// the bucket document count and any metric sub-aggregation values.
type Bucket struct {
	Key      map[string]any
	DocCount int64
	Metrics  map[string]float64
}

var parsers fastjson.ParserPool

// Parse extracts the hits envelope from a raw _search response.
func Parse(raw []byte) (*Result, error) {
	p := parsers.Get()
	defer parsers.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("scan: malformed response: %w", err)
	}
	hits := v.Get("hits")
	if hits == nil {
		return nil, errors.New("scan: response has no hits object")
	}

	out := &Result{
		Total:    totalHits(hits.Get("total")),
		MaxScore: hits.GetFloat64("max_score"),
	}

	arr := hits.GetArray("hits")
	out.Hits = make([]Hit, 0, len(arr))
	for _, hv := range arr {
		h := Hit{
			ID:    string(hv.GetStringBytes("_id")),
			Score: hv.GetFloat64("_score"),
		}
		if src := hv.Get("_source"); src != nil {
			h.Source = src.MarshalTo(nil)
		}
		out.Hits = append(out.Hits, h)
	}
	return out, nil
}

// totalHits copes with both envelope shapes: the modern
// {"value":n,"relation":...} object and the bare legacy number.
func totalHits(v *fastjson.Value) int64 {
	if v == nil {
		return 0
	}
	if v.Type() == fastjson.TypeObject {
		return v.GetInt64("value")
	}
	return v.GetInt64()
}

// Total is a shortcut for count-style requests (size 0).
func Total(raw []byte) (int64, error) {
	res, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// DecodeSlice decodes a _search reply into []T. T can be a struct (json
// tags drive field names) or a map. The document _id is assigned into
// the struct field tagged `osorm:"...,pk"`, if any.
func DecodeSlice[T any](raw []byte) ([]T, error) {
	res, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(res.Hits))
	for i, h := range res.Hits {
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &out[i]); err != nil {
				return nil, fmt.Errorf("scan: decode hit %q: %w", h.ID, err)
			}
		}
		assignID(&out[i], h.ID)
	}
	return out, nil
}

// DecodeMaps decodes a _search reply into []map[string]any.
func DecodeMaps(raw []byte) ([]map[string]any, error) {
	return DecodeSlice[map[string]any](raw)
}

// DecodeGet decodes a single-document _doc reply into T.
func DecodeGet[T any](raw []byte) (T, error) {
	var out T

	p := parsers.Get()
	defer parsers.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return out, fmt.Errorf("scan: malformed response: %w", err)
	}
	if !v.GetBool("found") {
		return out, errors.New("scan: document not found")
	}
	src := v.Get("_source")
	if src == nil {
		return out, errors.New("scan: response has no _source")
	}
	if err := json.Unmarshal(src.MarshalTo(nil), &out); err != nil {
		return out, fmt.Errorf("scan: decode document: %w", err)
	}
	assignID(&out, string(v.GetStringBytes("_id")))
	return out, nil
}

// BulkError reports the first failed item of a _bulk reply, or nil when
// every item succeeded.
func BulkError(raw []byte) error {
	p := parsers.Get()
	defer parsers.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("scan: malformed bulk response: %w", err)
	}
	if !v.GetBool("errors") {
		return nil
	}
	for _, item := range v.GetArray("items") {
		// items are single-key objects keyed by the action name
		obj, err := item.Object()
		if err != nil {
			continue
		}
		var failed error
		obj.Visit(func(_ []byte, action *fastjson.Value) {
			if failed != nil {
				return
			}
			if reason := action.GetStringBytes("error", "reason"); len(reason) > 0 {
				failed = fmt.Errorf("scan: bulk item %q failed: %s",
					action.GetStringBytes("_id"), reason)
			}
		})
		if failed != nil {
			return failed
		}
	}
	return errors.New("scan: bulk reply flagged errors")
}

// DecodeComposite extracts the buckets of a composite aggregation named
// aggName from a raw _search reply.
func DecodeComposite(raw []byte, aggName string) ([]Bucket, error) {
	p := parsers.Get()
	defer parsers.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("scan: malformed response: %w", err)
	}
	agg := v.Get("aggregations", aggName)
	if agg == nil {
		return nil, fmt.Errorf("scan: response has no aggregation %q", aggName)
	}

	arr := agg.GetArray("buckets")
	out := make([]Bucket, 0, len(arr))
	for _, bv := range arr {
		b := Bucket{
			Key:      map[string]any{},
			DocCount: bv.GetInt64("doc_count"),
			Metrics:  map[string]float64{},
		}
		if key := bv.Get("key"); key != nil {
			if keyObj, err := key.Object(); err == nil {
				keyObj.Visit(func(k []byte, kv *fastjson.Value) {
					b.Key[string(k)] = scalar(kv)
				})
			}
		}
		if bucketObj, err := bv.Object(); err == nil {
			bucketObj.Visit(func(k []byte, mv *fastjson.Value) {
				name := string(k)
				if name == "key" || name == "doc_count" {
					return
				}
				if mv.Exists("value") {
					b.Metrics[name] = mv.GetFloat64("value")
				}
			})
		}
		out = append(out, b)
	}
	return out, nil
}

func scalar(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}

/*───────────────────────────────
|  _id assignment w/ meta cache  |
└───────────────────────────────*/

var metaCache sync.Map // reflect.Type → pkMeta

type pkMeta struct {
	index []int // nil when the type has no pk field
}

// assignID writes the document id into the struct field tagged
// `osorm:"...,pk"`. Non-struct targets and untagged structs are left
// untouched.
func assignID[T any](ptr *T, id string) {
	if id == "" {
		return
	}
	val := reflect.ValueOf(ptr).Elem()
	if val.Kind() != reflect.Struct {
		return
	}
	rt := val.Type()

	metaAny, ok := metaCache.Load(rt)
	if !ok {
		metaAny = buildMeta(rt)
		metaCache.Store(rt, metaAny)
	}
	meta := metaAny.(pkMeta)
	if meta.index == nil {
		return
	}
	f := val.FieldByIndex(meta.index)
	if f.Kind() == reflect.String && f.CanSet() {
		f.SetString(id)
	}
}

func buildMeta(rt reflect.Type) pkMeta {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("osorm")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		for _, p := range parts[1:] {
			if strings.EqualFold(strings.TrimSpace(p), "pk") {
				return pkMeta{index: f.Index}
			}
		}
	}
	return pkMeta{}
}
