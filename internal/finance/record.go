package finance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/numeric"
)

// Record is one backend object as decoded JSON. Field names are not trusted;
// the normalisers in this package read them through First/Num/Str.
type Record map[string]any

// Decode parses a JSON document keeping numbers as json.Number.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", appErrors.ErrorResponse{Code: appErrors.ErrMalformed, Message: "response is not valid JSON"}, err)
	}
	return v, nil
}

func DecodeBytes(b []byte) (any, error) {
	return Decode(bytes.NewReader(b))
}

// First returns the value of the first key that is present and not null.
func (r Record) First(keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r Record) Has(keys ...string) bool {
	_, ok := r.First(keys...)
	return ok
}

func (r Record) Num(keys ...string) float64 {
	v, _ := r.First(keys...)
	return numeric.Coerce(v)
}

// Str returns the first non-empty string-like value among keys.
func (r Record) Str(keys ...string) string {
	for _, key := range keys {
		if s := toString(r[key]); s != "" {
			return s
		}
	}
	return ""
}

func (r Record) Bool(keys ...string) bool {
	v, ok := r.First(keys...)
	if !ok {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(x))
		return b
	default:
		return numeric.Coerce(v) != 0
	}
}

func (r Record) Map(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

func (r Record) Sub(key string) Record {
	m, _ := r[key].(map[string]any)
	return Record(m)
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// Records unwraps a list response. The backend answers with either a bare array or a
// page object {"content": [...], "last": bool}. last is true for bare arrays.
func Records(v any) (records []Record, last bool, err error) {
	switch x := v.(type) {
	case nil:
		return []Record{}, true, nil
	case []any:
		return toRecords(x), true, nil
	case map[string]any:
		raw, present := x["content"]
		if present && raw == nil {
			return []Record{}, true, nil
		}
		content, ok := raw.([]any)
		if !ok {
			return nil, false, appErrors.ErrorResponse{Code: appErrors.ErrMalformed, Message: "list response has no content array"}
		}
		last := true
		if Record(x).Has("last") {
			last = Record(x).Bool("last")
		}
		return toRecords(content), last, nil
	default:
		return nil, false, appErrors.ErrorResponse{Code: appErrors.ErrMalformed, Message: fmt.Sprintf("unexpected list response of type %T", v)}
	}
}

func toRecords(items []any) []Record {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// Object unwraps a single-object response; scalars become {"value": v}.
func Object(v any) Record {
	switch x := v.(type) {
	case map[string]any:
		return Record(x)
	case nil:
		return Record{}
	default:
		return Record{"value": x}
	}
}
