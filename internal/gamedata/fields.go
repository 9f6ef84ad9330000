package gamedata

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// fieldReader reads typed values out of a Row and keeps the first error,
// so a compile step can read every field and check once.
type fieldReader struct {
	row Row
	err error
}

func (f *fieldReader) fail(key, format string, args ...any) {
	if f.err == nil {
		f.err = fmt.Errorf("field %s: %s", key, fmt.Sprintf(format, args...))
	}
}

func (f *fieldReader) raw(key string, required bool) (any, bool) {
	v, ok := f.row.Fields[key]
	if !ok || v == nil {
		if required {
			f.fail(key, "missing")
		}
		return nil, false
	}
	return v, true
}

func (f *fieldReader) int(key string, required bool) int {
	v, ok := f.raw(key, required)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n != float64(int(n)) {
			f.fail(key, "expected integer, got %v", n)
		}
		return int(n)
	default:
		f.fail(key, "expected integer, got %T", v)
		return 0
	}
}

func (f *fieldReader) float(key string, required bool) float64 {
	v, ok := f.raw(key, required)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		f.fail(key, "expected number, got %T", v)
		return 0
	}
}

func (f *fieldReader) str(key string, required bool) string {
	v, ok := f.raw(key, required)
	if !ok {
		return ""
	}
	s, isStr := v.(string)
	if !isStr {
		f.fail(key, "expected string, got %T", v)
	}
	return s
}

func (f *fieldReader) boolean(key string) bool {
	v, ok := f.raw(key, false)
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	if !isBool {
		f.fail(key, "expected bool, got %T", v)
	}
	return b
}

func (f *fieldReader) floats(key string) []float64 {
	v, ok := f.raw(key, false)
	if !ok {
		return nil
	}
	list, isList := v.([]any)
	if !isList {
		f.fail(key, "expected list, got %T", v)
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		switch n := item.(type) {
		case int:
			out = append(out, float64(n))
		case float64:
			out = append(out, n)
		default:
			f.fail(key, "expected number in list, got %T", item)
		}
	}
	return out
}

// numberMap reads a mapping of string keys to numbers, in sorted key order.
func (f *fieldReader) numberMap(key string) ([]string, map[string]float64) {
	v, ok := f.raw(key, false)
	if !ok {
		return nil, nil
	}
	m, isMap := v.(map[string]any)
	if !isMap {
		f.fail(key, "expected mapping, got %T", v)
		return nil, nil
	}
	keys := make([]string, 0, len(m))
	vals := make(map[string]float64, len(m))
	for k, item := range m {
		switch n := item.(type) {
		case int:
			vals[k] = float64(n)
		case float64:
			vals[k] = n
		default:
			f.fail(key, "expected number for %s, got %T", k, item)
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, vals
}

func (f *fieldReader) materials(key string) Materials {
	keys, vals := f.numberMap(key)
	if len(keys) == 0 {
		return nil
	}
	out := make(Materials, len(keys))
	for _, k := range keys {
		kind, err := ParseMaterial(k)
		if err != nil {
			f.fail(key, "%v", err)
			continue
		}
		out[kind] = int(vals[k])
	}
	return out
}
