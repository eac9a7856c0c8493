package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Marshal produces canonical JSON for v: object keys sorted lexicographically
// at every level, no insignificant whitespace, UTF-8, no BOM. v must already
// be built from the bounded/sorted/deduped types this repo produces (maps,
// slices, structs, strings, integers); NaN/Infinity are rejected.
//
// Structs are first round-tripped through encoding/json to obtain a
// generic map[string]any / []any tree (respecting `json` tags), which is
// then re-encoded with deterministic key order. This keeps one encoder
// responsible for canonical ordering regardless of how many Go types the
// summary/findings grow to carry.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal intermediate: %w", err)
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canon: decode intermediate: %w", err)
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		return encodeNumber(buf, t)
	case string:
		return encodeString(buf, t)
	case []any:
		return encodeArray(buf, t)
	case map[string]any:
		return encodeObject(buf, t)
	default:
		return fmt.Errorf("canon: unsupported type %T", v)
	}
}

func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	f, err := n.Float64()
	if err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("canon: NaN/Infinity forbidden")
		}
	}
	buf.WriteString(n.String())
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}

func encodeArray(buf *bytes.Buffer, arr []any) error {
	buf.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
