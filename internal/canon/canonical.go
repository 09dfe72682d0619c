package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

const indent = "  "

// Marshal produces the canonical serialization of v.
// This is the only encoding used for snapshot storage and comparison.
func Marshal(v any) ([]byte, error) {
	val, err := FromGo(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encode(&buf, val, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalString is Marshal returning a string.
func MarshalString(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encode(buf *bytes.Buffer, v Value, level int) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString("null")
	case String:
		return encodeString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &UnsupportedError{Path: "$", Type: "canon.Float", Reason: fmt.Sprintf("non-finite number %v", f)}
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Array:
		return encodeArray(buf, val, level)
	case Object:
		return encodeObject(buf, val, level)
	default:
		return &UnsupportedError{Path: "$", Type: fmt.Sprintf("%T", v), Reason: "unknown value type"}
	}
	return nil
}

// encodeString writes a JSON string with NFC normalization and no HTML escaping.
func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder appends a newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

func encodeArray(buf *bytes.Buffer, arr Array, level int) error {
	if len(arr) == 0 {
		buf.WriteString("[]")
		return nil
	}
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, level+1)
		if err := encode(buf, elem, level+1); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	newline(buf, level)
	buf.WriteByte(']')
	return nil
}

func encodeObject(buf *bytes.Buffer, obj Object, level int) error {
	if len(obj) == 0 {
		buf.WriteString("{}")
		return nil
	}
	buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, level+1)
		if err := encodeString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteString(": ")
		if err := encode(buf, obj[k], level+1); err != nil {
			return fmt.Errorf("[%q]: %w", k, err)
		}
	}
	newline(buf, level)
	buf.WriteByte('}')
	return nil
}

func newline(buf *bytes.Buffer, level int) {
	buf.WriteByte('\n')
	for i := 0; i < level; i++ {
		buf.WriteString(indent)
	}
}
