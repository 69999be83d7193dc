package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// JSON stores values as JSON text. The zero value is ready to use.
//
// With Strict set, Decode rejects objects carrying fields V does not declare,
// so a payload written for a different type is treated as corrupt.
type JSON[V any] struct {
	Strict bool
}

var _ Codec[map[string]any] = JSON[map[string]any]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (c JSON[V]) Decode(b []byte) (V, error) {
	var v V
	if !c.Strict {
		err := json.Unmarshal(b, &v)
		return v, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		var zero V
		return zero, err
	}
	// More misses a stray ']' or '}'; only a clean EOF ends the payload
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var zero V
		return zero, errTrailing
	}
	return v, nil
}
