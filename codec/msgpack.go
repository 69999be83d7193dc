package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack serializes values with vmihailenco/msgpack/v5. The zero value is ready
// to use. Output is binary; redis hashes store it as-is.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode reads exactly one msgpack value. Empty input and bytes after the value
// are errors.
func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	if len(b) == 0 {
		return v, errEmpty
	}
	r := bytes.NewReader(b)
	if err := msgpack.NewDecoder(r).Decode(&v); err != nil {
		return v, err
	}
	if r.Len() > 0 {
		return v, errTrailing
	}
	return v, nil
}
