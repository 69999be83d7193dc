package codec

import "github.com/unkn0wn-root/hashmirror/internal/wire"

// Framed wraps Inner payloads in a checksummed envelope. Truncated, bit-flipped
// or foreign payloads fail Decode even when Inner would accept them.
type Framed[V any] struct {
	Inner Codec[V]
}

func (c Framed[V]) Encode(v V) ([]byte, error) {
	p, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return wire.Encode(p), nil
}

func (c Framed[V]) Decode(b []byte) (V, error) {
	p, err := wire.Decode(b)
	if err != nil {
		var zero V
		return zero, err
	}
	return c.Inner.Decode(p)
}
