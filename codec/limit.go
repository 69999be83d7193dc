package codec

import (
	"errors"
	"fmt"
)

var (
	errEmpty    = errors.New("codec: empty payload")
	errTrailing = errors.New("codec: trailing data after value")
)

// Limit wraps another codec and refuses to decode payloads larger than MaxDecode
// bytes. Oversized fields are then treated like any other corrupt field.
// If MaxDecode <= 0, size limiting is disabled.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
