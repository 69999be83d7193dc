package codec

// String stores Go strings verbatim. Every payload decodes, so a namespace using
// String never self-heals.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }

// Bytes is the identity codec for []byte values. Combine with Framed to get
// corruption detection.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }
