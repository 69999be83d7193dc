// Package codec turns cached values into the text stored in a hash field and back.
//
// Every codec must round-trip: Decode(Encode(v)) yields a value equal to v. Decode
// must fail on input it did not produce; hashmirror relies on that failure to find
// and delete corrupt fields.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
