package codec

import "google.golang.org/protobuf/proto"

// Protobuf stores proto messages in their binary wire form. Encoding is
// deterministic so equal messages produce equal fields.
type Protobuf[T proto.Message] struct {
	new func() T
}

// NewProtobuf takes a constructor for the concrete message, e.g.
// func() *pb.User { return &pb.User{} }.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

// Decode rejects an empty field: proto would accept it as the zero message,
// but Encode never writes one for a populated value and a blank hash field is
// treated as corrupt everywhere else.
func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	if len(b) == 0 {
		return m, errEmpty
	}
	if err := (proto.UnmarshalOptions{DiscardUnknown: false}).Unmarshal(b, m); err != nil {
		return m, err
	}
	return m, nil
}
