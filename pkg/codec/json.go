// Package codec provides a JSON codec for gRPC so services can exchange plain Go structs
// without generated protobuf types. Importing the package registers the codec.
package codec

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype negotiated on the wire (application/grpc+json).
const Name = "json"

// JSON implements encoding.Codec on top of encoding/json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSON) Name() string {
	return Name
}

// CallOption selects the JSON codec for client calls.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(Name)
}

func init() {
	encoding.RegisterCodec(JSON{})
}
