// Package authrpc declares the gophauth gRPC service: its messages, the
// service descriptor and a client stub. Messages travel as JSON through a
// codec registered under the "json" content subtype.
package authrpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype used by AuthService calls.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("authrpc marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("authrpc unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return CodecName }
