package nats

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/snappy"
	"github.com/nats-io/nats.go"
)

// Header names
const (
	EncodingHeader = "Content-Encoding"
	RunIDHeader    = "X-Run-ID"

	encodingSnappy = "snappy"
)

// decodeBody returns the JSON payload of msg
func decodeBody(header nats.Header, data []byte) ([]byte, error) {
	switch enc := header.Get(EncodingHeader); enc {
	case "":
		return data, nil
	case encodingSnappy:
		n, err := snappy.DecodedLen(data)
		if err != nil {
			return nil, fmt.Errorf("snappy: %w", err)
		}
		if n > maxDecodedSize {
			return nil, fmt.Errorf("snappy: decoded size %d exceeds %d bytes", n, maxDecodedSize)
		}
		return snappy.Decode(nil, data)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

// encodeBody marshals v and compresses it when compressed is set
func encodeBody(v any, compressed bool) (nats.Header, []byte, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	header := nats.Header{}
	if compressed {
		header.Set(EncodingHeader, encodingSnappy)
		data = snappy.Encode(nil, data)
	}
	return header, data, nil
}
