package shared

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v4"
)

// Supported payload formats
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// PayloadEncoder serializes payloads in one of the supported formats
type PayloadEncoder struct {
	format      string
	contentType string
	marshal     func(v interface{}) ([]byte, error)
}

// NewPayloadEncoder creates a PayloadEncoder for the format; an empty format means JSON
func NewPayloadEncoder(format string) (*PayloadEncoder, error) {
	switch format {
	case FormatJSON, "":
		return &PayloadEncoder{FormatJSON, "application/json", json.Marshal}, nil
	case FormatMsgpack:
		return &PayloadEncoder{FormatMsgpack, "application/msgpack", msgpack.Marshal}, nil
	default:
		return nil, fmt.Errorf("unsupported format '%s'", format)
	}
}

// Format returns the name of format
func (encoder *PayloadEncoder) Format() string {
	return encoder.format
}

// ContentType returns the MIME type of encoded payloads
func (encoder *PayloadEncoder) ContentType() string {
	return encoder.contentType
}

// Encode serializes a payload
func (encoder *PayloadEncoder) Encode(payload interface{}) ([]byte, error) {
	data, err := encoder.marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", encoder.format, err)
	}
	return data, nil
}
