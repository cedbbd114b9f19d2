package shared

import (
	"bytes"
	"compress/gzip" // DO NOT use klauspost's gzip for verification
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v4"
)

// DecodePayload reverses encoding and compression of a request body, for tests and debugging
func DecodePayload(body []byte, gzipped bool, format string, output interface{}) error {
	data := body
	if gzipped {
		gunzipStream, initErr := gzip.NewReader(bytes.NewReader(body)) // use builtin gzip library for verification
		if initErr != nil {
			return fmt.Errorf("failed to create gzip Reader: %w", initErr)
		}
		unzipped, gzErr := io.ReadAll(gunzipStream)
		if gzErr != nil {
			return fmt.Errorf("failed to gunzip payload: %w", gzErr)
		}
		data = unzipped
	}
	switch format {
	case FormatJSON, "":
		if err := json.Unmarshal(data, output); err != nil {
			return fmt.Errorf("failed to unmarshal JSON payload: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, output); err != nil {
			return fmt.Errorf("failed to unmarshal msgpack payload: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format '%s'", format)
	}
	return nil
}
