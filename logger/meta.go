package logger

import "encoding/json"

// circularPlaceholder stands in for metadata that cannot be represented
// in JSON, such as a self-referential map. Logging must never fail over
// what rode along with the message.
const circularPlaceholder = "[Circular or Invalid]"

func encodeMetadata(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return circularPlaceholder
	}

	return string(b)
}
