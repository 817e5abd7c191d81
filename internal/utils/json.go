package utils

import "encoding/json"

// JSONToString serialises object to JSON. When the optional indent argument
// is true the output is pretty-printed with two-space indentation. On
// marshalling failure it returns a JSON-formatted error string, so the
// result is always safe to print.
func JSONToString(object any, indent ...bool) string {
	var encoded []byte
	var err error
	if len(indent) > 0 && indent[0] {
		encoded, err = json.MarshalIndent(object, "", "  ")
	} else {
		encoded, err = json.Marshal(object)
	}
	if err != nil {
		return `{"error": "failed to marshal to JSON: ` + err.Error() + `"}`
	}
	return string(encoded)
}
