package cli

import "encoding/json"

func marshalIndent(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			v = decoded
		}
	}
	return json.MarshalIndent(v, "", "  ")
}

// parseObject decodes a JSON object flag; empty means no value.
func parseObject(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
