package tools

import (
	"encoding/json"
	"fmt"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

// validateStructurally checks args against a JSON-schema-shaped map:
// required top-level keys are present, and each declared property's JSON
// type tag ("string", "object", "integer", "number", "boolean") matches
// the decoded value's shape. This is intentionally not a full JSON-Schema
// validator (no such library appears anywhere in the retrieval pack) —
// just enough structural checking to catch a malformed tool call before
// it reaches the handler.
func validateStructurally(schema map[string]interface{}, args json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var decoded map[string]interface{}
	if len(args) == 0 {
		decoded = map[string]interface{}{}
	} else if err := json.Unmarshal(args, &decoded); err != nil {
		return errors.InvalidParams("tool arguments were not a JSON object")
	}

	if required, ok := schema["required"].([]interface{}); ok {
		for _, r := range required {
			key, ok := r.(string)
			if !ok {
				continue
			}
			if _, present := decoded[key]; !present {
				return errors.InvalidParams(fmt.Sprintf("missing required argument %q", key))
			}
		}
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return nil
	}
	for key, value := range decoded {
		propSchema, ok := props[key].(map[string]interface{})
		if !ok {
			continue
		}
		wantType, ok := propSchema["type"].(string)
		if !ok {
			continue
		}
		if !matchesJSONType(wantType, value) {
			return errors.InvalidParams(fmt.Sprintf("argument %q did not match expected type %q", key, wantType))
		}
	}
	return nil
}

func matchesJSONType(want string, value interface{}) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer", "number":
		_, ok := value.(float64)
		return ok
	default:
		return true
	}
}
