package genai

import (
	"encoding/json"
	"strings"
)

// DecodeFields turns a model response into the raw extraction object.
// Models wrap JSON in fenced code blocks often enough that the fence is
// stripped first. An empty or undecodable response yields an empty map:
// the caller treats "model gave nothing usable" as a cascade step, not an
// error.
func DecodeFields(response string) map[string]any {
	content := strings.TrimSpace(response)
	if content == "" {
		return map[string]any{}
	}

	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
		content = strings.TrimSpace(content)
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+len("```"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
		content = strings.TrimSpace(content)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return map[string]any{}
	}
	if fields == nil {
		return map[string]any{}
	}
	return fields
}
