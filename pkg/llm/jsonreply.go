package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFence removes a surrounding ```json ... ``` block, which models
// add to JSON answers even when told not to.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON parses a model reply into out after stripping code fences.
func DecodeJSON(reply string, out any) error {
	body := StripCodeFence(reply)
	if body == "" {
		return fmt.Errorf("empty reply")
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}
