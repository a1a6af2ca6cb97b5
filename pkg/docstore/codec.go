package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// decodeMembers reads a JSON object keeping its members in document order.
func decodeMembers(data []byte) ([]Member, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Member{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	members := make([]Member, 0)
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected member name, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("member %q: %w", key, err)
		}

		if i, dup := seen[key]; dup {
			members[i].Value = raw
			continue
		}
		seen[key] = len(members)
		members = append(members, Member{Key: key, Value: raw})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after document")
	}
	return members, nil
}

// encodeMembers writes members as a JSON object indented by two spaces.
func encodeMembers(members []Member) ([]byte, error) {
	var buf bytes.Buffer
	if len(members) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, m := range members {
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		if err := json.Indent(&buf, m.Value, "  ", "  "); err != nil {
			return nil, fmt.Errorf("member %q: %w", m.Key, err)
		}
		if i < len(members)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
