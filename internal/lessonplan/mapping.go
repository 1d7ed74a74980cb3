package lessonplan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Pair is one lessonId -> document link entry.
type Pair struct {
	LessonID string
	Link     string
}

// Mapping collects lesson plan links keyed by lesson id. Keys keep their
// first-insertion position; setting an existing id overwrites the link in
// place, so the last write wins.
type Mapping struct {
	order []string
	links map[string]string
}

func NewMapping() *Mapping {
	return &Mapping{links: make(map[string]string)}
}

func (m *Mapping) Set(id, link string) {
	if _, seen := m.links[id]; !seen {
		m.order = append(m.order, id)
	}
	m.links[id] = link
}

func (m *Mapping) Get(id string) (string, bool) {
	link, ok := m.links[id]
	return link, ok
}

func (m *Mapping) Len() int {
	return len(m.order)
}

// Pairs returns the entries in insertion order.
func (m *Mapping) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m.order))
	for _, id := range m.order {
		pairs = append(pairs, Pair{LessonID: id, Link: m.links[id]})
	}
	return pairs
}

// MarshalJSON renders the mapping as a plain object literal with keys in
// insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("lessonplan: marshal mapping key %q: %w", id, err)
		}
		value, err := json.Marshal(m.links[id])
		if err != nil {
			return nil, fmt.Errorf("lessonplan: marshal mapping value for %q: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseMapping reads a persisted mapping. Two shapes are accepted: the
// object literal this tool writes, and the list-of-pairs export older
// tracker dumps used ([{"columnA": id, "docurl": link}, ...]). Object keys
// beginning with an underscore are metadata blocks, not entries. Entries
// appear in the returned mapping in file order.
func ParseMapping(data []byte) (*Mapping, error) {
	trimmed := bytes.TrimSpace(data)
	mapping := NewMapping()
	if len(trimmed) == 0 {
		return mapping, nil
	}
	switch trimmed[0] {
	case '{':
		if err := parseObjectMapping(trimmed, mapping); err != nil {
			return nil, err
		}
	case '[':
		if err := parseListMapping(trimmed, mapping); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("lessonplan: mapping is neither an object nor a list")
	}
	return mapping, nil
}

func parseObjectMapping(data []byte, mapping *Mapping) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("lessonplan: parse mapping object: %w", err)
	}
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return fmt.Errorf("lessonplan: parse mapping key: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("lessonplan: mapping key %v is not a string", keyToken)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("lessonplan: parse mapping value for %q: %w", key, err)
		}
		if strings.HasPrefix(key, "_") {
			continue
		}
		link, ok := scalarString(raw)
		if !ok {
			continue
		}
		mapping.Set(key, link)
	}
	return nil
}

func parseListMapping(data []byte, mapping *Mapping) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var entries []map[string]any
	if err := dec.Decode(&entries); err != nil {
		return fmt.Errorf("lessonplan: parse mapping list: %w", err)
	}
	for _, entry := range entries {
		id, okID := fieldString(entry, "columnA", "lesson_id")
		link, okLink := fieldString(entry, "docurl", "link")
		if !okID || !okLink {
			continue
		}
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		mapping.Set(id, link)
	}
	return nil
}

func fieldString(entry map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := entry[key]; ok {
			if s, ok := coerceString(value); ok {
				return s, true
			}
		}
	}
	return "", false
}

func scalarString(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return "", false
	}
	return coerceString(value)
}

func coerceString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
