package resolver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// orderedMap is a JSON object that remembers the order of its keys.
// Conditional exports are matched in the order the package author wrote them.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func (m *orderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *orderedMap) String(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

// packageJSON holds the package.json fields that take part in resolution.
type packageJSON struct {
	dir     string
	name    string
	typ     string
	fields  *orderedMap
	exports any
	imports any
}

// field returns a top-level string field such as "main" or "module".
func (p *packageJSON) field(name string) string {
	if p == nil {
		return ""
	}
	return p.fields.String(name)
}

func parsePackageJSON(dir string, data []byte) (*packageJSON, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrdered(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse package.json in %s: %w", dir, err)
	}
	fields, ok := v.(*orderedMap)
	if !ok {
		return nil, fmt.Errorf("package.json in %s is not an object", dir)
	}
	pkg := &packageJSON{
		dir:    dir,
		name:   fields.String("name"),
		typ:    fields.String("type"),
		fields: fields,
	}
	pkg.exports, _ = fields.Get("exports")
	pkg.imports, _ = fields.Get("imports")
	return pkg, nil
}

// decodeOrdered decodes the next JSON value, turning objects into *orderedMap.
func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := &orderedMap{values: make(map[string]any)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeOrdered(dec)
				if err != nil {
					return nil, err
				}
				if _, seen := m.values[key]; !seen {
					m.keys = append(m.keys, key)
				}
				m.values[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			var arr []any
			for dec.More() {
				val, err := decodeOrdered(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}
