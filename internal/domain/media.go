package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
)

// DefaultMediaExtension is used for local file names when the storage key has none.
const DefaultMediaExtension = ".mp4"

// Media is a single item returned by the remote matcher.
//
// Only ID and Key are interpreted by the service. Every other attribute
// the matcher returns is kept in Attributes and written back unchanged.
type Media struct {
	ID         string         `json:"-"`
	Key        string         `json:"-"`
	Similarity *float64       `json:"-"`
	WatchURL   string         `json:"-"`
	Attributes map[string]any `json:"-"`
}

// LocalFileName returns the file name used when the item is downloaded.
// Items without an ID fall back to media_<position>, position being 1-based.
func (m Media) LocalFileName(position int) string {
	id := m.ID
	if id == "" {
		id = fmt.Sprintf("media_%d", position)
	}
	ext := path.Ext(m.Key)
	if ext == "" {
		ext = DefaultMediaExtension
	}
	return id + ext
}

// UnmarshalJSON accepts string or numeric ids and keeps unknown fields.
// Numbers are decoded as json.Number so large integers keep every digit.
func (m *Media) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*m = Media{}
	for name, value := range raw {
		switch name {
		case "id":
			m.ID = stringify(value)
		case "key":
			if s, ok := value.(string); ok {
				m.Key = s
			}
		case "similarity":
			if n, ok := value.(json.Number); ok {
				if f, err := n.Float64(); err == nil {
					m.Similarity = &f
				}
			}
		case "watch_url":
			if s, ok := value.(string); ok {
				m.WatchURL = s
			}
		default:
			if m.Attributes == nil {
				m.Attributes = make(map[string]any)
			}
			m.Attributes[name] = value
		}
	}
	return nil
}

// MarshalJSON writes the known fields next to the preserved attributes.
func (m Media) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Attributes)+4)
	for name, value := range m.Attributes {
		out[name] = value
	}
	if m.ID != "" {
		out["id"] = m.ID
	}
	if m.Key != "" {
		out["key"] = m.Key
	}
	if m.Similarity != nil {
		out["similarity"] = *m.Similarity
	}
	if m.WatchURL != "" {
		out["watch_url"] = m.WatchURL
	}
	return json.Marshal(out)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
