package sync

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Source wraps a loosely structured JSON document, typically an API
// response, for path based reads.
type Source struct {
	data gjson.Result
}

// ParseSource parses a JSON document into a Source.
func ParseSource(json string) Source {
	return Source{data: gjson.Parse(json)}
}

func (s Source) StringForPath(path string) (string, bool) {
	result := s.data.Get(path)
	return result.String(), result.Exists() && (result.Value() != nil)
}

func (s Source) IntForPath(path string) (int64, bool) {
	result := s.data.Get(path)
	return result.Int(), result.Exists() && (result.Value() != nil)
}

func (s Source) BoolForPath(path string) (bool, bool) {
	result := s.data.Get(path)
	return result.Bool(), result.Exists() && (result.Value() != nil)
}

// ArrayForPath returns the elements of an array at the given path,
// each wrapped as a Source.
func (s Source) ArrayForPath(path string) []Source {
	result := s.data.Get(path)
	if !result.IsArray() {
		return nil
	}
	values := result.Array()
	sources := make([]Source, len(values))
	for i, v := range values {
		sources[i] = Source{data: v}
	}
	return sources
}

// JSON returns the raw JSON this Source wraps.
func (s Source) JSON() string {
	return s.data.Raw
}

// SelfID extracts a resource identifier from the trailing path segment of
// the HATEOAS self link. Returns "" when the response carries no self link.
func (s Source) SelfID() string {
	href := s.data.Get("_links.self.href").String()
	href = strings.TrimSuffix(href, "/")
	if href == "" {
		return ""
	}
	parts := strings.Split(href, "/")
	return parts[len(parts)-1]
}
