package documents

import (
	"encoding/json"
	"strings"
)

// Paths is an ordered list of object store references.
// It always encodes as a JSON array; legacy rows holding null or a bare
// string decode into the list form.
type Paths []string

// Normalize coerces a stored document value into Paths:
// nil becomes empty, a bare string becomes a one-element list, and
// empty entries are dropped.
func Normalize(value any) Paths {
	out := Paths{}
	switch v := value.(type) {
	case nil:
	case string:
		out = out.add(v)
	case Paths:
		for _, s := range v {
			out = out.add(s)
		}
	case []string:
		for _, s := range v {
			out = out.add(s)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = out.add(s)
			}
		}
	}
	return out
}

func (p Paths) add(s string) Paths {
	if strings.TrimSpace(s) == "" {
		return p
	}
	return append(p, s)
}

// Without returns p minus every entry in removed, keeping order
func (p Paths) Without(removed Paths) Paths {
	out := make(Paths, 0, len(p))
	if len(removed) == 0 {
		return append(out, p...)
	}

	drop := make(map[string]struct{}, len(removed))
	for _, r := range removed {
		drop[r] = struct{}{}
	}
	for _, s := range p {
		if _, ok := drop[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether path is in p
func (p Paths) Contains(path string) bool {
	for _, s := range p {
		if s == path {
			return true
		}
	}
	return false
}

// MarshalJSON encodes nil as []
func (p Paths) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(p))
}

// UnmarshalJSON accepts null, a string, or an array of strings
func (p *Paths) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Normalize(raw)
	return nil
}
