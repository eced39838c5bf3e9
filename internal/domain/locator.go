package domain

import (
	"encoding/json"
	"strings"
)

// LocatorTable maps a logical field to an ordered list of locator strings
type LocatorTable map[string][]string

// UnmarshalJSON accepts either a single locator string or a list of them per
// field. Empty and non-string entries are skipped.
func (t *LocatorTable) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*t = nil
		return nil
	}
	out := make(LocatorTable, len(raw))
	for field, value := range raw {
		var locators []string
		var single string
		var list []interface{}
		switch {
		case json.Unmarshal(value, &single) == nil:
			locators = []string{single}
		case json.Unmarshal(value, &list) == nil:
			for _, item := range list {
				if s, ok := item.(string); ok {
					locators = append(locators, s)
				}
			}
		}
		cleaned := make([]string, 0, len(locators))
		for _, locator := range locators {
			if locator = strings.TrimSpace(locator); locator != "" {
				cleaned = append(cleaned, locator)
			}
		}
		if len(cleaned) > 0 {
			out[field] = dedupLocators(cleaned)
		}
	}
	*t = out
	return nil
}

// Clone returns a deep copy of the table
func (t LocatorTable) Clone() LocatorTable {
	out := make(LocatorTable, len(t))
	for field, locators := range t {
		out[field] = append([]string(nil), locators...)
	}
	return out
}

// Fields returns the field names present in the table
func (t LocatorTable) Fields() []string {
	fields := make([]string, 0, len(t))
	for field := range t {
		fields = append(fields, field)
	}
	return fields
}

// MergeLocators returns dedup(base ++ learned) per field. Base entries keep
// their order and priority; learned entries are appended after them.
func MergeLocators(base, learned LocatorTable) LocatorTable {
	out := make(LocatorTable, len(base))
	for field := range base {
		out[field] = dedupLocators(base[field], learned[field])
	}
	for field := range learned {
		if _, ok := out[field]; !ok {
			out[field] = dedupLocators(nil, learned[field])
		}
	}
	return out
}

func dedupLocators(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, locator := range list {
			if locator == "" || seen[locator] {
				continue
			}
			seen[locator] = true
			out = append(out, locator)
		}
	}
	return out
}
