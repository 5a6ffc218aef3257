package recipe

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// NormalizeAndSanitizeJSON
// - Coerces ingredient/instruction entries that came back as objects
//   ({"quantity": "2 cups", "ingredient": "flour"}) or numbers into strings
// - Drops null/empty optionals
// - Coerces numeric servings/time fields to strings
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	// 1) flatten list entries to strings
	for _, k := range []string{"ingredients", "instructions"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			delete(m, k)
			dropped = append(dropped, k+"(type)")
			continue
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s := stringifyItem(item)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			delete(m, k)
			dropped = append(dropped, k+"(empty)")
		} else {
			m[k] = out
		}
	}

	// 2) coerce scalar metadata to trimmed strings; drop empties
	for _, k := range []string{"title", "servings", "prep_time", "cook_time"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		case float64:
			m[k] = strings.TrimSuffix(fmt.Sprintf("%v", t), ".0")
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	// 3) remove unknown keys
	allowed := map[string]struct{}{
		"title": {}, "ingredients": {}, "instructions": {},
		"servings": {}, "prep_time": {}, "cook_time": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}

// stringifyItem flattens one list entry. Models sometimes split ingredient
// lines into {quantity, ingredient} objects; keep them as a single string.
func stringifyItem(item any) string {
	switch t := item.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", t), ".0")
	case map[string]any:
		q, _ := t["quantity"].(string)
		ing, _ := t["ingredient"].(string)
		switch {
		case q != "" && ing != "":
			return strings.TrimSpace(q + " " + ing)
		case ing != "":
			return strings.TrimSpace(ing)
		case q != "":
			return strings.TrimSpace(q)
		}
		for _, v := range t {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
