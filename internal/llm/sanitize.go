package llm

import (
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/jobs-tracker/constants"
)

// NormalizeJobDetails coerces a decoded model answer toward BuildJobJSONSchema.
// It only touches known keys:
//   - null values are dropped, so downstream defaults apply
//   - numbers and booleans become strings
//   - skills_required given as a string is split on commas
//   - objects (and other unexpected shapes) are dropped
//
// The input map is not modified. The returned slice names every touched key.
func NormalizeJobDetails(details map[string]any, logger *slog.Logger) (map[string]any, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	m := maps.Clone(details)
	changed := make([]string, 0, 4)

	for _, k := range constants.ExtractionKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		if k == constants.KeySkillsRequired {
			skills, touched, keep := normalizeSkills(v)
			if !keep {
				delete(m, k)
				changed = append(changed, k+"(dropped)")
			} else if touched {
				m[k] = skills
				changed = append(changed, k)
			}
			continue
		}
		switch t := v.(type) {
		case string:
		case nil:
			delete(m, k)
			changed = append(changed, k+"(null)")
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
			changed = append(changed, k)
		case bool:
			m[k] = strconv.FormatBool(t)
			changed = append(changed, k)
		case []any:
			parts := stringItems(t)
			m[k] = strings.Join(parts, ", ")
			changed = append(changed, k)
		default:
			delete(m, k)
			changed = append(changed, k+"(type)")
		}
	}

	if len(changed) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changed", changed)
	}
	return m, changed
}

func normalizeSkills(v any) (skills []any, touched, keep bool) {
	switch t := v.(type) {
	case nil:
		return nil, true, false
	case string:
		out := make([]any, 0, 8)
		for _, p := range strings.Split(t, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true, true
	case []any:
		out := make([]any, 0, len(t))
		touched := false
		for _, item := range t {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case nil:
				touched = true
			case map[string]any, []any:
				touched = true
			default:
				out = append(out, fmt.Sprint(s))
				touched = true
			}
		}
		return out, touched, true
	default:
		return nil, true, false
	}
}

func stringItems(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	return out
}
