package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/spigell/skillmatrix/internal/matrix"
)

var topLevelKeys = map[string]struct{}{
	"title": {}, "seniority": {}, "skills": {}, "mustHave": {},
	"niceToHave": {}, "salary": {}, "summary": {},
}

var seniorityAliases = map[string]matrix.Seniority{
	"middle":       matrix.SeniorityMid,
	"mid-level":    matrix.SeniorityMid,
	"mid level":    matrix.SeniorityMid,
	"intermediate": matrix.SeniorityMid,
	"entry":        matrix.SeniorityJunior,
	"entry-level":  matrix.SeniorityJunior,
	"sr":           matrix.SenioritySenior,
	"jr":           matrix.SeniorityJunior,
	"":             matrix.SeniorityUnknown,
}

// ExtractJSON strips markdown fences and any prose surrounding the outermost
// JSON object in a model response.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start > 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

// Decode parses a model response into a sanitized candidate map.
// Notes describe every change made by Sanitize.
func Decode(raw string) (map[string]any, []string, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, nil, fmt.Errorf("model response is empty")
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, nil, fmt.Errorf("parse model response: %w", err)
	}

	notes := Sanitize(doc)
	return doc, notes, nil
}

// Sanitize normalizes a decoded candidate in place so that near-miss model
// output passes validation: unknown keys are dropped, strings trimmed,
// seniority and skill tokens lower-cased, currency upper-cased, null or empty
// optionals removed and list values de-duplicated. It returns a note per change.
func Sanitize(doc map[string]any) []string {
	notes := make([]string, 0, 4)
	if doc == nil {
		return notes
	}

	for key := range doc {
		if _, ok := topLevelKeys[key]; !ok {
			delete(doc, key)
			notes = append(notes, key+"(unknown)")
		}
	}

	if v, ok := doc["title"].(string); ok {
		doc["title"] = strings.Join(strings.Fields(v), " ")
	}

	if v, ok := doc["seniority"]; ok {
		switch s := v.(type) {
		case string:
			level := strings.ToLower(strings.TrimSpace(s))
			if alias, ok := seniorityAliases[level]; ok {
				notes = append(notes, fmt.Sprintf("seniority(%s->%s)", level, alias))
				level = string(alias)
			}
			doc["seniority"] = level
		case nil:
			doc["seniority"] = string(matrix.SeniorityUnknown)
			notes = append(notes, "seniority(null)")
		}
	}

	if skills, ok := doc["skills"].(map[string]any); ok {
		allowed := make(map[string]struct{}, len(matrix.Categories))
		for _, c := range matrix.Categories {
			allowed[string(c)] = struct{}{}
			key := string(c)
			raw, present := skills[key]
			if !present {
				notes = append(notes, "skills."+key+"(missing)")
			}
			if list, ok := coerceStringList(raw, true); ok {
				skills[key] = list
			}
		}
		for key := range skills {
			if _, ok := allowed[key]; !ok {
				delete(skills, key)
				notes = append(notes, "skills."+key+"(unknown)")
			}
		}
	}

	for _, key := range []string{"mustHave", "niceToHave"} {
		if list, ok := coerceStringList(doc[key], false); ok {
			doc[key] = list
		}
	}

	if v, present := doc["salary"]; present {
		if salary := sanitizeSalary(v); salary != nil {
			doc["salary"] = salary
		} else {
			delete(doc, "salary")
			notes = append(notes, "salary(empty)")
		}
	}

	if v, ok := doc["summary"].(string); ok {
		summary := strings.TrimSpace(v)
		if runes := []rune(summary); len(runes) > matrix.MaxSummaryLength {
			summary = strings.TrimRightFunc(string(runes[:matrix.MaxSummaryLength-3]), unicode.IsSpace) + "…"
			notes = append(notes, "summary(truncated)")
		}
		doc["summary"] = summary
	}

	return notes
}

func sanitizeSalary(v any) map[string]any {
	salary, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	out := map[string]any{}
	if c, ok := salary["currency"].(string); ok {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out["currency"] = c
		}
	} else if raw, present := salary["currency"]; present && raw != nil {
		out["currency"] = raw
	}

	var bounds [2]float64
	for i, key := range []string{"min", "max"} {
		f := coerceFloat(salary[key])
		if math.IsNaN(f) || f == 0 {
			continue
		}
		bounds[i] = f
		out[key] = f
	}
	if bounds[0] != 0 && bounds[1] != 0 && bounds[1] < bounds[0] {
		out["min"], out["max"] = bounds[1], bounds[0]
	}

	// A salary without any amount carries no signal. Amounts without a
	// currency are kept so the validator reports it.
	if bounds[0] == 0 && bounds[1] == 0 {
		return nil
	}
	return out
}

func coerceStringList(v any, lower bool) ([]string, bool) {
	var items []any
	switch val := v.(type) {
	case nil:
		return []string{}, true
	case []any:
		items = val
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			items = append(items, part)
		}
	default:
		return nil, false
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		s = strings.Join(strings.Fields(s), " ")
		if lower {
			s = strings.ToLower(s)
		}
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, true
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if trimmed == "" {
			return math.NaN()
		}
		multiplier := 1.0
		if strings.HasSuffix(strings.ToLower(trimmed), "k") {
			multiplier = 1000
			trimmed = trimmed[:len(trimmed)-1]
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f * multiplier
	default:
		return math.NaN()
	}
}
