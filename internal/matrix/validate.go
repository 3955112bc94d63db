package matrix

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

const rootPath = "(root)"

// Violation is a single failed constraint at a dotted field path.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a candidate.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		v := e.Violations[0]
		return fmt.Sprintf("validation failed: %s: %s", v.Path, v.Message)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d violations:", len(e.Violations)))
	for i, v := range e.Violations {
		sb.WriteString(fmt.Sprintf("\n  %d. %s: %s", i+1, v.Path, v.Message))
	}
	return sb.String()
}

// Paths returns the violated field paths in order.
func (e *ValidationError) Paths() []string {
	paths := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		paths = append(paths, v.Path)
	}
	return paths
}

var (
	schemaOnce   sync.Once
	schemaLoaded *gojsonschema.Schema
	schemaErr    error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaLoaded, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(Schema()))
	})
	return schemaLoaded, schemaErr
}

// ValidateJSON decodes raw JSON and validates it.
func ValidateJSON(raw []byte) (*SkillMatrix, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationError{Violations: []Violation{{
			Path:    rootPath,
			Message: fmt.Sprintf("invalid JSON: %v", err),
		}}}
	}
	return Validate(doc)
}

// Validate checks an arbitrary candidate against the SkillMatrix contract and
// returns the typed record. Candidates may be decoded JSON values, raw JSON
// bytes, or any value that marshals to JSON (including *SkillMatrix).
// On failure the error is a *ValidationError listing every violation.
func Validate(candidate any) (*SkillMatrix, error) {
	doc, err := normalize(candidate)
	if err != nil {
		return nil, &ValidationError{Violations: []Violation{{Path: rootPath, Message: err.Error()}}}
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile skill matrix schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, &ValidationError{Violations: []Violation{{Path: rootPath, Message: err.Error()}}}
	}

	semantic := semanticViolations(doc)
	if !result.Valid() {
		return nil, &ValidationError{Violations: sortViolations(append(schemaViolations(result.Errors()), semantic...))}
	}

	var out SkillMatrix
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &out,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, &ValidationError{Violations: []Violation{{Path: rootPath, Message: err.Error()}}}
	}

	if len(semantic) > 0 {
		return nil, &ValidationError{Violations: semantic}
	}

	return &out, nil
}

func normalize(candidate any) (any, error) {
	switch v := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("candidate is empty")
	case []byte:
		var doc any
		if err := json.Unmarshal(v, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return doc, nil
	case json.RawMessage:
		return normalize([]byte(v))
	case map[string]any:
		return v, nil
	}

	data, err := json.Marshal(candidate)
	if err != nil {
		return nil, fmt.Errorf("encode candidate: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	return doc, nil
}

func schemaViolations(errs []gojsonschema.ResultError) []Violation {
	violations := make([]Violation, 0, len(errs))

	for _, re := range errs {
		path := re.Field()
		if re.Type() == "required" {
			if property, ok := re.Details()["property"].(string); ok && property != "" {
				path = joinPath(path, property)
			}
		}
		if path == "" {
			path = rootPath
		}

		violations = append(violations, Violation{Path: path, Message: re.Description()})
	}

	return sortViolations(violations)
}

// sortViolations drops repeats and orders violations by path.
func sortViolations(violations []Violation) []Violation {
	out := make([]Violation, 0, len(violations))
	seen := make(map[Violation]struct{}, len(violations))
	for _, v := range violations {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})

	return out
}

func joinPath(parent, child string) string {
	if parent == "" || parent == rootPath {
		return child
	}
	return parent + "." + child
}

// semanticViolations checks constraints the schema cannot express. It reads the
// raw document so the checks still run when the schema layer rejects it.
func semanticViolations(doc any) []Violation {
	var violations []Violation

	root, _ := doc.(map[string]any)
	salary, _ := root["salary"].(map[string]any)
	low, lowOK := number(salary["min"])
	high, highOK := number(salary["max"])
	if lowOK && highOK && low > high {
		violations = append(violations, Violation{
			Path:    "salary",
			Message: fmt.Sprintf("min (%v) must not exceed max (%v)", low, high),
		})
	}

	return violations
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
