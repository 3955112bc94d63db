package matrix

import (
	"encoding/json"
)

// MaxSummaryLength is the summary cap in Unicode code points.
const MaxSummaryLength = 300

// Schema returns the JSON Schema describing a SkillMatrix. A fresh map is
// returned on every call so callers may embed or mutate it freely.
func Schema() map[string]any {
	stringList := func() map[string]any {
		return map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}
	}

	skillProps := map[string]any{}
	skillRequired := make([]any, 0, len(Categories))
	for _, c := range Categories {
		skillProps[string(c)] = stringList()
		skillRequired = append(skillRequired, string(c))
	}

	seniorities := make([]any, 0, len(Seniorities))
	for _, s := range Seniorities {
		seniorities = append(seniorities, string(s))
	}

	currencies := make([]any, 0, len(Currencies))
	for _, c := range Currencies {
		currencies = append(currencies, string(c))
	}

	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "SkillMatrix",
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "seniority", "skills", "mustHave", "niceToHave", "summary"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "minLength": 1},
			"seniority": map[string]any{
				"type": "string",
				"enum": seniorities,
			},
			"skills": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             skillRequired,
				"properties":           skillProps,
			},
			"mustHave":   stringList(),
			"niceToHave": stringList(),
			"salary": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"currency"},
				"properties": map[string]any{
					"currency": map[string]any{"type": "string", "enum": currencies},
					"min":      map[string]any{"type": "number"},
					"max":      map[string]any{"type": "number"},
				},
			},
			"summary": map[string]any{"type": "string", "maxLength": MaxSummaryLength},
		},
	}
}

// SchemaJSON returns the indented JSON rendering of Schema, used in prompts.
func SchemaJSON() string {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		// Schema is a static literal; marshalling cannot fail.
		panic(err)
	}
	return string(data)
}
