// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package tools

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

// compileSchema compiles a JSON Schema expressed as a Go map.
func compileSchema(schema map[string]any) (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
}

// validateArgs checks raw JSON arguments against a compiled schema and
// returns every violation in one error.
func validateArgs(tool string, schema *gojsonschema.Schema, args string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(args))
	if err != nil {
		return agenterr.Wrap(err, agenterr.CodeAgentToolInvalidInput, "arguments are not valid JSON",
			agenterr.FieldTool(tool))
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return agenterr.New(agenterr.CodeAgentToolInvalidInput,
		"invalid arguments: "+strings.Join(msgs, "; "),
		agenterr.FieldTool(tool))
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "minLength": 1, "description": description}
}

func optionalStringProp(description string) map[string]any {
	return map[string]any{"type": []any{"string", "null"}, "description": description}
}

func objectSchema(required []string, props map[string]any) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   req,
	}
}
