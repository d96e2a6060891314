package deskhttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// decisionSchema is the intake contract. Proposals arrive from LLM
// agents, so structural validation happens before any field is trusted.
const decisionSchema = `{
	"type": "object",
	"required": ["symbol", "action", "quantity", "position_type"],
	"properties": {
		"symbol":         {"type": "string", "minLength": 1, "maxLength": 12},
		"action":         {"type": "string", "enum": ["BUY", "SELL", "buy", "sell"]},
		"quantity":       {"type": "integer", "minimum": 1},
		"position_type":  {"type": "string", "enum": ["LONG_TERM", "SHORT_TERM", "long_term", "short_term"]},
		"decision_id":    {"type": "string", "maxLength": 64},
		"price_hint":     {"type": "number", "exclusiveMinimum": 0},
		"reasoning":      {"type": "string", "maxLength": 4096},
		"market_context": {"type": "object"}
	},
	"additionalProperties": false
}`

var compiledDecisionSchema = mustCompileSchema(decisionSchema)

func mustCompileSchema(raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("decision.json", bytes.NewReader([]byte(raw))); err != nil {
		panic(err)
	}
	return compiler.MustCompile("decision.json")
}

// decodeDecision validates the raw body against the schema and decodes
// it. Schema errors surface as one short message, not the full tree.
func decodeDecision(raw []byte) (*decisionRequest, error) {
	var loose any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledDecisionSchema.Validate(loose); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) && len(ve.Causes) > 0 {
			return nil, fmt.Errorf("decision does not match schema: %s", ve.Causes[0].Error())
		}
		return nil, fmt.Errorf("decision does not match schema: %w", err)
	}
	var req decisionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding decision: %w", err)
	}
	return &req, nil
}
