package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

// candidateSchema describes what a well-behaved model returns. Violations are
// informational: normalization copes with every shape.
const candidateSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "text": {"type": ["string", "null"]},
    "scalar": {"type": ["string", "number", "null"]},
    "item": {
      "type": ["object", "string"],
      "properties": {
        "description": {"type": ["string", "null"]},
        "quantity": {"type": ["string", "number", "null"]},
        "unit_price": {"type": ["string", "number", "null"]},
        "total_price": {"type": ["string", "number", "null"]}
      }
    }
  },
  "properties": {
    "document_type": {"$ref": "#/definitions/text"},
    "invoice_number": {"type": ["string", "number", "null"]},
    "date": {"$ref": "#/definitions/scalar"},
    "due_date": {"$ref": "#/definitions/scalar"},
    "vendor_name": {"$ref": "#/definitions/text"},
    "vendor_address": {"$ref": "#/definitions/text"},
    "vendor_tax_id": {"$ref": "#/definitions/text"},
    "customer_name": {"$ref": "#/definitions/text"},
    "customer_address": {"$ref": "#/definitions/text"},
    "customer_tax_id": {"$ref": "#/definitions/text"},
    "subtotal_amount": {"$ref": "#/definitions/scalar"},
    "tax_amount": {"$ref": "#/definitions/scalar"},
    "total_amount": {"$ref": "#/definitions/scalar"},
    "currency": {"$ref": "#/definitions/text"},
    "payment_terms": {"$ref": "#/definitions/text"},
    "notes": {"$ref": "#/definitions/text"},
    "extracted_language": {"$ref": "#/definitions/text"},
    "accuracy_confidence": {"$ref": "#/definitions/text"},
    "error_notes": {"$ref": "#/definitions/text"},
    "line_items": {
      "type": ["array", "string", "null"],
      "items": {"$ref": "#/definitions/item"}
    }
  }
}`

var compileCandidateSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("candidate.json", strings.NewReader(candidateSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("candidate.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// SchemaIssues lists where fields deviate from the expected candidate shape.
// An empty result means the fields conform.
func SchemaIssues(fields map[string]any) []string {
	schema, err := compileCandidateSchema()
	if err != nil {
		return []string{err.Error()}
	}

	// Round-trip through JSON so that values built in Go (float64, []string,
	// typed maps) reach the validator in its expected representation.
	data, err := json.Marshal(fields)
	if err != nil {
		return []string{fmt.Sprintf("marshal candidate: %v", err)}
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return []string{fmt.Sprintf("unmarshal candidate: %v", err)}
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	var issues []string
	collectLeaves(verr, &issues)
	return issues
}

func collectLeaves(verr *jsonschema.ValidationError, issues *[]string) {
	if len(verr.Causes) == 0 {
		location := verr.InstanceLocation
		if location == "" {
			location = "/"
		}
		*issues = append(*issues, fmt.Sprintf("%s: %s", location, verr.Message))
		return
	}
	for _, cause := range verr.Causes {
		collectLeaves(cause, issues)
	}
}

// NewCheckedCandidate builds a JSON candidate and attaches schema issues,
// logging them at warn level.
func NewCheckedCandidate(fields map[string]any, raw string) *models.Candidate {
	candidate := models.NewJSONCandidate(fields, raw)
	candidate.SchemaIssues = SchemaIssues(candidate.Fields)
	if len(candidate.SchemaIssues) > 0 {
		log := logger.WithComponent("llm")
		log.Warn().
			Strs("issues", candidate.SchemaIssues).
			Msg("Model response deviates from the candidate schema")
	}
	return candidate
}
