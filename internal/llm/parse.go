package llm

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"taxdoc/pkg/models"
)

// NotJSONMessage is the candidate error for answers without a JSON object.
const NotJSONMessage = "model response is not valid JSON"

// fencePattern matches ```json ... ``` and plain ``` ... ``` blocks.
var fencePattern = regexp.MustCompile("(?is)```(?:json)?[ \\t]*\\r?\\n?(.*?)```")

// ParseModelResponse recovers a JSON object from a model answer. The first
// fenced block whose body is a JSON object wins; otherwise the whole trimmed
// text is tried. Anything else yields a raw text candidate. It never fails.
func ParseModelResponse(text string) *models.Candidate {
	for _, match := range fencePattern.FindAllStringSubmatch(text, -1) {
		if fields, ok := decodeObject(match[1]); ok {
			return NewCheckedCandidate(fields, text)
		}
	}

	if fields, ok := decodeObject(text); ok {
		return NewCheckedCandidate(fields, text)
	}

	return models.NewRawTextCandidate(text, NotJSONMessage)
}

// decodeObject decodes s as exactly one JSON object. Numbers are kept as
// json.Number so that their original text survives.
func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(s)))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return fields, true
}
