package models

// CandidateKind tells how a model answer was interpreted.
type CandidateKind int

const (
	// CandidateJSON means the answer contained a JSON object.
	CandidateJSON CandidateKind = iota

	// CandidateRawText means no JSON object could be recovered.
	CandidateRawText
)

// Candidate is the vision model's unverified extraction attempt. Field values
// are whatever the model produced: strings, numbers, lists, maps or nil.
type Candidate struct {
	Kind   CandidateKind
	Fields map[string]any

	// Raw is the model answer, kept for both kinds.
	Raw string

	// Error describes why Raw could not be used (CandidateRawText only).
	Error string

	// SchemaIssues lists deviations from the expected field types.
	SchemaIssues []string
}

// NewJSONCandidate wraps a decoded JSON object.
func NewJSONCandidate(fields map[string]any, raw string) *Candidate {
	if fields == nil {
		fields = map[string]any{}
	}
	return &Candidate{Kind: CandidateJSON, Fields: fields, Raw: raw}
}

// NewRawTextCandidate records an answer that was not valid JSON.
func NewRawTextCandidate(raw, reason string) *Candidate {
	return &Candidate{Kind: CandidateRawText, Raw: raw, Error: reason}
}

// Map returns the loosely typed view of the candidate. Raw text answers are
// returned as {"error": ..., "raw_model_response": ...}.
func (c *Candidate) Map() map[string]any {
	if c == nil {
		return nil
	}
	if c.Kind == CandidateRawText {
		return map[string]any{
			"error":              c.Error,
			"raw_model_response": c.Raw,
		}
	}
	return c.Fields
}
