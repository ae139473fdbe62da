package llm

import (
	"context"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/type/date"
	"google.golang.org/genproto/googleapis/type/money"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeProcessor struct {
	doc *documentaipb.Document
	err error
	req *documentaipb.ProcessRequest
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &documentaipb.ProcessResponse{Document: f.doc}, nil
}

func moneyEntity(kind, mention string, units int64, nanos int32) *documentaipb.Document_Entity {
	return &documentaipb.Document_Entity{
		Type:        kind,
		MentionText: mention,
		Confidence:  0.9,
		NormalizedValue: &documentaipb.Document_Entity_NormalizedValue{
			StructuredValue: &documentaipb.Document_Entity_NormalizedValue_MoneyValue{
				MoneyValue: &money.Money{CurrencyCode: "USD", Units: units, Nanos: nanos},
			},
		},
	}
}

func TestDocumentAIExtractMapsEntities(t *testing.T) {
	processor := &fakeProcessor{doc: &documentaipb.Document{
		Entities: []*documentaipb.Document_Entity{
			{Type: "invoice_id", MentionText: " INV-42 ", Confidence: 0.95},
			{Type: "supplier_name", MentionText: "Acme Traders", Confidence: 0.9},
			{
				Type:        "invoice_date",
				MentionText: "12/03/2024",
				Confidence:  0.9,
				NormalizedValue: &documentaipb.Document_Entity_NormalizedValue{
					StructuredValue: &documentaipb.Document_Entity_NormalizedValue_DateValue{
						DateValue: &date.Date{Year: 2024, Month: 3, Day: 12},
					},
				},
			},
			moneyEntity("net_amount", "$80.00", 80, 0),
			moneyEntity("total_tax_amount", "$20.50", 20, 500000000),
			{
				Type:        "line_item",
				MentionText: "Widget 2 40.00 80.00",
				Confidence:  0.8,
				Properties: []*documentaipb.Document_Entity{
					{Type: "line_item/description", MentionText: "Widget"},
					{Type: "line_item/quantity", MentionText: "2"},
					{Type: "line_item/amount", MentionText: "80.00"},
				},
			},
			{Type: "ship_to_address", MentionText: "ignored", Confidence: 0.9},
		},
	}}

	extractor := NewDocumentAIExtractorWithClient(processor, DocumentAIConfig{ProjectID: "p", Location: "eu", ProcessorID: "abc"})
	candidate, err := extractor.Extract(context.Background(), "aW1hZ2U=", "ignored prompt", "ignored model")
	require.NoError(t, err)

	assert.Equal(t, "projects/p/locations/eu/processors/abc", processor.req.Name)
	assert.Equal(t, "image/png", processor.req.GetRawDocument().GetMimeType())
	assert.Equal(t, []byte("image"), processor.req.GetRawDocument().GetContent())

	fields := candidate.Fields
	assert.Equal(t, "invoice", fields["document_type"])
	assert.Equal(t, "INV-42", fields["invoice_number"])
	assert.Equal(t, "Acme Traders", fields["vendor_name"])
	assert.Equal(t, "2024-03-12", fields["date"])
	assert.Equal(t, "80", fields["subtotal_amount"])
	assert.Equal(t, "20.5", fields["tax_amount"])
	assert.NotContains(t, fields, "ship_to_address")
	assert.Equal(t, []any{map[string]any{
		"description": "Widget",
		"quantity":    "2",
		"total_price": "80.00",
	}}, fields["line_items"])
	assert.Equal(t, "high", fields["accuracy_confidence"])
	assert.Empty(t, candidate.SchemaIssues)
}

func TestDocumentAIExtractErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"deadline", status.Error(codes.DeadlineExceeded, "deadline"), ErrInferenceTimeout},
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), ErrInferenceUnreachable},
		{"permission", status.Error(codes.PermissionDenied, "denied"), ErrMissingCredentials},
		{"not found", status.Error(codes.NotFound, "no processor"), ErrInvalidConfiguration},
		{"internal", status.Error(codes.Internal, "boom"), ErrInferenceRequestFailed},
		{"context deadline", context.DeadlineExceeded, ErrInferenceTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewDocumentAIExtractorWithClient(&fakeProcessor{err: tt.err}, DocumentAIConfig{ProjectID: "p", Location: "us", ProcessorID: "abc"})
			_, err := extractor.Extract(context.Background(), "aW1hZ2U=", "", "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDocumentAIExtractRejectsBadPayload(t *testing.T) {
	extractor := NewDocumentAIExtractorWithClient(&fakeProcessor{}, DocumentAIConfig{})
	_, err := extractor.Extract(context.Background(), "%%%", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
