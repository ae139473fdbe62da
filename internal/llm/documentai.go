package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taxdoc/internal/logger"
	"taxdoc/pkg/models"
)

// MaxDocumentSizeBytes is the Document AI limit for inline documents (20MB).
const MaxDocumentSizeBytes = 20 * 1024 * 1024

// DocumentAIConfig identifies the invoice processor to call.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string // "us" or "eu"
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// documentProcessor is the part of the Document AI client the extractor uses.
type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
}

// entityFields maps invoice parser entity types onto candidate keys.
var entityFields = map[string]string{
	"invoice_id":       "invoice_number",
	"invoice_date":     "date",
	"due_date":         "due_date",
	"supplier_name":    "vendor_name",
	"supplier_address": "vendor_address",
	"supplier_tax_id":  "vendor_tax_id",
	"receiver_name":    "customer_name",
	"receiver_address": "customer_address",
	"receiver_tax_id":  "customer_tax_id",
	"net_amount":       "subtotal_amount",
	"total_tax_amount": "tax_amount",
	"total_amount":     "total_amount",
	"currency":         "currency",
	"payment_terms":    "payment_terms",
}

// lineItemFields maps line_item properties onto line item keys.
var lineItemFields = map[string]string{
	"line_item/description": "description",
	"line_item/quantity":    "quantity",
	"line_item/unit_price":  "unit_price",
	"line_item/amount":      "total_price",
}

// DocumentAIExtractor uses a Google Document AI invoice processor instead
// of a prompted model. Prompt and model arguments are ignored.
type DocumentAIExtractor struct {
	client documentProcessor
	closer func() error
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIExtractor creates an extractor with credentials from environment.
// Expects: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
func NewDocumentAIExtractor(ctx context.Context, config DocumentAIConfig) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapExtractionError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapExtractionError(op, ErrMissingCredentials, err.Error())
	}

	extractor := NewDocumentAIExtractorWithClient(client, config)
	extractor.closer = client.Close
	return extractor, nil
}

// NewDocumentAIExtractorWithClient creates an extractor with an explicit client (for testing).
func NewDocumentAIExtractorWithClient(client documentProcessor, config DocumentAIConfig) *DocumentAIExtractor {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &DocumentAIExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}
}

// Extract sends the page image to the processor and maps its entities.
func (d *DocumentAIExtractor) Extract(ctx context.Context, imagePayload, _, _ string) (*models.Candidate, error) {
	const op = "Extract"

	image, err := base64.StdEncoding.DecodeString(imagePayload)
	if err != nil || len(image) == 0 {
		return nil, WrapExtractionError(op, ErrInvalidInput, "image payload is not base64 data")
	}
	if len(image) > MaxDocumentSizeBytes {
		return nil, WrapExtractionError(op, ErrInvalidInput, fmt.Sprintf("image size: %d bytes", len(image)))
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	resp, err := d.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: "image/png",
			},
		},
	})
	if err != nil {
		d.log.Error().Err(err).Str("processor", d.config.ProcessorID).Msg("Document AI request failed")
		return nil, d.mapError(op, err)
	}
	if resp.GetDocument() == nil {
		return nil, WrapExtractionError(op, ErrInvalidResponse, "no document in response")
	}

	fields := d.entitiesToFields(resp.GetDocument())
	raw, _ := json.Marshal(fields)

	d.log.Info().
		Int("entities", len(resp.GetDocument().GetEntities())).
		Int("fields", len(fields)).
		Msg("Document AI extraction completed")

	return NewCheckedCandidate(fields, string(raw)), nil
}

// processorName builds the full resource name of the processor.
func (d *DocumentAIExtractor) processorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
	if d.config.ProcessorVersion != "" {
		name += "/processorVersions/" + d.config.ProcessorVersion
	}
	return name
}

// mapError converts gRPC status codes to the package sentinels.
func (d *DocumentAIExtractor) mapError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapExtractionError(op, ErrInferenceTimeout, err.Error())
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.DeadlineExceeded:
		return WrapExtractionError(op, ErrInferenceTimeout, st.Message())
	case codes.Unavailable:
		return WrapExtractionError(op, ErrInferenceUnreachable, st.Message())
	case codes.Canceled:
		return WrapExtractionError(op, context.Canceled, st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return WrapExtractionError(op, ErrMissingCredentials, st.Message())
	case codes.NotFound:
		return WrapExtractionError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", d.config.ProcessorID))
	default:
		return &RequestFailedError{StatusCode: int(st.Code()), Body: st.Message()}
	}
}

// entitiesToFields converts Document AI entities into candidate fields.
func (d *DocumentAIExtractor) entitiesToFields(doc *documentaipb.Document) map[string]any {
	fields := map[string]any{"document_type": "invoice"}
	var items []any
	var confidenceSum float32

	for _, entity := range doc.GetEntities() {
		confidenceSum += entity.GetConfidence()

		if entity.GetType() == "line_item" {
			item := map[string]any{}
			for _, prop := range entity.GetProperties() {
				if key, ok := lineItemFields[prop.GetType()]; ok {
					item[key] = entityValue(prop)
				}
			}
			if _, ok := item["description"]; !ok {
				item["description"] = strings.TrimSpace(entity.GetMentionText())
			}
			items = append(items, item)
			continue
		}

		key, ok := entityFields[entity.GetType()]
		if !ok {
			d.log.Debug().Str("entity_type", entity.GetType()).Msg("Skipping unmapped entity")
			continue
		}
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = entityValue(entity)
	}

	if items != nil {
		fields["line_items"] = items
	}
	if n := len(doc.GetEntities()); n > 0 {
		fields["accuracy_confidence"] = confidenceLabel(confidenceSum / float32(n))
	}
	return fields
}

// entityValue prefers the normalized value and falls back to the mention text.
func entityValue(entity *documentaipb.Document_Entity) any {
	if nv := entity.GetNormalizedValue(); nv != nil {
		if date := nv.GetDateValue(); date != nil && date.GetYear() > 0 {
			return fmt.Sprintf("%04d-%02d-%02d", date.GetYear(), date.GetMonth(), date.GetDay())
		}
		if money := nv.GetMoneyValue(); money != nil {
			amount := float64(money.GetUnits()) + float64(money.GetNanos())/1e9
			return strconv.FormatFloat(amount, 'f', -1, 64)
		}
	}
	return strings.TrimSpace(entity.GetMentionText())
}

func confidenceLabel(avg float32) string {
	switch {
	case avg >= 0.85:
		return "high"
	case avg >= 0.6:
		return "medium"
	default:
		return "low"
	}
}

// Close closes the underlying Document AI client.
func (d *DocumentAIExtractor) Close() error {
	if d.closer != nil {
		return d.closer()
	}
	return nil
}
