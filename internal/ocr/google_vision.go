package ocr

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"taxdoc/internal/logger"
)

// MaxImageBytes is the Vision API limit for inline image content (20MB).
const MaxImageBytes = 20 * 1024 * 1024

// imageAnnotator is the part of the Vision client the engine uses.
type imageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// GoogleVisionEngine implements Engine using Google Cloud Vision API.
type GoogleVisionEngine struct {
	client imageAnnotator
	closer func() error
	log    zerolog.Logger
}

// NewGoogleVisionEngine creates a Vision engine with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionEngine(ctx context.Context) (*GoogleVisionEngine, error) {
	const op = "NewGoogleVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	engine := NewGoogleVisionEngineWithClient(client)
	engine.closer = client.Close
	return engine, nil
}

// NewGoogleVisionEngineWithClient creates an engine with an explicit client (for testing).
func NewGoogleVisionEngineWithClient(client imageAnnotator) *GoogleVisionEngine {
	return &GoogleVisionEngine{
		client: client,
		log:    logger.WithComponent("google-vision"),
	}
}

// RecognizeImage sends the page to DOCUMENT_TEXT_DETECTION. The page
// segmentation mode has no Vision equivalent; layout analysis is always automatic.
func (g *GoogleVisionEngine) RecognizeImage(ctx context.Context, png []byte, lang string, _ PageSegMode) (string, error) {
	const op = "RecognizeImage"

	if len(png) > MaxImageBytes {
		return "", WrapOCRError(op, ErrInvalidInput, fmt.Sprintf("image size: %d bytes", len(png)))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: png},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: BaseLanguages(lang),
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", WrapOCRError(op, err, "Vision API call failed")
	}
	if len(resp.GetResponses()) == 0 {
		return "", WrapOCRError(op, ErrRecognitionFailed, "no response from Vision API")
	}

	imageResp := resp.GetResponses()[0]
	if imageResp.GetError() != nil {
		return "", WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", imageResp.GetError().GetMessage()))
	}

	// A page without text has no full text annotation; that is not an error.
	text := imageResp.GetFullTextAnnotation().GetText()
	g.log.Debug().
		Strs("language_hints", req.Requests[0].ImageContext.LanguageHints).
		Int("characters", len(text)).
		Msg("Page recognized")

	return text, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionEngine) Close() error {
	if g.closer != nil {
		return g.closer()
	}
	return nil
}
