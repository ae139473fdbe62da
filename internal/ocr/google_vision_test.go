package ocr

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"
)

type fakeAnnotator struct {
	resp *visionpb.BatchAnnotateImagesResponse
	err  error
	req  *visionpb.BatchAnnotateImagesRequest
}

func (f *fakeAnnotator) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestGoogleVisionEngineRecognizeImage(t *testing.T) {
	client := &fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{FullTextAnnotation: &visionpb.TextAnnotation{Text: "GSTIN 22AAAAA0000A1Z5"}},
		},
	}}
	engine := NewGoogleVisionEngineWithClient(client)

	text, err := engine.RecognizeImage(context.Background(), []byte("png"), "hin", PageSegAuto)
	require.NoError(t, err)
	assert.Equal(t, "GSTIN 22AAAAA0000A1Z5", text)

	require.Len(t, client.req.Requests, 1)
	annotate := client.req.Requests[0]
	assert.Equal(t, []byte("png"), annotate.Image.Content)
	assert.Equal(t, visionpb.Feature_DOCUMENT_TEXT_DETECTION, annotate.Features[0].Type)
	assert.Equal(t, []string{"hi"}, annotate.ImageContext.LanguageHints)
}

func TestGoogleVisionEngineErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeAnnotator
	}{
		{"call fails", &fakeAnnotator{err: errors.New("PermissionDenied")}},
		{"empty response", &fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{}}},
		{"image error", &fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{
			Responses: []*visionpb.AnnotateImageResponse{{Error: &status.Status{Message: "Bad image data."}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewGoogleVisionEngineWithClient(tt.client)
			_, err := engine.RecognizeImage(context.Background(), []byte("png"), "en", PageSegAuto)
			require.Error(t, err)

			var ocrErr *OCRError
			assert.True(t, errors.As(err, &ocrErr))
		})
	}
}

func TestGoogleVisionEngineBlankPage(t *testing.T) {
	client := &fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{}},
	}}
	engine := NewGoogleVisionEngineWithClient(client)

	text, err := engine.RecognizeImage(context.Background(), []byte("png"), "en", PageSegAuto)
	require.NoError(t, err)
	assert.Empty(t, text)
}
