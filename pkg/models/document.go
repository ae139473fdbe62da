package models

import (
	"encoding/base64"
	"time"
)

// PageImage is one page of an uploaded document, encoded as PNG.
type PageImage struct {
	Number int    // 1-based page number
	PNG    []byte // PNG-encoded bitmap
	Width  int
	Height int
}

// Document is an uploaded file prepared for recognition and model submission.
type Document struct {
	Path      string
	Extension string // lower-case, without the dot
	Pages     []PageImage
}

// FirstPagePayload returns the base64 encoded first page, the image sent to
// the vision model. It is empty when the document has no pages.
func (d *Document) FirstPagePayload() string {
	if d == nil || len(d.Pages) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(d.Pages[0].PNG)
}

// Recognition is the OCR output for a whole document.
type Recognition struct {
	// FullText is every page's text joined with newlines.
	FullText string `json:"full_text"`

	// Pages holds the text of each page in order.
	Pages []string `json:"pages"`

	// Language is the OCR language that was used.
	Language string `json:"language"`

	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}
