// Package extraction provides the HTTP client for the external word/image
// extraction service.
package extraction

import "github.com/spherical-ai/annotation-engine/internal/geometry"

// Word is a single extracted word with its position on the page.
type Word struct {
	Text    string        `json:"text"`
	BBox    geometry.BBox `json:"bbox"`
	BlockNo int           `json:"block_no"`
	LineNo  int           `json:"line_no"`
	WordNo  int           `json:"word_no"`
}

// Image is an extracted image region.
type Image struct {
	BBox geometry.BBox `json:"bbox"`
	Area float64       `json:"area"`
	Type string        `json:"type"`
}

// Dimensions holds the intrinsic size of a page.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page is one page of the extraction payload.
type Page struct {
	PageNumber int        `json:"page_number"`
	Dimensions Dimensions `json:"dimensions"`
	Words      []Word     `json:"words"`
	Images     []Image    `json:"images"`
}

// Document is the full extraction payload for a source document.
type Document struct {
	Pages []Page `json:"pages"`
}
