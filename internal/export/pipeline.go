// Package export assembles annotation templates and delivers them to the
// persistence API and a local sink.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/spherical-ai/annotation-engine/internal/annotation"
	"github.com/spherical-ai/annotation-engine/internal/geometry"
	"github.com/spherical-ai/annotation-engine/internal/observability"
)

// RegionExtractor resolves per-box region data from the source document.
type RegionExtractor interface {
	RegionText(ctx context.Context, document []byte, page int, bbox geometry.BBox) (string, error)
	RegionImage(ctx context.Context, document []byte, page int, bbox geometry.BBox) (string, error)
}

// Sink receives the serialized template as a local artifact.
type Sink interface {
	Write(name string, data []byte) error
}

// Uploader persists the template remotely.
type Uploader interface {
	SaveTemplate(ctx context.Context, name string, template []byte, document []byte) error
}

// Template is the exported document record.
type Template struct {
	Document        string        `json:"document"`
	ExportDate      string        `json:"exportDate"`
	AnnotationBoxes []ExportedBox `json:"annotationBoxes"`
}

// ExportedBox is one box in the exported record, with its settings cleaned
// per the cascade rules.
type ExportedBox struct {
	ID       string                     `json:"id"`
	X        float64                    `json:"x"`
	Y        float64                    `json:"y"`
	Width    float64                    `json:"width"`
	Height   float64                    `json:"height"`
	Page     int                        `json:"page"`
	Type     annotation.BoxType         `json:"type"`
	Settings annotation.CleanedSettings `json:"settings"`
}

// Request holds everything needed for one export run.
type Request struct {
	DocumentName string
	Document     []byte
	Boxes        []*annotation.Box
}

// Result reports what happened. Uploaded and Downloaded are independent; a
// failure of either sink never rolls back the other, and per-box extraction
// failures degrade to inline error strings instead of aborting the batch.
type Result struct {
	Template   *Template
	Payload    []byte
	Uploaded   bool
	Downloaded bool
	Errors     []string
}

// Pipeline walks the box collection, resolves per-box region data
// concurrently and delivers the assembled template.
type Pipeline struct {
	logger      *observability.Logger
	extractor   RegionExtractor
	sink        Sink
	uploader    Uploader
	concurrency int
}

// NewPipeline creates an export pipeline. Sink and uploader may be nil when
// the caller only wants the assembled template.
func NewPipeline(logger *observability.Logger, extractor RegionExtractor, sink Sink, uploader Uploader, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		logger:      logger.WithComponent("export"),
		extractor:   extractor,
		sink:        sink,
		uploader:    uploader,
		concurrency: concurrency,
	}
}

// Export assembles the template for the request and delivers it to both
// sinks. The only hard failure is serialization; everything else degrades.
func (p *Pipeline) Export(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	result := &Result{}

	exported := make([]ExportedBox, len(req.Boxes))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)
	for i, b := range req.Boxes {
		wg.Add(1)
		go func(i int, b *annotation.Box) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			exported[i] = p.exportBox(ctx, req.Document, b)
		}(i, b)
	}
	wg.Wait()

	result.Template = &Template{
		Document:        req.DocumentName,
		ExportDate:      started.UTC().Format(time.RFC3339),
		AnnotationBoxes: exported,
	}

	payload, err := json.MarshalIndent(result.Template, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	result.Payload = payload

	if p.uploader != nil {
		if err := p.uploader.SaveTemplate(ctx, req.DocumentName, payload, req.Document); err != nil {
			p.logger.Error().Err(err).Str("document", req.DocumentName).Msg("Template upload failed")
			result.Errors = append(result.Errors, fmt.Sprintf("upload: %v", err))
		} else {
			result.Uploaded = true
		}
	}

	if p.sink != nil {
		name := req.DocumentName + "-template.json"
		if err := p.sink.Write(name, payload); err != nil {
			p.logger.Error().Err(err).Str("artifact", name).Msg("Local export failed")
			result.Errors = append(result.Errors, fmt.Sprintf("download: %v", err))
		} else {
			result.Downloaded = true
		}
	}

	p.logger.Info().
		Str("document", req.DocumentName).
		Int("boxes", len(req.Boxes)).
		Bool("uploaded", result.Uploaded).
		Bool("downloaded", result.Downloaded).
		Dur("elapsed", time.Since(started)).
		Msg("Export complete")

	return result, nil
}

// exportBox cleans one box's settings and resolves its region data. A failed
// extraction call degrades that field to an inline error string; the batch
// continues.
func (p *Pipeline) exportBox(ctx context.Context, document []byte, b *annotation.Box) ExportedBox {
	cleaned := annotation.Clean(b)
	bbox := b.Rect().ToBBox()

	if cleaned.NeedsGuideText() && p.extractor != nil {
		text, err := p.extractor.RegionText(ctx, document, b.Page, bbox)
		if err != nil {
			p.logger.Warn().Err(err).Str("box_id", b.ID).Msg("Region text extraction failed")
			cleaned.GuideText = fmt.Sprintf("error: %v", err)
		} else {
			cleaned.GuideText = text
		}
	}

	if cleaned.NeedsRegionImage() && p.extractor != nil {
		image, err := p.extractor.RegionImage(ctx, document, b.Page, bbox)
		if err != nil {
			p.logger.Warn().Err(err).Str("box_id", b.ID).Msg("Region image extraction failed")
			cleaned.RegionImage = fmt.Sprintf("error: %v", err)
		} else {
			cleaned.RegionImage = image
		}
	}

	return ExportedBox{
		ID:       b.ID,
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
		Page:     b.Page,
		Type:     b.Type,
		Settings: cleaned,
	}
}
