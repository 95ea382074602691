package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/annotation-engine/internal/annotation"
	"github.com/spherical-ai/annotation-engine/internal/cache"
	"github.com/spherical-ai/annotation-engine/internal/config"
	"github.com/spherical-ai/annotation-engine/internal/export"
	"github.com/spherical-ai/annotation-engine/internal/extraction"
	"github.com/spherical-ai/annotation-engine/internal/geometry"
	"github.com/spherical-ai/annotation-engine/internal/observability"
	"github.com/spherical-ai/annotation-engine/pkg/annotator"
)

var (
	exportDocument string
	exportBoxes    string
	exportOut      string
	exportAPI      string
	exportNoUpload bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an annotation box collection as a reusable template",
	Long: `Export resolves region text and image data for every annotation box,
cleans each box's settings for its current mode, and writes the assembled
template both locally and to the annotation engine API.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDocument, "document", "d", "", "source document path (required)")
	exportCmd.Flags().StringVarP(&exportBoxes, "boxes", "b", "", "annotation boxes JSON path (required)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory for the local artifact")
	exportCmd.Flags().StringVar(&exportAPI, "api", "", "annotation engine API base URL (empty skips upload)")
	exportCmd.Flags().BoolVar(&exportNoUpload, "no-upload", false, "skip the API upload, local artifact only")
	exportCmd.MarkFlagRequired("document")
	exportCmd.MarkFlagRequired("boxes")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel := "warn"
	if verbose {
		logLevel = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       logLevel,
		Format:      "console",
		ServiceName: "annotation-cli",
	})

	document, err := os.ReadFile(exportDocument)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	boxData, err := os.ReadFile(exportBoxes)
	if err != nil {
		return fmt.Errorf("read boxes: %w", err)
	}
	var boxes []*annotation.Box
	if err := json.Unmarshal(boxData, &boxes); err != nil {
		return fmt.Errorf("parse boxes: %w", err)
	}

	sink, err := export.NewDirSink(exportOut)
	if err != nil {
		return err
	}

	var uploader export.Uploader
	if !exportNoUpload && exportAPI != "" {
		uploader = annotator.NewClient(annotator.ClientConfig{BaseURL: exportAPI})
	}

	extractor := extraction.NewClient(extraction.ClientConfig{
		BaseURL:  cfg.Extraction.BaseURL,
		Timeout:  cfg.Extraction.Timeout,
		Cache:    cache.NewMemoryClient(cfg.Cache.MaxEntries),
		CacheTTL: cfg.Cache.TTL,
	}, logger)

	regionCalls := regionCallCount(boxes)
	regionExtractor := export.RegionExtractor(extractor)
	var bar *progressbar.ProgressBar
	if regionCalls > 0 {
		bar = progressbar.NewOptions64(
			regionCalls,
			progressbar.OptionSetWidth(50),
			progressbar.OptionSetDescription("resolving regions"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
		)
		regionExtractor = &progressExtractor{inner: extractor, bar: bar}
	}

	pipeline := export.NewPipeline(logger, regionExtractor, sink, uploader, cfg.Export.Concurrency)

	name := strings.TrimSuffix(filepath.Base(exportDocument), filepath.Ext(exportDocument))
	result, err := pipeline.Export(ctx, export.Request{
		DocumentName: name,
		Document:     document,
		Boxes:        boxes,
	})
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	color.New(color.FgGreen).Printf("✓ exported %d boxes for %s\n", len(boxes), name)
	if result.Downloaded {
		color.New(color.FgGreen).Printf("✓ wrote %s\n", filepath.Join(exportOut, name+"-template.json"))
	}
	if uploader != nil && result.Uploaded {
		color.New(color.FgGreen).Printf("✓ uploaded template to %s\n", exportAPI)
	}
	for _, msg := range result.Errors {
		color.New(color.FgYellow).Printf("⚠ %s\n", msg)
	}
	return nil
}

// regionCallCount returns the number of region extraction calls the export
// will make: one text call per guide-text box, one image call per vision box.
// Exact-match boxes make none.
func regionCallCount(boxes []*annotation.Box) int64 {
	var n int64
	for _, b := range boxes {
		cleaned := annotation.Clean(b)
		if cleaned.NeedsGuideText() {
			n++
		}
		if cleaned.NeedsRegionImage() {
			n++
		}
	}
	return n
}

// progressExtractor advances the progress bar as region calls complete. The
// bar is sized to regionCallCount, so boxes that skip the extractor never
// leave it short.
type progressExtractor struct {
	inner export.RegionExtractor
	bar   *progressbar.ProgressBar
}

func (p *progressExtractor) RegionText(ctx context.Context, document []byte, page int, bbox geometry.BBox) (string, error) {
	defer p.bar.Add(1)
	return p.inner.RegionText(ctx, document, page, bbox)
}

func (p *progressExtractor) RegionImage(ctx context.Context, document []byte, page int, bbox geometry.BBox) (string, error) {
	defer p.bar.Add(1)
	return p.inner.RegionImage(ctx, document, page, bbox)
}
