package extraction

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/spherical-ai/annotation-engine/internal/cache"
	"github.com/spherical-ai/annotation-engine/internal/geometry"
	"github.com/spherical-ai/annotation-engine/internal/observability"
)

// Client talks to the extraction service over HTTP. Region-level calls are
// cached by document hash, page and bbox so repeated exports of the same
// document skip remote round trips.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Client
	cacheTTL   time.Duration
	logger     *observability.Logger
}

// ClientConfig holds extraction client configuration.
type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Cache    cache.Client
	CacheTTL time.Duration
}

// NewClient creates a new extraction client.
func NewClient(cfg ClientConfig, logger *observability.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		logger:     logger.WithComponent("extraction"),
	}
}

type regionTextResponse struct {
	Text string `json:"text"`
}

type regionImageResponse struct {
	Image string `json:"image"`
}

// ExtractDocument runs full word/image extraction over the source document.
func (c *Client) ExtractDocument(ctx context.Context, document []byte, filename string) (*Document, error) {
	body, contentType, err := multipartFile("file", filename, document, nil)
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}

	data, err := c.post(ctx, "/extract", contentType, body)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode extract response: %w", err)
	}

	c.logger.Debug().
		Str("document", filename).
		Int("pages", len(doc.Pages)).
		Msg("Document extraction complete")

	return &doc, nil
}

// RegionText extracts the text inside a bbox on one page.
func (c *Client) RegionText(ctx context.Context, document []byte, page int, bbox geometry.BBox) (string, error) {
	key := regionKey("text", document, page, bbox)
	if cached, err := c.cacheGet(ctx, key); err == nil {
		return string(cached), nil
	}

	data, err := c.regionCall(ctx, "/extract-region-text", document, page, bbox)
	if err != nil {
		return "", err
	}

	var resp regionTextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode region text response: %w", err)
	}

	c.cacheSet(ctx, key, []byte(resp.Text))
	return resp.Text, nil
}

// RegionImage extracts the image inside a bbox on one page as base64.
func (c *Client) RegionImage(ctx context.Context, document []byte, page int, bbox geometry.BBox) (string, error) {
	key := regionKey("image", document, page, bbox)
	if cached, err := c.cacheGet(ctx, key); err == nil {
		return string(cached), nil
	}

	data, err := c.regionCall(ctx, "/extract-region-image", document, page, bbox)
	if err != nil {
		return "", err
	}

	var resp regionImageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode region image response: %w", err)
	}

	c.cacheSet(ctx, key, []byte(resp.Image))
	return resp.Image, nil
}

// regionCall posts a document plus page/bbox fields to one of the region
// endpoints.
func (c *Client) regionCall(ctx context.Context, path string, document []byte, page int, bbox geometry.BBox) ([]byte, error) {
	bboxJSON, err := json.Marshal(bbox)
	if err != nil {
		return nil, fmt.Errorf("marshal bbox: %w", err)
	}

	fields := map[string]string{
		"page_number": fmt.Sprintf("%d", page),
		"bbox":        string(bboxJSON),
	}

	body, contentType, err := multipartFile("file", "document.pdf", document, fields)
	if err != nil {
		return nil, fmt.Errorf("build region request: %w", err)
	}

	return c.post(ctx, path, contentType, body)
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction service call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, truncate(data, 200))
	}

	return data, nil
}

func (c *Client) cacheGet(ctx context.Context, key string) ([]byte, error) {
	if c.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	return c.cache.Get(ctx, key)
}

func (c *Client) cacheSet(ctx context.Context, key string, value []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, value, c.cacheTTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache region result")
	}
}

// regionKey builds a cache key from the document hash, page and bbox.
func regionKey(kind string, document []byte, page int, bbox geometry.BBox) string {
	sum := sha256.Sum256(document)
	return fmt.Sprintf("region:%s:%s:%d:%g,%g,%g,%g",
		kind, hex.EncodeToString(sum[:8]), page, bbox[0], bbox[1], bbox[2], bbox[3])
}

// multipartFile builds a multipart body with one file part and optional plain
// fields.
func multipartFile(fieldName, filename string, content []byte, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(fieldName, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
