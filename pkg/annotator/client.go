// Package annotator provides the public Go SDK for the annotation engine API.
package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/spherical-ai/annotation-engine/internal/annotation"
)

// Client is the public SDK client for the annotation engine API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new annotation engine client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8086"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TemplateSummary is one entry of the template listing.
type TemplateSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoadedTemplate is a template loaded by name, including the source document.
type LoadedTemplate struct {
	SourcePDF       []byte            `json:"source_pdf"`
	Document        string            `json:"document"`
	AnnotationBoxes []*annotation.Box `json:"annotationBoxes"`
}

// SaveTemplate uploads a template blob together with its source document.
// It satisfies the export pipeline's Uploader interface.
func (c *Client) SaveTemplate(ctx context.Context, name string, template []byte, document []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("name", name); err != nil {
		return fmt.Errorf("write name field: %w", err)
	}
	if err := w.WriteField("template", string(template)); err != nil {
		return fmt.Errorf("write template field: %w", err)
	}

	part, err := w.CreateFormFile("file", name+".pdf")
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(document); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/templates", &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var status struct {
		Status string `json:"status"`
	}
	if err := c.do(req, &status); err != nil {
		return err
	}
	if status.Status != "success" {
		return fmt.Errorf("template save returned status %q", status.Status)
	}
	return nil
}

// LoadTemplate fetches a template by name.
func (c *Client) LoadTemplate(ctx context.Context, name string) (*LoadedTemplate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/templates/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var tpl LoadedTemplate
	if err := c.do(req, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// ListTemplates fetches summaries of all stored templates.
func (c *Client) ListTemplates(ctx context.Context) ([]TemplateSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/templates", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var out []TemplateSummary
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListModels fetches the chat and vision model names the server offers.
func (c *Client) ListModels(ctx context.Context) (chat, vision []string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}

	var out struct {
		ChatModels   []string `json:"chatModels"`
		VisionModels []string `json:"visionModels"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, nil, err
	}
	return out.ChatModels, out.VisionModels, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned %d: %s", resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
