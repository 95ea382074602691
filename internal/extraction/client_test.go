package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/annotation-engine/internal/cache"
	"github.com/spherical-ai/annotation-engine/internal/geometry"
	"github.com/spherical-ai/annotation-engine/internal/observability"
)

func TestClient_ExtractDocument(t *testing.T) {
	doc := Document{Pages: []Page{{
		PageNumber: 1,
		Dimensions: Dimensions{Width: 612, Height: 792},
		Words: []Word{
			{Text: "Invoice", BBox: geometry.BBox{72, 72, 150, 86}},
		},
		Images: []Image{
			{BBox: geometry.BBox{300, 400, 500, 560}, Area: 32000, Type: "png"},
		},
	}}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extract", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "invoice.pdf", header.Filename)

		json.NewEncoder(w).Encode(doc)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, observability.NopLogger())

	got, err := client.ExtractDocument(context.Background(), []byte("%PDF-1.7"), "invoice.pdf")
	require.NoError(t, err)
	require.Len(t, got.Pages, 1)
	assert.Equal(t, "Invoice", got.Pages[0].Words[0].Text)
	assert.Equal(t, geometry.BBox{300, 400, 500, 560}, got.Pages[0].Images[0].BBox)
}

func TestClient_RegionText_Cached(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/extract-region-text", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		assert.Equal(t, "2", r.FormValue("page_number"))
		assert.Equal(t, "[10,20,110,60]", r.FormValue("bbox"))

		json.NewEncoder(w).Encode(regionTextResponse{Text: "Total: $42.00"})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:  server.URL,
		Cache:    cache.NewMemoryClient(100),
		CacheTTL: time.Minute,
	}, observability.NopLogger())

	document := []byte("%PDF-1.7")
	bbox := geometry.BBox{10, 20, 110, 60}

	text, err := client.RegionText(context.Background(), document, 2, bbox)
	require.NoError(t, err)
	assert.Equal(t, "Total: $42.00", text)

	// Same document, page and bbox hits the cache.
	text, err = client.RegionText(context.Background(), document, 2, bbox)
	require.NoError(t, err)
	assert.Equal(t, "Total: $42.00", text)
	assert.Equal(t, int32(1), calls.Load())

	// A different region is a distinct key.
	_, err = client.RegionText(context.Background(), document, 3, bbox)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RegionImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extract-region-image", r.URL.Path)
		json.NewEncoder(w).Encode(regionImageResponse{Image: "aW1hZ2UtZGF0YQ=="})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, observability.NopLogger())

	image, err := client.RegionImage(context.Background(), []byte("%PDF-1.7"), 1, geometry.BBox{0, 0, 50, 50})
	require.NoError(t, err)
	assert.Equal(t, "aW1hZ2UtZGF0YQ==", image)
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "document is encrypted", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, observability.NopLogger())

	_, err := client.ExtractDocument(context.Background(), []byte("%PDF-1.7"), "locked.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "document is encrypted")
}
