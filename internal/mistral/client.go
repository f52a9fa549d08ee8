// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mistral is a minimal client for the Mistral OCR REST API.
// It covers the four calls the conversion pipeline needs: upload a file
// for OCR, mint a signed URL for it, run OCR against a document reference,
// and delete the uploaded file.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pdiddy/ocr-engine/pkg/types"
)

// apiBase is the Mistral API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.mistral.ai"

// DefaultModel is the OCR model identifier sent when the config names none.
const DefaultModel = "mistral-ocr-latest"

// uploadPurpose tags uploaded files for the OCR endpoint.
const uploadPurpose = "ocr"

const defaultTimeout = 120 * time.Second

// Client talks to the Mistral API. It holds no per-call state and is safe
// to share across a whole batch run.
type Client struct {
	apiKey    string
	model     string
	userAgent string
	client    *http.Client
}

// New creates a Client from an API key and HTTP settings. The key must be
// non-empty; network access only happens on the first call.
func New(apiKey string, cfg types.OCRConfig) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("empty Mistral API key")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:    apiKey,
		model:     model,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// DocumentRef identifies the document for an OCR call: a signed URL for an
// uploaded PDF, or an inline base64 data URL for an image.
type DocumentRef struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// DocumentURLRef builds a reference to an uploaded document's signed URL.
func DocumentURLRef(url string) DocumentRef {
	return DocumentRef{Type: "document_url", DocumentURL: url}
}

// ImageURLRef builds a reference carrying an inline data URL.
func ImageURLRef(dataURL string) DocumentRef {
	return DocumentRef{Type: "image_url", ImageURL: dataURL}
}

// Upload stages a file's bytes with the API under purpose "ocr" and returns
// the file ID. The caller owns the staged file and is responsible for
// deleting it.
func (c *Client) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("purpose", uploadPurpose); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/files", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &uploaded); err != nil {
		return "", fmt.Errorf("uploading %s: %w", fileName, err)
	}
	if uploaded.ID == "" {
		return "", fmt.Errorf("uploading %s: response carries no file ID", fileName)
	}
	return uploaded.ID, nil
}

// SignedURL mints a short-lived access URL for an uploaded file. An empty
// URL in an otherwise successful response is an error.
func (c *Client) SignedURL(ctx context.Context, fileID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/files/"+fileID+"/url", nil)
	if err != nil {
		return "", err
	}

	var signed struct {
		URL string `json:"url"`
	}
	if err := c.do(req, &signed); err != nil {
		return "", fmt.Errorf("requesting signed URL for %s: %w", fileID, err)
	}
	if signed.URL == "" {
		return "", fmt.Errorf("signed URL response for %s carries no URL", fileID)
	}
	return signed.URL, nil
}

// ocrRequest is the wire shape of a POST /v1/ocr call.
type ocrRequest struct {
	Model              string      `json:"model"`
	Document           DocumentRef `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

// Wire shapes of the OCR response. Markdown is a pointer so a page that
// lacks the field entirely can be told apart from an empty page.
type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

type ocrPage struct {
	Index    int        `json:"index"`
	Markdown *string    `json:"markdown"`
	Images   []ocrImage `json:"images"`
}

type ocrImage struct {
	ID          string `json:"id"`
	ImageBase64 string `json:"image_base64"`
}

// Process runs OCR against a document reference and returns the validated
// result. A response with zero pages is valid. A page without a markdown
// field is a malformed response and is reported as an error.
func (c *Client) Process(ctx context.Context, doc DocumentRef, includeImages bool) (*types.OCRResult, error) {
	payload, err := json.Marshal(ocrRequest{
		Model:              c.model,
		Document:           doc,
		IncludeImageBase64: includeImages,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding OCR request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/ocr", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var raw ocrResponse
	if err := c.do(req, &raw); err != nil {
		return nil, fmt.Errorf("OCR request: %w", err)
	}

	result := &types.OCRResult{}
	for i, page := range raw.Pages {
		if page.Markdown == nil {
			return nil, fmt.Errorf("OCR response page %d has no markdown field", i)
		}
		p := types.Page{Index: page.Index, Markdown: *page.Markdown}
		for _, img := range page.Images {
			p.Images = append(p.Images, types.PageImage{ID: img.ID, Base64: img.ImageBase64})
		}
		result.Pages = append(result.Pages, p)
	}
	return result, nil
}

// Delete removes an uploaded file. Callers treat failure as a warning; the
// file expires server-side eventually regardless.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/v1/files/"+fileID, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("deleting file %s: %w", fileID, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// do executes the request and decodes a JSON body into out when out is
// non-nil. Non-2xx statuses become errors carrying a trimmed body excerpt.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("Mistral API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Mistral API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(excerpt))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Mistral API response: %w", err)
	}
	return nil
}
