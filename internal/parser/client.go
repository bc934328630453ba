package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// ParseRequest is one document handed to the parsing service.
type ParseRequest struct {
	FileName     string
	MediaType    string
	DocumentType string
	// CustomFields is the JSON-encoded field list; omitted from the form when empty.
	CustomFields json.RawMessage
	Body         io.Reader
}

// Result mirrors the parsing service's response envelope.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// StatusError reports a non-2xx answer from the parsing service.
type StatusError struct {
	StatusCode int
	StatusText string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("parser responded %d %s", e.StatusCode, e.StatusText)
}

// Client talks to the external document parsing service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. Every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Parse uploads the document as multipart/form-data to /parse-invoice.
func (c *Client) Parse(ctx context.Context, req ParseRequest) (Result, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(form, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse-invoice", pr)
	if err != nil {
		pr.Close()
		return Result{}, fmt.Errorf("build parse request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		pr.Close()
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return Result{}, &StatusError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode parse response: %w", err)
	}
	return out, nil
}

// Health fetches the parsing service's /health payload verbatim.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read health response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("health response is not JSON (status %d)", resp.StatusCode)
	}
	return json.RawMessage(body), nil
}

func writeForm(form *multipart.Writer, req ParseRequest) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.FileName)))
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	header.Set("Content-Type", mediaType)

	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if req.Body != nil {
		if _, err := io.Copy(part, req.Body); err != nil {
			return fmt.Errorf("copy file part: %w", err)
		}
	}
	if err := form.WriteField("document_type", req.DocumentType); err != nil {
		return err
	}
	if len(req.CustomFields) > 0 {
		if err := form.WriteField("custom_fields", string(req.CustomFields)); err != nil {
			return err
		}
	}
	return form.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
