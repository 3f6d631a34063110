package mdmail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxRemoteSource caps how much markdown HTTPRender reads.
const maxRemoteSource = 8 << 20

// HTTPRenderRequest configures HTTPRender.
type HTTPRenderRequest struct {
	URL     string
	Client  *http.Client
	Writer  io.Writer
	Style   StyleConfig
	Options []RenderOption
}

// HTTPRender fetches Markdown over HTTP(S) and writes email HTML.
func HTTPRender(ctx context.Context, req HTTPRenderRequest) error {
	if req.URL == "" {
		return fmt.Errorf("http render: URL is required")
	}
	if req.Writer == nil {
		return fmt.Errorf("http render: Writer is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("http render: build request: %w", err)
	}
	if httpReq.URL.Scheme != "http" && httpReq.URL.Scheme != "https" {
		return fmt.Errorf("http render: unsupported scheme %q", httpReq.URL.Scheme)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http render: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http render: status %s", resp.Status)
	}
	src, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSource))
	if err != nil {
		return fmt.Errorf("http render: read body: %w", err)
	}
	if err := ValidateInput(src); err != nil {
		return fmt.Errorf("http render: %w", err)
	}
	return Render(RenderRequest{
		Reader:  bytes.NewReader(src),
		Writer:  req.Writer,
		Style:   req.Style,
		Options: req.Options,
	})
}
