package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/mdmail"
)

const maxInputSize = 8 << 20

type inputSource struct {
	name string
	open func(ctx context.Context) (io.ReadCloser, error)
}

// readInputs reads and validates every input and joins them with a blank
// line so a heading at the start of one file never continues the last block
// of the previous one. No arguments reads stdin.
func readInputs(ctx context.Context, args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(io.LimitReader(stdin, maxInputSize))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if err := mdmail.ValidateInput(data); err != nil {
			return "", fmt.Errorf("stdin: %w", err)
		}
		return string(data), nil
	}
	parts := make([]string, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(raw, stdin)
		if err != nil {
			return "", err
		}
		data, err := src.read(ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimRight(string(data), "\r\n"))
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

func (s inputSource) read(ctx context.Context) ([]byte, error) {
	rc, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxInputSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.name, err)
	}
	if err := mdmail.ValidateInput(data); err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	return data, nil
}

func makeInputSource(raw string, stdin io.Reader) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	if raw == "-" {
		return inputSource{name: "stdin", open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(stdin), nil
		}}, nil
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{name: raw, open: func(ctx context.Context) (io.ReadCloser, error) {
				return openURL(ctx, raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{name: path, open: func(context.Context) (io.ReadCloser, error) {
				return os.Open(normalizePath(path))
			}}, nil
		}
	}
	return inputSource{name: raw, open: func(context.Context) (io.ReadCloser, error) {
		return os.Open(normalizePath(raw))
	}}, nil
}

func openURL(ctx context.Context, raw string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("http status %s", resp.Status)
	}
	return resp.Body, nil
}

func loadStyleFile(path string, base mdmail.StyleConfig) (mdmail.StyleConfig, error) {
	data, err := os.ReadFile(normalizePath(path))
	if err != nil {
		return base, fmt.Errorf("read style: %w", err)
	}
	style, err := mdmail.DecodeStyle(bytes.NewReader(data), base)
	if err != nil {
		return base, fmt.Errorf("style %s: %w", path, err)
	}
	return style, nil
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}
