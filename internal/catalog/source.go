package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source fetches the raw CSV text of the catalog.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	String() string
}

// FileSource reads the catalog from a local file.
type FileSource struct {
	Path string
}

// Fetch reads the whole file.
func (s FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("read catalog file: %w", err)
	}
	return string(data), nil
}

func (s FileSource) String() string { return s.Path }

// HTTPSource fetches the catalog from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Fetch performs a GET and returns the body. Any non-2xx status is an error.
func (s HTTPSource) Fetch(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s", ErrFetchStatus, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read catalog body: %w", err)
	}
	return string(body), nil
}

func (s HTTPSource) String() string { return s.URL }

// NewSource returns an HTTPSource for http(s) locations and a FileSource otherwise.
func NewSource(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptySource
	}
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return HTTPSource{URL: location}, nil
	}
	return FileSource{Path: location}, nil
}
