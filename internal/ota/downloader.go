// Package ota downloads a firmware binary and installs it atomically.
package ota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

var errEmptyImage = errors.New("empty firmware image")

// Downloader fetches URL and replaces Target with it.
type Downloader struct {
	URL    string
	Target string
	Client *http.Client
}

func New(url, target string) *Downloader {
	return &Downloader{URL: url, Target: target, Client: http.DefaultClient}
}

// Download streams the image to a temporary file next to Target, then
// renames it into place. Target is untouched on any failure.
func (d *Downloader) Download(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch firmware: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch firmware: unexpected status %s", resp.Status)
	}

	dir := filepath.Dir(d.Target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.Target)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	n, err := io.Copy(tmp, resp.Body)
	if err == nil && n == 0 {
		err = errEmptyImage
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write firmware: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return 0, fmt.Errorf("chmod firmware: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.Target); err != nil {
		return 0, fmt.Errorf("install firmware: %w", err)
	}
	return n, nil
}
