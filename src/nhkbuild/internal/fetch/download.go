package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Getter downloads a URL to a local file. The pipeline depends on this
// interface so tests can count and fake downloads.
type Getter interface {
	// Get downloads url to dest and returns the hex SHA256 of the
	// received bytes.
	Get(ctx context.Context, url, dest string) (string, error)
}

// HTTPGetter downloads assets over HTTP(S)
type HTTPGetter struct {
	client *http.Client
}

// NewHTTPGetter creates a downloader. A nil client gets a default with
// no timeout: toolchain and rootfs archives are multi-gigabyte.
func NewHTTPGetter(client *http.Client) *HTTPGetter {
	if client == nil {
		client = &http.Client{Timeout: 0}
	}
	return &HTTPGetter{client: client}
}

// Get downloads url into dest. The payload is written to a temp file in
// the destination directory and renamed into place, so a killed run
// never leaves a truncated asset at the final path.
func (g *HTTPGetter) Get(ctx context.Context, url, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "nhkbuild/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	hash := sha256.New()
	writer := io.MultiWriter(tempFile, hash)

	if _, err := io.Copy(writer, resp.Body); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("failed to write download: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, dest); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	checksum := hex.EncodeToString(hash.Sum(nil))
	log.Info("Download complete", "url", url, "dest", dest, "sha256", checksum)
	return checksum, nil
}
