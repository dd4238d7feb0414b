package model

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Brownie44l1/sampah-api/internal/config"
)

const maxArtifactSize = 512 << 20

// readSource returns the bytes behind a local path or an http(s) URL.
func readSource(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	if !config.IsURL(source) {
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", source, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxArtifactSize {
		return nil, fmt.Errorf("GET %s: artifact larger than %d bytes", source, maxArtifactSize)
	}
	return data, nil
}

// LoadMetadata reads and validates the metadata file at source.
func LoadMetadata(ctx context.Context, client *http.Client, source string) (Metadata, error) {
	data, err := readSource(ctx, client, source)
	if err != nil {
		return Metadata{}, &LoadError{Source: source, Err: err}
	}
	meta, err := ParseMetadata(data)
	if err != nil {
		return Metadata{}, &LoadError{Source: source, Err: err}
	}
	return meta, nil
}
