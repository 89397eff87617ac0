package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/gh-search-crawler/internal/domain"
)

// LoadRequestFile reads a request from a YAML file. JSON files parse too,
// since JSON request bodies are valid YAML.
func LoadRequestFile(path string) (*domain.CrawlRequest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided request path is intentional
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}

	var req domain.CrawlRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request file %s: %w", path, err)
	}
	return &req, nil
}
