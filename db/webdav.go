/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-webdav"

	"github.com/humaidq/rulebase/engine"
)

// maxRulebaseSize bounds a single rulebase document.
const maxRulebaseSize = 8 << 20

// WebDAVConfig holds credentials for the rulebase share.
type WebDAVConfig struct {
	Username string // WEBDAV_USERNAME
	Password string // WEBDAV_PASSWORD
	Timeout  time.Duration
}

// GetWebDAVConfig loads WebDAV credentials from the environment. Credentials
// are optional.
func GetWebDAVConfig() *WebDAVConfig {
	return &WebDAVConfig{
		Username: os.Getenv("WEBDAV_USERNAME"),
		Password: os.Getenv("WEBDAV_PASSWORD"),
		Timeout:  10 * time.Second,
	}
}

// basicAuthTransport adds HTTP Basic Authentication to all requests
type basicAuthTransport struct {
	Username string
	Password string
	Base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)

	return t.Base.RoundTrip(req)
}

func newWebDAVHTTPClient(config *WebDAVConfig) *http.Client {
	transport := http.DefaultTransport

	if config.Username != "" && config.Password != "" {
		transport = &basicAuthTransport{
			Username: config.Username,
			Password: config.Password,
			Base:     http.DefaultTransport,
		}
	}

	return &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}
}

// FetchRulebase downloads disease records from a WebDAV URL. The URL may
// name a single JSON document or a collection, in which case every .json
// file directly inside it is read in name order.
func FetchRulebase(ctx context.Context, config *WebDAVConfig, rawURL string) ([]engine.DiseaseRecord, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrWebDAVURLRequired
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webdav url: %w", err)
	}

	endpoint := (&url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host}).String()

	client, err := webdav.NewClient(newWebDAVHTTPClient(config), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebDAV client: %w", err)
	}

	target := u.Path
	if target == "" {
		target = "/"
	}

	info, err := client.Stat(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", target, err)
	}

	if !info.IsDir {
		return readRulebaseFile(ctx, client, target)
	}

	entries, err := client.ReadDir(ctx, target, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list WebDAV directory: %w", err)
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir || !strings.EqualFold(path.Ext(entry.Path), ".json") {
			continue
		}

		files = append(files, entry.Path)
	}

	sort.Strings(files)

	var records []engine.DiseaseRecord

	for _, file := range files {
		batch, err := readRulebaseFile(ctx, client, file)
		if err != nil {
			return nil, err
		}

		records = append(records, batch...)
	}

	logger.Info("Fetched rulebase collection", "url", u.Redacted(), "files", len(files), "records", len(records))

	return records, nil
}

func readRulebaseFile(ctx context.Context, client *webdav.Client, name string) ([]engine.DiseaseRecord, error) {
	rc, err := client.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFileFailed, name, err)
	}

	defer func() {
		if err := rc.Close(); err != nil {
			logger.Warn("Failed to close WebDAV response body", "path", name, "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(rc, maxRulebaseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	records, err := engine.ParseDiseaseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return records, nil
}
