// Package github implements the CatalogSource port over a GitHub repository
// using the go-github library.
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CatalogSource = (*CatalogClient)(nil)

// maxDirDepth bounds how far ListEntries descends below the catalog root.
const maxDirDepth = 4

// CatalogClient lists and fetches workflow files from one directory of a
// GitHub repository.
type CatalogClient struct {
	gh    *gh.Client
	owner string
	repo  string
	root  string
	ref   string
}

// NewCatalogClient creates a catalog client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, optional PAT auth)
//
// repoFullName is "owner/repo"; an empty ref means the default branch.
func NewCatalogClient(repoFullName, root, ref, token string) (*CatalogClient, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &CatalogClient{gh: client, owner: owner, repo: repo, root: cleanRoot(root), ref: ref}, nil
}

// NewCatalogClientWithHTTPClient creates a CatalogClient with a custom
// http.Client and base URL, for tests against an httptest server.
func NewCatalogClientWithHTTPClient(httpClient *http.Client, baseURL, repoFullName, root, ref string) (*CatalogClient, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := gh.NewClient(httpClient)
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &CatalogClient{gh: client, owner: owner, repo: repo, root: cleanRoot(root), ref: ref}, nil
}

// ListEntries returns every file below the catalog root, descending into
// subdirectories up to maxDirDepth levels.
func (c *CatalogClient) ListEntries(ctx context.Context) ([]model.CatalogEntry, error) {
	entries := []model.CatalogEntry{}
	if err := c.walk(ctx, c.root, 0, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *CatalogClient) walk(ctx context.Context, dir string, depth int, out *[]model.CatalogEntry) error {
	_, contents, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, dir, c.contentOpts())
	if err != nil {
		return fmt.Errorf("listing %s/%s:%s: %w", c.owner, c.repo, dir, err)
	}
	logRateLimit(resp, dir, len(contents))

	for _, item := range contents {
		switch item.GetType() {
		case "file":
			*out = append(*out, model.CatalogEntry{
				Path: item.GetPath(),
				Name: item.GetName(),
				SHA:  item.GetSHA(),
				Size: item.GetSize(),
			})
		case "dir":
			if depth+1 > maxDirDepth {
				slog.Warn("catalog directory too deep, skipping", "path", item.GetPath())
				continue
			}
			if err := c.walk(ctx, item.GetPath(), depth+1, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// Fetch returns the raw content of the file at path.
func (c *CatalogClient) Fetch(ctx context.Context, path string) ([]byte, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, c.contentOpts())
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	logRateLimit(resp, path, 1)

	if file == nil {
		return nil, fmt.Errorf("fetching %s: not a file", path)
	}

	// Files over the contents API size limit come back without inline content.
	if file.GetEncoding() == "none" {
		return c.download(ctx, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return []byte(content), nil
}

func (c *CatalogClient) download(ctx context.Context, path string) ([]byte, error) {
	rc, _, err := c.gh.Repositories.DownloadContents(ctx, c.owner, c.repo, path, c.contentOpts())
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (c *CatalogClient) contentOpts() *gh.RepositoryContentGetOptions {
	if c.ref == "" {
		return nil
	}
	return &gh.RepositoryContentGetOptions{Ref: c.ref}
}

// logRateLimit logs rate limit information at debug level and warns when low.
func logRateLimit(resp *gh.Response, path string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"path", path,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

func cleanRoot(root string) string {
	return strings.Trim(root, "/")
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
