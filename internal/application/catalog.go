package application

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/tidwall/gjson"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// SyncReport summarizes one catalog sync pass.
type SyncReport struct {
	Seen      int
	Imported  int
	Unchanged int
	Failed    int
}

// refreshRequest represents a manual sync trigger.
type refreshRequest struct {
	done chan refreshResult
}

type refreshResult struct {
	report SyncReport
	err    error
}

// CatalogSyncService mirrors workflow files from the upstream catalog into
// the workflows directory and the marketplace listing.
type CatalogSyncService struct {
	source        driven.CatalogSource
	workflowStore driven.WorkflowStore
	dir           string
	interval      time.Duration
	refreshCh     chan refreshRequest
}

// NewCatalogSyncService creates a CatalogSyncService writing into dir.
func NewCatalogSyncService(
	source driven.CatalogSource,
	workflowStore driven.WorkflowStore,
	dir string,
	interval time.Duration,
) *CatalogSyncService {
	return &CatalogSyncService{
		source:        source,
		workflowStore: workflowStore,
		dir:           dir,
		interval:      interval,
		refreshCh:     make(chan refreshRequest),
	}
}

// Start runs an immediate sync, then syncs on the configured interval and
// serves manual refresh requests. Start blocks until the context is canceled.
func (s *CatalogSyncService) Start(ctx context.Context) {
	if _, err := s.SyncOnce(ctx); err != nil {
		slog.Error("initial catalog sync failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog sync stopped")
			return
		case <-ticker.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				slog.Error("catalog sync failed", "error", err)
			}
		case req := <-s.refreshCh:
			report, err := s.SyncOnce(ctx)
			req.done <- refreshResult{report: report, err: err}
		}
	}
}

// Refresh asks the running loop for an immediate sync and waits for it.
func (s *CatalogSyncService) Refresh(ctx context.Context) (SyncReport, error) {
	req := refreshRequest{done: make(chan refreshResult, 1)}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return SyncReport{}, ctx.Err()
	}

	select {
	case res := <-req.done:
		return res.report, res.err
	case <-ctx.Done():
		return SyncReport{}, ctx.Err()
	}
}

// SyncOnce imports new and changed catalog files. Files whose SHA matches the
// stored workflow are skipped; a failing file is logged and counted without
// aborting the pass.
func (s *CatalogSyncService) SyncOnce(ctx context.Context) (SyncReport, error) {
	start := time.Now()
	var report SyncReport

	entries, err := s.source.ListEntries(ctx)
	if err != nil {
		return report, fmt.Errorf("list catalog entries: %w", err)
	}
	known, err := s.workflowStore.ListSourceSHAs(ctx)
	if err != nil {
		return report, fmt.Errorf("list workflow shas: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return report, fmt.Errorf("create workflows dir: %w", err)
	}

	for _, entry := range entries {
		if !strings.EqualFold(path.Ext(entry.Path), ".json") {
			continue
		}
		report.Seen++

		slug := Slugify(strings.TrimSuffix(path.Base(entry.Path), path.Ext(entry.Path)))
		if slug == "" {
			report.Failed++
			slog.Warn("catalog entry has no usable name", "path", entry.Path)
			continue
		}
		if sha, ok := known[slug]; ok && sha == entry.SHA {
			report.Unchanged++
			continue
		}

		if err := s.importEntry(ctx, slug, entry); err != nil {
			report.Failed++
			slog.Error("catalog import failed", "path", entry.Path, "error", err)
			continue
		}
		report.Imported++
	}

	slog.Info("catalog sync complete",
		"seen", report.Seen,
		"imported", report.Imported,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
		"duration", time.Since(start),
	)
	return report, nil
}

func (s *CatalogSyncService) importEntry(ctx context.Context, slug string, entry model.CatalogEntry) error {
	data, err := s.source.Fetch(ctx, entry.Path)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", entry.Path, err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%s: invalid JSON", entry.Path)
	}

	fileName := slug + ".json"
	target, err := ResolvePath(s.dir, fileName)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", fileName, err)
	}

	meta := ParseWorkflowMeta(data)
	title := meta.Name
	if title == "" {
		title = entry.Name
	}

	_, err = s.workflowStore.Upsert(ctx, model.Workflow{
		ID:           uuid.NewString(),
		Slug:         slug,
		Title:        title,
		Description:  meta.Description,
		Category:     meta.Category,
		RequiredTier: meta.Tier,
		FileName:     fileName,
		SourceSHA:    entry.SHA,
		NodeCount:    meta.NodeCount,
	})
	if err != nil {
		return fmt.Errorf("upsert workflow %s: %w", slug, err)
	}
	return nil
}

// WorkflowMeta is the listing metadata extracted from a workflow export.
type WorkflowMeta struct {
	Name        string
	Description string
	Category    string
	Tier        model.Tier
	NodeCount   int
}

// ParseWorkflowMeta reads the workflow name, node count and the optional
// meta.tier, meta.category and meta.description fields. Missing or unknown
// tiers default to free; a missing category falls back to the first tag.
func ParseWorkflowMeta(data []byte) WorkflowMeta {
	res := gjson.ParseBytes(data)

	meta := WorkflowMeta{
		Name:        strings.TrimSpace(res.Get("name").String()),
		Description: strings.TrimSpace(res.Get("meta.description").String()),
		Category:    strings.ToLower(strings.TrimSpace(res.Get("meta.category").String())),
		NodeCount:   int(res.Get("nodes.#").Int()),
		Tier:        model.TierFree,
	}
	if meta.Category == "" {
		meta.Category = strings.ToLower(strings.TrimSpace(res.Get("tags.0.name").String()))
	}
	if meta.Category == "" {
		meta.Category = "general"
	}
	if tier, err := model.ParseTier(res.Get("meta.tier").String()); err == nil {
		meta.Tier = tier
	}
	return meta
}

// Slugify lowercases s and replaces every run of characters outside
// [a-z0-9] with a single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
