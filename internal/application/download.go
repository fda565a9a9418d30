package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// ResolvePath joins fileName onto baseDir and returns the absolute result.
// Empty or absolute names, and names that resolve outside baseDir, are
// rejected with ErrPathTraversal. Symlinks are followed for files that exist,
// so a link inside baseDir pointing elsewhere is rejected too.
func ResolvePath(baseDir, fileName string) (string, error) {
	if strings.TrimSpace(fileName) == "" ||
		filepath.IsAbs(fileName) ||
		filepath.VolumeName(fileName) != "" ||
		strings.ContainsRune(fileName, 0) {
		return "", ErrPathTraversal
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve workflows dir: %w", err)
	}

	full := filepath.Join(base, fileName)
	if !within(base, full) {
		return "", ErrPathTraversal
	}

	resolved, err := filepath.EvalSymlinks(full)
	if errors.Is(err, os.ErrNotExist) {
		return full, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", fileName, err)
	}
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return "", fmt.Errorf("resolve workflows dir: %w", err)
	}
	if !within(realBase, resolved) {
		return "", ErrPathTraversal
	}
	return full, nil
}

// within reports whether path lies strictly below base.
func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// AttachmentName derives a safe download filename from a workflow title,
// falling back to the stored file name. The result always ends in ".json".
func AttachmentName(title, fileName string) string {
	source := strings.TrimSpace(title)
	if source == "" {
		source = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}

	var b strings.Builder
	lastDash := false
	for _, r := range source {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	name := strings.Trim(b.String(), "-._")
	if name == "" {
		name = "workflow"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".json") {
		name += ".json"
	}
	return name
}

// Download is a prepared workflow file ready to be streamed.
type Download struct {
	Workflow model.Workflow
	Path     string
	Name     string

	root string
	rel  string
}

// Open opens the file through the workflows directory root, so a link swapped
// in after Prepare still cannot reach outside it.
func (d Download) Open() (*os.File, error) {
	return os.OpenInRoot(d.root, d.rel)
}

// DownloadService serves the workflow marketplace: listings and tier-gated
// file downloads from a fixed directory.
type DownloadService struct {
	workflowStore driven.WorkflowStore
	access        *AccessService
	baseDir       string
}

// NewDownloadService creates a DownloadService rooted at baseDir.
func NewDownloadService(workflowStore driven.WorkflowStore, access *AccessService, baseDir string) *DownloadService {
	return &DownloadService{
		workflowStore: workflowStore,
		access:        access,
		baseDir:       baseDir,
	}
}

// List returns the marketplace listing for the filter.
func (s *DownloadService) List(ctx context.Context, filter model.WorkflowFilter) ([]model.Workflow, error) {
	wfs, err := s.workflowStore.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return wfs, nil
}

// Get returns a single workflow by slug.
func (s *DownloadService) Get(ctx context.Context, slug string) (model.Workflow, error) {
	wf, err := s.workflowStore.GetBySlug(ctx, slug)
	if err != nil {
		return model.Workflow{}, fmt.Errorf("get workflow %s: %w", slug, err)
	}
	return wf, nil
}

// Prepare checks the caller's tier against the workflow and resolves the file
// inside the workflows directory. It does not count the download; callers
// serving the whole file call Count.
func (s *DownloadService) Prepare(ctx context.Context, id model.Identity, slug string) (Download, error) {
	wf, err := s.Get(ctx, slug)
	if err != nil {
		return Download{}, err
	}

	if wf.RequiredTier.Paid() {
		if err := s.access.Require(ctx, id.UserID, wf.RequiredTier); err != nil {
			return Download{}, err
		}
	}

	path, err := ResolvePath(s.baseDir, wf.FileName)
	if err != nil {
		slog.Warn("workflow file rejected", "slug", slug, "file", wf.FileName, "error", err)
		return Download{}, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return Download{}, fmt.Errorf("workflow file %s: %w", wf.FileName, driven.ErrNotFound)
	}
	if err != nil {
		return Download{}, fmt.Errorf("stat workflow file %s: %w", wf.FileName, err)
	}

	root, err := filepath.Abs(s.baseDir)
	if err != nil {
		return Download{}, fmt.Errorf("resolve workflows dir: %w", err)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Download{}, fmt.Errorf("relative path %s: %w", wf.FileName, err)
	}

	return Download{
		Workflow: wf,
		Path:     path,
		Name:     AttachmentName(wf.Title, wf.FileName),
		root:     root,
		rel:      rel,
	}, nil
}

// Count records one completed download of the workflow. Failures are logged
// and otherwise ignored.
func (s *DownloadService) Count(ctx context.Context, wf model.Workflow) {
	if err := s.workflowStore.IncrementDownloads(ctx, wf.ID); err != nil {
		slog.Error("increment downloads failed", "workflow", wf.ID, "error", err)
	}
}
