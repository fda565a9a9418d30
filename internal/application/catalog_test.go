package application_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

type mockCatalogSource struct {
	entries []model.CatalogEntry
	files   map[string]string
	fetched []string
}

func (m *mockCatalogSource) ListEntries(_ context.Context) ([]model.CatalogEntry, error) {
	return m.entries, nil
}

func (m *mockCatalogSource) Fetch(_ context.Context, path string) ([]byte, error) {
	m.fetched = append(m.fetched, path)
	content, ok := m.files[path]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return []byte(content), nil
}

const leadRouterJSON = `{
  "name": "Lead Router",
  "nodes": [{"type": "webhook"}, {"type": "http"}, {"type": "slack"}],
  "tags": [{"name": "Sales"}],
  "meta": {"tier": "pro", "description": "Routes inbound leads."}
}`

func TestParseWorkflowMeta(t *testing.T) {
	tests := []struct {
		name string
		data string
		want application.WorkflowMeta
	}{
		{
			name: "full metadata",
			data: leadRouterJSON,
			want: application.WorkflowMeta{
				Name: "Lead Router", Description: "Routes inbound leads.",
				Category: "sales", Tier: model.TierPro, NodeCount: 3,
			},
		},
		{
			name: "explicit category wins over tags",
			data: `{"name":"X","nodes":[],"tags":[{"name":"Ops"}],"meta":{"category":"Finance","tier":"business"}}`,
			want: application.WorkflowMeta{Name: "X", Category: "finance", Tier: model.TierBusiness},
		},
		{
			name: "unknown tier defaults to free",
			data: `{"name":"Y","nodes":[{}],"meta":{"tier":"platinum"}}`,
			want: application.WorkflowMeta{Name: "Y", Category: "general", Tier: model.TierFree, NodeCount: 1},
		},
		{
			name: "bare object",
			data: `{}`,
			want: application.WorkflowMeta{Category: "general", Tier: model.TierFree},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, application.ParseWorkflowMeta([]byte(tt.data)))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Lead Router":       "lead-router",
		"  CRM -- Sync v2 ": "crm-sync-v2",
		"../../etc":         "etc",
		"日本":                "",
		"already-a-slug":    "already-a-slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, application.Slugify(in), in)
	}
}

func TestCatalogSyncOnce(t *testing.T) {
	dir := t.TempDir()
	source := &mockCatalogSource{
		entries: []model.CatalogEntry{
			{Path: "workflows/Lead Router.json", Name: "Lead Router.json", SHA: "sha-1"},
			{Path: "workflows/unchanged.json", Name: "unchanged.json", SHA: "sha-2"},
			{Path: "workflows/broken.json", Name: "broken.json", SHA: "sha-3"},
			{Path: "workflows/missing.json", Name: "missing.json", SHA: "sha-4"},
			{Path: "workflows/README.md", Name: "README.md", SHA: "sha-5"},
		},
		files: map[string]string{
			"workflows/Lead Router.json": leadRouterJSON,
			"workflows/unchanged.json":   `{"name":"Same"}`,
			"workflows/broken.json":      `{"name":`,
		},
	}
	store := newMockWorkflowStore()
	store.shas["unchanged"] = "sha-2"

	svc := application.NewCatalogSyncService(source, store, dir, time.Hour)
	report, err := svc.SyncOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, application.SyncReport{Seen: 4, Imported: 1, Unchanged: 1, Failed: 2}, report)
	assert.NotContains(t, source.fetched, "workflows/unchanged.json")

	require.Len(t, store.upserts, 1)
	wf := store.upserts[0]
	assert.Equal(t, "lead-router", wf.Slug)
	assert.Equal(t, "Lead Router", wf.Title)
	assert.Equal(t, model.TierPro, wf.RequiredTier)
	assert.Equal(t, "lead-router.json", wf.FileName)
	assert.Equal(t, "sha-1", wf.SourceSHA)
	assert.Equal(t, 3, wf.NodeCount)

	written, err := os.ReadFile(filepath.Join(dir, "lead-router.json"))
	require.NoError(t, err)
	assert.JSONEq(t, leadRouterJSON, string(written))

	_, err = os.Stat(filepath.Join(dir, "broken.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCatalogRefresh(t *testing.T) {
	source := &mockCatalogSource{}
	svc := application.NewCatalogSyncService(source, newMockWorkflowStore(), t.TempDir(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	report, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Seen)

	cancel()
	<-done

	_, err = svc.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
