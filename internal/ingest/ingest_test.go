package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/query"
)

type memStore struct {
	mu       sync.Mutex
	datasets map[string]knowledge.Dataset
	adds     int
}

func newMemStore() *memStore {
	return &memStore{datasets: make(map[string]knowledge.Dataset)}
}

func (m *memStore) AddDatasets(_ context.Context, datasets []knowledge.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	for _, d := range datasets {
		m.datasets[d.ID] = d
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[id]; !ok {
		return knowledge.ErrNotFound
	}
	delete(m.datasets, id)
	return nil
}

func (m *memStore) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.datasets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type recordingReporter struct {
	total int
	steps []string
	done  string
}

func (r *recordingReporter) Start(total int, _ string) { r.total = total }
func (r *recordingReporter) Step(msg string)          { r.steps = append(r.steps, msg) }
func (r *recordingReporter) Finish(summary string)    { r.done = summary }

const literacyYAML = `id: literacy
title: Literacy rate
source: Census
domain: education
rows:
  - {year: 2015, literacy_rate: 66.5}
  - {year: 2023, literacy_rate: 89.5}
`

const healthJSON = `[
  {"id": "immunization", "title": "Immunization", "domain": "health", "rows": [{"year": 2020, "coverage": 81}]},
  {"id": "mortality", "title": "Infant mortality", "domain": "health", "rows": [{"year": 2020, "rate": 27}]}
]`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun_LoadsAllFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "education/literacy.yaml", literacyYAML)
	writeFile(t, root, "health/all.json", healthJSON)
	writeFile(t, root, "notes.txt", "not a dataset")

	store := newMemStore()
	state := NewState()
	rep := &recordingReporter{}

	summary, err := Run(t.Context(), store, state, Options{Root: root, Concurrency: 2, Reporter: rep})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 2, summary.Loaded)
	assert.Equal(t, 3, summary.Datasets)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, []string{"immunization", "literacy", "mortality"}, store.ids())
	assert.Equal(t, 2, rep.total)
	assert.Len(t, rep.steps, 2)
	assert.Equal(t, "3 datasets from 2 files", rep.done)
	assert.ElementsMatch(t, []string{"immunization", "mortality"}, state.DatasetIDs["health/all.json"])
}

func TestRun_SkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "literacy.yaml", literacyYAML)
	store := newMemStore()
	state := NewState()

	_, err := Run(t.Context(), store, state, Options{Root: root})
	require.NoError(t, err)

	summary, err := Run(t.Context(), store, state, Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Loaded)
	assert.Equal(t, 1, store.adds, "unchanged files are not re-added")

	summary, err = Run(t.Context(), store, state, Options{Root: root, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Loaded)
	assert.Equal(t, 2, store.adds)
}

func TestRun_RemovesStaleDatasets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "literacy.yaml", literacyYAML)
	writeFile(t, root, "health.json", healthJSON)
	store := newMemStore()
	state := NewState()

	_, err := Run(t.Context(), store, state, Options{Root: root})
	require.NoError(t, err)

	// health.json now produces only one dataset; literacy.yaml is gone.
	writeFile(t, root, "health.json", `{"id": "immunization", "domain": "health", "rows": [{"year": 2021, "coverage": 84}]}`)
	require.NoError(t, os.Remove(filepath.Join(root, "literacy.yaml")))

	summary, err := Run(t.Context(), store, state, Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Removed)
	assert.Equal(t, []string{"immunization"}, store.ids())
	assert.NotContains(t, state.FileHashes, "literacy.yaml")
}

func TestRun_BadFileIsReportedAndRetried(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.yaml", literacyYAML)
	writeFile(t, root, "bad.yaml", "id: broken\nrows: []\n")
	store := newMemStore()
	state := NewState()

	summary, err := Run(t.Context(), store, state, Options{Root: root})
	require.NoError(t, err)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "bad.yaml", summary.Failed[0].Path)
	assert.Contains(t, summary.Failed[0].Error(), "no rows")
	assert.NotContains(t, state.FileHashes, "bad.yaml")

	summary, err = Run(t.Context(), store, state, Options{Root: root})
	require.NoError(t, err)
	assert.Len(t, summary.Failed, 1, "failed files are retried")
}

func TestRun_TagsUndeclaredDomainAndRegion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "district.yaml", `id: district-literacy
title: District literacy rates
description: Literacy by district in Medak and Warangal
rows:
  - {district: Medak, year: 2021, literacy_rate: 61.4}
`)
	store := newMemStore()

	_, err := Run(t.Context(), store, NewState(), Options{Root: root, Tagger: query.NewAnalyzer("Medak")})
	require.NoError(t, err)
	d := store.datasets["district-literacy"]
	assert.Equal(t, "education", d.Domain)
	assert.Equal(t, "Warangal", d.Region, "gazetteer order decides between named places")

	store = newMemStore()
	_, err = Run(t.Context(), store, NewState(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "education", store.datasets["district-literacy"].Domain, "built-in vocabulary by default")
}

func TestRun_MissingRoot(t *testing.T) {
	_, err := Run(t.Context(), newMemStore(), NewState(), Options{Root: filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)
}

func TestRun_CanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "literacy.yaml", literacyYAML)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Run(ctx, newMemStore(), NewState(), Options{Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestState_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	empty, err := LoadState(dir)
	require.NoError(t, err)
	assert.Empty(t, empty.FileHashes)

	state := NewState()
	state.record("a.yaml", "abc", []string{"a"})
	require.NoError(t, state.Save(dir))

	loaded, err := LoadState(dir)
	require.NoError(t, err)
	assert.False(t, loaded.IsFileChanged("a.yaml", "abc"))
	assert.True(t, loaded.IsFileChanged("a.yaml", "def"))
	assert.True(t, loaded.IsFileChanged("b.yaml", "abc"))
	assert.Equal(t, []string{"a"}, loaded.DatasetIDs["a.yaml"])
	assert.False(t, loaded.LastUpdated.IsZero())
}

func TestLoadState_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFile), []byte("{"), 0o644))
	_, err := LoadState(dir)
	assert.Error(t, err)
}
