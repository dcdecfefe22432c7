// Package ingest loads dataset files from a directory tree into the
// knowledge store, skipping files whose content has not changed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/logging"
	"github.com/me-e6/pengine/internal/progress"
	"github.com/me-e6/pengine/internal/query"
	"github.com/me-e6/pengine/internal/walker"
)

const defaultConcurrency = 4

// Store is the part of the knowledge store ingestion writes to.
type Store interface {
	AddDatasets(ctx context.Context, datasets []knowledge.Dataset) error
	Delete(ctx context.Context, id string) error
}

// Options configures one ingestion run.
type Options struct {
	Root        string
	Include     []string
	Exclude     []string
	Concurrency int
	// Force re-ingests files even when their hash is unchanged.
	Force bool
	// Tagger infers undeclared dataset domains and regions. Nil uses the
	// built-in query vocabulary.
	Tagger   knowledge.Tagger
	Reporter progress.Reporter
	Logger   *zap.Logger
}

// FileError is a dataset file that could not be loaded.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// Summary reports what a run did.
type Summary struct {
	Files    int // dataset files found
	Loaded   int // files parsed and stored
	Skipped  int // unchanged files
	Datasets int // datasets added or replaced
	Removed  int // datasets dropped because their file changed or vanished
	Failed   []FileError
}

type loaded struct {
	file     walker.FileInfo
	datasets []knowledge.Dataset
}

// Run walks opts.Root, loads every new or changed dataset file in parallel
// and writes the datasets to store. state is updated in place; files that
// fail to load keep their previous state so the next run retries them.
func Run(ctx context.Context, store Store, state *State, opts Options) (Summary, error) {
	logger := logging.OrNop(opts.Logger)
	tagger := opts.Tagger
	if tagger == nil {
		tagger = query.NewAnalyzer()
	}
	var summary Summary

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: opts.Root,
		Include: opts.Include,
		Exclude: opts.Exclude,
	})
	if err != nil {
		return summary, fmt.Errorf("scanning datasets: %w", err)
	}
	summary.Files = len(files)

	var pending []walker.FileInfo
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f.RelPath] = true
		if opts.Force || state.IsFileChanged(f.RelPath, f.ContentHash) {
			pending = append(pending, f)
		} else {
			summary.Skipped++
		}
	}

	if opts.Reporter != nil {
		opts.Reporter.Start(len(pending), "Loading datasets")
	}

	var (
		mu      sync.Mutex
		results []loaded
	)
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g.SetLimit(limit)

	for _, f := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			datasets, err := knowledge.LoadDatasetFile(f.Path, tagger)
			mu.Lock()
			defer mu.Unlock()
			if opts.Reporter != nil {
				opts.Reporter.Step(f.RelPath)
			}
			if err != nil {
				logger.Warn("skipping dataset file", zap.String("path", f.RelPath), zap.Error(err))
				summary.Failed = append(summary.Failed, FileError{Path: f.RelPath, Err: err})
				return nil
			}
			results = append(results, loaded{file: f, datasets: datasets})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].file.RelPath < results[j].file.RelPath })
	sort.Slice(summary.Failed, func(i, j int) bool { return summary.Failed[i].Path < summary.Failed[j].Path })

	var batch []knowledge.Dataset
	for _, r := range results {
		batch = append(batch, r.datasets...)
	}
	if len(batch) > 0 {
		if err := store.AddDatasets(ctx, batch); err != nil {
			return summary, fmt.Errorf("storing datasets: %w", err)
		}
	}
	summary.Datasets = len(batch)
	summary.Loaded = len(results)

	// Drop ids a changed file no longer produces, then files that vanished.
	for _, r := range results {
		ids := datasetIDs(r.datasets)
		for _, old := range state.DatasetIDs[r.file.RelPath] {
			if !containsID(ids, old) {
				if err := remove(ctx, store, old); err != nil {
					return summary, err
				}
				summary.Removed++
			}
		}
		state.record(r.file.RelPath, r.file.ContentHash, ids)
	}
	for _, rel := range sortedKeys(state.FileHashes) {
		if seen[rel] {
			continue
		}
		for _, old := range state.DatasetIDs[rel] {
			if err := remove(ctx, store, old); err != nil {
				return summary, err
			}
			summary.Removed++
		}
		state.forget(rel)
	}

	if opts.Reporter != nil {
		opts.Reporter.Finish(fmt.Sprintf("%d datasets from %d files", summary.Datasets, summary.Loaded))
	}
	logger.Info("ingestion finished",
		zap.Int("files", summary.Files),
		zap.Int("loaded", summary.Loaded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("datasets", summary.Datasets),
		zap.Int("removed", summary.Removed),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func remove(ctx context.Context, store Store, id string) error {
	if err := store.Delete(ctx, id); err != nil && !errors.Is(err, knowledge.ErrNotFound) {
		return fmt.Errorf("removing dataset %s: %w", id, err)
	}
	return nil
}

func datasetIDs(datasets []knowledge.Dataset) []string {
	ids := make([]string, len(datasets))
	for i, d := range datasets {
		ids[i] = d.ID
	}
	return ids
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
