// Package generator builds the catalogue from an assets tree and two link lists,
// and renders it as a spreadsheet for content editors.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m3rciful/topicbot/core/logger"
	"github.com/m3rciful/topicbot/internal/catalogue"
)

// Options locates the generator inputs.
type Options struct {
	AssetsDir   string
	TestsFile   string
	SourcesFile string
	// OnSkip, when set, receives every link line that was ignored.
	OnSkip func(Skip)
}

// DefaultOptions returns the conventional layout under a public directory.
func DefaultOptions(publicDir string) Options {
	return Options{
		AssetsDir:   filepath.Join(publicDir, "assets"),
		TestsFile:   filepath.Join(publicDir, "tests.txt"),
		SourcesFile: filepath.Join(publicDir, "sources.txt"),
	}
}

// Generate scans the inputs and returns catalogue data that passes catalogue.New.
// Missing link files are treated as empty.
func Generate(ctx context.Context, opts Options) (catalogue.Data, error) {
	classes, topics, err := ScanAssets(ctx, opts.AssetsDir)
	if err != nil {
		return catalogue.Data{}, err
	}
	tests, err := parseFile(opts.TestsFile, func(r io.Reader) (map[string][]catalogue.TestLink, error) {
		return parseTests(r, reportSkip(ctx, filepath.Base(opts.TestsFile), opts.OnSkip))
	})
	if err != nil {
		return catalogue.Data{}, err
	}
	sources, err := parseFile(opts.SourcesFile, func(r io.Reader) (map[string][]catalogue.SourceLink, error) {
		return parseSources(r, reportSkip(ctx, filepath.Base(opts.SourcesFile), opts.OnSkip))
	})
	if err != nil {
		return catalogue.Data{}, err
	}

	d := catalogue.Data{Classes: classes, Topics: topics, Tests: tests, Sources: sources}
	store, err := catalogue.New(d)
	if err != nil {
		return catalogue.Data{}, fmt.Errorf("generator: %w", err)
	}
	st := store.Stats()
	logger.LogEvent(ctx, logger.CAT, slog.LevelInfo, "generator.done",
		slog.Int("classes", st.Classes),
		slog.Int("topics", st.Topics),
		slog.Int("images", st.Images),
		slog.Int("tests", st.Tests),
		slog.Int("sources", st.Sources),
	)
	return d, nil
}

func parseFile[T any](path string, parse func(io.Reader) (map[string][]T, error)) (map[string][]T, error) {
	if path == "" {
		return map[string][]T{}, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	defer f.Close()
	return parse(f)
}
