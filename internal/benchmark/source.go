package benchmark

import (
	"context"
	"fmt"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"
)

// Source is a loaded MemoryIndex plus the watcher keeping it fresh, if any
type Source struct {
	Index   *MemoryIndex
	Watcher *CorpusWatcher
	Origin  string
}

// Close stops the watcher
func (s *Source) Close() error {
	if s == nil || s.Watcher == nil {
		return nil
	}
	return s.Watcher.Stop()
}

// OpenSource builds the index from the configured origin: the SQLite store,
// then the corpus file, then the embedded corpus. With Watch set, a corpus
// file is reloaded on change.
func OpenSource(ctx context.Context, cfg config.BenchmarkConfig, logger *errors.Logger) (*Source, error) {
	switch {
	case cfg.SQLitePath != "":
		profiles, err := LoadSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeBenchmarkLoad, "Failed to load benchmark database", err).
				WithContext("path", cfg.SQLitePath)
		}
		logger.Info("Benchmark profiles loaded", "source", "sqlite", "path", cfg.SQLitePath, "profiles", len(profiles))
		return &Source{Index: NewMemoryIndex(profiles), Origin: "sqlite:" + cfg.SQLitePath}, nil

	case cfg.CorpusPath != "":
		load := func() ([]types.BenchmarkProfile, error) { return LoadCorpusFile(cfg.CorpusPath) }
		profiles, err := load()
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeBenchmarkLoad, "Failed to load benchmark corpus", err).
				WithContext("path", cfg.CorpusPath)
		}
		logger.Info("Benchmark profiles loaded", "source", "file", "path", cfg.CorpusPath, "profiles", len(profiles))

		src := &Source{Index: NewMemoryIndex(profiles), Origin: "file:" + cfg.CorpusPath}
		if cfg.Watch {
			src.Watcher = NewCorpusWatcher(cfg.CorpusPath, cfg.DebounceDelay, load, src.Index, logger)
			if err := src.Watcher.Start(); err != nil {
				return nil, fmt.Errorf("failed to watch benchmark corpus: %w", err)
			}
		}
		return src, nil
	}

	profiles := DefaultProfiles()
	logger.Debug("Benchmark profiles loaded", "source", "embedded", "profiles", len(profiles))
	return &Source{Index: NewMemoryIndex(profiles), Origin: "embedded"}, nil
}
