package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// LoaderConfig selects where element sets come from.
type LoaderConfig struct {
	File        string        // explicit TLE file; bypasses cache and network
	SourceURL   string        // primary download URL
	ExtraURLs   []string      // appended to the primary download
	CacheDir    string        // download cache directory
	MaxFiles    int           // cached downloads to keep
	MaxAge      time.Duration // cached downloads younger than this are reused
	EnableFetch bool          // allow network downloads
}

// Loader produces the dataset that feeds a screening run.
//
// Resolution order: explicit file, fresh cache, download (written back to the
// cache), stale cache as a last resort when the download fails.
type Loader struct {
	cfg     LoaderConfig
	cache   *Cache
	fetcher *Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewLoader creates a Loader.
func NewLoader(cfg LoaderConfig, logger *slog.Logger) *Loader {
	return &Loader{
		cfg:     cfg,
		cache:   NewCache(cfg.CacheDir, cfg.MaxFiles),
		fetcher: NewFetcher(cfg.SourceURL, logger, cfg.ExtraURLs...),
		logger:  logger,
		now:     time.Now,
	}
}

// Load returns the current dataset.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	if l.cfg.File != "" {
		data, err := os.ReadFile(l.cfg.File)
		if err != nil {
			return nil, fmt.Errorf("reading TLE file: %w", err)
		}
		info, err := os.Stat(l.cfg.File)
		if err != nil {
			return nil, fmt.Errorf("stat TLE file: %w", err)
		}
		return l.parse("file:"+l.cfg.File, data, info.ModTime())
	}

	cachedAt, cacheErr := l.cache.Latest()
	if cacheErr != nil && !errors.Is(cacheErr, ErrNoCache) {
		l.logger.Warn("TLE cache unreadable", "error", cacheErr)
	}
	fresh := cacheErr == nil && l.now().Sub(cachedAt) < l.cfg.MaxAge

	if fresh || !l.cfg.EnableFetch {
		if ds, err := l.fromCache(); err == nil {
			return ds, nil
		} else if !l.cfg.EnableFetch {
			return nil, fmt.Errorf("fetch disabled and no usable cache: %w", err)
		}
	}

	fetchedAt := l.now()
	data, err := l.fetcher.Fetch(ctx)
	if err != nil {
		l.logger.Warn("TLE download failed, trying stale cache", "url", l.fetcher.SourceURL(), "error", err)
		ds, cerr := l.fromCache()
		if cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return ds, nil
	}

	if err := l.cache.Write(data, fetchedAt); err != nil {
		l.logger.Warn("failed to write TLE cache", "dir", l.cfg.CacheDir, "error", err)
	}
	return l.parse(l.fetcher.SourceURL(), data, fetchedAt)
}

func (l *Loader) fromCache() (*Dataset, error) {
	data, ts, err := l.cache.LoadLatest()
	if err != nil {
		return nil, err
	}
	return l.parse("cache", data, ts)
}

func (l *Loader) parse(source string, data []byte, ts time.Time) (*Dataset, error) {
	records, err := Parse(bytes.NewReader(data), l.logger)
	if err != nil {
		return nil, err
	}
	l.logger.Info("loaded TLE data", "source", source, "count", len(records), "fetched_at", ts.UTC().Format(time.RFC3339))
	return NewDataset(source, ts, records), nil
}
