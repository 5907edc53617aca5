// Package discover reads the public ESEF filing registry feeds so a
// researcher can find candidate report packages for a sample. Feeds are
// fetched concurrently and merged newest-first.
package discover

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/jmuehlb/esefscan/internal/infra"
	"github.com/jmuehlb/esefscan/pkg/models"
)

// FeedSource is one configured registry feed.
type FeedSource struct {
	Name string
	URL  string
}

// DefaultFeedSources lists the public ESEF filing registries.
var DefaultFeedSources = []FeedSource{
	{
		Name: "filings.xbrl.org",
		URL:  "https://filings.xbrl.org/rss.xml",
	},
	{
		Name: "XBRL International news",
		URL:  "https://www.xbrl.org/feed/",
	},
}

// Registry fetches and merges filing registry feeds.
type Registry struct {
	sources []FeedSource
	cache   *infra.Cache
	pacer   *infra.Pacer
	parser  *gofeed.Parser
}

// NewRegistry creates a registry reader over the default feeds.
func NewRegistry() *Registry {
	return NewRegistryWithSources(DefaultFeedSources)
}

// NewRegistryWithSources creates a registry reader over custom feeds.
func NewRegistryWithSources(sources []FeedSource) *Registry {
	return &Registry{
		sources: sources,
		cache:   infra.NewCache(10 * time.Minute),
		pacer:   infra.NewPacer(500 * time.Millisecond),
		parser:  gofeed.NewParser(),
	}
}

// Latest returns the most recent registry entries across all sources,
// newest first. Failing sources are skipped; only all sources failing
// is an error.
func (r *Registry) Latest(ctx context.Context, limit int) ([]models.DiscoveredFiling, error) {
	cacheKey := fmt.Sprintf("discover:latest:%d", limit)
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.([]models.DiscoveredFiling), nil
	}

	var (
		mu      sync.Mutex
		entries []models.DiscoveredFiling
		failed  int
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range r.sources {
		src := src
		g.Go(func() error {
			found, err := r.fetchFeed(gctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Non-critical: a registry being down must not hide the others.
				failed++
				return nil
			}
			entries = append(entries, found...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if failed == len(r.sources) {
		return nil, fmt.Errorf("no registry feed reachable (%d tried)", failed)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Published.After(entries[j].Published)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	r.cache.Set(cacheKey, entries)
	return entries, nil
}

func (r *Registry) fetchFeed(ctx context.Context, src FeedSource) ([]models.DiscoveredFiling, error) {
	if err := r.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := r.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.Name, err)
	}

	entries := make([]models.DiscoveredFiling, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := time.Time{}
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}
		entries = append(entries, models.DiscoveredFiling{
			Title:     item.Title,
			Link:      item.Link,
			Source:    src.Name,
			Published: published,
		})
	}
	return entries, nil
}
