package pipeline

import (
	"fmt"
	"strings"

	"showtime-cards/pkg/catalog"
	"showtime-cards/pkg/config"
	"showtime-cards/pkg/enrich"
	"showtime-cards/pkg/filter"
	"showtime-cards/pkg/httpclient"
	"showtime-cards/pkg/leak"
	"showtime-cards/pkg/lifecycle"
	"showtime-cards/pkg/logger"
	"showtime-cards/pkg/omdb"
	"showtime-cards/pkg/store"
	"showtime-cards/pkg/worker"
)

// Build wires a pipeline from configuration:
// Catalog API → [Zone filter] → [Details] → [OMDb + store cache] → [Leak index] → [Markers]
func Build(cfg *config.Config, st store.Store) (*Pipeline, error) {
	httpCfg := httpclient.Config{
		Timeout:   cfg.HTTPTimeout,
		Retries:   cfg.HTTPRetries,
		BaseDelay: httpclient.DefaultConfig().BaseDelay,
	}
	browser := httpclient.NewClientWithConfig(httpclient.BrowserClient, httpCfg)

	cat := catalog.NewClient(browser, catalog.Config{
		BaseURL:   cfg.CatalogBaseURL,
		Language:  cfg.Language,
		PageSizes: cfg.PageSizes,
	})

	p := &Pipeline{
		Catalog:  cat,
		Zone:     cat,
		ZoneName: cfg.Zone,
		Tracker:  lifecycle.NewTracker(st, cfg.NewWindow),
		Location: cfg.Location(),
	}

	if cfg.ExcludeFile != "" {
		exclude, err := filter.LoadSlugFile(cfg.ExcludeFile)
		if err != nil {
			return nil, fmt.Errorf("load exclude file: %w", err)
		}
		p.Exclude = exclude
	}

	if cfg.FetchDetails {
		p.Details = enrich.NewDetailMerger(cat, worker.NewPool("details", cfg.Workers))
	}

	// A nil provider means every show leaves with empty ratings.
	var provider enrich.RatingsProvider
	if cfg.OMDbKey != "" {
		provider = omdb.NewClient(browser, cfg.OMDbKey, cfg.OMDbBaseURL)
	} else {
		logger.Log.Warn("OMDB_KEY not set, ratings will be empty")
	}
	p.Ratings = enrich.NewMerger(provider, st, worker.NewPool("ratings", cfg.Workers))

	if checker := buildLeakChecker(cfg, httpCfg); checker != nil {
		p.Leaks = enrich.NewLeakMerger(checker, worker.NewPool("leaks", cfg.Workers))
	}

	return p, nil
}

func buildLeakChecker(cfg *config.Config, httpCfg httpclient.Config) leak.Checker {
	switch strings.ToLower(cfg.LeakBackend) {
	case "", "off", "none":
		return nil
	case "torznab":
		return leak.NewFeedChecker(httpclient.NewClientWithConfig(httpclient.CloudflareClient, httpCfg), cfg.LeakURL, true)
	case "json":
		return leak.NewJSONChecker(httpclient.NewClientWithConfig(httpclient.CloudflareClient, httpCfg), cfg.LeakURL, true)
	default:
		logger.Log.Warnf("Unknown leak backend %q, leak checks disabled", cfg.LeakBackend)
		return nil
	}
}
