// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape downloads funding-opportunity listing pages and extracts
// titles, excerpts and links from them.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/funding-tagger/internal/logging"
)

// Result is the outcome of scraping one source.
type Result struct {
	Source   Source
	Listings []Listing
	Err      error
}

// Scrape fetches every source concurrently and parses its listings. Results
// come back in the order of sources. A failing source is reported in its
// Result and does not affect the others.
func Scrape(ctx context.Context, f *Fetcher, sources []Source, log logging.Logger) []Result {
	results := make([]Result, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			listings, err := scrapeOne(ctx, f, src)
			results[i] = Result{Source: src, Listings: listings, Err: err}

			if err != nil {
				log.Warn("source failed", logging.String("source", src.Name()), logging.Err(err))
				return
			}
			log.Info("source scraped",
				logging.String("source", src.Name()),
				logging.Int("listings", len(listings)))
		}(i, src)
	}
	wg.Wait()

	return results
}

func scrapeOne(ctx context.Context, f *Fetcher, src Source) ([]Listing, error) {
	body, err := f.Fetch(ctx, src.URL())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.Name(), err)
	}
	return src.Parse(doc), nil
}
