// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one scrape-classify-deliver pass: fetch the source
// listing pages, tag every listing, and post the resulting calls to the
// ingest backend, recording each outcome in the delivery ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/funding-tagger/internal/ingest"
	"github.com/pdiddy/funding-tagger/internal/ledger"
	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/internal/scrape"
	"github.com/pdiddy/funding-tagger/internal/tagger"
	"github.com/pdiddy/funding-tagger/pkg/types"
)

// DefaultDeadlineWindow is how far ahead the deadline of a listing without
// one is placed.
const DefaultDeadlineWindow = 180 * 24 * time.Hour

const dateFmt = "2006-01-02"

// ErrAllSourcesFailed is returned when no source could be scraped.
var ErrAllSourcesFailed = errors.New("all sources failed")

// Sender delivers one call. *ingest.Client implements it.
type Sender interface {
	Send(ctx context.Context, call types.Call) (ingest.Receipt, error)
}

// Ledger remembers deliveries across runs. *ledger.Store implements it.
type Ledger interface {
	Delivered(ctx context.Context, sourceURL string) (bool, error)
	Record(ctx context.Context, e ledger.Entry) error
}

// Deps are the collaborators of a run.
type Deps struct {
	Engine  *tagger.Engine
	Fetcher *scrape.Fetcher
	Sources []scrape.Source
	Sender  Sender
	// Ledger may be nil, in which case nothing is skipped or recorded.
	Ledger Ledger
	Log    logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Options control one run.
type Options struct {
	// Force resends listings the ledger marks as delivered.
	Force bool
	// DeadlineWindow is added to today's date for the deadline of every
	// call; zero uses DefaultDeadlineWindow.
	DeadlineWindow time.Duration
}

// ItemStatus is what happened to one listing.
type ItemStatus string

const (
	StatusDelivered ItemStatus = "delivered"
	StatusDryRun    ItemStatus = "dry-run"
	StatusSkipped   ItemStatus = "skipped"
	StatusDuplicate ItemStatus = "duplicate"
	StatusFailed    ItemStatus = "failed"
)

// Item is the outcome for one listing.
type Item struct {
	Call   types.Call `json:"call" yaml:"call"`
	Status ItemStatus `json:"status" yaml:"status"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// SourceError describes a source that could not be scraped.
type SourceError struct {
	Source string `json:"source" yaml:"source"`
	Error  string `json:"error" yaml:"error"`
}

// Summary holds the counts and per-item outcomes of a run.
type Summary struct {
	Listings     int           `json:"listings" yaml:"listings"`
	Delivered    int           `json:"delivered" yaml:"delivered"`
	DryRun       int           `json:"dry_run" yaml:"dry_run"`
	Skipped      int           `json:"skipped" yaml:"skipped"`
	Duplicates   int           `json:"duplicates" yaml:"duplicates"`
	Failed       int           `json:"failed" yaml:"failed"`
	SourceErrors []SourceError `json:"source_errors,omitempty" yaml:"source_errors,omitempty"`
	Items        []Item        `json:"items" yaml:"items"`
}

// HasFailures reports whether any delivery or source failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || len(s.SourceErrors) > 0
}

// DefaultDeadline returns now plus window as an ISO date.
func DefaultDeadline(now time.Time, window time.Duration) string {
	if window <= 0 {
		window = DefaultDeadlineWindow
	}
	return now.Add(window).Format(dateFmt)
}

// BuildCall combines a listing, the source it came from and its
// classification into the payload the backend accepts.
func BuildCall(l scrape.Listing, src scrape.Source, r tagger.Result, deadline string) types.Call {
	rec := r.Record()
	return types.Call{
		Title:           l.Title,
		HostCountry:     src.HostCountry(),
		Field:           rec.Field,
		Theme:           rec.Theme,
		DegreeLevel:     rec.DegreeLevel,
		FundingType:     types.FundingTypeUnknown,
		Deadline:        deadline,
		SourceURL:       l.Link,
		SDGTags:         rec.SDGTags,
		SourceName:      src.Name(),
		ConfidenceScore: rec.ConfidenceScore,
	}
}

// Run scrapes deps.Sources and delivers every new listing, printing one
// status line per listing and a closing summary to w. Individual source and
// delivery failures are counted, not returned; the error is reserved for
// cancellation, ledger failures and runs where every source failed.
func Run(ctx context.Context, deps Deps, opts Options, w io.Writer) (Summary, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logging.NewNop()
	}
	log := deps.Log

	start := deps.Now()
	deadline := DefaultDeadline(start, opts.DeadlineWindow)
	log.Info("run started",
		logging.Int("sources", len(deps.Sources)),
		logging.Bool("force", opts.Force),
		logging.String("deadline", deadline))

	var summary Summary
	results := scrape.Scrape(ctx, deps.Fetcher, deps.Sources, log)
	seen := make(map[string]bool)

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "source  %s: %v\n", res.Source.Name(), res.Err)
			summary.SourceErrors = append(summary.SourceErrors, SourceError{
				Source: res.Source.Name(),
				Error:  res.Err.Error(),
			})
			continue
		}

		for _, l := range res.Listings {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			summary.Listings++

			call := BuildCall(l, res.Source, deps.Engine.Classify(l.Title, l.Description), deadline)
			item, err := deliver(ctx, deps, opts, call, seen)
			if err != nil {
				return summary, err
			}
			summary.add(item)
			printItem(w, item)
		}
	}

	fmt.Fprintf(w, "\ndelivered: %d, skipped: %d, duplicates: %d, failed: %d, source errors: %d\n",
		summary.Delivered+summary.DryRun, summary.Skipped, summary.Duplicates,
		summary.Failed, len(summary.SourceErrors))
	log.Info("run finished",
		logging.Int("listings", summary.Listings),
		logging.Int("delivered", summary.Delivered),
		logging.Int("dry_run", summary.DryRun),
		logging.Int("skipped", summary.Skipped+summary.Duplicates),
		logging.Int("failed", summary.Failed),
		logging.Int("source_errors", len(summary.SourceErrors)),
		logging.Duration("elapsed", deps.Now().Sub(start)))

	if len(deps.Sources) > 0 && len(summary.SourceErrors) == len(deps.Sources) {
		return summary, ErrAllSourcesFailed
	}
	return summary, nil
}

// deliver sends one call unless it was already handled. deps must have Now
// and Log set. The returned error is fatal to the run; delivery failures are
// reported in the Item.
func deliver(ctx context.Context, deps Deps, opts Options, call types.Call, seen map[string]bool) (Item, error) {
	item := Item{Call: call}

	if seen[call.SourceURL] {
		item.Status = StatusDuplicate
		return item, nil
	}
	seen[call.SourceURL] = true

	if deps.Ledger != nil && !opts.Force {
		done, err := deps.Ledger.Delivered(ctx, call.SourceURL)
		if err != nil {
			return item, fmt.Errorf("checking ledger: %w", err)
		}
		if done {
			item.Status = StatusSkipped
			return item, nil
		}
	}

	receipt, sendErr := deps.Sender.Send(ctx, call)
	if receipt.DryRun {
		item.Status = StatusDryRun
		return item, nil
	}

	entry := ledger.Entry{
		Call:        call,
		Status:      types.DeliveryDelivered,
		HTTPStatus:  receipt.StatusCode,
		LastAttempt: deps.Now(),
	}
	item.Status = StatusDelivered
	if sendErr != nil {
		if ctx.Err() != nil {
			return item, ctx.Err()
		}
		deps.Log.Warn("delivery failed",
			logging.String("source_url", call.SourceURL),
			logging.Err(sendErr))
		entry.Status = types.DeliveryFailed
		entry.Error = sendErr.Error()
		item.Status = StatusFailed
		item.Error = sendErr.Error()
	}

	if deps.Ledger != nil {
		if err := deps.Ledger.Record(ctx, entry); err != nil {
			return item, fmt.Errorf("recording delivery: %w", err)
		}
	}
	return item, nil
}

func (s *Summary) add(item Item) {
	s.Items = append(s.Items, item)
	switch item.Status {
	case StatusDelivered:
		s.Delivered++
	case StatusDryRun:
		s.DryRun++
	case StatusSkipped:
		s.Skipped++
	case StatusDuplicate:
		s.Duplicates++
	case StatusFailed:
		s.Failed++
	}
}

func printItem(w io.Writer, item Item) {
	c := item.Call
	switch item.Status {
	case StatusFailed:
		fmt.Fprintf(w, "failed    %s: %s\n", c.SourceURL, item.Error)
	case StatusSkipped:
		fmt.Fprintf(w, "skipped   %s (already delivered)\n", c.SourceURL)
	case StatusDuplicate:
		fmt.Fprintf(w, "duplicate %s\n", c.SourceURL)
	default:
		fmt.Fprintf(w, "%-9s %s [%s, %s, %s, %s] %.2f\n", item.Status, c.SourceURL,
			c.DegreeLevel, c.Field, c.Theme, c.SDGTags, c.ConfidenceScore)
	}
}
