package matcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/garry/localify/model"
)

// Options tunes a Reconciler
type Options struct {
	Scorer       Scorer
	Escalation   Escalation
	Workers      int
	TrackTimeout time.Duration
	Logger       *slog.Logger
}

// Reconciler matches local tracks against a catalog
type Reconciler struct {
	cascade *Cascade
	scorer  Scorer
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

// NewReconciler creates a reconciler backed by the given catalog.
// The catalog must be safe for concurrent use when more than one worker is configured.
func NewReconciler(catalog Catalog, opts Options) *Reconciler {
	if opts.Scorer == nil {
		opts.Scorer = JaroWinkler
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Reconciler{
		cascade: NewCascade(catalog, opts.Escalation, opts.Logger),
		scorer:  opts.Scorer,
		workers: opts.Workers,
		timeout: opts.TrackTimeout,
		logger:  opts.Logger,
	}
}

// Match runs the search cascade for a single track. A catalog failure is
// recorded in the result's Err rather than returned.
func (r *Reconciler) Match(ctx context.Context, track model.LocalTrack) model.MatchResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	keys := DeriveKeys(track.Artist, track.Title)
	if keys.Empty() {
		r.logger.Warn("No search keys for track", "source", track.SourceID)
	}

	selector := NewSelector(r.scorer, track.Artist, track.Title)
	for candidate, err := range r.cascade.Candidates(ctx, keys, selector.Satisfied) {
		if err != nil {
			r.logger.Error("Failed to search catalog", "source", track.SourceID, "error", err)
			return model.MatchResult{LocalTrack: track, Err: err}
		}
		selector.Consider(candidate)
	}

	result := selector.Result(track)
	if result.NeedsManualResolution() {
		r.logger.Info("No match found", "artist", track.Artist, "title", track.Title, "candidates", selector.Seen())
	} else {
		r.logger.Debug("Matched track", "artist", track.Artist, "title", track.Title, "matched_artist", result.MatchedArtist, "matched_title", result.MatchedTitle, "score", result.Score)
	}
	return result
}

// Reconcile matches every track and returns the results in the same order as tracks
func (r *Reconciler) Reconcile(ctx context.Context, tracks []model.LocalTrack) []model.MatchResult {
	results := make([]model.MatchResult, len(tracks))
	if len(tracks) == 0 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := min(r.workers, len(tracks))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				results[index] = r.Match(ctx, tracks[index])
			}
		}()
	}

	for i := range tracks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	r.logger.Debug("Reconciled tracks", "count", len(tracks), "workers", workers)
	return results
}
