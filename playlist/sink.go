// Package playlist writes reconciliation results to a remote playlist in the
// order the local tracks were found.
package playlist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garry/localify/model"
)

// MaxChunkSize is the most ids sent to the target in one call
const MaxChunkSize = 100

// Target is a playlist service that tracks can be appended to
type Target interface {
	AddTracks(ctx context.Context, playlistID string, externalIDs []string) error
}

// Summary counts what a Sink did with a batch of results
type Summary struct {
	Added  int
	Manual int
	Failed int
}

// Total is the number of results consumed
func (s Summary) Total() int {
	return s.Added + s.Manual + s.Failed
}

// SinkOptions configures a Sink
type SinkOptions struct {
	Threshold float64
	Resolver  Resolver
	DryRun    bool
	ChunkSize int
	Logger    *slog.Logger
}

// Sink appends accepted matches to a playlist and hands everything else to a Resolver
type Sink struct {
	target     Target
	playlistID string
	threshold  float64
	resolver   Resolver
	dryRun     bool
	chunkSize  int
	logger     *slog.Logger
}

// NewSink creates a Sink writing to the given playlist
func NewSink(target Target, playlistID string, opts SinkOptions) *Sink {
	if opts.Resolver == nil {
		opts.Resolver = &QueueResolver{}
	}
	if opts.ChunkSize <= 0 || opts.ChunkSize > MaxChunkSize {
		opts.ChunkSize = MaxChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Sink{
		target:     target,
		playlistID: playlistID,
		threshold:  opts.Threshold,
		resolver:   opts.Resolver,
		dryRun:     opts.DryRun,
		chunkSize:  opts.ChunkSize,
		logger:     opts.Logger,
	}
}

// Consume walks results in order. Matches scoring above the threshold are
// added to the playlist; the rest go to the resolver. Any pending adds are
// flushed before a manual resolution so the playlist keeps the local order.
func (s *Sink) Consume(ctx context.Context, results []model.MatchResult) (Summary, error) {
	var (
		summary Summary
		pending []string
	)

	flush := func() error {
		for len(pending) > 0 {
			n := min(len(pending), s.chunkSize)
			if err := s.add(ctx, pending[:n]); err != nil {
				return err
			}
			summary.Added += n
			pending = pending[n:]
		}
		return nil
	}

	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if result.Accepted(s.threshold) {
			pending = append(pending, result.ExternalID)
			if len(pending) >= s.chunkSize {
				if err := flush(); err != nil {
					return summary, err
				}
			}
			continue
		}

		if err := flush(); err != nil {
			return summary, err
		}

		if result.Status() == model.StatusFailed {
			summary.Failed++
		} else {
			summary.Manual++
		}

		if err := s.resolver.Resolve(ctx, result); err != nil {
			return summary, fmt.Errorf("failed to resolve %s: %w", result.LocalTrack, err)
		}
	}

	if err := flush(); err != nil {
		return summary, err
	}

	s.logger.Info("Playlist updated", "playlist", s.playlistID, "added", summary.Added, "manual", summary.Manual, "failed", summary.Failed, "dry_run", s.dryRun)
	return summary, nil
}

func (s *Sink) add(ctx context.Context, ids []string) error {
	if s.dryRun {
		s.logger.Debug("Dry run, not adding tracks", "playlist", s.playlistID, "count", len(ids))
		return nil
	}

	s.logger.Debug("Adding tracks to playlist", "playlist", s.playlistID, "count", len(ids))
	if err := s.target.AddTracks(ctx, s.playlistID, ids); err != nil {
		return fmt.Errorf("failed to add %d tracks to playlist %s: %w", len(ids), s.playlistID, err)
	}
	return nil
}
