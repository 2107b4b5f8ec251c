package matcher

import (
	"iter"

	"github.com/garry/localify/model"
)

// Selector keeps the highest scoring candidate seen so far.
// Ties keep the candidate that was seen first.
type Selector struct {
	artist string
	title  string
	scorer Scorer

	best      model.Candidate
	bestScore float64
	seen      int
}

// NewSelector creates a selector that scores candidates against artist and title
func NewSelector(scorer Scorer, artist, title string) *Selector {
	if scorer == nil {
		scorer = JaroWinkler
	}
	return &Selector{artist: artist, title: title, scorer: scorer}
}

// Consider scores the candidate and keeps it if it beats the current best.
// Candidates without an external id can never be linked and are ignored.
func (s *Selector) Consider(candidate model.Candidate) float64 {
	s.seen++
	if candidate.ExternalID == "" {
		return 0
	}

	score := ScoreCandidate(s.scorer, candidate, s.artist, s.title)
	candidate.RawScore = score
	if score > s.bestScore {
		s.best = candidate
		s.bestScore = score
	}
	return score
}

// Satisfied reports whether some candidate has scored above zero
func (s *Selector) Satisfied() bool {
	return s.bestScore > 0
}

// Seen returns how many candidates have been considered
func (s *Selector) Seen() int {
	return s.seen
}

// Result builds the match result for track from the best candidate
func (s *Selector) Result(track model.LocalTrack) model.MatchResult {
	result := model.MatchResult{LocalTrack: track}
	if s.bestScore <= 0 {
		return result
	}

	result.MatchedArtist = s.best.Artist()
	result.MatchedTitle = s.best.Title
	result.ExternalID = s.best.ExternalID
	result.Score = s.bestScore
	return result
}

// SelectBest scores every candidate, in order, and returns the best one as a
// match for artist and title
func SelectBest(candidates iter.Seq[model.Candidate], scorer Scorer, artist, title string) model.MatchResult {
	selector := NewSelector(scorer, artist, title)
	for candidate := range candidates {
		selector.Consider(candidate)
	}
	return selector.Result(model.LocalTrack{Artist: artist, Title: title})
}
