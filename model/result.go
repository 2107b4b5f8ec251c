package model

// MatchStatus describes how reconciliation of a single track ended
type MatchStatus int

const (
	// StatusNoMatch means the catalog was asked and nothing scored above zero
	StatusNoMatch MatchStatus = iota
	// StatusMatched means a candidate with a non-zero score was found
	StatusMatched
	// StatusFailed means the catalog could not be queried for this track
	StatusFailed
)

func (s MatchStatus) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusFailed:
		return "failed"
	default:
		return "no match"
	}
}

// MatchResult is the outcome of reconciling one LocalTrack against the catalog.
// ExternalID is empty exactly when Score is zero.
type MatchResult struct {
	LocalTrack    LocalTrack
	MatchedArtist string
	MatchedTitle  string
	ExternalID    string
	Score         float64
	Err           error
}

// Status classifies the result
func (r MatchResult) Status() MatchStatus {
	if r.Err != nil {
		return StatusFailed
	}
	if r.ExternalID == "" {
		return StatusNoMatch
	}
	return StatusMatched
}

// NeedsManualResolution reports whether the catalog answered but no usable match was found
func (r MatchResult) NeedsManualResolution() bool {
	return r.Status() == StatusNoMatch
}

// Accepted reports whether the match is good enough to be linked automatically
func (r MatchResult) Accepted(threshold float64) bool {
	return r.Status() == StatusMatched && r.Score > threshold
}
