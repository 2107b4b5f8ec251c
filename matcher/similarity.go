package matcher

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
	"github.com/garry/localify/model"
)

// Scorer computes a lexical closeness score in [0, 1] between two strings
type Scorer interface {
	Similarity(a, b string) float64
}

// ScorerFunc adapts a plain function to the Scorer interface
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Similarity(a, b string) float64 {
	return f(a, b)
}

// Names accepted by ScorerByName
const (
	ScorerJaroWinkler = "jaro-winkler"
	ScorerLevenshtein = "levenshtein"
)

var (
	// JaroWinkler scores with Jaro-Winkler similarity (prefix scale 0.1, prefix capped at 4 runes)
	JaroWinkler Scorer = ScorerFunc(jaroWinklerSimilarity)

	// Levenshtein scores with one minus the edit distance over the longer string's length
	Levenshtein Scorer = ScorerFunc(levenshteinSimilarity)

	jaroWinkler = metrics.NewJaroWinkler()
)

// Similarity is the default scorer used to rank catalog candidates
func Similarity(a, b string) float64 {
	return JaroWinkler.Similarity(a, b)
}

// ScorerByName returns the scorer registered under name
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerJaroWinkler:
		return JaroWinkler, nil
	case ScorerLevenshtein:
		return Levenshtein, nil
	default:
		return nil, fmt.Errorf("unknown scorer: %s", name)
	}
}

func jaroWinklerSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return strutil.Similarity(a, b, jaroWinkler)
}

func levenshteinSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return 0
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// ScoreCandidate compares the candidate's artists and title, concatenated, against
// the queried artist and title, concatenated the same way
func ScoreCandidate(scorer Scorer, candidate model.Candidate, artist, title string) float64 {
	return scorer.Similarity(candidate.Artist()+candidate.Title, artist+title)
}
