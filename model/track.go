package model

import (
	"strings"
	"time"
)

// LocalTrack is an audio file on disk with the artist and title we could extract for it
type LocalTrack struct {
	Artist     string
	Title      string
	SourceID   string // file name, relative to the library directory
	ModifiedAt time.Time
}

// String renders the track the way it would appear in a "artist - title" filename
func (t LocalTrack) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// Candidate is a single hit returned by a catalog search
type Candidate struct {
	ArtistNames []string
	Title       string
	ExternalID  string
	RawScore    float64
}

// Artist joins all credited artists with a space
func (c Candidate) Artist() string {
	return strings.Join(c.ArtistNames, " ")
}
