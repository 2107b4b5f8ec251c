// Package library lists audio files in a directory and works out the artist
// and title of each one, from embedded tags where possible and the file name otherwise.
package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/garry/localify/model"
)

// DefaultSeparator separates artist and title in "artist - title" file names
const DefaultSeparator = " - "

// Options controls how a directory is read
type Options struct {
	Separator  string
	Extensions []string
	SkipTags   bool
	Logger     *slog.Logger
}

// Extract reads every eligible file directly inside dir and returns them as
// local tracks, oldest modification time first
func Extract(dir string, opts Options) ([]model.LocalTrack, error) {
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read library directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a valid directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list library directory: %w", err)
	}

	var tracks []model.LocalTrack
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !hasExtension(entry.Name(), opts.Extensions) {
			continue
		}

		fileInfo, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		artist, title := describe(filepath.Join(dir, entry.Name()), entry.Name(), opts)
		tracks = append(tracks, model.LocalTrack{
			Artist:     artist,
			Title:      title,
			SourceID:   entry.Name(),
			ModifiedAt: fileInfo.ModTime(),
		})
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		if tracks[i].ModifiedAt.Equal(tracks[j].ModifiedAt) {
			return tracks[i].SourceID < tracks[j].SourceID
		}
		return tracks[i].ModifiedAt.Before(tracks[j].ModifiedAt)
	})

	opts.Logger.Debug("Extracted local tracks", "directory", dir, "count", len(tracks))
	return tracks, nil
}

// describe works out the artist and title of a single file. Tag values win
// field by field; anything missing comes from the file name.
func describe(path, name string, opts Options) (string, string) {
	fileArtist, fileTitle := ParseFilename(name, opts.Separator)
	if opts.SkipTags {
		return fileArtist, fileTitle
	}

	kind := Probe(path)
	if kind == TagNone {
		return fileArtist, fileTitle
	}

	artist, title, err := readTags(path, kind)
	if err != nil {
		opts.Logger.Warn("Failed to read tags, using file name", "file", name, "tag", kind, "error", err)
		return fileArtist, fileTitle
	}

	if artist == "" {
		artist = fileArtist
	}
	if title == "" {
		title = fileTitle
	}
	return artist, title
}

// ParseFilename splits "artist<sep>title.ext" into its parts. Without the
// separator the artist is empty and the whole name (minus extension) is the title.
func ParseFilename(name, separator string) (artist, title string) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if separator == "" {
		return "", stem
	}

	artist, title, found := strings.Cut(stem, separator)
	if !found {
		return "", stem
	}
	return artist, title
}

func hasExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
