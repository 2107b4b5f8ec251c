package library

import (
	"fmt"
	"os"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// TagKind identifies which kind of embedded metadata a file carries
type TagKind int

const (
	TagNone TagKind = iota
	TagID3v2
	TagFLAC
	TagOther
)

func (k TagKind) String() string {
	switch k {
	case TagID3v2:
		return "id3v2"
	case TagFLAC:
		return "flac"
	case TagOther:
		return "other"
	default:
		return "none"
	}
}

// Probe reports which kind of tag the file at path carries. Files that can't
// be identified report TagNone.
func Probe(path string) TagKind {
	f, err := os.Open(path)
	if err != nil {
		return TagNone
	}
	defer f.Close()

	format, fileType, err := tag.Identify(f)
	if err != nil {
		return TagNone
	}

	switch {
	case format == tag.ID3v2_2 || format == tag.ID3v2_3 || format == tag.ID3v2_4:
		return TagID3v2
	case fileType == tag.FLAC:
		return TagFLAC
	case format == tag.UnknownFormat:
		return TagNone
	default:
		return TagOther
	}
}

// readTags returns the artist and title embedded in the file, as identified by kind
func readTags(path string, kind TagKind) (artist, title string, err error) {
	switch kind {
	case TagID3v2:
		return readID3v2(path)
	case TagFLAC:
		return readFLAC(path)
	case TagOther:
		return readGeneric(path)
	default:
		return "", "", nil
	}
}

func readID3v2(path string) (string, string, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Artist", "Title"}})
	if err != nil {
		return "", "", fmt.Errorf("failed to read id3v2 tag: %w", err)
	}
	defer t.Close()

	return strings.TrimSpace(t.Artist()), strings.TrimSpace(t.Title()), nil
}

// readFLAC only parses the metadata blocks; the audio frames are never read
func readFLAC(path string) (string, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	f, err := flac.ParseMetadata(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse flac metadata: %w", err)
	}

	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}

		comment, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return "", "", fmt.Errorf("failed to parse vorbis comment: %w", err)
		}

		return firstComment(comment, flacvorbis.FIELD_ARTIST), firstComment(comment, flacvorbis.FIELD_TITLE), nil
	}

	return "", "", nil
}

func firstComment(comment *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	values, err := comment.Get(field)
	if err != nil || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func readGeneric(path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", fmt.Errorf("failed to read tags: %w", err)
	}

	return strings.TrimSpace(m.Artist()), strings.TrimSpace(m.Title()), nil
}
