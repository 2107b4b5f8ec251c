package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garry/localify/model"
)

func writeFile(t *testing.T, dir, name, content string, modified time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, modified, modified))
	return path
}

func writeID3(t *testing.T, dir, name, artist, title string, modified time.Time) string {
	t.Helper()
	path := writeFile(t, dir, name, "", modified)

	tg, err := id3v2.Open(path, id3v2.Options{Parse: false})
	require.NoError(t, err)
	tg.SetDefaultEncoding(id3v2.EncodingUTF8)
	if artist != "" {
		tg.SetArtist(artist)
	}
	if title != "" {
		tg.SetTitle(title)
	}
	require.NoError(t, tg.Save())
	require.NoError(t, tg.Close())
	require.NoError(t, os.Chtimes(path, modified, modified))
	return path
}

// writeFLAC writes a FLAC file with a blank STREAMINFO block, a Vorbis comment
// carrying the given fields, and optionally some frame bytes
func writeFLAC(t *testing.T, dir, name string, fields map[string]string, frames []byte) string {
	t.Helper()

	comment := flacvorbis.New()
	for key, value := range fields {
		require.NoError(t, comment.Add(key, value))
	}
	commentBlock := comment.Marshal()

	file := flac.File{
		Meta: []*flac.MetaDataBlock{
			{Type: flac.StreamInfo, Data: make([]byte, 34)},
			&commentBlock,
		},
		Frames: frames,
	}

	return writeFile(t, dir, name, string(file.Marshal()), time.Now())
}

// writeID3v1 writes a file with only a 128 byte ID3v1 trailer
func writeID3v1(t *testing.T, dir, name, artist, title string) string {
	t.Helper()

	field := func(value string, size int) []byte {
		b := make([]byte, size)
		copy(b, value)
		return b
	}

	content := make([]byte, 32)
	content = append(content, "TAG"...)
	content = append(content, field(title, 30)...)
	content = append(content, field(artist, 30)...)
	content = append(content, field("", 30)...)
	content = append(content, field("2001", 4)...)
	content = append(content, field("", 30)...)
	content = append(content, 0)

	return writeFile(t, dir, name, string(content), time.Now())
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		separator string
		artist    string
		title     string
	}{
		{"artist and title", "Daft Punk - One More Time.mp3", " - ", "Daft Punk", "One More Time"},
		{"split on first separator only", "Unknown - Track - Live.mp3", " - ", "Unknown", "Track - Live"},
		{"no separator", "track01.flac", " - ", "", "track01"},
		{"custom separator", "Artist_Title.mp3", "_", "Artist", "Title"},
		{"no extension", "Artist - Title", " - ", "Artist", "Title"},
		{"empty separator", "Artist - Title.mp3", "", "", "Artist - Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, title := ParseFilename(tt.file, tt.separator)
			assert.Equal(t, tt.artist, artist)
			assert.Equal(t, tt.title, title)
		})
	}
}

func TestExtract_OrdersByModificationTime(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	writeFile(t, dir, "C - Third.mp3", "not audio", base.Add(2*time.Hour))
	writeFile(t, dir, "A - First.mp3", "not audio", base)
	writeFile(t, dir, "B - Second.flac", "not audio", base.Add(time.Hour))

	tracks, err := Extract(dir, Options{Extensions: []string{"mp3", "flac"}})
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, []string{"First", "Second", "Third"}, []string{tracks[0].Title, tracks[1].Title, tracks[2].Title})
	assert.Equal(t, "A", tracks[0].Artist)
	assert.Equal(t, "A - First.mp3", tracks[0].SourceID)
	assert.True(t, tracks[0].ModifiedAt.Equal(base))
}

func TestExtract_TiesOrderedByName(t *testing.T) {
	dir := t.TempDir()
	same := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	writeFile(t, dir, "b.mp3", "x", same)
	writeFile(t, dir, "a.mp3", "x", same)

	tracks, err := Extract(dir, Options{Extensions: []string{"mp3"}})
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "a.mp3", tracks[0].SourceID)
	assert.Equal(t, "b.mp3", tracks[1].SourceID)
}

func TestExtract_FiltersEntries(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeFile(t, dir, "Artist - Loud.MP3", "x", now)
	writeFile(t, dir, "cover.jpg", "x", now)
	writeFile(t, dir, "notes.txt", "x", now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp3"), 0o755))
	writeFile(t, filepath.Join(dir, "nested.mp3"), "Deep - Track.mp3", "x", now)

	tracks, err := Extract(dir, Options{Extensions: []string{"mp3"}})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Artist", tracks[0].Artist)
	assert.Equal(t, "Loud", tracks[0].Title)
}

func TestExtract_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "song.mp3", "x", time.Now())

	_, err := Extract(file, Options{Extensions: []string{"mp3"}})
	assert.ErrorContains(t, err, "not a valid directory")

	_, err = Extract(filepath.Join(dir, "missing"), Options{Extensions: []string{"mp3"}})
	assert.Error(t, err)
}

func TestExtract_EmptyDirectory(t *testing.T) {
	tracks, err := Extract(t.TempDir(), Options{Extensions: []string{"mp3"}})
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestExtract_PrefersTags(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeID3(t, dir, "01 - whatever.mp3", "Daft Punk", "One More Time", now)

	tracks, err := Extract(dir, Options{Extensions: []string{"mp3"}})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, model.LocalTrack{
		Artist:     "Daft Punk",
		Title:      "One More Time",
		SourceID:   "01 - whatever.mp3",
		ModifiedAt: tracks[0].ModifiedAt,
	}, tracks[0])
}

func TestExtract_MissingTagFieldsFallBackToFilename(t *testing.T) {
	dir := t.TempDir()

	writeID3(t, dir, "Justice - Genesis.mp3", "", "Genesis (Live)", time.Now())

	tracks, err := Extract(dir, Options{Extensions: []string{"mp3"}})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Justice", tracks[0].Artist)
	assert.Equal(t, "Genesis (Live)", tracks[0].Title)
}

func TestExtract_SkipTags(t *testing.T) {
	dir := t.TempDir()

	writeID3(t, dir, "Filename Artist - Filename Title.mp3", "Tag Artist", "Tag Title", time.Now())

	tracks, err := Extract(dir, Options{Extensions: []string{"mp3"}, SkipTags: true})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Filename Artist", tracks[0].Artist)
	assert.Equal(t, "Filename Title", tracks[0].Title)
}

func TestExtract_FLACVorbisComment(t *testing.T) {
	tests := []struct {
		name   string
		frames []byte
	}{
		{name: "with audio frames", frames: []byte{0xFF, 0xF8, 0x69, 0x08, 0x00, 0x00}},
		{name: "metadata only", frames: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFLAC(t, dir, "01 - track.flac", map[string]string{
				flacvorbis.FIELD_ARTIST: "Moderat",
				flacvorbis.FIELD_TITLE:  "Bad Kingdom",
			}, tt.frames)

			tracks, err := Extract(dir, Options{Extensions: []string{"flac"}})
			require.NoError(t, err)
			require.Len(t, tracks, 1)
			assert.Equal(t, "Moderat", tracks[0].Artist)
			assert.Equal(t, "Bad Kingdom", tracks[0].Title)
		})
	}
}

func TestExtract_FLACMissingFieldFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	writeFLAC(t, dir, "Apparat - Goodbye.flac", map[string]string{
		flacvorbis.FIELD_TITLE: "Goodbye (Edit)",
	}, nil)

	tracks, err := Extract(dir, Options{Extensions: []string{"flac"}})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Apparat", tracks[0].Artist)
	assert.Equal(t, "Goodbye (Edit)", tracks[0].Title)
}

func TestExtract_OtherTagFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeID3v1(t, dir, "unknown.mp3", "Boards of Canada", "Roygbiv")
	require.Equal(t, TagOther, Probe(path))

	tracks, err := Extract(dir, Options{Extensions: []string{"mp3"}})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Boards of Canada", tracks[0].Artist)
	assert.Equal(t, "Roygbiv", tracks[0].Title)
}

func TestExtract_UnreadableTagFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()

	// Looks like FLAC but has no valid metadata blocks
	writeFile(t, dir, "Moderat - Bad Kingdom.flac", "fLaC\x00\x01\x02\x03\x04\x05\x06\x07", time.Now())

	tracks, err := Extract(dir, Options{Extensions: []string{"flac"}})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Moderat", tracks[0].Artist)
	assert.Equal(t, "Bad Kingdom", tracks[0].Title)
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	tests := []struct {
		name string
		path string
		want TagKind
	}{
		{"id3v2", writeID3(t, dir, "tagged.mp3", "A", "B", now), TagID3v2},
		{"flac header", writeFile(t, dir, "x.flac", "fLaC\x00\x00\x00\x22\x00\x00\x00\x00", now), TagFLAC},
		{"flac with vorbis comment", writeFLAC(t, dir, "tagged.flac", map[string]string{flacvorbis.FIELD_TITLE: "T"}, nil), TagFLAC},
		{"id3v1 trailer", writeID3v1(t, dir, "old.mp3", "A", "B"), TagOther},
		{"plain bytes", writeFile(t, dir, "plain.mp3", "just some text that is not audio", now), TagNone},
		{"too short", writeFile(t, dir, "short.mp3", "x", now), TagNone},
		{"missing file", filepath.Join(dir, "missing.mp3"), TagNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Probe(tt.path))
		})
	}
}

func TestTagKindString(t *testing.T) {
	assert.Equal(t, "none", TagNone.String())
	assert.Equal(t, "id3v2", TagID3v2.String())
	assert.Equal(t, "flac", TagFLAC.String())
	assert.Equal(t, "other", TagOther.String())
}
