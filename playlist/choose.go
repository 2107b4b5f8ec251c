package playlist

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/garry/localify/model"
)

// ErrInvalidSelection is returned when the chosen index isn't a listed playlist
var ErrInvalidSelection = errors.New("invalid playlist selection")

// Choose lists playlists as "index - name" and reads the index of the one to use
func Choose(in io.Reader, out io.Writer, playlists []model.Playlist) (model.Playlist, error) {
	if len(playlists) == 0 {
		return model.Playlist{}, fmt.Errorf("%w: no playlists available", ErrInvalidSelection)
	}

	fmt.Fprintln(out, "Enter index of playlist:")
	for i, p := range playlists {
		fmt.Fprintf(out, "%d - %s\n", i, p.Name)
	}

	line, err := lineReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return model.Playlist{}, fmt.Errorf("failed to read selection: %w", err)
	}

	line = strings.TrimSpace(line)
	index, err := strconv.Atoi(line)
	if err != nil {
		return model.Playlist{}, fmt.Errorf("%w: index must be an integer, got %q", ErrInvalidSelection, line)
	}
	if index < 0 || index >= len(playlists) {
		return model.Playlist{}, fmt.Errorf("%w: index %d is out of range", ErrInvalidSelection, index)
	}

	return playlists[index], nil
}
