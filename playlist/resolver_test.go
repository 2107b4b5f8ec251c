package playlist

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garry/localify/model"
)

func TestPromptResolver(t *testing.T) {
	var out bytes.Buffer
	resolver := NewPromptResolver(strings.NewReader("\n\n"), &out)

	first := model.MatchResult{LocalTrack: model.LocalTrack{Artist: "Daft Punk", Title: "Aerodynamic"}}
	second := model.MatchResult{LocalTrack: model.LocalTrack{Title: "track01"}}

	require.NoError(t, resolver.Resolve(context.Background(), first))
	require.NoError(t, resolver.Resolve(context.Background(), second))

	assert.Equal(t,
		"Please add Daft Punk - Aerodynamic manually then hit Return to proceed.\n"+
			"Please add track01 manually then hit Return to proceed.\n",
		out.String())
}

func TestPromptResolver_ClosedInput(t *testing.T) {
	var out bytes.Buffer
	resolver := NewPromptResolver(strings.NewReader(""), &out)

	err := resolver.Resolve(context.Background(), model.MatchResult{LocalTrack: model.LocalTrack{Title: "x"}})
	assert.NoError(t, err)
}

func TestPromptResolver_Cancelled(t *testing.T) {
	var out bytes.Buffer
	resolver := NewPromptResolver(strings.NewReader("\n"), &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, resolver.Resolve(ctx, model.MatchResult{}), context.Canceled)
	assert.Empty(t, out.String())
}

func TestQueueResolver(t *testing.T) {
	queue := &QueueResolver{}
	assert.Empty(t, queue.Items())

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, queue.Resolve(context.Background(), model.MatchResult{LocalTrack: model.LocalTrack{Title: title}}))
	}

	items := queue.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].LocalTrack.Title)
	assert.Equal(t, "c", items[2].LocalTrack.Title)
}

func TestPromptResolver_SharesReaderWithChoose(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("1\n\n"))
	var out bytes.Buffer

	chosen, err := Choose(in, &out, []model.Playlist{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})
	require.NoError(t, err)
	assert.Equal(t, "b", chosen.ID)

	require.NoError(t, NewPromptResolver(in, &out).Resolve(context.Background(), model.MatchResult{}))
	_, err = in.ReadByte()
	assert.ErrorIs(t, err, io.EOF, "prompt should have consumed the remaining line")
}
