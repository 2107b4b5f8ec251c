package playlist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/garry/localify/model"
)

// Resolver deals with a result that can't be added to the playlist automatically
type Resolver interface {
	Resolve(ctx context.Context, result model.MatchResult) error
}

// PromptResolver asks the user to add the track by hand and waits for them
// to press Return before carrying on
type PromptResolver struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptResolver creates a PromptResolver reading from in and writing to out.
// Pass the same *bufio.Reader used elsewhere to avoid losing buffered input.
func NewPromptResolver(in io.Reader, out io.Writer) *PromptResolver {
	return &PromptResolver{
		in:  lineReader(in),
		out: out,
	}
}

func lineReader(in io.Reader) *bufio.Reader {
	if br, ok := in.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(in)
}

func (r *PromptResolver) Resolve(ctx context.Context, result model.MatchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Please add %s manually then hit Return to proceed.\n", result.LocalTrack)

	_, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	return nil
}

// QueueResolver collects results for review once the run has finished
type QueueResolver struct {
	mu    sync.Mutex
	items []model.MatchResult
}

func (r *QueueResolver) Resolve(_ context.Context, result model.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, result)
	return nil
}

// Items returns the queued results in the order they were resolved
func (r *QueueResolver) Items() []model.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]model.MatchResult(nil), r.items...)
}
