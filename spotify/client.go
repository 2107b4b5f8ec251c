package spotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"github.com/garry/localify/config"
	"github.com/garry/localify/model"
)

const (
	trackURIPrefix = "spotify:track:"

	// maxTracksPerRequest is the most tracks Spotify accepts in one add call
	maxTracksPerRequest = 100
)

// Client wraps the Spotify API client
type Client struct {
	client  *spotify.Client
	limiter *rate.Limiter
	limit   int
	logger  *slog.Logger
}

// New wraps an already authenticated HTTP client
func New(httpClient *http.Client, search config.SearchConfig, logger *slog.Logger, opts ...spotify.ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	limit := search.Limit
	if limit <= 0 {
		limit = 20
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if search.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(search.RatePerSecond), 1)
	}

	return &Client{
		client:  spotify.New(httpClient, opts...),
		limiter: limiter,
		limit:   limit,
		logger:  logger,
	}
}

// Query runs a single track search and returns the first page of results.
// Field filters are part of the query text, so fieldFiltered only affects logging.
func (c *Client) Query(ctx context.Context, query string, fieldFiltered bool) ([]model.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(c.limit))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if res.Tracks == nil {
		return []model.Candidate{}, nil
	}

	candidates := make([]model.Candidate, 0, len(res.Tracks.Tracks))
	for _, track := range res.Tracks.Tracks {
		candidates = append(candidates, convertTrack(track))
	}

	c.logger.Debug("Searched catalog", "query", query, "field_filtered", fieldFiltered, "hits", len(candidates))
	return candidates, nil
}

// convertTrack converts a Spotify track to a match candidate
func convertTrack(track spotify.FullTrack) model.Candidate {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	return model.Candidate{
		ArtistNames: artists,
		Title:       track.Name,
		ExternalID:  string(track.URI),
	}
}

// Playlists returns every playlist the current user owns or follows
func (c *Client) Playlists(ctx context.Context) ([]model.Playlist, error) {
	page, err := c.client.CurrentUsersPlaylists(ctx, spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("failed to get playlists: %w", err)
	}

	var playlists []model.Playlist
	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, model.Playlist{
				ID:   string(p.ID),
				Name: p.Name,
				URI:  string(p.URI),
			})
		}

		err := c.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get next page of playlists: %w", err)
		}
	}

	return playlists, nil
}

// CreatePlaylist creates a private playlist for the current user
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (model.Playlist, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return model.Playlist{}, fmt.Errorf("failed to get current user: %w", err)
	}

	p, err := c.client.CreatePlaylistForUser(ctx, user.ID, name, description, false, false)
	if err != nil {
		return model.Playlist{}, fmt.Errorf("failed to create playlist %q: %w", name, err)
	}

	c.logger.Info("Created playlist", "name", p.Name, "id", p.ID)
	return model.Playlist{
		ID:   string(p.ID),
		Name: p.Name,
		URI:  string(p.URI),
	}, nil
}

// AddTracks appends tracks, given as Spotify URIs or bare ids, to the end of a playlist
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	ids := make([]spotify.ID, 0, len(uris))
	for _, uri := range uris {
		id, err := trackID(uri)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	for len(ids) > 0 {
		n := min(len(ids), maxTracksPerRequest)
		if _, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids[:n]...); err != nil {
			return fmt.Errorf("failed to add tracks: %w", err)
		}
		ids = ids[n:]
	}

	return nil
}

func trackID(uri string) (spotify.ID, error) {
	id := strings.TrimPrefix(uri, trackURIPrefix)
	if id == "" || strings.Contains(id, ":") {
		return "", fmt.Errorf("not a track uri: %q", uri)
	}
	return spotify.ID(id), nil
}
