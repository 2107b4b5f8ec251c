package musicbrainz

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the MusicBrainz web service root
	DefaultBaseURL = "https://musicbrainz.org/ws/2"

	// MusicBrainz asks anonymous clients for at most one request per second
	requestInterval = time.Second
)

// ErrNotFound is returned when a search has no results
var ErrNotFound = errors.New("no recordings found")

// Client wraps the MusicBrainz API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// Recording represents a MusicBrainz recording
type Recording struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title"`
	Score int    `xml:"http://musicbrainz.org/ns/ext#-2.0 score,attr"`
}

// URL links to the recording on the MusicBrainz website
func (r Recording) URL() string {
	return "https://musicbrainz.org/recording/" + r.ID
}

// SearchResponse represents the response from the MusicBrainz recording search API
type SearchResponse struct {
	RecordingList struct {
		Count      int         `xml:"count,attr"`
		Recordings []Recording `xml:"recording"`
	} `xml:"recording-list"`
}

// Option customises a Client
type Option func(*Client)

// WithBaseURL points the client at another web service root
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit changes how often requests may be made
func WithRateLimit(limit rate.Limit) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, 1)
	}
}

// NewClient creates a new MusicBrainz client
func NewClient(version string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   DefaultBaseURL,
		userAgent: fmt.Sprintf("Localify/%s (https://github.com/garry/localify)", version),
		limiter:   rate.NewLimiter(rate.Every(requestInterval), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// LookupRecording searches for a recording by artist and title and returns
// the best scoring result. The artist may be empty.
func (c *Client) LookupRecording(ctx context.Context, artist, title string) (Recording, error) {
	if title == "" {
		return Recording{}, fmt.Errorf("title cannot be empty")
	}

	query := fmt.Sprintf("recording:\"%s\"", escape(title))
	if artist != "" {
		query = fmt.Sprintf("artist:\"%s\" AND %s", escape(artist), query)
	}

	params := url.Values{}
	params.Add("query", query)
	params.Add("fmt", "xml")
	params.Add("limit", "1")

	if err := c.limiter.Wait(ctx); err != nil {
		return Recording{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recording/?"+params.Encode(), nil)
	if err != nil {
		return Recording{}, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers for MusicBrainz API
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Recording{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Recording{}, fmt.Errorf("MusicBrainz API returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp SearchResponse
	if err := xml.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return Recording{}, fmt.Errorf("failed to decode XML response: %w", err)
	}

	if len(searchResp.RecordingList.Recordings) == 0 {
		return Recording{}, fmt.Errorf("%w for artist: %s, title: %s", ErrNotFound, artist, title)
	}

	return searchResp.RecordingList.Recordings[0], nil
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
