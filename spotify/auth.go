package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/garry/localify/config"
)

// NewClient creates a search-only client using the client credentials flow
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	creds := &clientcredentials.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// Fetch a token up front so bad credentials fail before any searching starts
	if _, err := creds.Token(ctx); err != nil {
		return nil, fmt.Errorf("failed to get client credentials token: %w", err)
	}

	return New(creds.Client(ctx), cfg.Search, logger, spotify.WithRetry(true)), nil
}

// NewUserClient runs the authorization code flow. The user is sent to Spotify
// via the URL written to out, and the redirect is caught by a temporary
// server listening on the configured redirect URI.
func NewUserClient(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	redirect, err := url.Parse(cfg.Spotify.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect uri: %w", err)
	}

	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(cfg.Spotify.RedirectURI),
		spotifyauth.WithClientID(cfg.Spotify.ClientID),
		spotifyauth.WithClientSecret(cfg.Spotify.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
		),
	)

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for authorization callback: %w", err)
	}

	state := uuid.NewString()
	tokens := make(chan *oauth2.Token, 1)
	failures := make(chan error, 1)

	exchange := func(r *http.Request) (*oauth2.Token, error) {
		return auth.Token(r.Context(), state, r)
	}

	mux := http.NewServeMux()
	mux.Handle(callbackPattern(redirect), callbackHandler(exchange, tokens, failures))

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Authorization callback server failed", "error", err)
		}
	}()
	defer server.Close()

	fmt.Fprintf(out, "Log in to Spotify by visiting:\n%s\n", auth.AuthURL(state))

	select {
	case tok := <-tokens:
		logger.Debug("Received Spotify token", "expiry", tok.Expiry)
		return New(auth.Client(ctx, tok), cfg.Search, logger, spotify.WithRetry(true)), nil
	case err := <-failures:
		return nil, fmt.Errorf("authorization failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// callbackPattern matches only the redirect path itself, never the paths below it
func callbackPattern(redirect *url.URL) string {
	path := redirect.Path
	if path == "" {
		path = "/"
	}
	if strings.HasSuffix(path, "/") {
		path += "{$}"
	}
	return "GET " + path
}

// callbackHandler exchanges the authorization code and reports the outcome on
// tokens or failures. Requests without the redirect's query parameters, such
// as a browser asking for a favicon, are turned away without touching either.
func callbackHandler(exchange func(*http.Request) (*oauth2.Token, error), tokens chan<- *oauth2.Token, failures chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") == "" || (query.Get("code") == "" && query.Get("error") == "") {
			http.NotFound(w, r)
			return
		}

		tok, err := exchange(r)
		if err != nil {
			http.Error(w, "Couldn't get token", http.StatusForbidden)
			select {
			case failures <- err:
			default:
			}
			return
		}

		fmt.Fprintln(w, "Login completed, you can close this window.")
		select {
		case tokens <- tok:
		default:
		}
	}
}
