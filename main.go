package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/csmith/envflag/v2"
	"github.com/csmith/slogflags"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/garry/localify/config"
	"github.com/garry/localify/library"
	"github.com/garry/localify/matcher"
	"github.com/garry/localify/model"
	"github.com/garry/localify/musicbrainz"
	"github.com/garry/localify/playlist"
	"github.com/garry/localify/spotify"
)

// Version information - set during build
var version = "dev"

// Exit codes
const (
	exitCodeSuccess      = 0
	exitCodeRunError     = 1
	exitCodeConfigError  = 2
	exitCodeClientError  = 3
	exitCodeTracksFailed = 4
)

// errTracksFailed is returned by Run when some tracks could not be searched for
var errTracksFailed = errors.New("some tracks could not be reconciled")

var (
	libraryPath  = flag.String("library", "", "Directory containing local tracks (overrides LIBRARY_PATH)")
	separator    = flag.String("separator", "", "Separator between artist and title in file names (overrides LIBRARY_SEPARATOR)")
	extensions   = flag.String("extensions", "", "Comma-separated file extensions to include (overrides LIBRARY_EXTENSIONS)")
	skipTags     = flag.Bool("skip-tags", false, "Ignore embedded tags and parse file names only (overrides LIBRARY_SKIP_TAGS)")
	playlistID   = flag.String("playlist", "", "Spotify playlist ID to append to (overrides SPOTIFY_PLAYLIST_ID)")
	playlistName = flag.String("playlist-name", "", "Name of a new Spotify playlist to create (overrides SPOTIFY_PLAYLIST_NAME)")
	threshold    = flag.Float64("threshold", 0, "Minimum score for a match to be added automatically (overrides MATCH_THRESHOLD)")
	workers      = flag.Int("workers", 0, "Number of tracks to search for concurrently (overrides MATCH_WORKERS)")
	dryRun       = flag.Bool("dry-run", false, "Search and report without changing any playlist")
	noPrompt     = flag.Bool("no-prompt", false, "Don't stop for manual additions, list them at the end instead")
	showVersion  = flag.Bool("version", false, "Show version information")
)

// flagKeys maps flag names to the configuration keys they override
var flagKeys = map[string]string{
	"library":       config.KeyLibraryPath,
	"separator":     config.KeyLibrarySeparator,
	"extensions":    config.KeyLibraryExtensions,
	"skip-tags":     config.KeyLibrarySkipTags,
	"playlist":      config.KeySpotifyPlaylistID,
	"playlist-name": config.KeySpotifyPlaylistName,
	"threshold":     config.KeyMatchThreshold,
	"workers":       config.KeyMatchWorkers,
}

// catalogService is everything the application needs from the music service
type catalogService interface {
	matcher.Catalog
	playlist.Target
	Playlists(ctx context.Context) ([]model.Playlist, error)
	CreatePlaylist(ctx context.Context, name, description string) (model.Playlist, error)
}

// recordingLookup finds MusicBrainz recordings for tracks that need manual attention
type recordingLookup interface {
	LookupRecording(ctx context.Context, artist, title string) (musicbrainz.Recording, error)
}

// Application represents the main application state
type Application struct {
	config      *config.Config
	logger      *slog.Logger
	catalog     catalogService
	musicBrainz recordingLookup

	in          io.Reader
	out         io.Writer
	dryRun      bool
	interactive bool
}

// NewApplication creates a new application instance. Dry runs only search
// the catalog so they authenticate with client credentials; everything else
// needs the user to log in.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	var (
		catalog *spotify.Client
		err     error
	)
	if *dryRun {
		catalog, err = spotify.NewClient(ctx, cfg, logger)
	} else {
		catalog, err = spotify.NewUserClient(ctx, cfg, os.Stdout, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify client: %w", err)
	}

	app := &Application{
		config:      cfg,
		logger:      logger,
		catalog:     catalog,
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		dryRun:      *dryRun,
		interactive: !*noPrompt && isInteractive(os.Stdin),
	}

	if cfg.MusicBrainz.Hints {
		app.musicBrainz = musicbrainz.NewClient(version)
	}

	return app, nil
}

// Run executes the main application logic
func (app *Application) Run(ctx context.Context) error {
	tracks, err := library.Extract(app.config.Library.Path, library.Options{
		Separator:  app.config.Library.Separator,
		Extensions: app.config.Library.Extensions,
		SkipTags:   app.config.Library.SkipTags,
		Logger:     app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to read library: %w", err)
	}

	if len(tracks) == 0 {
		fmt.Fprintf(app.out, "❌ No tracks found in %s\n", app.config.Library.Path)
		return nil
	}

	fmt.Fprintf(app.out, "🎵 Matching %d local track(s) against Spotify...\n", len(tracks))

	reconciler, err := app.reconciler()
	if err != nil {
		return err
	}
	results := reconciler.Reconcile(ctx, tracks)

	hints := app.lookupHints(ctx, results)
	displayResults(app.out, results, app.config.Match.Threshold, hints)

	target, err := app.targetPlaylist(ctx)
	if err != nil {
		return err
	}

	var (
		queue    = &playlist.QueueResolver{}
		resolver playlist.Resolver = queue
	)
	if app.interactive && !app.dryRun {
		resolver = playlist.NewPromptResolver(app.in, app.out)
	}

	sink := playlist.NewSink(app.catalog, target.ID, playlist.SinkOptions{
		Threshold: app.config.Match.Threshold,
		Resolver:  resolver,
		DryRun:    app.dryRun,
		Logger:    app.logger,
	})

	summary, err := sink.Consume(ctx, results)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	displaySummary(app.out, summary, target, app.dryRun)
	displayManualTracks(app.out, queue.Items(), hints)

	if summary.Failed > 0 {
		return errTracksFailed
	}
	return nil
}

func (app *Application) reconciler() (*matcher.Reconciler, error) {
	scorer, err := matcher.ScorerByName(app.config.Match.Scorer)
	if err != nil {
		return nil, err
	}
	escalation, err := matcher.EscalationByName(app.config.Match.Escalation)
	if err != nil {
		return nil, err
	}

	return matcher.NewReconciler(app.catalog, matcher.Options{
		Scorer:       scorer,
		Escalation:   escalation,
		Workers:      app.config.Match.Workers,
		TrackTimeout: app.config.Match.TrackTimeout,
		Logger:       app.logger,
	}), nil
}

// targetPlaylist works out which playlist to write to: an explicit ID, a new
// playlist by name, or one picked from the user's playlists
func (app *Application) targetPlaylist(ctx context.Context) (model.Playlist, error) {
	switch {
	case app.config.Spotify.PlaylistID != "":
		return model.Playlist{ID: app.config.Spotify.PlaylistID, Name: app.config.Spotify.PlaylistID}, nil
	case app.dryRun:
		return model.Playlist{Name: app.config.Spotify.PlaylistName}, nil
	case app.config.Spotify.PlaylistName != "":
		return app.catalog.CreatePlaylist(ctx, app.config.Spotify.PlaylistName, "Local library in chronological order")
	case app.interactive:
		playlists, err := app.catalog.Playlists(ctx)
		if err != nil {
			return model.Playlist{}, err
		}
		return playlist.Choose(app.in, app.out, playlists)
	default:
		return model.Playlist{}, errors.New("no playlist specified: set SPOTIFY_PLAYLIST_ID or SPOTIFY_PLAYLIST_NAME, or run interactively to choose one")
	}
}

// lookupHints finds MusicBrainz recordings for results that will need to be
// added by hand, keyed by source id
func (app *Application) lookupHints(ctx context.Context, results []model.MatchResult) map[string]musicbrainz.Recording {
	if app.musicBrainz == nil {
		return nil
	}

	hints := make(map[string]musicbrainz.Recording)
	for _, result := range results {
		if result.Accepted(app.config.Match.Threshold) || result.Status() == model.StatusFailed {
			continue
		}

		rec, err := app.musicBrainz.LookupRecording(ctx, result.LocalTrack.Artist, result.LocalTrack.Title)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			app.logger.Debug("No MusicBrainz recording found", "track", result.LocalTrack.String(), "error", err)
			continue
		}
		hints[result.LocalTrack.SourceID] = rec
	}

	return hints
}

func isInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// overrides collects the flags that were explicitly set, keyed by configuration key
func overrides(fs *flag.FlagSet) map[string]string {
	values := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			values[key] = f.Value.String()
		}
	})
	return values
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitCodeSuccess
	case errors.Is(err, errTracksFailed):
		return exitCodeTracksFailed
	default:
		return exitCodeRunError
	}
}

func main() {
	envflag.Parse()

	if *showVersion {
		fmt.Printf("Localify version %s\n", version)
		os.Exit(exitCodeSuccess)
	}

	logger := slogflags.Logger(slogflags.WithSetDefault(true)).With("run", uuid.NewString())

	cfg, err := config.LoadWithOverrides(overrides(flag.CommandLine))
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(exitCodeConfigError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create application", "error", err)
		os.Exit(exitCodeClientError)
	}

	err = app.Run(ctx)
	if err != nil && !errors.Is(err, errTracksFailed) {
		logger.Error("Application failed", "error", err)
	}
	os.Exit(exitCode(err))
}
