package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/garry/localify/model"
	"github.com/garry/localify/musicbrainz"
	"github.com/garry/localify/playlist"
)

// Constants for display formatting
const (
	separatorLine   = "="
	separatorLength = 80
)

func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w, "\n"+strings.Repeat(separatorLine, separatorLength))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat(separatorLine, separatorLength))
}

// resultStatus describes what will happen to a result
func resultStatus(result model.MatchResult, threshold float64) string {
	switch {
	case result.Status() == model.StatusFailed:
		return "failed"
	case result.Accepted(threshold):
		return "matched"
	case result.Status() == model.StatusMatched:
		return "below threshold"
	default:
		return "no match"
	}
}

// displayResults renders one row per local track in playlist order
func displayResults(w io.Writer, results []model.MatchResult, threshold float64, hints map[string]musicbrainz.Recording) {
	printHeading(w, "MATCHING RESULTS")

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	header := table.Row{"#", "Local track", "Spotify match", "Score", "Status"}
	if hints != nil {
		header = append(header, "MusicBrainz")
	}
	t.AppendHeader(header)

	for i, result := range results {
		match := ""
		if result.ExternalID != "" {
			match = fmt.Sprintf("%s - %s", result.MatchedArtist, result.MatchedTitle)
		}

		row := table.Row{i + 1, result.LocalTrack.String(), match, fmt.Sprintf("%.2f", result.Score), resultStatus(result, threshold)}
		if hints != nil {
			row = append(row, hints[result.LocalTrack.SourceID].ID)
		}
		t.AppendRow(row)
	}

	t.Render()
}

// displaySummary prints the totals for a run
func displaySummary(w io.Writer, summary playlist.Summary, target model.Playlist, dryRun bool) {
	printHeading(w, "SUMMARY")

	total := summary.Total()
	percent := func(n int) float64 {
		if total == 0 {
			return 0
		}
		return float64(n) / float64(total) * 100
	}

	fmt.Fprintf(w, "Total tracks: %d\n", total)
	fmt.Fprintf(w, "Matched: %d (%.1f%%)\n", summary.Added, percent(summary.Added))
	fmt.Fprintf(w, "Manual: %d (%.1f%%)\n", summary.Manual, percent(summary.Manual))
	fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", summary.Failed, percent(summary.Failed))

	switch {
	case dryRun:
		fmt.Fprintln(w, "\n🔍 Dry run, no playlist was changed")
	case summary.Added > 0:
		fmt.Fprintf(w, "\n✅ Added %d track(s) to playlist: %s (ID: %s)\n", summary.Added, target.Name, target.ID)
	default:
		fmt.Fprintln(w, "\n❌ No tracks were added")
	}
}

// displayManualTracks lists tracks that still need adding by hand
func displayManualTracks(w io.Writer, results []model.MatchResult, hints map[string]musicbrainz.Recording) {
	if len(results) == 0 {
		return
	}

	printHeading(w, "TRACKS TO ADD MANUALLY")
	for i, result := range results {
		fmt.Fprintf(w, "%3d. %s\n", i+1, result.LocalTrack)
		if result.Err != nil {
			fmt.Fprintf(w, "     Error: %v\n", result.Err)
		}
		if rec, ok := hints[result.LocalTrack.SourceID]; ok {
			fmt.Fprintf(w, "     MusicBrainz ID: %s - %s\n", rec.ID, rec.URL())
		}
	}
}
