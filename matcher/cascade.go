package matcher

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/garry/localify/model"
)

// Catalog is the search capability of the external music catalog.
// Query must return an empty slice, not an error, when there are no hits.
type Catalog interface {
	Query(ctx context.Context, query string, fieldFiltered bool) ([]model.Candidate, error)
}

// Tier is one stage of the search cascade, from most precise to most permissive
type Tier int

const (
	// TierTitleKey issues a tagged query per title key, using every artist key
	TierTitleKey Tier = iota + 1
	// TierArtistKey issues a tagged query per artist key, using every title key
	TierArtistKey
	// TierFreeText issues a free-text query per artist/title key pair
	TierFreeText
)

func (t Tier) String() string {
	switch t {
	case TierTitleKey:
		return "title-key"
	case TierArtistKey:
		return "artist-key"
	case TierFreeText:
		return "free-text"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Escalation decides when the cascade stops moving to broader tiers
type Escalation int

const (
	// EscalateOnScore runs every query of a tier and only moves on when nothing scored above zero
	EscalateOnScore Escalation = iota
	// StopOnFirstHit ends the cascade after the first query that returns any hits
	StopOnFirstHit
)

// EscalationByName parses "score" or "first-hit"
func EscalationByName(name string) (Escalation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "score":
		return EscalateOnScore, nil
	case "first-hit":
		return StopOnFirstHit, nil
	default:
		return 0, fmt.Errorf("unknown escalation policy: %s", name)
	}
}

// Attempt is a single catalog query planned by the cascade
type Attempt struct {
	Tier          Tier
	Query         string
	FieldFiltered bool
}

// TaggedQuery builds a field-filtered query such as
// artist:("daft punk") track:("one more time" OR "one").
// A field with no keys is left out.
func TaggedQuery(artistKeys, titleKeys []string) string {
	var parts []string
	if len(artistKeys) > 0 {
		parts = append(parts, "artist:"+orGroup(artistKeys))
	}
	if len(titleKeys) > 0 {
		parts = append(parts, "track:"+orGroup(titleKeys))
	}
	return strings.Join(parts, " ")
}

// FreeTextQuery joins keys with spaces and applies no field filters
func FreeTextQuery(keys ...string) string {
	var parts []string
	for _, key := range keys {
		if key != "" {
			parts = append(parts, key)
		}
	}
	return strings.Join(parts, " ")
}

func orGroup(keys []string) string {
	quoted := make([]string, len(keys))
	for i, key := range keys {
		quoted[i] = `"` + strings.ReplaceAll(key, `"`, "") + `"`
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}

// Plan lists the queries of every tier, in the order they are issued
func Plan(keys SearchKeySet) [][]Attempt {
	var titleTier, artistTier, freeTier []Attempt

	for _, titleKey := range keys.TitleKeys {
		titleTier = append(titleTier, Attempt{
			Tier:          TierTitleKey,
			Query:         TaggedQuery(keys.ArtistKeys, []string{titleKey}),
			FieldFiltered: true,
		})
	}

	for _, artistKey := range keys.ArtistKeys {
		artistTier = append(artistTier, Attempt{
			Tier:          TierArtistKey,
			Query:         TaggedQuery([]string{artistKey}, keys.TitleKeys),
			FieldFiltered: true,
		})
	}

	switch {
	case len(keys.ArtistKeys) == 0:
		for _, titleKey := range keys.TitleKeys {
			freeTier = append(freeTier, Attempt{Tier: TierFreeText, Query: FreeTextQuery(titleKey)})
		}
	case len(keys.TitleKeys) == 0:
		for _, artistKey := range keys.ArtistKeys {
			freeTier = append(freeTier, Attempt{Tier: TierFreeText, Query: FreeTextQuery(artistKey)})
		}
	default:
		for _, artistKey := range keys.ArtistKeys {
			for _, titleKey := range keys.TitleKeys {
				freeTier = append(freeTier, Attempt{Tier: TierFreeText, Query: FreeTextQuery(artistKey, titleKey)})
			}
		}
	}

	return [][]Attempt{titleTier, artistTier, freeTier}
}

// Cascade issues increasingly permissive catalog queries for a set of search keys
type Cascade struct {
	catalog    Catalog
	escalation Escalation
	logger     *slog.Logger
}

// NewCascade creates a cascade over the given catalog
func NewCascade(catalog Catalog, escalation Escalation, logger *slog.Logger) *Cascade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cascade{catalog: catalog, escalation: escalation, logger: logger}
}

// Candidates yields every hit in the order the queries are issued. Before moving
// on to a broader tier it calls satisfied, and ends the sequence if it reports true.
// A failed query yields a *CatalogError and ends the sequence.
func (c *Cascade) Candidates(ctx context.Context, keys SearchKeySet, satisfied func() bool) iter.Seq2[model.Candidate, error] {
	return func(yield func(model.Candidate, error) bool) {
		for i, tier := range Plan(keys) {
			if i > 0 && satisfied() {
				return
			}

			for _, attempt := range tier {
				if err := ctx.Err(); err != nil {
					yield(model.Candidate{}, fmt.Errorf("search cancelled: %w", err))
					return
				}

				hits, err := c.catalog.Query(ctx, attempt.Query, attempt.FieldFiltered)
				if err != nil {
					yield(model.Candidate{}, &CatalogError{Query: attempt.Query, Err: err})
					return
				}

				c.logger.Debug("Catalog query", "tier", attempt.Tier, "query", attempt.Query, "hits", len(hits))

				for _, hit := range hits {
					if !yield(hit, nil) {
						return
					}
				}

				if c.escalation == StopOnFirstHit && len(hits) > 0 {
					return
				}
			}
		}
	}
}
