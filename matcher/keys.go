package matcher

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	artistSeparators = regexp.MustCompile(`(?i)[,&]\s*|\s+feat\.*\s+`)
	titleSeparators  = regexp.MustCompile(`[\s()]+`)
)

// SearchKeySet holds the normalised search keys derived from a local track.
// TitleKeys is ordered longest first, except that the shortest key is always last.
type SearchKeySet struct {
	ArtistKeys []string
	TitleKeys  []string
}

// Empty reports whether there is nothing to search for
func (k SearchKeySet) Empty() bool {
	return len(k.ArtistKeys) == 0 && len(k.TitleKeys) == 0
}

// DeriveKeys turns a raw artist/title pair into search keys.
//
// Artists are split on commas, ampersands and "feat"/"feat.", with the whole
// artist string (separators collapsed to spaces) as the first key. Titles are
// split on whitespace and parentheses with the whole title first; the title keys
// are then sorted by descending length and the shortest key is moved to the end.
func DeriveKeys(artist, title string) SearchKeySet {
	return SearchKeySet{
		ArtistKeys: artistKeys(artist),
		TitleKeys:  titleKeys(title),
	}
}

func artistKeys(artist string) []string {
	whole := strings.Join(strings.Fields(artistSeparators.ReplaceAllString(artist, " ")), " ")
	keywords := append([]string{whole}, artistSeparators.Split(artist, -1)...)
	return cleanKeys(keywords)
}

func titleKeys(title string) []string {
	keywords := append([]string{title}, titleSeparators.Split(title, -1)...)
	keys := cleanKeys(keywords)
	if len(keys) < 2 {
		return keys
	}

	// Remember where each key first appeared so length ties keep their original order
	order := make(map[string]int, len(keys))
	for i, key := range keys {
		order[key] = i
	}

	// Lengths are in characters, not bytes
	sort.SliceStable(keys, func(i, j int) bool {
		return utf8.RuneCountInString(keys[i]) > utf8.RuneCountInString(keys[j])
	})

	shortest := 0
	for i, key := range keys {
		n, best := utf8.RuneCountInString(key), utf8.RuneCountInString(keys[shortest])
		if n < best || (n == best && order[key] < order[keys[shortest]]) {
			shortest = i
		}
	}

	rotated := make([]string, 0, len(keys))
	rotated = append(rotated, keys[:shortest]...)
	rotated = append(rotated, keys[shortest+1:]...)
	return append(rotated, keys[shortest])
}

// cleanKeys lower-cases and trims keys, dropping empties and duplicates while keeping order
func cleanKeys(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	keys := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		key := strings.TrimSpace(strings.ToLower(keyword))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
