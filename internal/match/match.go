// package match scores media-source candidates against catalog track metadata
//
// Scoring combines fuzzy text similarity on title and artist with duration
// proximity. Candidates outside the duration tolerance window are never
// auto-selected, however well their text matches; live cuts and extended
// mixes routinely share a title with the studio recording.
package match

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultThreshold is the confidence floor for auto-selection.
	DefaultThreshold = 60.0

	// DefaultToleranceSecs is the allowed duration deviation window.
	DefaultToleranceSecs = 15

	// containmentFloor is the minimum similarity granted when one normalized
	// string contains the other ("daft punk" inside "daft punk topic").
	containmentFloor = 0.85
)

var (
	bracketPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)

	// accentFold decomposes characters and drops combining marks, so
	// "Beyoncé" and "Beyonce" normalize identically.
	accentFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Scorer ranks media candidates for a catalog track.
type Scorer struct {
	threshold float64
	tolerance int
}

// New creates a scorer. Non-positive arguments fall back to the defaults.
func New(threshold float64, toleranceSecs int) *Scorer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if toleranceSecs <= 0 {
		toleranceSecs = DefaultToleranceSecs
	}

	return &Scorer{threshold: threshold, tolerance: toleranceSecs}
}

// Query builds the media-source search string for a track.
func Query(track models.CatalogTrack) string {
	return strings.TrimSpace(track.Name + " " + track.Artist)
}

// Normalize folds a title or artist into a comparable form: lowercase,
// accents folded, bracketed qualifiers removed, "&" read as "and",
// punctuation dropped and whitespace collapsed.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = bracketPattern.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&", " and ")

	if folded, _, err := transform.String(accentFold, s); err == nil {
		s = folded
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return ' '
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// Similarity computes normalized Levenshtein similarity in [0, 1] between two
// already-normalized strings, with a containment floor.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longest := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > longest {
		longest = l
	}

	sim := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)

	if sim < containmentFloor && (strings.Contains(a, b) || strings.Contains(b, a)) {
		sim = containmentFloor
	}

	if sim < 0 {
		return 0
	}
	return sim
}

// Score computes a 0–100 confidence that the candidate is the target track.
//
// Weights: title 0.5, artist 0.3, duration 0.2. When the target duration is
// unknown the duration weight redistributes onto title (0.6) and artist
// (0.4).
func (s *Scorer) Score(target models.CatalogTrack, candidate models.MediaCandidate) float64 {
	candTitle := Normalize(candidate.Title)

	title := Similarity(candTitle, Normalize(target.Name))
	// Uploaders routinely title videos "Artist - Title".
	if composite := Similarity(candTitle, Normalize(target.Artist+" "+target.Name)); composite > title {
		title = composite
	}

	uploader := Normalize(candidate.Uploader)
	artist := Similarity(uploader, Normalize(target.Artist))
	for _, name := range target.Artists {
		if sim := Similarity(uploader, Normalize(name)); sim > artist {
			artist = sim
		}
	}

	targetSecs := target.DurationMS / 1000
	if targetSecs <= 0 {
		return 100 * (0.6*title + 0.4*artist)
	}

	duration := 0.0
	if diff := absInt(candidate.Duration - targetSecs); diff <= s.tolerance {
		duration = 1 - float64(diff)/float64(s.tolerance)
	}

	return 100 * (0.5*title + 0.3*artist + 0.2*duration)
}

// WithinTolerance reports whether the candidate's duration is close enough to
// the target's for auto-selection. Unknown durations on either side never
// gate, they just score zero on the duration component.
func (s *Scorer) WithinTolerance(target models.CatalogTrack, candidate models.MediaCandidate) bool {
	targetSecs := target.DurationMS / 1000
	if targetSecs <= 0 || candidate.Duration <= 0 {
		return true
	}

	return absInt(candidate.Duration-targetSecs) <= s.tolerance
}

// Rank returns the candidates scored and sorted by descending confidence.
// Sorting is stable: source order breaks ties. Candidates outside the
// duration window are still listed, so disambiguation callers see everything.
func (s *Scorer) Rank(target models.CatalogTrack, candidates []models.MediaCandidate) []models.MediaCandidate {
	ranked := make([]models.MediaCandidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		ranked[i].Confidence = s.Score(target, ranked[i])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	return ranked
}

// Pick auto-selects the best candidate: the highest scorer that clears the
// confidence threshold and sits inside the duration window. Earlier
// candidates win score ties. Returns [shared.ErrNoConfidentMatch] when
// nothing qualifies.
func (s *Scorer) Pick(target models.CatalogTrack, candidates []models.MediaCandidate) (*models.MediaCandidate, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", shared.ErrNoConfidentMatch)
	}

	var best *models.MediaCandidate
	var bestScore, topScore float64
	gated := 0

	for _, candidate := range candidates {
		score := s.Score(target, candidate)
		if score > topScore {
			topScore = score
		}

		if !s.WithinTolerance(target, candidate) {
			gated++
			continue
		}

		if score > bestScore && score >= s.threshold {
			bestScore = score
			chosen := candidate
			chosen.Confidence = score
			best = &chosen
		}
	}

	if best == nil {
		if gated == len(candidates) {
			return nil, fmt.Errorf("%w: all %d candidates outside the %ds duration window", shared.ErrNoConfidentMatch, gated, s.tolerance)
		}
		return nil, fmt.Errorf("%w: best score %.1f below threshold %.1f", shared.ErrNoConfidentMatch, topScore, s.threshold)
	}

	return best, nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
