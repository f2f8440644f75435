package match

import (
	"testing"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "One More Time", "one more time"},
		{"folds accents", "Beyoncé", "beyonce"},
		{"folds accents in phrases", "Sigur Rós - Svefn-g-englar", "sigur ros svefn g englar"},
		{"strips parenthesized qualifiers", "One More Time (Official Video)", "one more time"},
		{"strips bracketed qualifiers", "Around the World [HD Remaster]", "around the world"},
		{"strips braced qualifiers", "{Remastered 2014} Song", "song"},
		{"reads ampersand as and", "Simon & Garfunkel", "simon and garfunkel"},
		{"drops punctuation", "R.E.M.", "r e m"},
		{"collapses whitespace", "  Daft   Punk  ", "daft punk"},
		{"keeps digits", "Track 42", "track 42"},
		{"empty input", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("daft punk", "daft punk"))
	})

	t.Run("empty side scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("", "daft punk"))
		assert.Equal(t, 0.0, Similarity("daft punk", ""))
	})

	t.Run("containment floor", func(t *testing.T) {
		// Raw edit distance would score this well under the floor.
		assert.InDelta(t, 0.85, Similarity("daft punk topic", "daft punk"), 0.001)
	})

	t.Run("near miss stays high", func(t *testing.T) {
		assert.Greater(t, Similarity("one more time", "one more tyme"), 0.9)
	})

	t.Run("unrelated strings stay low", func(t *testing.T) {
		assert.Less(t, Similarity("one more time", "cooking tutorial"), 0.4)
	})
}

func TestQuery(t *testing.T) {
	t.Run("title then artist", func(t *testing.T) {
		track := models.CatalogTrack{Name: "One More Time", Artist: "Daft Punk"}
		assert.Equal(t, "One More Time Daft Punk", Query(track))
	})

	t.Run("missing artist trims", func(t *testing.T) {
		track := models.CatalogTrack{Name: "One More Time"}
		assert.Equal(t, "One More Time", Query(track))
	})
}

func TestScorer(t *testing.T) {
	target := models.CatalogTrack{
		ID:         "4RfpezEc",
		Name:       "One More Time",
		Artist:     "Daft Punk",
		Artists:    []string{"Daft Punk"},
		Album:      "Discovery",
		DurationMS: 320000,
	}

	scorer := New(0, 0)

	t.Run("perfect candidate scores full marks", func(t *testing.T) {
		candidate := models.MediaCandidate{
			VideoID:  "FGBhQbmPwH8",
			Title:    "Daft Punk - One More Time (Official Video)",
			Uploader: "Daft Punk",
			Duration: 320,
		}

		assert.InDelta(t, 100.0, scorer.Score(target, candidate), 0.01)
	})

	t.Run("composite title carries artist prefix", func(t *testing.T) {
		candidate := models.MediaCandidate{
			Title:    "Daft Punk - One More Time",
			Uploader: "randomuploads123",
			Duration: 320,
		}

		// Title component should be exact despite the artist prefix.
		assert.GreaterOrEqual(t, scorer.Score(target, candidate), 70.0)
	})

	t.Run("duration weight redistributes when target unknown", func(t *testing.T) {
		unknown := target
		unknown.DurationMS = 0

		candidate := models.MediaCandidate{
			Title:    "One More Time",
			Uploader: "Daft Punk",
			Duration: 9999,
		}

		assert.InDelta(t, 100.0, scorer.Score(unknown, candidate), 0.01)
	})

	t.Run("within tolerance", func(t *testing.T) {
		assert.True(t, scorer.WithinTolerance(target, models.MediaCandidate{Duration: 320 + DefaultToleranceSecs}))
		assert.False(t, scorer.WithinTolerance(target, models.MediaCandidate{Duration: 320 + DefaultToleranceSecs + 1}))
		assert.True(t, scorer.WithinTolerance(target, models.MediaCandidate{Duration: 0}), "unknown candidate duration never gates")

		unknown := target
		unknown.DurationMS = 0
		assert.True(t, scorer.WithinTolerance(unknown, models.MediaCandidate{Duration: 9999}), "unknown target duration never gates")
	})

	t.Run("rank orders by confidence and keeps everything", func(t *testing.T) {
		candidates := []models.MediaCandidate{
			{VideoID: "junk", Title: "cooking tutorial pasta", Uploader: "Random Chef", Duration: 320},
			{VideoID: "best", Title: "One More Time", Uploader: "Daft Punk", Duration: 321},
			{VideoID: "long", Title: "One More Time", Uploader: "Daft Punk", Duration: 440},
		}

		ranked := scorer.Rank(target, candidates)

		require.Len(t, ranked, 3)
		assert.Equal(t, "best", ranked[0].VideoID)
		assert.Equal(t, "long", ranked[1].VideoID, "out-of-window candidates are listed, not hidden")
		assert.Equal(t, "junk", ranked[2].VideoID)
		for _, c := range ranked {
			assert.Greater(t, c.Confidence, 0.0)
		}
	})

	t.Run("rank breaks ties by source order", func(t *testing.T) {
		candidates := []models.MediaCandidate{
			{VideoID: "first", Title: "One More Time", Uploader: "Daft Punk", Duration: 320},
			{VideoID: "second", Title: "One More Time", Uploader: "Daft Punk", Duration: 320},
		}

		ranked := scorer.Rank(target, candidates)

		require.Len(t, ranked, 2)
		assert.Equal(t, "first", ranked[0].VideoID)
		assert.Equal(t, "second", ranked[1].VideoID)
	})

	t.Run("pick selects the best candidate", func(t *testing.T) {
		candidates := []models.MediaCandidate{
			{VideoID: "junk", Title: "cooking tutorial pasta", Uploader: "Random Chef", Duration: 320},
			{VideoID: "best", Title: "One More Time", Uploader: "Daft Punk", Duration: 322},
		}

		picked, err := scorer.Pick(target, candidates)

		require.NoError(t, err)
		assert.Equal(t, "best", picked.VideoID)
		assert.Greater(t, picked.Confidence, 90.0)
	})

	t.Run("pick never selects outside the duration window", func(t *testing.T) {
		// Textually flawless, two minutes too long: an extended mix.
		candidates := []models.MediaCandidate{
			{VideoID: "extended", Title: "One More Time", Uploader: "Daft Punk", Duration: 440},
		}

		picked, err := scorer.Pick(target, candidates)

		require.ErrorIs(t, err, shared.ErrNoConfidentMatch)
		assert.Nil(t, picked)
		assert.Contains(t, err.Error(), "duration window")
	})

	t.Run("pick skips gated candidates to the next qualifier", func(t *testing.T) {
		candidates := []models.MediaCandidate{
			{VideoID: "extended", Title: "One More Time", Uploader: "Daft Punk", Duration: 440},
			{VideoID: "studio", Title: "One More Time", Uploader: "DaftPunkVEVO", Duration: 325},
		}

		picked, err := scorer.Pick(target, candidates)

		require.NoError(t, err)
		assert.Equal(t, "studio", picked.VideoID)
	})

	t.Run("pick rejects below the threshold", func(t *testing.T) {
		candidates := []models.MediaCandidate{
			{VideoID: "junk", Title: "cooking tutorial pasta", Uploader: "Random Chef", Duration: 320},
		}

		picked, err := scorer.Pick(target, candidates)

		require.ErrorIs(t, err, shared.ErrNoConfidentMatch)
		assert.Nil(t, picked)
		assert.Contains(t, err.Error(), "below threshold")
	})

	t.Run("pick on empty input", func(t *testing.T) {
		picked, err := scorer.Pick(target, nil)

		require.ErrorIs(t, err, shared.ErrNoConfidentMatch)
		assert.Nil(t, picked)
	})

	t.Run("pick breaks ties by source order", func(t *testing.T) {
		candidates := []models.MediaCandidate{
			{VideoID: "first", Title: "One More Time", Uploader: "Daft Punk", Duration: 320},
			{VideoID: "second", Title: "One More Time", Uploader: "Daft Punk", Duration: 320},
		}

		picked, err := scorer.Pick(target, candidates)

		require.NoError(t, err)
		assert.Equal(t, "first", picked.VideoID)
	})

	t.Run("custom tolerance widens the window", func(t *testing.T) {
		loose := New(60, 180)

		picked, err := loose.Pick(target, []models.MediaCandidate{
			{VideoID: "extended", Title: "One More Time", Uploader: "Daft Punk", Duration: 440},
		})

		require.NoError(t, err)
		assert.Equal(t, "extended", picked.VideoID)
	})
}
