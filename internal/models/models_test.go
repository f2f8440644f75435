package models

import (
	"testing"
)

func TestStatus(t *testing.T) {
	t.Run("terminal states", func(t *testing.T) {
		if !StatusCompleted.Terminal() {
			t.Error("expected completed to be terminal")
		}
		if !StatusError.Terminal() {
			t.Error("expected error to be terminal")
		}
		if StatusQueued.Terminal() {
			t.Error("expected queued to be non-terminal")
		}
		if StatusProcessing.Terminal() {
			t.Error("expected processing to be non-terminal")
		}
	})
}

func TestLocation(t *testing.T) {
	t.Run("valid locations", func(t *testing.T) {
		if !LocationLocal.Valid() {
			t.Error("expected local to be valid")
		}
		if !LocationNavidrome.Valid() {
			t.Error("expected navidrome to be valid")
		}
	})

	t.Run("rejects unknown locations", func(t *testing.T) {
		if Location("dropbox").Valid() {
			t.Error("expected unknown location to be invalid")
		}
		if Location("").Valid() {
			t.Error("expected empty location to be invalid")
		}
	})
}

func TestAlbumJob(t *testing.T) {
	t.Run("settled when all tracks terminal", func(t *testing.T) {
		job := AlbumJob{TotalTracks: 3, CompletedTracks: 2, FailedTracks: 1}
		if !job.Settled() {
			t.Error("expected album with 2+1 of 3 to be settled")
		}
	})

	t.Run("not settled while tracks outstanding", func(t *testing.T) {
		job := AlbumJob{TotalTracks: 3, CompletedTracks: 1, FailedTracks: 1}
		if job.Settled() {
			t.Error("expected album with 1+1 of 3 to be unsettled")
		}
	})
}

func TestManualMetadata(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		t.Run("requires name", func(t *testing.T) {
			m := &ManualMetadata{Artist: "Artist"}
			if err := m.Validate(); err == nil {
				t.Error("expected error for missing name")
			}
		})

		t.Run("requires artist", func(t *testing.T) {
			m := &ManualMetadata{Name: "Song"}
			if err := m.Validate(); err == nil {
				t.Error("expected error for missing artist")
			}
		})

		t.Run("rejects whitespace-only fields", func(t *testing.T) {
			m := &ManualMetadata{Name: "  ", Artist: "Artist"}
			if err := m.Validate(); err == nil {
				t.Error("expected error for blank name")
			}
		})

		t.Run("accepts name and artist", func(t *testing.T) {
			m := &ManualMetadata{Name: "Song", Artist: "Artist"}
			if err := m.Validate(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("accepts title alias", func(t *testing.T) {
			m := &ManualMetadata{Title: "Song", Artist: "Artist"}
			if err := m.Validate(); err != nil {
				t.Errorf("expected no error with title alias, got %v", err)
			}
		})

		t.Run("nil receiver fails", func(t *testing.T) {
			var m *ManualMetadata
			if err := m.Validate(); err == nil {
				t.Error("expected error for nil metadata")
			}
		})
	})

	t.Run("Track applies defaults", func(t *testing.T) {
		m := &ManualMetadata{Name: "Song", Artist: "A; B"}
		track := m.Track("https://img.example/thumb.jpg")

		if track.Album != FallbackAlbum {
			t.Errorf("expected album %q, got %q", FallbackAlbum, track.Album)
		}
		if track.AlbumArtist != FallbackAlbum {
			t.Errorf("expected album artist %q, got %q", FallbackAlbum, track.AlbumArtist)
		}
		if track.AlbumArt != "https://img.example/thumb.jpg" {
			t.Errorf("expected thumbnail fallback, got %q", track.AlbumArt)
		}
		if track.TrackNumber != 1 {
			t.Errorf("expected track number 1, got %d", track.TrackNumber)
		}
		if track.DurationMS != 0 {
			t.Errorf("expected zero duration, got %d", track.DurationMS)
		}
		if len(track.Artists) != 2 || track.Artists[0] != "A" || track.Artists[1] != "B" {
			t.Errorf("expected split artists [A B], got %v", track.Artists)
		}
	})

	t.Run("Track honors wire aliases", func(t *testing.T) {
		m := &ManualMetadata{Title: "Song", Artist: "Artist", AlbumName: "Album"}
		track := m.Track("")

		if track.Name != "Song" {
			t.Errorf("expected title alias to fill name, got %q", track.Name)
		}
		if track.Album != "Album" {
			t.Errorf("expected album_name alias to fill album, got %q", track.Album)
		}
	})

	t.Run("Track keeps supplied values", func(t *testing.T) {
		m := &ManualMetadata{
			Name:        "Song",
			Artist:      "Artist",
			Album:       "Album",
			AlbumArt:    "https://img.example/cover.jpg",
			TrackNumber: 7,
			DurationMS:  183000,
		}
		track := m.Track("https://img.example/thumb.jpg")

		if track.Album != "Album" {
			t.Errorf("expected supplied album, got %q", track.Album)
		}
		if track.AlbumArt != "https://img.example/cover.jpg" {
			t.Errorf("expected supplied art, got %q", track.AlbumArt)
		}
		if track.TrackNumber != 7 {
			t.Errorf("expected track number 7, got %d", track.TrackNumber)
		}
		if track.DurationMS != 183000 {
			t.Errorf("expected duration 183000, got %d", track.DurationMS)
		}
	})
}

func TestSplitArtists(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"semicolons", "A; B;C", []string{"A", "B", "C"}},
		{"commas", "A, B", []string{"A", "B"}},
		{"mixed", "A; B, C", []string{"A", "B", "C"}},
		{"single", "Solo Artist", []string{"Solo Artist"}},
		{"empty segments dropped", "A;;B,", []string{"A", "B"}},
		{"empty input", "", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitArtists(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("expected %v, got %v", tc.want, got)
					break
				}
			}
		})
	}
}
