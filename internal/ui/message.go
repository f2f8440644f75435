package ui

import (
	"github.com/Ninnjah/music-downloader/internal/models"
)

// tickMsg schedules the next status poll.
type tickMsg struct{}

// ackMsg carries the job id acked by a reverse download submission.
type ackMsg struct {
	id  string
	err error
}

// trackStatusMsg carries one polled track job snapshot.
type trackStatusMsg struct {
	job models.TrackJob
	err error
}

// albumStatusMsg carries one polled album job snapshot.
type albumStatusMsg struct {
	job models.AlbumJob
	err error
}
