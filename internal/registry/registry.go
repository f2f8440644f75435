// package registry holds the job records shared between the HTTP surface and
// the background download pipelines.
//
// Records move in and out whole: Set replaces the entire record and Get hands
// back a copy, so callers never observe a half-written job. The one
// read-modify-write hook is UpdateAlbum, which runs its mutation under the
// store lock for the album counters.
package registry

import (
	"sync"

	"github.com/Ninnjah/music-downloader/internal/models"
)

// Store is the job-record registry. Implementations must make every method
// safe for concurrent use.
type Store interface {
	// GetTrack returns a copy of the track job, or false when unknown.
	GetTrack(id string) (models.TrackJob, bool)

	// SetTrack replaces the whole record for the given job id.
	SetTrack(id string, job models.TrackJob)

	// GetAlbum returns a copy of the album job, or false when unknown.
	GetAlbum(id string) (models.AlbumJob, bool)

	// SetAlbum replaces the whole record for the given album id.
	SetAlbum(id string, job models.AlbumJob)

	// UpdateAlbum applies fn to the stored record under the store lock and
	// reports whether the album exists. fn must not block.
	UpdateAlbum(id string, fn func(*models.AlbumJob)) bool

	// TrackIDs lists the ids of every known track job.
	TrackIDs() []string
}

// Memory is the in-process Store backing a single server. Jobs live for the
// process lifetime; nothing is persisted.
type Memory struct {
	mu     sync.RWMutex
	tracks map[string]models.TrackJob
	albums map[string]models.AlbumJob
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tracks: make(map[string]models.TrackJob),
		albums: make(map[string]models.AlbumJob),
	}
}

func (m *Memory) GetTrack(id string) (models.TrackJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.tracks[id]
	return job, ok
}

func (m *Memory) SetTrack(id string, job models.TrackJob) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracks[id] = job
}

func (m *Memory) GetAlbum(id string) (models.AlbumJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.albums[id]
	return job, ok
}

func (m *Memory) SetAlbum(id string, job models.AlbumJob) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.albums[id] = job
}

func (m *Memory) UpdateAlbum(id string, fn func(*models.AlbumJob)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.albums[id]
	if !ok {
		return false
	}

	fn(&job)
	m.albums[id] = job
	return true
}

func (m *Memory) TrackIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.tracks))
	for id := range m.tracks {
		ids = append(ids, id)
	}
	return ids
}
