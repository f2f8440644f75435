package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Ninnjah/music-downloader/internal/formatter"
	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CandidateListView ViewState = iota
	ConfirmView
	WatchView
	ResultView
)

// pollInterval paces status polling against a running server.
const pollInterval = 500 * time.Millisecond

// Model represents the TUI application state. It either walks the
// reverse-download pick flow (candidate list, confirm, watch) or jumps
// straight to watching an existing job by id.
type Model struct {
	ctx  context.Context
	api  *services.APIService
	view ViewState

	width  int
	height int

	// reverse pick flow
	mediaURL   string
	location   models.Location
	media      models.MediaInfo
	candidates list.Model
	picked     *models.CatalogTrack

	// watch state
	jobID    string
	album    bool
	track    models.TrackJob
	albumJob models.AlbumJob

	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	keys    keyMap
	err     error
}

// NewWatchModel creates a model that polls one job until it settles. Set
// album to poll the album aggregate instead of a track record.
func NewWatchModel(ctx context.Context, api *services.APIService, jobID string, album bool) *Model {
	m := newModel(ctx, api)
	m.view = WatchView
	m.jobID = jobID
	m.album = album
	return m
}

// NewPickModel creates a model that walks a reverse lookup result: pick a
// catalog candidate, confirm it, submit the download, then watch it.
func NewPickModel(ctx context.Context, api *services.APIService, mediaURL string, location models.Location, media models.MediaInfo, candidates []models.CatalogTrack) *Model {
	m := newModel(ctx, api)
	m.view = CandidateListView
	m.mediaURL = mediaURL
	m.location = location
	m.media = media

	items := make([]list.Item, len(candidates))
	for i, track := range candidates {
		items[i] = candidateItem{track: track}
	}
	m.candidates = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.candidates.Title = fmt.Sprintf("Matches for %q", media.Title)
	return m
}

func newModel(ctx context.Context, api *services.APIService) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:     ctx,
		api:     api,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts polling immediately in watch mode; the pick flow waits for a
// selection first.
func (m *Model) Init() tea.Cmd {
	if m.view == WatchView {
		return tea.Batch(m.spinner.Tick, m.poll())
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.candidates.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = min(msg.Width-8, 60)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CandidateListView:
			return m.handleCandidateKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case WatchView:
			return m.handleWatchKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ackMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.jobID = msg.id
		return m, m.poll()

	case trackStatusMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.track = msg.job
		if msg.job.Status.Terminal() {
			m.view = ResultView
			return m, nil
		}
		return m, m.nextPoll()

	case albumStatusMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.albumJob = msg.job
		if msg.job.Status == models.AlbumCompleted {
			m.view = ResultView
			return m, nil
		}
		return m, m.nextPoll()

	case tickMsg:
		return m, m.poll()
	}

	if m.view == CandidateListView {
		var cmd tea.Cmd
		m.candidates, cmd = m.candidates.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case CandidateListView:
		return m.renderCandidates()
	case ConfirmView:
		return m.renderConfirm()
	case WatchView:
		return m.renderWatch()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleCandidateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.candidates.SelectedItem()
		if selected != nil {
			if item, ok := selected.(candidateItem); ok {
				track := item.track
				m.picked = &track
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.candidates, cmd = m.candidates.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.picked = nil
		m.view = CandidateListView
		return m, nil
	case "y":
		m.view = WatchView
		return m, tea.Batch(m.spinner.Tick, m.submit())
	}
	return m, nil
}

func (m *Model) handleWatchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		// The server keeps downloading; quitting only stops watching.
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.jobID == "" {
			return m, nil
		}
		m.err = nil
		m.view = WatchView
		return m, tea.Batch(m.spinner.Tick, m.poll())
	}
	return m, nil
}

func (m *Model) poll() tea.Cmd {
	return func() tea.Msg {
		if m.album {
			job, err := m.fetchAlbum()
			return albumStatusMsg{job: job, err: err}
		}
		job, err := m.fetchTrack()
		return trackStatusMsg{job: job, err: err}
	}
}

func (m *Model) nextPoll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) fetchTrack() (models.TrackJob, error) {
	resp, err := m.api.Get(m.ctx, "/api/download/status/"+m.jobID)
	if err != nil {
		return models.TrackJob{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return models.TrackJob{}, apiError(resp)
	}

	var job models.TrackJob
	if err := json.Unmarshal(resp.Body, &job); err != nil {
		return models.TrackJob{}, fmt.Errorf("failed to decode job record: %w", err)
	}
	return job, nil
}

func (m *Model) fetchAlbum() (models.AlbumJob, error) {
	resp, err := m.api.Get(m.ctx, "/api/download/album/status/"+m.jobID)
	if err != nil {
		return models.AlbumJob{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return models.AlbumJob{}, apiError(resp)
	}

	var job models.AlbumJob
	if err := json.Unmarshal(resp.Body, &job); err != nil {
		return models.AlbumJob{}, fmt.Errorf("failed to decode album record: %w", err)
	}
	return job, nil
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		payload := map[string]any{
			"youtube_url": m.mediaURL,
			"location":    m.location,
		}
		if m.picked != nil {
			payload["spotify_track_id"] = m.picked.ID
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return ackMsg{err: err}
		}
		resp, err := m.api.Post(m.ctx, "/api/reverse/download", data)
		if err != nil {
			return ackMsg{err: err}
		}
		if resp.StatusCode != http.StatusAccepted {
			return ackMsg{err: apiError(resp)}
		}

		var ack struct {
			TrackID string `json:"track_id"`
		}
		if err := json.Unmarshal(resp.Body, &ack); err != nil {
			return ackMsg{err: fmt.Errorf("failed to decode ack: %w", err)}
		}
		return ackMsg{id: ack.TrackID}
	}
}

func (m *Model) renderCandidates() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.candidates.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Download this match?")

	var info string
	if m.picked != nil {
		info = fmt.Sprintf("\nSpotify: %s - %s (%s)\nYouTube: %s\nDelivery: %s\n",
			m.picked.Artist, m.picked.Name, m.picked.Album, m.media.Title, m.location)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderWatch() string {
	if m.jobID == "" {
		return fmt.Sprintf("%s Queueing download...", m.spinner.View())
	}
	if m.album {
		return m.renderAlbumWatch()
	}

	title := styles.title.Render("Watching " + m.jobID)
	stage := formatter.StageLine(m.track.Stage, m.track.Progress, m.track.Message)
	bar := m.bar.ViewAs(float64(m.track.Progress) / 100)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	return fmt.Sprintf("%s\n%s %s\n\n%s\n\n%s", title, m.spinner.View(), stage, bar, helpView)
}

func (m *Model) renderAlbumWatch() string {
	job := m.albumJob
	title := styles.title.Render("Watching album " + m.jobID)

	settled := job.CompletedTracks + job.FailedTracks
	var ratio float64
	if job.TotalTracks > 0 {
		ratio = float64(settled) / float64(job.TotalTracks)
	}
	line := fmt.Sprintf("%d/%d settled, %d failed", settled, job.TotalTracks, job.FailedTracks)
	if job.CurrentTrack != "" {
		line = fmt.Sprintf("%s\nCurrent: %s", line, job.CurrentTrack)
	}

	bar := m.bar.ViewAs(ratio)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	return fmt.Sprintf("%s\n%s %s\n\n%s\n\n%s", title, m.spinner.View(), line, bar, helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Watch failed: %v", m.err)), helpView)
	}

	if m.album {
		header := styles.ok.Render("✓ Album settled")
		if m.albumJob.FailedTracks > 0 {
			header = styles.warn.Render(fmt.Sprintf("Album settled with %d failed tracks", m.albumJob.FailedTracks))
		}
		return fmt.Sprintf("%s\n\n%s\n%s", header, formatter.AlbumSummary(m.albumJob), helpView)
	}

	header := styles.ok.Render("✓ Download complete")
	if m.track.Status == models.StatusError {
		header = styles.err.Render("✗ Download failed")
	}
	return fmt.Sprintf("%s\n\n%s\n%s", header, formatter.JobSummary(m.track), helpView)
}

// apiError turns a non-2xx API response into an error, preferring the
// server's own error message when the body carries one.
func apiError(resp *services.APIResponse) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
