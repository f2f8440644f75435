package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/Ninnjah/music-downloader/internal/shared"
	"github.com/Ninnjah/music-downloader/internal/ui"
)

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch a queued download in a live TUI",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "album",
				Usage: "Watch an album job instead of a track job",
			},
		},
		Action: r.Watch,
	}
}

// Watch runs the progress TUI against a job already queued on the server.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: job id is required", shared.ErrInvalidInput)
	}

	model := ui.NewWatchModel(ctx, r.api, id, cmd.Bool("album"))
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
