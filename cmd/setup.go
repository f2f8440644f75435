package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/Ninnjah/music-downloader/internal/shared"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config and yt-dlp header files",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a starter config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the config file",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "headers",
				Usage: "Save browser headers for the yt-dlp API from a cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from the browser",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "File containing the cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Where to save the headers (default: headers_path from config)",
					},
				},
				Action: r.SetupHeaders,
			},
		},
	}
}

// SetupConfig writes the example config template for the user to fill in.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Add your Spotify client id and secret under [credentials.spotify]\n")
	r.writePlain("2. Point [credentials.ytdlp] at your yt-dlp API\n")
	r.writePlain("3. Run 'mdl serve' to start the download server\n")

	return nil
}

// SetupHeaders validates a browser cURL command and saves it where the server
// expects to find yt-dlp headers.
func (r *Runner) SetupHeaders(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrInvalidInput)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidInput)
	}

	r.logger.Info("parsing cURL command for yt-dlp headers")

	var raw []byte
	if curlFile != "" {
		content, err := os.ReadFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to read cURL file: %w", err)
		}
		raw = content
	} else {
		raw = []byte(curlCmd)
	}

	headers, err := shared.ParseCurlCommand(raw)
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	if outputPath == "" {
		outputPath = r.config.Credentials.YTDLP.HeadersPath
	}
	if outputPath == "" {
		outputPath = "./headers.sh"
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Saved verbatim; the server re-parses the command at startup.
	if err := os.WriteFile(outputPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write headers file: %w", err)
	}

	r.writePlain("✓ Saved %d headers to %s\n", len(headers.Headers), outputPath)
	if headers.Cookie != "" {
		r.writePlain("✓ Cookie captured\n")
	}
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.ytdlp.headers_path = \"%s\" in config.toml\n", outputPath)
	r.writePlain("2. Restart 'mdl serve' to pick up the new headers\n")

	return nil
}
