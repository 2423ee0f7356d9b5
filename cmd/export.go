package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spotlite/internal/formatter"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/services"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/urfave/cli/v3"
)

// ExportSongs exports the entire saved-tracks library to a file.
func (r *Runner) ExportSongs(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	spotify, err := r.spotifyService(db)
	if err != nil {
		return err
	}

	r.logger.Info("exporting saved tracks")

	pager := services.NewPaginator(func(ctx context.Context, limit, offset int) (*services.Page[models.Track], error) {
		return spotify.SavedTracks(ctx, limit, offset)
	}, services.DefaultPageSize, func(t models.Track) string { return t.ID })

	tracks, err := pager.All(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	export := &formatter.Export{
		Name:   "saved_songs",
		Tracks: tracks,
	}

	return r.writeExport(cmd, export)
}

// ExportPlaylist exports one playlist with all its tracks to a file.
func (r *Runner) ExportPlaylist(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID argument is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	spotify, err := r.spotifyService(db)
	if err != nil {
		return err
	}

	r.logger.Infof("exporting playlist %v", playlistID)

	playlist, err := spotify.Playlist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	pager := services.NewPaginator(func(ctx context.Context, limit, offset int) (*services.Page[models.Track], error) {
		return spotify.PlaylistTracks(ctx, playlistID, limit, offset)
	}, services.DefaultPageSize, func(t models.Track) string { return t.ID })

	tracks, err := pager.All(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	export := &formatter.Export{
		Name:        playlist.Name,
		Description: playlist.Description,
		Playlist:    playlist,
		Tracks:      tracks,
	}

	return r.writeExport(cmd, export)
}

// writeExport renders an export in the requested format and reports where it went.
func (r *Runner) writeExport(cmd *cli.Command, export *formatter.Export) error {
	format := cmd.String("format")
	output := cmd.String("output")
	pretty := cmd.Bool("pretty")

	switch format {
	case "json":
		if output == "" {
			return r.writeJSON(export, pretty)
		}
		data, err := shared.MarshalJSON(export, pretty)
		if err != nil {
			return fmt.Errorf("failed to marshal export: %w", err)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		return r.exportSummary(export, output)

	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		if result.MetadataFile != "" {
			r.writePlain("✓ Metadata written to %s\n", result.MetadataFile)
		}
		return r.exportSummary(export, result.TracksFile)

	case "markdown", "md":
		file, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		return r.exportSummary(export, file)

	case "text", "txt":
		file, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		return r.exportSummary(export, file)

	default:
		return fmt.Errorf("%w: unknown format %q (expected json, csv, markdown, or text)", shared.ErrInvalidFlag, format)
	}
}

func (r *Runner) exportSummary(export *formatter.Export, path string) error {
	r.writePlain("✓ Exported to %s\n", path)
	r.writePlain("  Collection: %s\n", export.Name)
	r.writePlain("  Tracks: %d\n", len(export.Tracks))
	return nil
}
