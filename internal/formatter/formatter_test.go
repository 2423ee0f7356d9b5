package formatter

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotlite/internal/models"
	th "github.com/desertthunder/spotlite/internal/testing"
)

func sampleExport() *Export {
	return &Export{
		Name:        "Saved Songs",
		Description: "Everything in the library",
		Tracks: []models.Track{
			{
				ID:       "track1",
				Title:    "Song One",
				Artist:   "Artist One",
				Album:    "Album One",
				Duration: 180,
				ISRC:     "USRC12345678",
				AddedAt:  "2024-01-15T10:00:00Z",
			},
			{
				ID:       "track2",
				Title:    "Song Two",
				Artist:   "Artist Two",
				Album:    "",
				Duration: 240,
				ISRC:     "USRC87654321",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,Artist,Album,Duration,ISRC,AddedAt") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1") {
			t.Errorf("CSV missing track1 ID")
		}
		if !strings.Contains(output, "Song One") {
			t.Errorf("CSV missing track1 title")
		}
		if !strings.Contains(output, "USRC12345678") {
			t.Errorf("CSV missing track1 ISRC")
		}
		if !strings.Contains(output, "2024-01-15T10:00:00Z") {
			t.Errorf("CSV missing added_at timestamp")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Saved Songs") {
			t.Errorf("Markdown missing title heading")
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count")
		}
		if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00]") {
			t.Errorf("Markdown missing first track line, got: %s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song Two [4:00]") {
			t.Errorf("album-less track should omit the parenthetical, got: %s", output)
		}
		if strings.Contains(output, "**Visibility**") {
			t.Errorf("non-playlist export should not carry visibility")
		}
	})

	t.Run("ExportToMarkdownPlaylist", func(t *testing.T) {
		export := sampleExport()
		export.Playlist = &models.Playlist{ID: "p1", Name: "Saved Songs", Public: true}

		data, err := ExportToMarkdown(export)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		if !strings.Contains(string(data), "**Visibility**: Public") {
			t.Errorf("playlist export should carry visibility")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Collection: Saved Songs") {
			t.Errorf("text missing collection name")
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("text missing first track line")
		}
	})
}

func TestFileWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "library")

		result, err := WriteCSVExport(sampleExport(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		th.AssertFileExists(t, result.TracksFile)
		if result.MetadataFile != "" {
			t.Errorf("expected no metadata file without playlist metadata")
		}

		content := th.MustReadFile(t, result.TracksFile)
		if !strings.Contains(content, "Song One") {
			t.Errorf("written CSV missing track data")
		}
	})

	t.Run("WriteCSVExportWithMetadata", func(t *testing.T) {
		dir := t.TempDir()
		export := sampleExport()
		export.Playlist = &models.Playlist{ID: "p1", Name: "Saved Songs", TrackCount: 2}

		result, err := WriteCSVExport(export, filepath.Join(dir, "playlist"))
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		th.AssertFileExists(t, result.MetadataFile)
		if !strings.Contains(th.MustReadFile(t, result.MetadataFile), "Saved Songs") {
			t.Errorf("metadata JSON missing playlist name")
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := t.TempDir()

		mdFile, err := WriteMarkdownExport(sampleExport(), filepath.Join(dir, "export"))
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		th.AssertFileExists(t, mdFile)
		if !strings.HasSuffix(mdFile, "README.md") {
			t.Errorf("expected README.md, got %s", mdFile)
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		dir := t.TempDir()

		txtFile, err := WriteTextExport(sampleExport(), filepath.Join(dir, "library.txt"))
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}

		th.AssertFileExists(t, txtFile)
	})
}
