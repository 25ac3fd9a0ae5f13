package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
	tu "github.com/desertthunder/teltube/internal/testing"
)

func sampleListing() *Listing {
	return &Listing{
		Title: "Latest videos",
		Entries: []models.CatalogEntry{
			{
				ID:          1,
				OwnerID:     7,
				Title:       "Trip",
				Description: "Summer trip",
				VideoURL:    "https://cdn.example.com/trip.mp4",
				Duration:    "125",
				Views:       3,
				ChannelName: "Ann",
				CreatedAt:   "2024-05-01 10:00:00",
			},
			{
				ID:       2,
				OwnerID:  8,
				Title:    "Cat, again",
				VideoURL: "https://cdn.example.com/cat.mp4",
				Duration: "3725",
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"txt", FormatText},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
	}
	for _, tt := range tc {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleListing())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "ID,Title,Channel,Duration,Views,VideoURL,ThumbnailURL,CreatedAt" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "1,Trip,Ann,125,3,https://cdn.example.com/trip.mp4,,2024-05-01 10:00:00" {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if !strings.HasPrefix(lines[2], `2,"Cat, again",,3725,0,`) {
			t.Errorf("expected quoted title in second row, got: %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without thumbnails", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleListing(), nil)
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			output := string(data)

			for _, want := range []string{
				"# Latest videos",
				"**Videos**: 2",
				"## 1. [Trip](https://cdn.example.com/trip.mp4)",
				"Ann · 2:05 · 3 views · 2024-05-01 10:00:00",
				"Summer trip",
				"## 2. [Cat, again](https://cdn.example.com/cat.mp4)",
				"1:02:05 · 0 views",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got:\n%s", want, output)
				}
			}
			if strings.Contains(output, "![") || strings.Contains(output, "Offline") {
				t.Errorf("unexpected image or offline note:\n%s", output)
			}
		})

		t.Run("stale with thumbnail", func(t *testing.T) {
			l := sampleListing()
			l.Stale = true
			l.CachedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

			data, err := ExportToMarkdown(l, map[int64]string{1: "thumbnails/1.jpg"})
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			output := string(data)

			if !strings.Contains(output, "![Trip](thumbnails/1.jpg)") {
				t.Errorf("Markdown missing thumbnail reference")
			}
			if !strings.Contains(output, "> Offline copy from") {
				t.Errorf("Markdown missing offline note")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleListing())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "Latest videos\nVideos: 2") {
			t.Errorf("Text missing header, got:\n%s", output)
		}
		if !strings.Contains(output, "1. [1] Trip - Ann [2:05] 3 views") {
			t.Errorf("Text missing first entry, got:\n%s", output)
		}
		if !strings.Contains(output, "2. [2] Cat, again [1:02:05] 0 views") {
			t.Errorf("Text missing second entry, got:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleListing())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded struct {
			Title  string            `json:"title"`
			Videos []json.RawMessage `json:"videos"`
			Stale  *bool             `json:"stale"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Title != "Latest videos" || len(decoded.Videos) != 2 {
			t.Errorf("unexpected JSON %s", data)
		}
		if decoded.Stale != nil {
			t.Error("stale must be omitted for a live listing")
		}
		if !strings.Contains(string(data), `"duration": 125`) {
			t.Errorf("duration must be written as a number, got %s", data)
		}
	})

	t.Run("Render", func(t *testing.T) {
		l := sampleListing()
		for _, f := range []Format{FormatText, FormatJSON, FormatCSV, FormatMarkdown} {
			data, err := Render(l, f)
			if err != nil || len(data) == 0 {
				t.Errorf("Render(%s) = %d bytes, %v", f, len(data), err)
			}
		}
	})
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.csv")

	if err := WriteExport(sampleListing(), FormatCSV, path); err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	tu.AssertFileExists(t, path)
	if !strings.HasPrefix(tu.MustReadFile(t, path), "ID,Title") {
		t.Error("expected CSV contents")
	}

	if err := WriteExport(sampleListing(), FormatText, filepath.Join(dir, "missing", "out.txt")); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	backend := tu.NewBackend(t)
	backend.Handle("/thumb/1.jpg", func(w http.ResponseWriter, _ tu.Request) {
		w.Write([]byte("jpeg-bytes"))
	})

	l := sampleListing()
	l.Entries[0].ThumbnailURL = backend.URL("/thumb/1.jpg")
	l.Entries[1].ThumbnailURL = backend.URL("/thumb/missing.jpg")

	t.Run("downloads thumbnails", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteMarkdownExport(context.Background(), l, dir, backend.Server.Client())
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if result.Thumbnails != 1 || len(result.Warnings) != 1 {
			t.Errorf("expected 1 thumbnail and 1 warning, got %+v", result)
		}
		thumb := filepath.Join(dir, "thumbnails", "1.jpg")
		if tu.MustReadFile(t, thumb) != "jpeg-bytes" {
			t.Error("thumbnail contents mismatch")
		}

		readme := tu.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "![Trip](thumbnails/1.jpg)") {
			t.Errorf("README missing thumbnail, got:\n%s", readme)
		}
		if strings.Contains(readme, "thumbnails/2.jpg") {
			t.Error("failed thumbnail must not be referenced")
		}
	})

	t.Run("without client", func(t *testing.T) {
		dir := t.TempDir()

		result, err := WriteMarkdownExport(context.Background(), l, dir, nil)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.Thumbnails != 0 || len(result.Files) != 1 {
			t.Errorf("expected README only, got %+v", result)
		}
	})

	t.Run("requires directory", func(t *testing.T) {
		if _, err := WriteMarkdownExport(context.Background(), l, "", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	if _, err := DownloadImage(context.Background(), nil, ""); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}

	backend := tu.NewBackend(t)
	if _, err := DownloadImage(context.Background(), backend.Server.Client(), backend.URL("/nope")); err == nil {
		t.Error("expected error for 404")
	}
}
