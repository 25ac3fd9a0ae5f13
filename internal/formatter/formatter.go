// package formatter renders catalog listings as plain text, JSON, CSV or Markdown
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want text, json, csv or markdown)", shared.ErrInvalidArgument, s)
}

// Listing is a titled set of catalog entries, possibly served from the local cache.
type Listing struct {
	Title    string                `json:"title"`
	Entries  []models.CatalogEntry `json:"videos"`
	Stale    bool                  `json:"stale,omitempty"`
	CachedAt time.Time             `json:"cached_at,omitzero"`
}

// Render dispatches to the exporter for f.
func Render(l *Listing, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(l)
	case FormatCSV:
		return ExportToCSV(l)
	case FormatMarkdown:
		return ExportToMarkdown(l, nil)
	default:
		return ExportToText(l)
	}
}

// ExportToCSV converts a Listing to CSV with columns: ID, Title, Channel, Duration, Views, VideoURL, ThumbnailURL, CreatedAt
func ExportToCSV(l *Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Channel", "Duration", "Views", "VideoURL", "ThumbnailURL", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range l.Entries {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			e.ChannelName,
			strconv.Itoa(e.Seconds()),
			strconv.FormatInt(e.Views, 10),
			e.VideoURL,
			e.ThumbnailURL,
			e.CreatedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Listing to Markdown. thumbnails maps entry ids to local image paths to embed.
func ExportToMarkdown(l *Listing, thumbnails map[int64]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", l.Title)
	if l.Stale {
		fmt.Fprintf(&buf, "> Offline copy from %s\n\n", l.CachedAt.Format(time.RFC1123))
	}
	fmt.Fprintf(&buf, "**Videos**: %d\n\n", len(l.Entries))

	for i, e := range l.Entries {
		fmt.Fprintf(&buf, "## %d. [%s](%s)\n\n", i+1, e.Title, e.VideoURL)
		if thumb, ok := thumbnails[e.ID]; ok {
			fmt.Fprintf(&buf, "![%s](%s)\n\n", e.Title, thumb)
		}
		meta := []string{shared.FormatDuration(e.Seconds()), fmt.Sprintf("%d views", e.Views)}
		if e.ChannelName != "" {
			meta = append([]string{e.ChannelName}, meta...)
		}
		if e.CreatedAt != "" {
			meta = append(meta, e.CreatedAt)
		}
		fmt.Fprintf(&buf, "%s\n\n", strings.Join(meta, " · "))
		if e.Description != "" {
			fmt.Fprintf(&buf, "%s\n\n", e.Description)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Listing to plain text.
func ExportToText(l *Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", l.Title)
	if l.Stale {
		fmt.Fprintf(&buf, "(offline copy from %s)\n", l.CachedAt.Format(time.DateTime))
	}
	fmt.Fprintf(&buf, "Videos: %d\n\n", len(l.Entries))

	for i, e := range l.Entries {
		channel := ""
		if e.ChannelName != "" {
			channel = " - " + e.ChannelName
		}
		fmt.Fprintf(&buf, "%d. [%d] %s%s [%s] %d views\n", i+1, e.ID, e.Title, channel, shared.FormatDuration(e.Seconds()), e.Views)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Listing to indented JSON.
func ExportToJSON(l *Listing) ([]byte, error) {
	return shared.MarshalJSON(l, true)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// WriteExport renders l as f into path.
func WriteExport(l *Listing, f Format, path string) error {
	data, err := Render(l, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s export: %w", f, err)
	}
	return nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	Thumbnails int
	Warnings   []string
}

// WriteMarkdownExport writes {dir}/README.md and, when client is non-nil, downloads each thumbnail into
// {dir}/thumbnails/{id}.jpg. A failed thumbnail download is recorded as a warning and skipped.
func WriteMarkdownExport(ctx context.Context, l *Listing, outputDir string, client *http.Client) (*MarkdownExportResult, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("%w: output directory", shared.ErrMissingArgument)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir}
	thumbnails := make(map[int64]string)

	if client != nil {
		thumbDir := filepath.Join(outputDir, "thumbnails")
		for _, e := range l.Entries {
			if e.ThumbnailURL == "" {
				continue
			}
			data, err := DownloadImage(ctx, client, e.ThumbnailURL)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("video %d: %v", e.ID, err))
				continue
			}
			if err := os.MkdirAll(thumbDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
			name := fmt.Sprintf("%d.jpg", e.ID)
			path := filepath.Join(thumbDir, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("video %d: %v", e.ID, err))
				continue
			}
			thumbnails[e.ID] = "thumbnails/" + name
			result.Files = append(result.Files, path)
			result.Thumbnails++
		}
	}

	md, err := ExportToMarkdown(l, thumbnails)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}
