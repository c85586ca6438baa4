// Package export renders stored notes to interchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"racenotes/internal/notes"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or json)", name)
	}
}

// Write renders the notes in the requested format.
func Write(w io.Writer, format Format, items []notes.NoteDetails) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, items)
	case FormatJSON:
		return writeJSON(w, items)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

var csvHeader = []string{
	"id", "created_at", "category", "track", "series", "driver",
	"session_type", "shared", "tags", "media_urls", "body",
}

func writeCSV(w io.Writer, items []notes.NoteDetails) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range items {
		row := []string{
			item.ID,
			item.CreatedAt.UTC().Format(time.RFC3339),
			string(item.Category),
			item.Track,
			item.Series,
			item.Driver,
			string(item.SessionType),
			strconv.FormatBool(item.Shared),
			strings.Join(tagLabels(item.Tags), " "),
			strings.Join(mediaURLs(item.Media), " "),
			item.Body,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

type jsonNote struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Category    string    `json:"category"`
	Track       string    `json:"track,omitempty"`
	Series      string    `json:"series,omitempty"`
	Driver      string    `json:"driver,omitempty"`
	SessionType string    `json:"session_type,omitempty"`
	Shared      bool      `json:"shared"`
	Tags        []string  `json:"tags,omitempty"`
	MediaURLs   []string  `json:"media_urls,omitempty"`
	Body        string    `json:"body"`
}

func writeJSON(w io.Writer, items []notes.NoteDetails) error {
	out := make([]jsonNote, 0, len(items))
	for _, item := range items {
		out = append(out, jsonNote{
			ID:          item.ID,
			CreatedAt:   item.CreatedAt.UTC(),
			Category:    string(item.Category),
			Track:       item.Track,
			Series:      item.Series,
			Driver:      item.Driver,
			SessionType: string(item.SessionType),
			Shared:      item.Shared,
			Tags:        tagLabels(item.Tags),
			MediaURLs:   mediaURLs(item.Media),
			Body:        item.Body,
		})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func tagLabels(tags []notes.Tag) []string {
	labels := make([]string, 0, len(tags))
	for _, tag := range tags {
		labels = append(labels, tag.Label)
	}
	return labels
}

func mediaURLs(records []notes.MediaRecord) []string {
	urls := make([]string, 0, len(records))
	for _, record := range records {
		urls = append(urls, record.FileURL)
	}
	return urls
}
