// package formatter renders session state, podcasts and play history as text, Markdown, CSV, JSON and tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
	"github.com/desertthunder/dailycast/internal/tasks"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ToJSON renders v as indented JSON with a trailing newline.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// StateToText summarizes a session state for the terminal.
func StateToText(s tasks.State) []byte {
	var buf bytes.Buffer

	if !s.Authenticated {
		buf.WriteString("Session: logged out\n")
		writeNotice(&buf, s.Notice)
		return buf.Bytes()
	}

	buf.WriteString("Session: logged in\n")
	if s.Profile != nil {
		buf.WriteString(fmt.Sprintf("User: %s (%s)\n", s.Profile.Email, s.Profile.ID))
	}
	buf.WriteString(fmt.Sprintf("Preferences: %s\n", PreferencesLabel(s.Preferences)))
	if s.Draft != s.Preferences {
		buf.WriteString(fmt.Sprintf("Draft: %s (%s)\n", PreferencesLabel(s.Draft), s.PreferenceStatus))
	}

	if s.Podcast != nil {
		buf.WriteString(fmt.Sprintf("Podcast (%s): %s\n", s.Podcast.Date, s.Podcast.URL))
	} else if s.PodcastDate != "" {
		buf.WriteString(fmt.Sprintf("Podcast (%s): not generated yet\n", s.PodcastDate))
	}

	if s.Playback != nil {
		buf.WriteString(fmt.Sprintf("Now playing: %s [%s]\n", s.Playback.Title, s.Playback.DurationLabel))
	}

	writeNotice(&buf, s.Notice)
	return buf.Bytes()
}

// NoticeToText renders a notice with its field errors sorted by field.
func NoticeToText(n *tasks.Notice) []byte {
	var buf bytes.Buffer
	writeNotice(&buf, n)
	return buf.Bytes()
}

func writeNotice(buf *bytes.Buffer, n *tasks.Notice) {
	if n == nil {
		return
	}
	if n.Message != "" {
		buf.WriteString(fmt.Sprintf("%s: %s\n", n.Title, n.Message))
	} else {
		buf.WriteString(n.Title + "\n")
	}
	for _, field := range slices.Sorted(maps.Keys(n.Fields)) {
		buf.WriteString(fmt.Sprintf("  %s: %s\n", field, n.Fields[field]))
	}
}

// PreferencesLabel renders prefs as "Topic in Country", or "not set".
func PreferencesLabel(p models.Preferences) string {
	if p.Country == "" && p.Topic == "" {
		return "not set"
	}
	return fmt.Sprintf("%s in %s", p.Topic.Label(), p.Country.Label())
}

// ProfileToText renders the user profile
func ProfileToText(p models.UserProfile) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("ID: %s\n", p.ID))
	buf.WriteString(fmt.Sprintf("Email: %s\n", p.Email))
	buf.WriteString(fmt.Sprintf("Country: %s (%s)\n", p.Preferences.Country.Label(), p.Preferences.Country))
	buf.WriteString(fmt.Sprintf("Topic: %s (%s)\n", p.Preferences.Topic.Label(), p.Preferences.Topic))
	return buf.Bytes()
}

// PodcastToText renders a fetch result. A missing podcast is reported, not treated as an error.
func PodcastToText(r tasks.FetchResult) []byte {
	var buf bytes.Buffer
	if r.Podcast == nil {
		buf.WriteString(fmt.Sprintf("No podcast available for %s on %s.\n", PreferencesLabel(r.Preferences), r.Date))
		buf.WriteString("Try again later or adjust preferences.\n")
		return buf.Bytes()
	}
	buf.WriteString(fmt.Sprintf("Date: %s\n", r.Podcast.Date))
	buf.WriteString(fmt.Sprintf("Preferences: %s\n", PreferencesLabel(r.Preferences)))
	buf.WriteString(fmt.Sprintf("URL: %s\n", r.Podcast.URL))
	return buf.Bytes()
}

// PlaybackToMarkdown renders a now playing card.
func PlaybackToMarkdown(sel models.PlaybackSelection) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("# %s\n\n", sel.Title))
	buf.WriteString(fmt.Sprintf("**Date**: %s\n", sel.Date))
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n", sel.DurationLabel))
	buf.WriteString(fmt.Sprintf("**Audio**: [%s](%s)\n", sel.AudioURL, sel.AudioURL))
	return buf.Bytes()
}

// OptionsTable lists the supported values, marking the selected code.
func OptionsTable(title string, options []models.Option, selected string) string {
	rows := make([][]string, 0, len(options))
	for _, opt := range options {
		mark := ""
		if opt.Code == selected {
			mark = "*"
		}
		rows = append(rows, []string{mark, opt.Code, opt.Label})
	}
	return RenderTable(title, []string{"", "Code", title}, rows, nil)
}

// HistoryTable renders play history, newest first as given.
func HistoryTable(records []*models.PlaybackRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Sequence),
			r.SelectedAt.Local().Format(time.DateTime),
			r.Title,
			r.Date,
			r.AudioURL,
		})
	}
	return RenderTable("", []string{"#", "Played", "Title", "Date", "URL"}, rows, []text.Align{text.AlignRight})
}

// RenderTable draws a rounded table. aligns applies per column; missing entries align left.
func RenderTable(title string, headers []string, rows [][]string, aligns []text.Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] != text.AlignDefault {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// HistoryToCSV converts play history to CSV with columns: Sequence, ID, Title, Duration, URL, Country, Topic, Date, PlayedAt
func HistoryToCSV(records []*models.PlaybackRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "ID", "Title", "Duration", "URL", "Country", "Topic", "Date", "PlayedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		record := []string{
			strconv.Itoa(r.Sequence),
			r.ID,
			r.Title,
			r.DurationLabel,
			r.AudioURL,
			string(r.Country),
			string(r.Topic),
			r.Date,
			r.SelectedAt.UTC().Format(time.RFC3339),
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

// WriteHistoryExport writes play history to path as CSV or JSON, chosen by format ("csv" or "json").
//
// Defaults to dailycast_history.{format} as the filename.
func WriteHistoryExport(records []*models.PlaybackRecord, format, path string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "csv":
		data, err = HistoryToCSV(records)
	case "json":
		data, err = ToJSON(records)
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if path == "" {
		path = "dailycast_history." + format
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}
