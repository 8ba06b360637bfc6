// Package loader reads exported chat transcripts from disk and produces
// the sorted, filtered message stream the matcher consumes.
package loader

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/blockmarket/miner/internal/market"
)

// FilePattern matches the export's page files within the data dir.
const FilePattern = "block-market_page_*.json"

// rawMessage mirrors the export record shape. Only the fields the
// pipeline needs are decoded.
type rawMessage struct {
	ID         string      `json:"id"`
	Author     rawAuthor   `json:"author"`
	Content    string      `json:"content"`
	Timestamp  string      `json:"timestamp"`
	Referenced *rawMessage `json:"referenced_message"`
}

type rawAuthor struct {
	Username string `json:"username"`
}

// timestampLayouts covers the export's timestamp variants. Tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// Load reads every page file under dataDir, discards records missing
// content or a parseable timestamp, and returns the remaining messages
// sorted ascending by timestamp. Unreadable files are skipped with a
// warning; only a bad glob is fatal.
func Load(dataDir string, logger *slog.Logger) ([]market.Message, error) {
	paths, err := filepath.Glob(filepath.Join(dataDir, FilePattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dataDir, err)
	}
	logger.Info("transcript files discovered", "dir", dataDir, "files", len(paths))

	var raw []rawMessage
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		var page []rawMessage
		if err := json.Unmarshal(data, &page); err != nil {
			logger.Warn("skipping malformed file", "path", path, "error", err)
			continue
		}
		raw = append(raw, page...)
	}
	logger.Info("messages loaded", "total", len(raw))

	messages := make([]market.Message, 0, len(raw))
	for _, r := range raw {
		msg, ok := convert(r)
		if !ok {
			logger.Debug("skipping record without content or timestamp", "id", r.ID)
			continue
		}
		messages = append(messages, msg)
	}

	// Stable keeps the export's relative order for equal timestamps.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	return messages, nil
}

// convert validates one raw record. Records without content or a
// parseable timestamp are dropped, never fatal.
func convert(r rawMessage) (market.Message, bool) {
	if r.Content == "" {
		return market.Message{}, false
	}
	ts, ok := parseTimestamp(r.Timestamp)
	if !ok {
		return market.Message{}, false
	}

	msg := market.Message{
		ID:        r.ID,
		Author:    username(r.Author),
		Content:   r.Content,
		Timestamp: ts,
	}

	// Referenced messages ride along even when their own timestamp is
	// unparseable; the matcher only needs their author and text.
	if ref := r.Referenced; ref != nil && ref.Content != "" {
		refTS, _ := parseTimestamp(ref.Timestamp)
		msg.Referenced = &market.Message{
			ID:        ref.ID,
			Author:    username(ref.Author),
			Content:   ref.Content,
			Timestamp: refTS,
		}
	}

	return msg, true
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func username(a rawAuthor) string {
	if a.Username == "" {
		return "unknown"
	}
	return a.Username
}
