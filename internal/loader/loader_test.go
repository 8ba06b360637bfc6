package loader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad_SortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "block-market_page_1.json", `[
		{"id":"2","author":{"username":"bob"},"content":"dm sent","timestamp":"2026-03-02T18:05:00Z"},
		{"id":"1","author":{"username":"alice"},"content":"selling a block for 17","timestamp":"2026-03-02T18:00:00Z"},
		{"id":"3","author":{"username":"carol"},"content":"no timestamp here"},
		{"id":"4","author":{"username":"dave"},"timestamp":"2026-03-02T18:01:00Z"},
		{"id":"5","author":{"username":"eve"},"content":"bad ts","timestamp":"yesterday-ish"}
	]`)

	msgs, err := Load(dir, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (invalid records dropped)", len(msgs))
	}
	if msgs[0].ID != "1" || msgs[1].ID != "2" {
		t.Errorf("order = %s, %s, want 1, 2 (ascending by timestamp)", msgs[0].ID, msgs[1].ID)
	}
	if msgs[0].Author != "alice" {
		t.Errorf("author = %q, want alice", msgs[0].Author)
	}
}

func TestLoad_ConcatenatesPages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "block-market_page_1.json",
		`[{"id":"1","author":{"username":"alice"},"content":"a","timestamp":"2026-03-02T18:00:00Z"}]`)
	writeFile(t, dir, "block-market_page_2.json",
		`[{"id":"2","author":{"username":"bob"},"content":"b","timestamp":"2026-03-02T17:00:00Z"}]`)
	// Files outside the naming convention are ignored.
	writeFile(t, dir, "notes.json",
		`[{"id":"9","author":{"username":"x"},"content":"c","timestamp":"2026-03-02T16:00:00Z"}]`)

	msgs, err := Load(dir, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "2" {
		t.Errorf("first message = %s, want 2 (earlier page-2 timestamp sorts first)", msgs[0].ID)
	}
}

func TestLoad_SkipsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "block-market_page_1.json", `{not json at all`)
	writeFile(t, dir, "block-market_page_2.json",
		`[{"id":"1","author":{"username":"alice"},"content":"ok","timestamp":"2026-03-02T18:00:00Z"}]`)

	msgs, err := Load(dir, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (malformed page skipped)", len(msgs))
	}
}

func TestLoad_CarriesReferencedMessage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "block-market_page_1.json", `[
		{"id":"1","author":{"username":"alice"},"content":"selling a block for 17","timestamp":"2026-03-02T18:00:00Z"},
		{"id":"2","author":{"username":"bob"},"content":"gotchu","timestamp":"2026-03-02T18:01:00Z",
		 "referenced_message":{"id":"1","author":{"username":"alice"},"content":"selling a block for 17","timestamp":"2026-03-02T18:00:00Z"}}
	]`)

	msgs, err := Load(dir, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	ref := msgs[1].Referenced
	if ref == nil {
		t.Fatal("referenced message not carried")
	}
	if ref.ID != "1" || ref.Author != "alice" {
		t.Errorf("referenced = %s/%s, want 1/alice", ref.ID, ref.Author)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	msgs, err := Load(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("got %d messages, want 0", len(msgs))
	}
}

func TestParseTimestamp_Variants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"rfc3339", "2026-03-02T18:00:00Z", true},
		{"fractional with offset", "2026-03-02T18:00:00.123456-05:00", true},
		{"space separated", "2026-03-02 18:00:00", true},
		{"garbage", "last tuesday", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseTimestamp(tt.in)
			if ok != tt.ok {
				t.Errorf("parseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}
