package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jarv/justread/internal/home"
)

func TestCommentPreservation(t *testing.T) {
	testDir := t.TempDir()
	path := filepath.Join(testDir, "subscriptions")

	initialContent := `# This is a comment
# Another comment with some context
https://example.com/feed1.xml

# Newsletters
https://example.com/letters.xml newsletter
# A feed with an explicit kind
https://example.com/feed3.xml rss

# End of feeds
`

	if err := os.WriteFile(path, []byte(initialContent), 0644); err != nil {
		t.Fatalf("Failed to write initial file: %v", err)
	}

	lines, err := ReadAllLinesFromPath(path)
	if err != nil {
		t.Fatalf("Failed to read lines: %v", err)
	}

	if len(lines) != 10 {
		t.Errorf("Expected 10 lines, got %d", len(lines))
	}
	if lines[0].IsEntry || lines[0].Raw != "# This is a comment" {
		t.Errorf("First line should be a comment, got: %+v", lines[0])
	}
	if !lines[5].IsEntry || lines[5].Entry.Kind != home.SourceNewsletter {
		t.Errorf("Expected newsletter entry on line 6, got: %+v", lines[5])
	}

	lines = append(lines, Line{
		Entry:   &SubscriptionEntry{URL: "https://example.com/feed4.xml", Kind: home.SourceNewsletter},
		IsEntry: true,
	})

	if err := WriteAllLines(path, lines); err != nil {
		t.Fatalf("Failed to write lines: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read final file: %v", err)
	}

	expected := initialContent + "https://example.com/feed4.xml newsletter\n"
	if string(content) != expected {
		t.Errorf("Content mismatch.\nExpected:\n%s\n\nGot:\n%s", expected, string(content))
	}
}

func TestAddSubscriptionSkipsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "subscriptions")

	if err := CreateSampleSubscriptionsFile(path); err != nil {
		t.Fatalf("Failed to create sample file: %v", err)
	}

	added, err := AddSubscription(path, SubscriptionEntry{URL: "https://example.com/feed.xml", Kind: home.SourceRSS})
	if err != nil || !added {
		t.Fatalf("Expected first add to succeed, got added=%v err=%v", added, err)
	}

	added, err = AddSubscription(path, SubscriptionEntry{URL: "https://example.com/feed.xml", Kind: home.SourceNewsletter})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if added {
		t.Error("Expected duplicate URL to be skipped")
	}

	entries, err := ReadSubscriptionsFromPath(path)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != home.SourceRSS {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestRemoveSubscriptionPreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscriptions")

	initialContent := `# This is a comment
https://example.com/feed1.xml
# Another comment
https://example.com/feed2.xml newsletter
https://example.com/feed3.xml
`
	if err := os.WriteFile(path, []byte(initialContent), 0644); err != nil {
		t.Fatalf("Failed to write initial file: %v", err)
	}

	removed, err := RemoveSubscription(path, "https://example.com/feed2.xml")
	if err != nil || !removed {
		t.Fatalf("Expected removal, got removed=%v err=%v", removed, err)
	}

	removed, err = RemoveSubscription(path, "https://example.com/missing.xml")
	if err != nil || removed {
		t.Fatalf("Expected no-op removal, got removed=%v err=%v", removed, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read final file: %v", err)
	}

	expected := `# This is a comment
https://example.com/feed1.xml
# Another comment
https://example.com/feed3.xml
`
	if string(content) != expected {
		t.Errorf("Content mismatch after remove.\nExpected:\n%s\n\nGot:\n%s", expected, string(content))
	}
}

func TestReadMissingFile(t *testing.T) {
	entries, err := ReadSubscriptionsFromPath(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}
