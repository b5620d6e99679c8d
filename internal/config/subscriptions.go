package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/jarv/justread/internal/home"
)

// SubscriptionEntry is one subscription line: a feed URL and an optional
// kind ("rss" or "newsletter", RSS when omitted).
type SubscriptionEntry struct {
	URL  string
	Kind home.SourceType
}

func (e SubscriptionEntry) String() string {
	if e.Kind == home.SourceNewsletter {
		return e.URL + " newsletter"
	}
	return e.URL
}

// Line is a line of the subscriptions file. Comments and blank lines are kept
// verbatim in Raw so rewriting the file preserves them.
type Line struct {
	Entry   *SubscriptionEntry
	IsEntry bool
	Raw     string
}

func (l Line) text() string {
	if l.Raw != "" || !l.IsEntry || l.Entry == nil {
		return l.Raw
	}
	return l.Entry.String()
}

func parseEntry(line string) *SubscriptionEntry {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	entry := &SubscriptionEntry{URL: fields[0], Kind: home.SourceRSS}
	if len(fields) > 1 && strings.EqualFold(fields[1], "newsletter") {
		entry.Kind = home.SourceNewsletter
	}
	return entry
}

// ReadAllLinesFromPath returns every line of the file, entries and
// non-entries alike. A missing file yields no lines.
func ReadAllLinesFromPath(path string) ([]Line, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	var lines []Line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			lines = append(lines, Line{Raw: raw})
			continue
		}
		lines = append(lines, Line{Entry: parseEntry(trimmed), IsEntry: true, Raw: raw})
	}
	return lines, scanner.Err()
}

func WriteAllLines(path string, lines []Line) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	writer := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := writer.WriteString(line.text() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// ReadSubscriptionsFromPath returns only the entries, in file order.
func ReadSubscriptionsFromPath(path string) ([]SubscriptionEntry, error) {
	lines, err := ReadAllLinesFromPath(path)
	if err != nil {
		return nil, err
	}
	var entries []SubscriptionEntry
	for _, line := range lines {
		if line.IsEntry && line.Entry != nil {
			entries = append(entries, *line.Entry)
		}
	}
	return entries, nil
}

// AddSubscription appends entry unless its URL is already present.
func AddSubscription(path string, entry SubscriptionEntry) (bool, error) {
	lines, err := ReadAllLinesFromPath(path)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if line.IsEntry && line.Entry != nil && line.Entry.URL == entry.URL {
			return false, nil
		}
	}
	lines = append(lines, Line{Entry: &entry, IsEntry: true})
	return true, WriteAllLines(path, lines)
}

func RemoveSubscription(path, url string) (bool, error) {
	lines, err := ReadAllLinesFromPath(path)
	if err != nil {
		return false, err
	}
	kept := lines[:0]
	removed := false
	for _, line := range lines {
		if line.IsEntry && line.Entry != nil && line.Entry.URL == url {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	if !removed {
		return false, nil
	}
	return true, WriteAllLines(path, kept)
}

// CreateSampleSubscriptionsFile writes a commented starter file if none exists.
func CreateSampleSubscriptionsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return WriteAllLines(path, []Line{
		{Raw: "# One subscription per line: <feed url> [rss|newsletter]"},
		{Raw: "# Lines starting with # are ignored."},
	})
}
