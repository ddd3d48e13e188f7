// Package watermark stores, per monitored post, an append-only log of completed runs. Each line
// is `<epoch seconds> ## <YYYY/MM/DD HH:MM>`, the last line is the current watermark.
package watermark

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	FILENAME       = "last_run_time.txt"
	SEPARATOR      = "##"
	READABLE_STYLE = "2006/01/02 15:04"
)

// Entry is one committed run.
type Entry struct {
	Timestamp int64
	Readable  string
}

func (e Entry) String() string {
	return fmt.Sprintf("%d %s %s", e.Timestamp, SEPARATOR, e.Readable)
}

// ParseEntry parses a log line, only the leading timestamp is required.
func ParseEntry(line string) (Entry, error) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Entry{}, fmt.Errorf("empty watermark entry")
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parse watermark entry %q: %w", line, err)
	}

	readable := strings.TrimSpace(line[len(fields[0]):])
	readable = strings.TrimSpace(strings.TrimPrefix(readable, SEPARATOR))
	return Entry{Timestamp: ts, Readable: readable}, nil
}

// Log keeps one log file per post under <dir>/<post id>/.
type Log struct {
	dir string
	loc *time.Location
}

// NewLog creates a Log rooted at dir, readable times are rendered in loc.
func NewLog(dir string, loc *time.Location) Log {
	if loc == nil {
		loc = time.Local
	}
	return Log{dir: dir, loc: loc}
}

func (l Log) Path(postID string) string {
	return filepath.Join(l.dir, postID, FILENAME)
}

// Entries returns every committed entry in order, a missing log has no entries.
func (l Log) Entries(postID string) ([]Entry, error) {
	f, err := os.Open(l.Path(postID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := ParseEntry(line)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	err = scanner.Err()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Last returns the current watermark, 0 when the post has never completed a run.
func (l Log) Last(postID string) (int64, error) {
	entries, err := l.Entries(postID)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[len(entries)-1].Timestamp, nil
}

// Append commits a new entry. The file is synced before returning so a completed run is never
// forgotten after a crash.
func (l Log) Append(postID string, ts int64) (Entry, error) {
	path := l.Path(postID)
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Timestamp: ts,
		Readable:  time.Unix(ts, 0).In(l.loc).Format(READABLE_STYLE),
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return Entry{}, err
	}
	_, err = f.WriteString(entry.String() + "\n")
	if err != nil {
		f.Close()
		return Entry{}, err
	}
	err = f.Sync()
	if err != nil {
		f.Close()
		return Entry{}, err
	}
	return entry, f.Close()
}
