package watermark

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var shanghai = time.FixedZone("CST", 8*60*60)

func TestLogFirstRun(t *testing.T) {
	log := NewLog(t.TempDir(), shanghai)

	ts, err := log.Last("BV1xx411c7mD")
	require.NoError(t, err)
	require.Equal(t, int64(0), ts)

	entries, err := log.Entries("BV1xx411c7mD")
	require.NoError(t, err)
	require.Empty(t, entries)

	// an empty file is the same as no file
	path := log.Path("BV1xx411c7mD")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
	require.NoError(t, os.WriteFile(path, nil, 0644))
	ts, err = log.Last("BV1xx411c7mD")
	require.NoError(t, err)
	require.Equal(t, int64(0), ts)
}

func TestLogAppend(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(dir, shanghai)

	entry, err := log.Append("BV1xx411c7mD", 1700000000)
	require.NoError(t, err)
	require.Equal(t, "2023/11/15 06:13", entry.Readable)

	_, err = log.Append("BV1xx411c7mD", 1700003600)
	require.NoError(t, err)

	ts, err := log.Last("BV1xx411c7mD")
	require.NoError(t, err)
	require.Equal(t, int64(1700003600), ts)

	contents, err := os.ReadFile(filepath.Join(dir, "BV1xx411c7mD", FILENAME))
	require.NoError(t, err)
	require.Equal(
		t,
		"1700000000 ## 2023/11/15 06:13\n1700003600 ## 2023/11/15 07:13\n",
		string(contents),
	)

	entries, err := log.Entries("BV1xx411c7mD")
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Timestamp: 1700000000, Readable: "2023/11/15 06:13"},
		{Timestamp: 1700003600, Readable: "2023/11/15 07:13"},
	}, entries)

	// posts do not share state
	ts, err = log.Last("BV1other")
	require.NoError(t, err)
	require.Equal(t, int64(0), ts)
}

func TestParseEntry(t *testing.T) {
	table := []struct {
		line     string
		expected Entry
		fails    bool
	}{
		{line: "1700000000 ## 2023/11/15 06:13", expected: Entry{Timestamp: 1700000000, Readable: "2023/11/15 06:13"}},
		{line: "1700000000", expected: Entry{Timestamp: 1700000000}},
		{line: "  42 ##   1970/01/01 08:00  ", expected: Entry{Timestamp: 42, Readable: "1970/01/01 08:00"}},
		{line: "yesterday ## 2023/11/15 06:13", fails: true},
		{line: "   ", fails: true},
	}

	for _, row := range table {
		entry, err := ParseEntry(row.line)
		if row.fails {
			require.Error(t, err, row.line)
			continue
		}
		require.NoError(t, err, row.line)
		require.Equal(t, row.expected, entry)
	}
}

func TestLogCorrupt(t *testing.T) {
	log := NewLog(t.TempDir(), shanghai)
	path := log.Path("BV1xx411c7mD")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
	require.NoError(t, os.WriteFile(path, []byte("1700000000 ## 2023/11/15 06:13\ngarbage\n"), 0644))

	_, err := log.Last("BV1xx411c7mD")
	require.Error(t, err)
}
