package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainsAny(t *testing.T) {
	table := []struct {
		text     string
		keywords []string
		expected bool
	}{
		{text: "great ad here", keywords: []string{"ad"}, expected: true},
		{text: "nice", keywords: []string{"ad"}, expected: false},
		{text: "这期恰饭了", keywords: []string{"广告", "恰饭"}, expected: true},
		{text: "Great AD", keywords: []string{"ad"}, expected: false},
		{text: "anything", keywords: []string{""}, expected: false},
		{text: "anything", keywords: nil, expected: false},
	}

	for _, row := range table {
		require.Equal(t, row.expected, ContainsAny(row.text, row.keywords), row.text)
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 10))
	require.Equal(t, "字幕组…", Truncate("字幕组辛苦了", 3))
	require.Equal(t, "", Truncate("anything", 0))
}

func TestSingleLine(t *testing.T) {
	require.Equal(t, "first line second line", SingleLine("first line\n\nsecond  line\t"))
}
