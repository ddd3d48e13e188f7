package tablestore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const UNKNOWN_GEOLOCATION = "unknown"

// COLUMNS is the header of every persisted table, in order.
var COLUMNS = []string{
	"author",
	"message",
	"like_count",
	"created_at",
	"geolocation",
	"comment_id",
	"permalink",
}

// Record is one flattened comment, replies become records of their own.
type Record struct {
	Author      string
	Message     string
	LikeCount   int64
	CreatedAt   int64
	Geolocation string
	CommentID   int64
	Permalink   string
}

func (r Record) row() []any {
	return []any{
		r.Author,
		r.Message,
		r.LikeCount,
		r.CreatedAt,
		r.Geolocation,
		r.CommentID,
		r.Permalink,
	}
}

// parseInt accepts integers written as floats, spreadsheets written by other tools store
// every number as a double.
func parseInt(column, value string) (int64, error) {
	value = strings.TrimSpace(value)
	n, err := strconv.ParseInt(value, 10, 64)
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(value, 64)
	if ferr != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("column %s: %q is not an integer", column, value)
	}
	return int64(f), nil
}

// Store persists the output table of a post. Save replaces the whole table.
type Store interface {
	// Load returns the persisted table in order, an absent table is empty, not an error.
	Load(ctx context.Context, postID string) ([]Record, error)
	Save(ctx context.Context, postID string, records []Record) error
	// Location describes where the table of a post lives.
	Location(postID string) string
}
