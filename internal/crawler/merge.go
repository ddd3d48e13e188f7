package crawler

import (
	"context"
	"fmt"

	"commentwatch/internal/tablestore"
)

// Merge appends fresh to existing and drops every record whose comment id was already seen,
// so existing rows win over re-fetched ones.
func Merge(existing, fresh []tablestore.Record) []tablestore.Record {
	seen := make(map[int64]struct{}, len(existing)+len(fresh))
	out := make([]tablestore.Record, 0, len(existing)+len(fresh))
	for _, list := range [][]tablestore.Record{existing, fresh} {
		for _, r := range list {
			if _, ok := seen[r.CommentID]; ok {
				continue
			}
			seen[r.CommentID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// MergeAndPersist loads the table of a post, merges the fresh records into it and writes the
// whole table back.
func (c Crawler) MergeAndPersist(ctx context.Context, postID string, fresh []tablestore.Record) ([]tablestore.Record, error) {
	existing, err := c.store.Load(ctx, postID)
	if err != nil {
		c.tel.ReportBroken(report_merge_and_persist, err, "load", postID)
		return nil, fmt.Errorf("%w: load %s: %w", ErrPersist, c.store.Location(postID), err)
	}

	merged := Merge(existing, fresh)
	err = c.store.Save(ctx, postID, merged)
	if err != nil {
		c.tel.ReportBroken(report_merge_and_persist, err, "save", postID)
		return nil, fmt.Errorf("%w: save %s: %w", ErrPersist, c.store.Location(postID), err)
	}
	c.tel.ReportDebug("table saved", c.store.Location(postID), len(existing), len(merged))
	return merged, nil
}
