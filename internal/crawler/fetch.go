package crawler

import (
	"context"

	"commentwatch/internal/bilibili"
)

// FetchNewComments pages through the top-level comments of a post from page 1, keeping those
// created after the watermark. Paging stops at the first page without newer comments or at the
// last page announced by the API. A failed page ends paging and what was fetched so far is
// returned.
//
// The early stop relies on the source listing comments newest first, an older comment listed
// before a newer one on a later page would be missed.
func (c Crawler) FetchNewComments(ctx context.Context, postID string, watermark int64) []bilibili.Reply {
	var out []bilibili.Reply
	page := 1
	for {
		res, err := c.source.Replies(ctx, postID, page)
		c.tel.ReportCount(report_count_pages_requested, int64(page))
		if err != nil {
			c.tel.ReportBroken(report_fetch_new, err, postID, page)
			break
		}

		fresh := 0
		for _, r := range res.Replies {
			createdAt, ok := r.CreatedAt()
			if !ok {
				c.tel.ReportWarning(report_fetch_new, "top-level comment without creation time", postID, page)
				continue
			}
			if createdAt <= watermark {
				continue
			}
			out = append(out, r)
			fresh++
		}
		c.tel.ReportDebug("fetched page", postID, page, len(res.Replies), fresh)

		if fresh == 0 || page >= res.Page.LastPage() {
			break
		}
		page++
	}
	return out
}
