package crawler

import (
	"errors"

	"commentwatch/internal/bilibili"
	"commentwatch/internal/tablestore"
	"commentwatch/lib/textutil"
)

var errMalformed = errors.New("malformed comment")

func (c Crawler) toRecord(postID string, r bilibili.Reply) (tablestore.Record, error) {
	if r.Rpid == nil || r.Ctime == nil || r.Member == nil || r.Content == nil {
		return tablestore.Record{}, errMalformed
	}
	geolocation := tablestore.UNKNOWN_GEOLOCATION
	if r.ReplyControl != nil && r.ReplyControl.Location != "" {
		geolocation = r.ReplyControl.Location
	}
	return tablestore.Record{
		Author:      r.Member.Uname,
		Message:     r.Content.Message,
		LikeCount:   r.Like,
		CreatedAt:   *r.Ctime,
		Geolocation: geolocation,
		CommentID:   *r.Rpid,
		Permalink:   c.source.Permalink(postID, *r.Rpid),
	}, nil
}

// FlattenAndFilter turns every comment and every nested reply into its own record, in pre-order.
// A node becomes a record only when it was created after the watermark, its replies are visited
// either way. Malformed nodes are reported and dropped.
func (c Crawler) FlattenAndFilter(raw []bilibili.Reply, postID string, watermark int64) []tablestore.Record {
	var out []tablestore.Record

	stack := make([]bilibili.Reply, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		stack = append(stack, raw[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := len(node.Replies) - 1; i >= 0; i-- {
			stack = append(stack, node.Replies[i])
		}

		rec, err := c.toRecord(postID, node)
		if err != nil {
			var id any = "<missing>"
			if node.Rpid != nil {
				id = *node.Rpid
			}
			c.tel.ReportWarning(report_flatten, err, postID, id)
			continue
		}
		if rec.CreatedAt <= watermark {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ApplyKeywordFilter returns the records whose message contains any of the keywords. It only
// selects records for reporting.
func ApplyKeywordFilter(records []tablestore.Record, keywords []string) []tablestore.Record {
	var out []tablestore.Record
	for _, r := range records {
		if textutil.ContainsAny(r.Message, keywords) {
			out = append(out, r)
		}
	}
	return out
}
