package crawler

import (
	"context"
	"errors"
	"os"
	"testing"

	"commentwatch/internal/bilibili"
	"commentwatch/internal/components/telemetry"
	"commentwatch/internal/tablestore"

	"github.com/stretchr/testify/require"
)

func appendRaw(path, contents string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(contents)
	return err
}

func ids(records []tablestore.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.CommentID
	}
	return out
}

func TestFlattenAndFilter(t *testing.T) {
	env := newTestEnv(t, &fakeSource{})
	raw := []bilibili.Reply{
		reply(1, 100, "a", "parent",
			reply(2, 300, "b", "new child",
				reply(4, 50, "d", "old grandchild"),
				reply(5, 400, "e", "new grandchild"),
			),
			reply(3, 150, "c", "old child"),
		),
		reply(6, 500, "f", "sibling"),
	}

	for _, row := range []struct {
		watermark int64
		expected  []int64
	}{
		{watermark: 0, expected: []int64{1, 2, 4, 5, 3, 6}},
		{watermark: 150, expected: []int64{2, 5, 6}},
		{watermark: 100, expected: []int64{2, 5, 3, 6}},
		{watermark: 500, expected: []int64{}},
	} {
		records := env.crawler.FlattenAndFilter(raw, post, row.watermark)
		require.Equal(t, row.expected, ids(records), "watermark %d", row.watermark)
		for _, r := range records {
			require.Greater(t, r.CreatedAt, row.watermark)
		}
	}
}

func TestFlattenGeolocation(t *testing.T) {
	env := newTestEnv(t, &fakeSource{})
	located := reply(1, 100, "a", "m")
	located.Like = 7
	located.ReplyControl = &bilibili.ReplyControl{Location: "IP属地：北京"}
	blank := reply(2, 100, "b", "m")
	blank.ReplyControl = &bilibili.ReplyControl{}

	records := env.crawler.FlattenAndFilter([]bilibili.Reply{located, blank}, post, 0)
	require.Len(t, records, 2)
	require.Equal(t, "IP属地：北京", records[0].Geolocation)
	require.Equal(t, int64(7), records[0].LikeCount)
	require.Equal(t, "https://www.bilibili.com/video/BV1xx411c7mD/#reply1", records[0].Permalink)
	require.Equal(t, tablestore.UNKNOWN_GEOLOCATION, records[1].Geolocation)
}

func TestFlattenMalformed(t *testing.T) {
	env := newTestEnv(t, &fakeSource{})

	noAuthor := reply(1, 100, "", "m", reply(2, 100, "b", "child of malformed"))
	noAuthor.Member = nil
	noID := reply(0, 100, "c", "m")
	noID.Rpid = nil
	noTime := reply(3, 0, "d", "m")
	noTime.Ctime = nil
	noContent := reply(4, 100, "e", "")
	noContent.Content = nil

	records := env.crawler.FlattenAndFilter(
		[]bilibili.Reply{noAuthor, noID, noTime, noContent, reply(5, 100, "f", "ok")},
		post,
		0,
	)
	require.Equal(t, []int64{2, 5}, ids(records))
	require.Len(t, env.tel.Reports(telemetry.REPORT_WARNING, report_flatten), 4)
}

func TestFlattenDeepNesting(t *testing.T) {
	env := newTestEnv(t, &fakeSource{})

	const depth = 100000
	node := reply(depth, depth, "a", "m")
	for i := int64(depth - 1); i >= 1; i-- {
		node = reply(i, i, "a", "m", node)
	}

	records := env.crawler.FlattenAndFilter([]bilibili.Reply{node}, post, 0)
	require.Len(t, records, depth)
	require.Equal(t, int64(1), records[0].CommentID)
	require.Equal(t, int64(depth), records[depth-1].CommentID)
}

func TestApplyKeywordFilter(t *testing.T) {
	records := []tablestore.Record{
		record(1, 1, "a", "great ad here"),
		record(2, 2, "b", "nice"),
	}
	require.Equal(t, []tablestore.Record{records[0]}, ApplyKeywordFilter(records, []string{"ad"}))
	require.Empty(t, ApplyKeywordFilter(records, nil))
	require.Empty(t, ApplyKeywordFilter(nil, []string{"ad"}))
}

func page(num, size, count int, replies ...bilibili.Reply) bilibili.ReplyPage {
	return bilibili.ReplyPage{
		Page:    bilibili.Pagination{Num: num, Size: size, Count: count},
		Replies: replies,
	}
}

func TestFetchStopsAtLastPage(t *testing.T) {
	source := &fakeSource{pages: map[int]bilibili.ReplyPage{
		1: page(1, 2, 5, reply(10, 900, "a", "m"), reply(9, 800, "a", "m")),
		2: page(2, 2, 5, reply(8, 700, "a", "m"), reply(7, 600, "a", "m")),
		3: page(3, 2, 5, reply(6, 500, "a", "m")),
		4: page(4, 2, 5, reply(5, 400, "a", "m")),
	}}
	env := newTestEnv(t, source)

	raw := env.crawler.FetchNewComments(context.Background(), post, 0)
	require.Len(t, raw, 5)
	require.Equal(t, []int{1, 2, 3}, source.requested)
}

func TestFetchStopsAtOldPage(t *testing.T) {
	source := &fakeSource{pages: map[int]bilibili.ReplyPage{
		1: page(1, 2, 10, reply(10, 900, "a", "m"), reply(9, 800, "a", "m")),
		2: page(2, 2, 10, reply(8, 700, "a", "m"), reply(7, 600, "a", "m")),
		3: page(3, 2, 10, reply(6, 500, "a", "m"), reply(5, 400, "a", "m")),
	}}
	env := newTestEnv(t, source)

	raw := env.crawler.FetchNewComments(context.Background(), post, 650)
	require.Len(t, raw, 3)
	// page 2 still had a newer comment, page 3 had none
	require.Equal(t, []int{1, 2, 3}, source.requested)

	source.requested = nil
	raw = env.crawler.FetchNewComments(context.Background(), post, 800)
	require.Len(t, raw, 1)
	require.Equal(t, []int{1, 2}, source.requested)
}

func TestFetchEmptyPage(t *testing.T) {
	source := &fakeSource{}
	env := newTestEnv(t, source)

	require.Empty(t, env.crawler.FetchNewComments(context.Background(), post, 0))
	require.Equal(t, []int{1}, source.requested)
}

func TestFetchPageError(t *testing.T) {
	source := &fakeSource{
		pages: map[int]bilibili.ReplyPage{
			1: page(1, 1, 3, reply(3, 300, "a", "m")),
		},
		errs: map[int]error{2: errors.New("status 412")},
	}
	env := newTestEnv(t, source)

	raw := env.crawler.FetchNewComments(context.Background(), post, 0)
	require.Len(t, raw, 1)
	require.Equal(t, []int{1, 2}, source.requested)
	require.Len(t, env.tel.Reports(telemetry.REPORT_BROKEN, report_fetch_new), 1)

	// partial results are still persisted and committed
	result, err := env.crawler.Run(context.Background(), post)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Len(t, env.entries(t), 1)
}

func TestFetchSkipsUndatedTopLevel(t *testing.T) {
	undated := reply(2, 0, "a", "m")
	undated.Ctime = nil
	source := &fakeSource{pages: map[int]bilibili.ReplyPage{
		1: page(1, 20, 2, undated, reply(1, 100, "b", "m")),
	}}
	env := newTestEnv(t, source)

	raw := env.crawler.FetchNewComments(context.Background(), post, 0)
	require.Len(t, raw, 1)
	require.Equal(t, int64(1), *raw[0].Rpid)
	require.Len(t, env.tel.Reports(telemetry.REPORT_WARNING, report_fetch_new), 1)
}
