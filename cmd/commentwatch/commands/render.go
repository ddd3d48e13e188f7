package commands

import (
	"fmt"
	"io"
	"time"

	"commentwatch/internal/engagement"
	"commentwatch/internal/tablestore"
	"commentwatch/internal/watermark"
	"commentwatch/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const messageWidth = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func renderRecords(w io.Writer, records []tablestore.Record, loc *time.Location) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Comment", "Author", "Message", "Likes", "Created", "Location"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.CommentID,
			r.Author,
			textutil.Truncate(textutil.SingleLine(r.Message), messageWidth),
			r.LikeCount,
			time.Unix(r.CreatedAt, 0).In(loc).Format(watermark.READABLE_STYLE),
			r.Geolocation,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d comments", len(records))})
	t.Render()
}

func renderEntries(w io.Writer, entries []watermark.Entry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Watermark", "Time"})
	for i, e := range entries {
		t.AppendRow(table.Row{i + 1, e.Timestamp, e.Readable})
	}
	t.Render()
}

func renderReport(w io.Writer, r engagement.Report) {
	t := newTable(w)
	t.SetTitle("%s | %s", r.Owner, r.Title)
	t.AppendRows([]table.Row{
		{"Published", fmt.Sprintf("%d days %d hours ago", r.Days(), r.Hours())},
		{"Views", r.Stat.View},
		{"Likes", r.Stat.Like},
		{"Replies", r.Stat.Reply},
		{"Coins", r.Stat.Coin},
		{"Favorites", r.Stat.Favorite},
		{"Shares", r.Stat.Share},
		{"Danmaku", r.Stat.Danmaku},
		{"Interactions", r.InteractionTotal},
		{"Interaction ratio", fmt.Sprintf("%.2f%%", r.InteractionRatio)},
		{"Coin ratio", fmt.Sprintf("%.2f%%", r.CoinRatio)},
	})
	t.Render()
}
