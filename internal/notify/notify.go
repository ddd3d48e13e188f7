package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"commentwatch/internal/tablestore"
	"commentwatch/lib/textutil"
)

const (
	TEMPLATE_RED    = "red"
	TEMPLATE_ORANGE = "orange"
	TEMPLATE_BLUE   = "blue"
)

// Message is rendered as an interactive card by webhooks and as plain text by email. Body is
// lark markdown.
type Message struct {
	Title    string
	Template string
	Body     string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi sends to every notifier, a failing notifier does not stop the rest.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		err := n.Notify(ctx, msg)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const (
	summaryLimit   = 20
	summaryMsgSize = 120
)

// KeywordSummary lists the comments of a run that matched a keyword.
func KeywordSummary(postID, postUrl string, matches []tablestore.Record) Message {
	lines := make([]string, 0, len(matches)+2)
	lines = append(lines, fmt.Sprintf(
		"[%s](%s) has **%d** new comments matching a keyword.",
		postID, postUrl, len(matches),
	))

	for i, r := range matches {
		if i >= summaryLimit {
			lines = append(lines, fmt.Sprintf("... and %d more", len(matches)-summaryLimit))
			break
		}
		lines = append(lines, fmt.Sprintf(
			"- **%s**: %s [link](%s)",
			r.Author,
			textutil.Truncate(textutil.SingleLine(r.Message), summaryMsgSize),
			r.Permalink,
		))
	}

	return Message{
		Title:    fmt.Sprintf("%s | %d keyword comments", postID, len(matches)),
		Template: TEMPLATE_RED,
		Body:     strings.Join(lines, "\n"),
	}
}
