package crawler

import (
	"context"
	"errors"
	"fmt"

	"commentwatch/internal/bilibili"
	"commentwatch/internal/components/assert"
	"commentwatch/internal/components/chrono"
	"commentwatch/internal/components/telemetry"
	"commentwatch/internal/notify"
	"commentwatch/internal/tablestore"
	"commentwatch/internal/watermark"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("commentwatch/crawler")

const (
	report_get_watermark     = "crawler.get-watermark"
	report_fetch_new         = "crawler.fetch-new-comments"
	report_flatten           = "crawler.flatten-and-filter"
	report_merge_and_persist = "crawler.merge-and-persist"
	report_commit_watermark  = "crawler.commit-watermark"
	report_notify            = "crawler.notify"
	report_run               = "crawler.run"

	report_count_new_comments    = "crawler.new-comments"
	report_count_keyword_hits    = "crawler.keyword-matches"
	report_count_table_size      = "crawler.table-size"
	report_count_pages_requested = "crawler.pages-requested"
)

var (
	// ErrWatermark is returned when the watermark log cannot be read or appended to.
	ErrWatermark = errors.New("crawler: watermark")
	// ErrPersist is returned when the output table cannot be loaded or saved, the watermark is
	// not committed.
	ErrPersist = errors.New("crawler: persist")
	// ErrInterrupted is returned when the context ends before the run completes.
	ErrInterrupted = errors.New("crawler: interrupted")
)

// Source is a paged list of top-level comments of a post, newest first.
type Source interface {
	Replies(ctx context.Context, postID string, page int) (bilibili.ReplyPage, error)
	Permalink(postID string, commentID int64) string
}

// Ledger is the append-only log of completed runs of a post.
type Ledger interface {
	// Last returns the watermark of the last completed run, 0 when there is none.
	Last(postID string) (int64, error)
	Append(postID string, ts int64) (watermark.Entry, error)
}

type Options struct {
	Keywords []string
	// Notifier receives a summary of keyword matches after a run is committed, can be nil.
	Notifier notify.Notifier
}

// Crawler runs one incremental fetch of a post at a time. Callers make sure a post is never
// crawled by two runs concurrently.
type Crawler struct {
	source   Source
	ledger   Ledger
	store    tablestore.Store
	time     chrono.TimeAPI
	tel      telemetry.API
	keywords []string
	notifier notify.Notifier
}

func NewCrawler(
	source Source,
	ledger Ledger,
	store tablestore.Store,
	time chrono.TimeAPI,
	tel telemetry.API,
	opts Options,
) Crawler {
	assert.NotNil(source)
	assert.NotNil(ledger)
	assert.NotNil(store)
	assert.NotNil(time)
	assert.NotNil(tel)

	return Crawler{
		source:   source,
		ledger:   ledger,
		store:    store,
		time:     time,
		tel:      telemetry.NewScopedAPI("crawler", tel),
		keywords: opts.Keywords,
		notifier: opts.Notifier,
	}
}

type RunResult struct {
	RunID  string
	PostID string
	// Watermark is the watermark the run started from.
	Watermark int64
	Committed watermark.Entry
	// Fetched is the number of top-level comments newer than the watermark.
	Fetched   int
	Records   []tablestore.Record
	Matches   []tablestore.Record
	TableSize int
}

// Run reads the watermark, fetches and flattens everything newer, persists the merged table and
// only then commits a new watermark. A failed run commits nothing so the next run fetches the
// same window again.
func (c Crawler) Run(ctx context.Context, postID string) (RunResult, error) {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("post_id", postID),
		attribute.String("run_id", runID),
	)

	result, err := c.run(ctx, runID, postID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_run, err, postID, runID)
		return result, err
	}
	return result, nil
}

func (c Crawler) run(ctx context.Context, runID, postID string) (RunResult, error) {
	result := RunResult{RunID: runID, PostID: postID}
	startedAt := c.time.Now().Unix()

	w, err := c.GetWatermark(postID)
	if err != nil {
		return result, err
	}
	result.Watermark = w
	c.tel.ReportDebug("run started", runID, postID, w)

	raw := c.FetchNewComments(ctx, postID, w)
	if ctx.Err() != nil {
		return result, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}
	result.Fetched = len(raw)

	records := c.FlattenAndFilter(raw, postID, w)
	result.Records = records
	c.tel.ReportCount(report_count_new_comments, int64(len(records)))

	matches := ApplyKeywordFilter(records, c.keywords)
	result.Matches = matches
	c.tel.ReportCount(report_count_keyword_hits, int64(len(matches)))

	table, err := c.MergeAndPersist(ctx, postID, records)
	if err != nil {
		return result, err
	}
	result.TableSize = len(table)
	c.tel.ReportCount(report_count_table_size, int64(len(table)))

	// comments created while the run was fetching are newer than startedAt, they are picked up
	// by the next run
	commitTs := startedAt
	if commitTs < w {
		commitTs = w
	}
	entry, err := c.CommitWatermark(postID, commitTs)
	if err != nil {
		return result, err
	}
	result.Committed = entry

	if len(matches) > 0 && c.notifier != nil {
		msg := notify.KeywordSummary(postID, bilibili.VideoUrl(postID), matches)
		err = c.notifier.Notify(ctx, msg)
		if err != nil {
			c.tel.ReportWarning(report_notify, err, postID)
		}
	}

	return result, nil
}

func (c Crawler) GetWatermark(postID string) (int64, error) {
	w, err := c.ledger.Last(postID)
	if err != nil {
		c.tel.ReportBroken(report_get_watermark, err, postID)
		return 0, fmt.Errorf("%w: %w", ErrWatermark, err)
	}
	return w, nil
}

func (c Crawler) CommitWatermark(postID string, ts int64) (watermark.Entry, error) {
	entry, err := c.ledger.Append(postID, ts)
	if err != nil {
		c.tel.ReportBroken(report_commit_watermark, err, postID, ts)
		return watermark.Entry{}, fmt.Errorf("%w: %w", ErrWatermark, err)
	}
	return entry, nil
}
