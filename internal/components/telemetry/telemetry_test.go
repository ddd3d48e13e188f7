package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	mem := NewMemoryAPI()
	scoped := NewScopedAPI("crawler", mem)

	scoped.ReportBroken("crawler.fetch-new-comments", "boom")
	scoped.ReportCount("crawler.new-comments", 3)

	broken := mem.Reports(REPORT_BROKEN, "fetch-new-comments")
	require.Len(t, broken, 1)
	require.Equal(t, "crawler: crawler.fetch-new-comments", broken[0].ID)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	n, ok := mem.LastCount("new-comments")
	require.True(t, ok)
	require.Equal(t, int64(3), n)

	_, ok = mem.LastCount("keyword-matches")
	require.False(t, ok)
}

func TestSlogAPI(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tel := NewSlogAPI(logger)

	tel.ReportWarning("bilibili_client.replies", "page", 2)
	require.Contains(t, buf.String(), "id=bilibili_client.replies")
	require.Contains(t, buf.String(), "params.0=page")
	require.Contains(t, buf.String(), "params.1=2")

	buf.Reset()
	tel.ReportCount("crawler.new-comments", 7)
	require.Contains(t, buf.String(), "n=7")
}

type memoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.messages[id] = contents
}

func TestInstrumentResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	mem := NewMemoryAPI()
	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New().SetBaseURL(srv.URL)
	InstrumentResty(client, mem, out)

	_, err := client.R().Get("/x/web-interface/view")
	require.NoError(t, err)

	require.Len(t, mem.Reports(REPORT_DEBUG, report_resty_request), 1)
	require.Len(t, mem.Reports(REPORT_DEBUG, report_resty_response), 1)
	require.Contains(t, out.messages["1"], "---- RESPONSE ----")
	require.Contains(t, out.messages["1"], `{"code":0}`)
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(http.Header{}))
	require.Equal(
		t,
		"Accept: */*\nCookie: a=1\nCookie: b=2",
		formatHeaders(http.Header{
			"Cookie": {"a=1", "b=2"},
			"Accept": {"*/*"},
		}),
	)
}

func TestInstrumentPerfStats(t *testing.T) {
	mem := NewMemoryAPI()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	InstrumentPerfStats(ctx, mem, time.Millisecond*10)
	require.Eventually(t, func() bool {
		n, ok := mem.LastCount(report_perf_goroutines)
		return ok && n > 0
	}, time.Second*5, time.Millisecond*10)

	_, ok := mem.LastCount(report_perf_allocated_mb)
	require.True(t, ok)
}
