// client.go only talks to the bilibili web API, it does not know about watermarks or tables.

package bilibili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"commentwatch/internal/components/assert"
	"commentwatch/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	report_client_view    = "client.view"
	report_client_replies = "client.replies"
)

const (
	DEFAULT_BASE_URL = "https://api.bilibili.com"
	VIDEO_URL        = "https://www.bilibili.com/video"

	// reply type 1 is a video, sort 0 orders by time with the newest first
	replyTypeVideo = "1"
	replySortTime  = "0"
)

// ErrRequest wraps transport failures and unexpected HTTP statuses.
var ErrRequest = errors.New("bilibili: request failed")

// Credential is the cookie bundle of a logged in session, it is passed through untouched.
type Credential struct {
	Sessdata    string
	BiliJct     string
	Buvid3      string
	DedeUserID  string
	AcTimeValue string
}

func (c Credential) cookies() []*http.Cookie {
	pairs := []struct{ name, value string }{
		{"SESSDATA", c.Sessdata},
		{"bili_jct", c.BiliJct},
		{"buvid3", c.Buvid3},
		{"DedeUserID", c.DedeUserID},
		{"ac_time_value", c.AcTimeValue},
	}
	var out []*http.Cookie
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: p.name, Value: p.value})
	}
	return out
}

type ClientOptions struct {
	// BaseUrl defaults to DEFAULT_BASE_URL
	BaseUrl    string
	Credential Credential
	// RequestsPerSecond <= 0 disables rate limiting
	RequestsPerSecond float64
	Timeout           time.Duration
	// PageSize is the `ps` parameter of the reply list, defaults to 20
	PageSize         int
	BrowserTransport bool
	// Output receives full HTTP message dumps, can be nil
	Output telemetry.InstrumentOutput
}

// Client is a read-only client for video metadata and the reply list of a video.
type Client struct {
	http     *resty.Client
	pageSize int
	tel      telemetry.API

	aidMutex sync.Mutex
	aids     map[string]int64
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("bilibili_client", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DEFAULT_BASE_URL
	}
	if opts.PageSize == 0 {
		opts.PageSize = 20
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	assert.Positive("page size", opts.PageSize)

	parsedBaseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	jar.SetCookies(parsedBaseUrl, opts.Credential.cookies())
	httpClient.SetCookieJar(jar)
	if opts.BrowserTransport {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetHeader("referer", "https://www.bilibili.com/")
	httpClient.SetTimeout(opts.Timeout)

	if opts.RequestsPerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return &Client{
		http:     httpClient,
		pageSize: opts.PageSize,
		tel:      tel,
		aids:     map[string]int64{},
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequest, endpoint, err)
	}
	if res.IsError() {
		return fmt.Errorf("%w: %s: status %s", ErrRequest, endpoint, res.Status())
	}

	var env envelope
	err = json.Unmarshal(res.Body(), &env)
	if err != nil {
		return fmt.Errorf("%s: decode envelope: %w", endpoint, err)
	}
	if env.Code != 0 {
		return &APIError{Endpoint: endpoint, Code: env.Code, Message: env.Message}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s: response has no data", endpoint)
	}
	err = json.Unmarshal(env.Data, out)
	if err != nil {
		return fmt.Errorf("%s: decode data: %w", endpoint, err)
	}
	return nil
}

// View fetches the metadata and statistics of a video.
func (c *Client) View(ctx context.Context, bvid string) (View, error) {
	var view View
	err := c.get(ctx, "/x/web-interface/view", url.Values{"bvid": {bvid}}, &view)
	if err != nil {
		c.tel.ReportBroken(report_client_view, err, bvid)
		return View{}, err
	}
	if view.Aid == 0 {
		err = fmt.Errorf("view of %s has no aid", bvid)
		c.tel.ReportBroken(report_client_view, err)
		return View{}, err
	}

	c.aidMutex.Lock()
	c.aids[bvid] = view.Aid
	c.aidMutex.Unlock()

	return view, nil
}

func (c *Client) aid(ctx context.Context, bvid string) (int64, error) {
	c.aidMutex.Lock()
	aid, ok := c.aids[bvid]
	c.aidMutex.Unlock()
	if ok {
		return aid, nil
	}

	view, err := c.View(ctx, bvid)
	if err != nil {
		return 0, err
	}
	return view.Aid, nil
}

// Replies fetches one page (starting at 1) of the top-level replies of a video, newest first.
func (c *Client) Replies(ctx context.Context, bvid string, page int) (ReplyPage, error) {
	aid, err := c.aid(ctx, bvid)
	if err != nil {
		return ReplyPage{}, fmt.Errorf("resolve aid: %w", err)
	}

	c.tel.ReportDebug(report_client_replies, bvid, page)

	var out ReplyPage
	err = c.get(ctx, "/x/v2/reply", url.Values{
		"type": {replyTypeVideo},
		"oid":  {strconv.FormatInt(aid, 10)},
		"pn":   {strconv.Itoa(page)},
		"ps":   {strconv.Itoa(c.pageSize)},
		"sort": {replySortTime},
	}, &out)
	if err != nil {
		c.tel.ReportBroken(report_client_replies, err, bvid, page)
		return ReplyPage{}, err
	}
	return out, nil
}

// Permalink links directly to a reply under a video.
func (c *Client) Permalink(bvid string, rpid int64) string {
	return Permalink(bvid, rpid)
}

func Permalink(bvid string, rpid int64) string {
	return fmt.Sprintf("%s/%s/#reply%d", VIDEO_URL, bvid, rpid)
}

// VideoUrl links to a video.
func VideoUrl(bvid string) string {
	return fmt.Sprintf("%s/%s", VIDEO_URL, bvid)
}
