package bilibili

import (
	"encoding/json"
	"fmt"
)

// envelope is the wrapper around every response of api.bilibili.com.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is returned when the API answers with a non-zero code.
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bilibili: %s: code %d: %s", e.Endpoint, e.Code, e.Message)
}

type Member struct {
	Uname string `json:"uname"`
}

type Content struct {
	Message string `json:"message"`
}

type ReplyControl struct {
	Location string `json:"location"`
}

// Reply is a single comment node. Fields the crawler depends on are pointers so that a
// missing field can be told apart from a zero value.
type Reply struct {
	Rpid         *int64        `json:"rpid"`
	Ctime        *int64        `json:"ctime"`
	Like         int64         `json:"like"`
	Member       *Member       `json:"member"`
	Content      *Content      `json:"content"`
	ReplyControl *ReplyControl `json:"reply_control"`
	Replies      []Reply       `json:"replies"`
}

// CreatedAt returns the creation time in epoch seconds, ok is false when the field is missing.
func (r Reply) CreatedAt() (int64, bool) {
	if r.Ctime == nil {
		return 0, false
	}
	return *r.Ctime, true
}

// Pagination is the `page` block of the reply list.
type Pagination struct {
	Num   int `json:"num"`
	Size  int `json:"size"`
	Count int `json:"count"`
}

// LastPage is count / size plus one for the partial final page.
func (p Pagination) LastPage() int {
	if p.Size <= 0 {
		return 0
	}
	return p.Count/p.Size + 1
}

type ReplyPage struct {
	Page    Pagination `json:"page"`
	Replies []Reply    `json:"replies"`
}

type Owner struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
}

type Stat struct {
	View     int64 `json:"view"`
	Danmaku  int64 `json:"danmaku"`
	Reply    int64 `json:"reply"`
	Favorite int64 `json:"favorite"`
	Coin     int64 `json:"coin"`
	Share    int64 `json:"share"`
	Like     int64 `json:"like"`
}

// View is the subset of /x/web-interface/view used here.
type View struct {
	Bvid    string `json:"bvid"`
	Aid     int64  `json:"aid"`
	Title   string `json:"title"`
	Pubdate int64  `json:"pubdate"`
	Owner   Owner  `json:"owner"`
	Stat    Stat   `json:"stat"`
}
