package notify

import (
	"context"
	"fmt"
	"time"

	"commentwatch/internal/components/assert"
	"commentwatch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_feishu_notify = "feishu.notify"

type feishuText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type feishuElement struct {
	Tag  string     `json:"tag"`
	Text feishuText `json:"text"`
}

type feishuHeader struct {
	Title    feishuText `json:"title"`
	Template string     `json:"template"`
}

type feishuCard struct {
	Config struct {
		WideScreenMode bool `json:"wide_screen_mode"`
	} `json:"config"`
	Header   feishuHeader    `json:"header"`
	Elements []feishuElement `json:"elements"`
}

type feishuPayload struct {
	MsgType string     `json:"msg_type"`
	Card    feishuCard `json:"card"`
}

type feishuResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func newFeishuPayload(msg Message) feishuPayload {
	card := feishuCard{
		Header: feishuHeader{
			Title:    feishuText{Tag: "plain_text", Content: msg.Title},
			Template: msg.Template,
		},
		Elements: []feishuElement{{
			Tag:  "div",
			Text: feishuText{Tag: "lark_md", Content: msg.Body},
		}},
	}
	card.Config.WideScreenMode = true
	return feishuPayload{MsgType: "interactive", Card: card}
}

// Feishu posts interactive cards to a custom bot webhook.
type Feishu struct {
	url  string
	http *resty.Client
	tel  telemetry.API
}

func NewFeishu(webhook string, tel telemetry.API) Feishu {
	assert.NotEmptyStr(webhook)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("notify", tel)

	client := resty.New()
	client.SetTimeout(time.Second * 15)
	telemetry.InstrumentResty(client, tel, nil)

	return Feishu{url: webhook, http: client, tel: tel}
}

func (f Feishu) Notify(ctx context.Context, msg Message) error {
	var out feishuResponse
	res, err := f.http.R().
		SetContext(ctx).
		SetBody(newFeishuPayload(msg)).
		SetResult(&out).
		Post(f.url)
	if err != nil {
		f.tel.ReportBroken(report_feishu_notify, err)
		return fmt.Errorf("feishu: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("feishu: status %s", res.Status())
		f.tel.ReportBroken(report_feishu_notify, err, res.String())
		return err
	}
	if out.Code != 0 {
		err = fmt.Errorf("feishu: code %d: %s", out.Code, out.Msg)
		f.tel.ReportBroken(report_feishu_notify, err)
		return err
	}
	return nil
}
