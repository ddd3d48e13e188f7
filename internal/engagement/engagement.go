// Package engagement summarizes the public statistics of a video.
package engagement

import (
	"fmt"
	"time"

	"commentwatch/internal/bilibili"
	"commentwatch/internal/notify"
)

type Report struct {
	Bvid  string
	Title string
	Owner string
	Age   time.Duration
	Stat  bilibili.Stat

	// InteractionTotal is likes, replies, coins, favorites, shares and danmaku combined.
	InteractionTotal int64
	// InteractionRatio is the percentage of interactions per view.
	InteractionRatio float64
	// CoinRatio is the percentage of coins among interactions.
	CoinRatio float64
}

func Compute(view bilibili.View, now time.Time) Report {
	s := view.Stat
	total := s.Like + s.Reply + s.Coin + s.Favorite + s.Share + s.Danmaku

	var interactionRatio float64
	if s.View > 0 {
		interactionRatio = float64(total) / float64(s.View) * 100
	}
	var coinRatio float64
	if total > 0 {
		coinRatio = float64(s.Coin) / float64(total) * 100
	}

	age := now.Sub(time.Unix(view.Pubdate, 0))
	if age < 0 {
		age = 0
	}

	return Report{
		Bvid:             view.Bvid,
		Title:            view.Title,
		Owner:            view.Owner.Name,
		Age:              age,
		Stat:             s,
		InteractionTotal: total,
		InteractionRatio: interactionRatio,
		CoinRatio:        coinRatio,
	}
}

// Days and Hours split the age of the video for display.
func (r Report) Days() int {
	return int(r.Age / (24 * time.Hour))
}

func (r Report) Hours() int {
	return int(r.Age%(24*time.Hour)) / int(time.Hour)
}

func tenThousands(n int64) string {
	return fmt.Sprintf("%.1f 万", float64(n)/10000)
}

func (r Report) Message() notify.Message {
	body := fmt.Sprintf(
		"[该视频](%s)距今已发布 %d 天 %d 小时，当前 B 站播放量为 **%s**，\n\n"+
			"互动总数为 **%s**，互动占比为 **%.2f%%**，投币占比为 **%.2f%%**。\n\n"+
			"详细数据 👉 播放量: %d  互动总数: %d 点赞数: %d  评论数: %d  投币数: %d  收藏数: %d  转发数: %d  弹幕数: %d",
		bilibili.VideoUrl(r.Bvid),
		r.Days(), r.Hours(),
		tenThousands(r.Stat.View),
		tenThousands(r.InteractionTotal),
		r.InteractionRatio,
		r.CoinRatio,
		r.Stat.View,
		r.InteractionTotal,
		r.Stat.Like,
		r.Stat.Reply,
		r.Stat.Coin,
		r.Stat.Favorite,
		r.Stat.Share,
		r.Stat.Danmaku,
	)
	return notify.Message{
		Title:    fmt.Sprintf("%s | %s", r.Owner, r.Title),
		Template: notify.TEMPLATE_ORANGE,
		Body:     body,
	}
}
