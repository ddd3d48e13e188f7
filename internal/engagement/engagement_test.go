package engagement

import (
	"strings"
	"testing"
	"time"

	"commentwatch/internal/bilibili"
	"commentwatch/internal/notify"

	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	view := bilibili.View{
		Bvid:    "BV1xx411c7mD",
		Title:   "test video",
		Pubdate: 1700000000,
		Owner:   bilibili.Owner{Name: "uploader"},
		Stat: bilibili.Stat{
			View:     20000,
			Like:     600,
			Reply:    100,
			Coin:     200,
			Favorite: 50,
			Share:    30,
			Danmaku:  20,
		},
	}
	now := time.Unix(1700000000, 0).Add(2*24*time.Hour + 5*time.Hour + 30*time.Minute)

	r := Compute(view, now)
	require.Equal(t, int64(1000), r.InteractionTotal)
	require.InDelta(t, 5.0, r.InteractionRatio, 1e-9)
	require.InDelta(t, 20.0, r.CoinRatio, 1e-9)
	require.Equal(t, 2, r.Days())
	require.Equal(t, 5, r.Hours())

	msg := r.Message()
	require.Equal(t, "uploader | test video", msg.Title)
	require.Equal(t, notify.TEMPLATE_ORANGE, msg.Template)
	require.True(t, strings.HasPrefix(msg.Body, "[该视频](https://www.bilibili.com/video/BV1xx411c7mD)距今已发布 2 天 5 小时"))
	require.Contains(t, msg.Body, "当前 B 站播放量为 **2.0 万**")
	require.Contains(t, msg.Body, "互动占比为 **5.00%**，投币占比为 **20.00%**")
	require.Contains(t, msg.Body, "弹幕数: 20")
}

func TestComputeZeroes(t *testing.T) {
	r := Compute(bilibili.View{Pubdate: 1700000000}, time.Unix(1600000000, 0))
	require.Equal(t, int64(0), r.InteractionTotal)
	require.Equal(t, 0.0, r.InteractionRatio)
	require.Equal(t, 0.0, r.CoinRatio)
	require.Equal(t, time.Duration(0), r.Age)

	// views can lag behind interactions right after publishing
	r = Compute(bilibili.View{Stat: bilibili.Stat{Like: 5}}, time.Unix(0, 0))
	require.Equal(t, 0.0, r.InteractionRatio)
	require.InDelta(t, 0.0, r.CoinRatio, 1e-9)
}
