package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"commentwatch/internal/bilibili"
	"commentwatch/internal/components/chrono"
	"commentwatch/internal/components/telemetry"
	"commentwatch/internal/config"
	"commentwatch/internal/crawler"
	"commentwatch/internal/notify"
	"commentwatch/internal/tablestore"
	"commentwatch/internal/watermark"
	"commentwatch/lib/restyutil"
)

const LOG_FILENAME = "crawler.log"

// app holds everything a command needs, built from the config file.
type app struct {
	cfg    config.Config
	time   chrono.TimeAPI
	level  slog.Level
	tel    telemetry.API
	client *bilibili.Client
	ledger watermark.Log
	store  tablestore.Store
	feishu *notify.Feishu
	notify notify.Notifier

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	loc, err := chrono.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	a := &app{
		cfg:    cfg,
		time:   chrono.NewStandardTime(loc),
		level:  slog.LevelInfo,
		ledger: watermark.NewLog(cfg.DataDir, loc),
	}
	if *verbose {
		a.level = slog.LevelDebug
	}
	a.tel = telemetry.NewSlogAPI(a.logger(os.Stderr))

	var output telemetry.InstrumentOutput
	if *dumpHttp != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(*dumpHttp)
		if err != nil {
			return nil, err
		}
		output = fsOutput
	}

	a.client, err = bilibili.NewClient(bilibili.ClientOptions{
		BaseUrl: cfg.Api.BaseUrl,
		Credential: bilibili.Credential{
			Sessdata:    cfg.Credential.Sessdata,
			BiliJct:     cfg.Credential.BiliJct,
			Buvid3:      cfg.Credential.Buvid3,
			DedeUserID:  cfg.Credential.DedeUserID,
			AcTimeValue: cfg.Credential.AcTimeValue,
		},
		RequestsPerSecond: cfg.Api.RequestsPerSecond,
		Timeout:           time.Duration(cfg.Api.TimeoutSeconds) * time.Second,
		PageSize:          cfg.Api.PageSize,
		BrowserTransport:  !cfg.Api.DisableBrowserTransport,
		Output:            output,
	}, a.tel)
	if err != nil {
		return nil, err
	}

	err = a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.setupNotify()

	return a, nil
}

func (a *app) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: a.level}))
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Table.Format {
	case config.TABLE_SQLITE:
		path := a.cfg.Table.SqliteFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.cfg.DataDir, path)
		}
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return err
		}
		store, err := tablestore.OpenSQLite(ctx, path)
		if err != nil {
			return fmt.Errorf("open sqlite table: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	case config.TABLE_LIBSQL:
		store, err := tablestore.OpenLibsql(ctx, a.cfg.Table.LibsqlUrl, a.cfg.Table.LibsqlAuthToken)
		if err != nil {
			return fmt.Errorf("open libsql table: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	default:
		a.store = tablestore.NewXLSXStore(a.cfg.DataDir)
	}
	return nil
}

func (a *app) setupNotify() {
	var targets notify.Multi
	if a.cfg.Notify.FeishuWebhook != "" {
		feishu := notify.NewFeishu(a.cfg.Notify.FeishuWebhook, a.tel)
		a.feishu = &feishu
		targets = append(targets, feishu)
	}
	if a.cfg.Notify.Email.Enabled() {
		e := a.cfg.Notify.Email
		targets = append(targets, notify.NewEmail(notify.SmtpOptions{
			Host:     e.Host,
			Port:     e.Port,
			Username: e.Username,
			Password: e.Password,
			From:     e.From,
			To:       e.To,
		}, a.tel))
	}
	if len(targets) > 0 {
		a.notify = targets
	}
}

// crawlerFor builds a crawler whose reports also go to the log file of the post.
func (a *app) crawlerFor(postID string) (crawler.Crawler, func() error, error) {
	path := filepath.Join(a.cfg.DataDir, postID, LOG_FILENAME)
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return crawler.Crawler{}, nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return crawler.Crawler{}, nil, err
	}

	tel := telemetry.NewSlogAPI(a.logger(io.MultiWriter(os.Stderr, f)))
	c := crawler.NewCrawler(a.client, a.ledger, a.store, a.time, tel, crawler.Options{
		Keywords: a.cfg.Keywords,
		Notifier: a.notify,
	})
	return c, f.Close, nil
}

func (a *app) Close() error {
	var errs []error
	for _, fn := range a.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}
